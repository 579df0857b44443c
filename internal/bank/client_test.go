package bank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDashboard_LatestPurchase(t *testing.T) {
	body := []byte(`{"userId":12,"income":3000,"expenditures":1200,"score":710,
		"amount":"42.50","merchant":"Corner Grocery","purchase_time":"2025-06-01T09:00:00","category":"groceries",
		"days":60,"saved":1000}`)

	d, err := ParseDashboard(body, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.UserID != 12 || d.Income != 3000 || d.Saved != 1000 {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.Days == nil || *d.Days != 60 {
		t.Fatalf("Days = %v, want 60", d.Days)
	}
	if d.GoalAmount != nil {
		t.Errorf("GoalAmount = %v, want nil", *d.GoalAmount)
	}

	recs := d.Records()
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	r := recs[0]
	if r.Amount != 42.5 || r.Timestamp != "2025-06-01T09:00:00" || r.UserID != 12 {
		t.Errorf("record = %+v", r)
	}
}

func TestParseDashboard_NoPurchase(t *testing.T) {
	d, err := ParseDashboard([]byte(`{"userId":1,"income":2000,"amount":null,"merchant":null,"days":null,"saved":null}`), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Purchases) != 0 {
		t.Errorf("purchases = %v, want none", d.Purchases)
	}
	if d.Days != nil {
		t.Errorf("Days = %v, want nil", *d.Days)
	}
	if d.Saved != 0 {
		t.Errorf("Saved = %v, want 0", d.Saved)
	}
}

func TestParseDashboard_PurchaseList(t *testing.T) {
	body := []byte(`{"user_id":"5","income":4000,"goal_amount":8000,"purchases":[
		{"ts":"2025-01-01","amount":1},{"ts":"2025-01-02","amount":2},"junk"]}`)
	d, err := ParseDashboard(body, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.UserID != 5 {
		t.Errorf("UserID = %d, want 5", d.UserID)
	}
	if d.GoalAmount == nil || *d.GoalAmount != 8000 {
		t.Errorf("GoalAmount = %v, want 8000", d.GoalAmount)
	}
	if len(d.Records()) != 2 {
		t.Fatalf("records = %d, want 2", len(d.Records()))
	}
}

func TestParseDashboard_Invalid(t *testing.T) {
	if _, err := ParseDashboard([]byte(`nope`), 0); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseDashboard([]byte(`null`), 0); err == nil {
		t.Fatal("expected error for null body")
	}
}

func TestClient_FetchDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboard/7":
			if got := r.Header.Get("Authorization"); got != "Bearer k" {
				t.Errorf("Authorization = %q", got)
			}
			if got := r.Header.Get("X-User-Id"); got != "7" {
				t.Errorf("X-User-Id = %q", got)
			}
			_, _ = w.Write([]byte(`{"userId":7,"income":3000,"saved":100}`))
		case "/dashboard/8":
			w.WriteHeader(http.StatusNotFound)
		case "/dashboard/9":
			w.WriteHeader(http.StatusUnauthorized)
		case "/dashboard/10":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k", 0)
	d, err := c.FetchDashboard(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if d.UserID != 7 || d.Income != 3000 {
		t.Errorf("dashboard = %+v", d)
	}

	tests := []struct {
		id   int
		want error
	}{
		{8, ErrNotFound},
		{9, ErrUnauthorized},
		{10, ErrRateLimited},
	}
	for _, tt := range tests {
		if _, err := c.FetchDashboard(context.Background(), tt.id); !errors.Is(err, tt.want) {
			t.Errorf("FetchDashboard(%d) err = %v, want %v", tt.id, err, tt.want)
		}
	}
	if _, err := c.FetchDashboard(context.Background(), 11); err == nil {
		t.Error("expected error for 500")
	}
}

func TestNewClient_EmptyURL(t *testing.T) {
	if c := NewClient("  ", "k", 0); c != nil {
		t.Fatal("NewClient(empty) != nil")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.json")
	if err := os.WriteFile(path, []byte(`{"income":2500,"saved":50}`), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err := FileSource{Path: path}.FetchDashboard(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if d.UserID != 4 || d.Income != 2500 {
		t.Errorf("dashboard = %+v", d)
	}
	if _, err := (FileSource{Path: path + ".missing"}).FetchDashboard(context.Background(), 4); err == nil {
		t.Error("expected error for missing file")
	}
}
