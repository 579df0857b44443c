package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/nestegg/internal/model"
)

func rec(ts string, amount float64) model.PurchaseRecord {
	return model.PurchaseRecord{UserID: 1, Timestamp: ts, Merchant: "m", Category: "c", Amount: amount}
}

func TestAggregateDays_DenseWindow(t *testing.T) {
	h := model.UserHistory{UserID: 1, Records: []model.PurchaseRecord{
		rec("2024-03-01T09:00:00", 10),
		rec("2024-03-01T18:30:00", 5),
		rec("2024-03-03", 7),
	}}

	days := AggregateDays(h, 5, time.Now())
	want := []float64{0, 0, 15, 0, 7}
	if len(days) != len(want) {
		t.Fatalf("len = %d, want %d", len(days), len(want))
	}
	for i, w := range want {
		if days[i].Amount != w {
			t.Errorf("day %d (%s) = %v, want %v", i, days[i].Date.Format("2006-01-02"), days[i].Amount, w)
		}
	}
	if got := days[0].Date.Format("2006-01-02"); got != "2024-02-28" {
		t.Errorf("first day = %s, want 2024-02-28", got)
	}
	if got := days.Total(); got != 22 {
		t.Errorf("total = %v, want 22", got)
	}
}

func TestAggregateDays_KeepsOwnCalendarDate(t *testing.T) {
	h := model.UserHistory{Records: []model.PurchaseRecord{
		rec("2024-03-01T23:30:00-05:00", 4),
	}}
	days := AggregateDays(h, 1, time.Now())
	if len(days) != 1 {
		t.Fatalf("len = %d, want 1", len(days))
	}
	if got := days[0].Date.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("date = %s, want 2024-03-01", got)
	}
}

func TestAggregateDays_NoDatedRecords(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	h := model.UserHistory{Records: []model.PurchaseRecord{rec("", 20), rec("not a date", 5)}}

	days := AggregateDays(h, 3, now)
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3", len(days))
	}
	if days.Total() != 0 {
		t.Errorf("total = %v, want 0", days.Total())
	}
	if got := days[2].Date.Format("2006-01-02"); got != "2024-06-10" {
		t.Errorf("last day = %s, want 2024-06-10", got)
	}
}

func TestAggregateDays_DropsOutsideWindow(t *testing.T) {
	h := model.UserHistory{Records: []model.PurchaseRecord{
		rec("2024-01-01", 100),
		rec("2024-03-10", 3),
		rec("2024-03-09", 2),
	}}
	days := AggregateDays(h, 7, time.Now())
	if got := days.Total(); got != 5 {
		t.Errorf("total = %v, want 5", got)
	}
}

func TestPadSeries(t *testing.T) {
	tests := []struct {
		name     string
		in       []float64
		fallback float64
		want     []float64
	}{
		{"empty uses fallback", nil, 4, []float64{4, 4, 4}},
		{"short uses mean", []float64{2, 4}, 99, []float64{3, 2, 4}},
		{"long unchanged", []float64{1, 2, 3, 4}, 0, []float64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadSeries(tt.in, 3, tt.fallback)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBaselineDailySpend(t *testing.T) {
	if got := BaselineDailySpend(3000); math.Abs(got-60) > 1e-9 {
		t.Errorf("BaselineDailySpend(3000) = %v, want 60", got)
	}
}
