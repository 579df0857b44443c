package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/source"
)

func rec(ts, merchant string, amount float64) model.PurchaseRecord {
	return model.PurchaseRecord{Timestamp: ts, Merchant: merchant, Category: "groceries", Amount: amount}
}

func TestMerge_FirstRecord(t *testing.T) {
	s := NewHistoryStore(t.TempDir())

	h, appended, err := s.Merge(1, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})
	if err != nil {
		t.Fatal(err)
	}
	if !appended {
		t.Fatal("appended = false, want true")
	}
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
	if h.Records[0].UserID != 1 {
		t.Errorf("UserID = %d, want 1", h.Records[0].UserID)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	r := rec("2025-01-01T10:00:00", "A", 10)

	for i := 0; i < 3; i++ {
		if _, _, err := s.Merge(1, []model.PurchaseRecord{r}); err != nil {
			t.Fatal(err)
		}
	}
	h, appended, err := s.Merge(1, []model.PurchaseRecord{r})
	if err != nil {
		t.Fatal(err)
	}
	if appended {
		t.Error("duplicate poll appended")
	}
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
}

func TestMerge_NewTimestampAlwaysAppends(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	s.Merge(1, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})

	// Identical fields, different timestamp.
	h, appended, _ := s.Merge(1, []model.PurchaseRecord{rec("2025-01-02T10:00:00", "A", 10)})
	if !appended || h.Len() != 2 {
		t.Fatalf("appended=%v len=%d, want true 2", appended, h.Len())
	}
}

func TestMerge_SameTimestampDifferentFields(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	s.Merge(1, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})

	h, appended, _ := s.Merge(1, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 11)})
	if !appended || h.Len() != 2 {
		t.Fatalf("appended=%v len=%d, want true 2", appended, h.Len())
	}
}

func TestMerge_EmptyTimestamps(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	s.Merge(1, []model.PurchaseRecord{rec("", "A", 10)})

	if _, appended, _ := s.Merge(1, []model.PurchaseRecord{rec("", "A", 10)}); appended {
		t.Error("identical record with empty timestamp appended")
	}
	if _, appended, _ := s.Merge(1, []model.PurchaseRecord{rec("", "B", 10)}); !appended {
		t.Error("different record with empty timestamp not appended")
	}
}

func TestMerge_OnlyLastIncomingConsidered(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	h, _, _ := s.Merge(1, []model.PurchaseRecord{
		rec("2025-01-01T10:00:00", "A", 1),
		rec("2025-01-02T10:00:00", "B", 2),
		rec("2025-01-03T10:00:00", "C", 3),
	})
	if h.Len() != 1 || h.Records[0].Merchant != "C" {
		t.Fatalf("history = %+v, want only C", h.Records)
	}
}

func TestMerge_EmptyIncoming(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	h, appended, err := s.Merge(1, nil)
	if err != nil || appended || h.Len() != 0 {
		t.Fatalf("Merge(nil) = len %d, %v, %v", h.Len(), appended, err)
	}
}

func TestMerge_PersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	s := NewHistoryStore(dir)
	s.Merge(5, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})
	s.Merge(5, []model.PurchaseRecord{rec("2025-01-02T10:00:00", "B", 20)})

	data, err := os.ReadFile(filepath.Join(dir, "5.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("file lines = %d, want 2", n)
	}

	fresh := NewHistoryStore(dir)
	h := fresh.Load(5)
	if h.Len() != 2 || h.Records[1].Merchant != "B" {
		t.Fatalf("reloaded = %+v", h.Records)
	}
}

func TestLoad_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	line, _ := source.EncodeLine(rec("2025-01-01T10:00:00", "A", 10))
	content := string(line) + "\n{garbage\n" + string(line) + "\n"
	if err := os.WriteFile(filepath.Join(dir, "2.jsonl"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistoryStore(dir).Load(2)
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2", h.Len())
	}
}

func TestMerge_KeepsRecordsAfterOversizedLine(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	stored := []model.PurchaseRecord{
		rec("2025-01-01T10:00:00", "A", 10),
		rec("2025-01-02T10:00:00", "B", 10),
		rec("2025-01-03T10:00:00", "C", 10),
	}
	for i, r := range stored {
		line, _ := source.EncodeLine(r)
		b.Write(line)
		b.WriteString("\n")
		if i == 0 {
			b.WriteString(strings.Repeat("x", 2<<20))
			b.WriteString("\n")
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "3.jsonl"), []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewHistoryStore(dir)
	if _, _, err := s.Merge(3, []model.PurchaseRecord{rec("2025-01-09T10:00:00", "D", 5)}); err != nil {
		t.Fatal(err)
	}

	h := NewHistoryStore(dir).Load(3)
	if h.Len() != 4 {
		t.Fatalf("len after merge = %d, want 4", h.Len())
	}
	if h.Records[2].Merchant != "C" || h.Records[3].Merchant != "D" {
		t.Errorf("records = %+v", h.Records)
	}
}

func TestLoad_Missing(t *testing.T) {
	h := NewHistoryStore(t.TempDir()).Load(404)
	if h.Len() != 0 {
		t.Fatalf("len = %d, want 0", h.Len())
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s := NewHistoryStore(dir)
	s.Merge(3, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})

	if err := s.Clear(3); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "3.jsonl")); !os.IsNotExist(err) {
		t.Errorf("history file still present: %v", err)
	}
	if h := s.Load(3); h.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", h.Len())
	}
	// Clearing again is not an error.
	if err := s.Clear(3); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestLoad_ReturnsCopy(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	s.Merge(1, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})

	h := s.Load(1)
	h.Records[0].Merchant = "mutated"
	if got := s.Load(1).Records[0].Merchant; got != "A" {
		t.Errorf("cache mutated through returned history: %q", got)
	}
}

func TestMerge_ConcurrentSameUser(t *testing.T) {
	s := NewHistoryStore(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := "2025-01-01T10:00:" + string(rune('0'+i/10)) + string(rune('0'+i%10))
			s.Merge(1, []model.PurchaseRecord{rec(ts, "A", float64(i))})
		}(i)
	}
	wg.Wait()

	if n := s.Load(1).Len(); n != 20 {
		t.Fatalf("len = %d, want 20", n)
	}
	if n := NewHistoryStore(s.Dir()).Load(1).Len(); n != 20 {
		t.Fatalf("persisted len = %d, want 20", n)
	}
}

func TestUsersAndWarm(t *testing.T) {
	dir := t.TempDir()
	s := NewHistoryStore(dir)
	s.Merge(2, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})
	s.Merge(9, []model.PurchaseRecord{rec("2025-01-01T10:00:00", "A", 10)})
	s.Merge(9, []model.PurchaseRecord{rec("2025-01-02T10:00:00", "B", 10)})

	fresh := NewHistoryStore(dir)
	ids, err := fresh.Users()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 9 {
		t.Fatalf("Users = %v, want [2 9]", ids)
	}

	var last atomic.Int64
	res := fresh.Warm(ids, func(current, _ int) { last.Store(int64(current)) })
	if res.Users != 2 || res.Records != 3 {
		t.Fatalf("Warm = %+v, want 2 users 3 records", res)
	}
	if last.Load() == 0 {
		t.Error("progress never reported")
	}
}
