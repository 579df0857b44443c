package forecast

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/store"
)

func weekly(n int) []float64 {
	pattern := []float64{20, 35, 30, 25, 60, 80, 15}
	out := make([]float64, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

func TestFallback_Empty(t *testing.T) {
	got := Fallback(nil, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("got[%d] = %v, want 0", i, v)
		}
	}
}

func TestFallback_Short(t *testing.T) {
	got := Fallback([]float64{1, 2, 9}, 4)
	for i, v := range got {
		if v != 9 {
			t.Fatalf("got[%d] = %v, want 9", i, v)
		}
	}
}

func TestFallback_Trend(t *testing.T) {
	// 14 points rising by 1: last=14, mean(last 7)=11, base=12.5,
	// trend=(14-1)/7.
	series := make([]float64, 14)
	for i := range series {
		series[i] = float64(i + 1)
	}
	got := Fallback(series, 3)
	want := []float64{12.5, 12.5 + 13.0/7, 12.5 + 26.0/7}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFallback_NonNegativeAndDeterministic(t *testing.T) {
	falling := []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 2, 1, 0}
	a := Fallback(falling, 60)
	b := Fallback(falling, 60)
	for i := range a {
		if a[i] < 0 {
			t.Fatalf("a[%d] = %v, want >= 0", i, a[i])
		}
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFallback_HorizonClamp(t *testing.T) {
	if got := Fallback([]float64{3}, 0); len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestTrain_TooShort(t *testing.T) {
	f := New("f", nil, Options{})
	ok, err := f.Train(weekly(9))
	if ok || err != nil {
		t.Fatalf("Train(9 points) = %v, %v; want false, nil", ok, err)
	}
	if f.Trained() {
		t.Fatal("forecaster trained on too few points")
	}
}

func TestTrain_ThenForecast(t *testing.T) {
	f := New("f", nil, Options{})
	series := weekly(42)

	ok, err := f.Train(series)
	if !ok || err != nil {
		t.Fatalf("Train = %v, %v", ok, err)
	}
	if !f.Trained() {
		t.Fatal("Trained() = false after successful train")
	}

	curve, mode, err := f.Forecast(series, 30)
	if err != nil {
		t.Fatal(err)
	}
	if mode != model.ForecastModel {
		t.Errorf("mode = %q, want %q", mode, model.ForecastModel)
	}
	if len(curve) != 30 {
		t.Fatalf("len = %d, want 30", len(curve))
	}
	for i, v := range curve {
		if v < 0 {
			t.Fatalf("curve[%d] = %v, want >= 0", i, v)
		}
	}
}

func TestTrain_HashShortCircuit(t *testing.T) {
	f := New("f", nil, Options{})
	series := weekly(20)
	if ok, _ := f.Train(series); !ok {
		t.Fatal("first train failed")
	}
	first := f.Status().TrainedAt
	h := f.Hash()

	time.Sleep(2 * time.Millisecond)
	if ok, _ := f.Train(series); !ok {
		t.Fatal("second train failed")
	}
	if got := f.Status().TrainedAt; !got.Equal(first) {
		t.Errorf("retrained on identical data: %v -> %v", first, got)
	}
	if f.Hash() != h {
		t.Error("hash changed for identical data")
	}

	if ok, _ := f.Train(append(series, 99)); !ok {
		t.Fatal("third train failed")
	}
	if f.Hash() == h {
		t.Error("hash unchanged for new data")
	}
}

func TestTrain_TruncatesToRecent(t *testing.T) {
	f := New("f", nil, Options{MaxTrainPoints: 20})
	series := weekly(40)
	f.Train(series)
	h := f.Hash()

	g := New("g", nil, Options{MaxTrainPoints: 20})
	g.Train(series[20:])
	if g.Hash() != h {
		t.Error("training did not use only the most recent points")
	}
}

func TestForecast_UntrainedUsesFallback(t *testing.T) {
	f := New("f", nil, Options{})
	series := weekly(21)
	got, mode, err := f.Forecast(series, 10)
	if err != nil {
		t.Fatal(err)
	}
	if mode != model.ForecastFallback {
		t.Errorf("mode = %q, want fallback", mode)
	}
	want := Fallback(series, 10)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestForecast_ShortSeriesUsesFallback(t *testing.T) {
	f := New("f", nil, Options{})
	f.Train(weekly(30))
	_, mode, _ := f.Forecast([]float64{1, 2, 3}, 5)
	if mode != model.ForecastFallback {
		t.Errorf("mode = %q, want fallback", mode)
	}
}

func TestPersistAndRestore(t *testing.T) {
	st, err := store.OpenBundles(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	reg := NewRegistry(st, Options{})
	f := reg.Get(7)
	if f.Status().Restored {
		t.Fatal("fresh forecaster reported restored")
	}
	series := weekly(30)
	if ok, err := f.Train(series); !ok || err != nil {
		t.Fatalf("Train = %v, %v", ok, err)
	}
	if reg.Get(7) != f {
		t.Fatal("registry returned a different instance")
	}

	restored := NewRegistry(st, Options{}).Get(7)
	s := restored.Status()
	if !s.Trained || !s.Restored {
		t.Fatalf("status = %+v, want trained and restored", s)
	}
	if restored.Hash() != f.Hash() {
		t.Error("restored hash differs")
	}

	a, _, _ := f.Forecast(series, 14)
	b, _, _ := restored.Forecast(series, 14)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored forecast differs at %d: %v vs %v", i, a[i], b[i])
		}
	}

	if other := NewRegistry(st, Options{}).Get(8); other.Trained() {
		t.Error("user 8 inherited user 7's model")
	}
}

type failingStore struct{}

func (failingStore) SaveBundle(string, string, []byte) error { return errors.New("disk full") }
func (failingStore) LoadBundle(string) ([]byte, time.Time, error) {
	return nil, time.Time{}, store.ErrBundleNotFound
}

func TestTrain_PersistFailureKeepsModel(t *testing.T) {
	f := New("f", failingStore{}, Options{})
	ok, err := f.Train(weekly(20))
	if !ok {
		t.Fatal("Train reported failure")
	}
	if model.KindOf(err) != model.KindPersistence {
		t.Fatalf("err kind = %v, want persistence", model.KindOf(err))
	}
	if !f.Trained() {
		t.Error("model discarded after persistence failure")
	}
}

func TestRegistryReset(t *testing.T) {
	st, err := store.OpenBundles(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	reg := NewRegistry(st, Options{})
	if ok, err := reg.Get(3).Train(weekly(30)); !ok || err != nil {
		t.Fatalf("Train = %v, %v", ok, err)
	}
	if err := reg.Reset(3); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.LoadBundle(BundleName(3)); !errors.Is(err, store.ErrBundleNotFound) {
		t.Errorf("LoadBundle after reset err = %v, want ErrBundleNotFound", err)
	}
	if reg.Get(3).Trained() {
		t.Error("forecaster still trained after reset")
	}

	if err := NewRegistry(nil, Options{}).Reset(3); err != nil {
		t.Errorf("Reset without store = %v", err)
	}
}
