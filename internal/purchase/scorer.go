// Package purchase scores individual purchases with an incrementally
// retrained boosted-tree model.
package purchase

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/nestegg/internal/features"
	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/store"
)

// Bundle identity in the bundle store.
const (
	BundleName = "purchase_scorer"
	BundleKind = "gbm"
)

// BundleStore persists the fitted model together with its training buffer.
type BundleStore interface {
	SaveBundleWithSamples(name, kind string, payload []byte, samples [][]byte) error
	LoadBundle(name string) ([]byte, time.Time, error)
	LoadSamples(name string) ([][]byte, error)
}

// Options configures the scorer. Zero fields take the defaults.
type Options struct {
	BufferCap    int
	DefaultScore float64
	GBM          GBMParams
}

// DefaultOptions returns the standard scorer settings.
func DefaultOptions() Options {
	return Options{BufferCap: 1000, DefaultScore: 750, GBM: DefaultGBMParams()}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BufferCap < 1 {
		o.BufferCap = d.BufferCap
	}
	if o.DefaultScore <= 0 {
		o.DefaultScore = d.DefaultScore
	}
	if o.GBM.Trees < 1 {
		o.GBM.Trees = d.GBM.Trees
	}
	if o.GBM.MaxDepth < 1 {
		o.GBM.MaxDepth = d.GBM.MaxDepth
	}
	if o.GBM.MinLeaf < 1 {
		o.GBM.MinLeaf = d.GBM.MinLeaf
	}
	if o.GBM.LearningRate <= 0 {
		o.GBM.LearningRate = d.GBM.LearningRate
	}
	return o
}

// bundle is the persisted model payload.
type bundle struct {
	ModelType    string    `json:"model_type"`
	Model        *GBM      `json:"model"`
	FeatureOrder []string  `json:"feature_order"`
	FittedAt     time.Time `json:"fitted_at"`
	Samples      int       `json:"samples"`
}

// Status describes the scorer for status displays.
type Status struct {
	Fitted    bool      `json:"fitted"`
	Restored  bool      `json:"restored"`
	Samples   int       `json:"samples"`
	FittedAt  time.Time `json:"fitted_at"`
	LastError string    `json:"last_error,omitempty"`
}

// Scorer holds the current model and its bounded FIFO training buffer.
// Retrain and Predict are serialized.
type Scorer struct {
	store BundleStore
	opts  Options

	mu       sync.Mutex
	model    *GBM
	buffer   []model.TrainingSample
	restored bool
	fittedAt time.Time
	lastErr  string
}

// New returns a scorer, restoring model and buffer from st when present.
// st may be nil for an in-memory scorer.
func New(st BundleStore, opts Options) *Scorer {
	s := &Scorer{store: st, opts: opts.withDefaults()}
	s.restore()
	return s
}

func (s *Scorer) restore() {
	if s.store == nil {
		return
	}

	payload, _, err := s.store.LoadBundle(BundleName)
	if err != nil {
		if !errors.Is(err, store.ErrBundleNotFound) {
			s.lastErr = err.Error()
			slog.Warn("scorer bundle unavailable", "error", err)
		}
		return
	}

	var b bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		s.lastErr = fmt.Sprintf("decoding scorer bundle: %v", err)
		slog.Warn("scorer bundle corrupt, starting unfitted", "error", err)
		return
	}
	if !b.Model.valid() || !slices.Equal(b.FeatureOrder, features.Columns) {
		s.lastErr = "scorer bundle incompatible with current features"
		slog.Warn("scorer bundle incompatible, starting unfitted")
		return
	}

	raw, err := s.store.LoadSamples(BundleName)
	if err != nil {
		slog.Warn("scorer samples unavailable", "error", err)
	}
	for _, p := range raw {
		var ts model.TrainingSample
		if err := json.Unmarshal(p, &ts); err != nil {
			continue
		}
		s.buffer = append(s.buffer, ts)
	}
	if len(s.buffer) > s.opts.BufferCap {
		s.buffer = s.buffer[len(s.buffer)-s.opts.BufferCap:]
	}

	s.model = b.Model
	s.fittedAt = b.FittedAt
	s.restored = true
}

// Retrain appends the records with their synthetic targets to the buffer and
// refits on the whole buffer. An empty list is a successful no-op. On a fit
// failure it returns false and keeps the previous model and buffer.
func (s *Scorer) Retrain(records []model.PurchaseRecord, incomeMonthly float64) bool {
	if len(records) == 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := slices.Clone(s.buffer)
	for _, r := range records {
		buf = append(buf, model.TrainingSample{
			Record: r,
			Income: incomeMonthly,
			Target: Target(r, incomeMonthly),
		})
	}
	if len(buf) > s.opts.BufferCap {
		buf = buf[len(buf)-s.opts.BufferCap:]
	}

	table := features.EncodeSamples(buf)
	x := make([][]float64, len(table.Rows))
	for i, row := range table.Rows {
		x[i] = row
	}
	y := make([]float64, len(buf))
	for i, ts := range buf {
		y[i] = ts.Target
	}

	m, err := fitGBM(x, y, s.opts.GBM)
	if err != nil {
		s.lastErr = err.Error()
		slog.Warn("scorer retrain failed, keeping previous model", "error", err)
		return false
	}

	s.model = m
	s.buffer = buf
	s.fittedAt = time.Now()
	s.lastErr = ""

	if err := s.persist(); err != nil {
		s.lastErr = err.Error()
		slog.Warn("scorer bundle not saved", "error", err)
	}
	return true
}

func (s *Scorer) persist() error {
	if s.store == nil {
		return nil
	}
	payload, err := json.Marshal(bundle{
		ModelType:    BundleKind,
		Model:        s.model,
		FeatureOrder: features.Columns,
		FittedAt:     s.fittedAt,
		Samples:      len(s.buffer),
	})
	if err != nil {
		return fmt.Errorf("encoding scorer bundle: %w", err)
	}

	samples := make([][]byte, 0, len(s.buffer))
	for _, ts := range s.buffer {
		p, err := json.Marshal(ts)
		if err != nil {
			return fmt.Errorf("encoding sample: %w", err)
		}
		samples = append(samples, p)
	}
	return s.store.SaveBundleWithSamples(BundleName, BundleKind, payload, samples)
}

// Predict scores each row. Without a fitted model, or when the model fails,
// every row gets the default score.
func (s *Scorer) Predict(table model.FeatureTable) []float64 {
	out, _ := s.PredictErr(table)
	return out
}

// PredictErr is Predict that also returns the model failure, if any. The
// scores are always usable.
func (s *Scorer) PredictErr(table model.FeatureTable) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return s.defaults(len(table.Rows)), nil
	}
	if !slices.Equal(table.Columns, features.Columns) {
		return s.defaults(len(table.Rows)), model.Errorf(model.KindModel, "scorer predict", errColumnMismatch)
	}

	x := make([][]float64, len(table.Rows))
	for i, row := range table.Rows {
		x[i] = row
	}
	out, err := s.model.Predict(x)
	if err != nil {
		s.lastErr = err.Error()
		return s.defaults(len(table.Rows)), model.Errorf(model.KindModel, "scorer predict", err)
	}
	return out, nil
}

func (s *Scorer) defaults(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.opts.DefaultScore
	}
	return out
}

// Fitted reports whether a model is available.
func (s *Scorer) Fitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model != nil
}

// LastError returns the most recent retrain, predict or restore error, if any.
func (s *Scorer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Status returns a snapshot of the scorer state.
func (s *Scorer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Fitted:    s.model != nil,
		Restored:  s.restored,
		Samples:   len(s.buffer),
		FittedAt:  s.fittedAt,
		LastError: s.lastErr,
	}
}
