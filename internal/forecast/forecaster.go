// Package forecast predicts future daily spend from an aggregated spend series.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/store"
)

// BundleKind tags forecaster bundles in the bundle store.
const BundleKind = "forecaster"

// BundleStore persists serialized forecaster state.
type BundleStore interface {
	SaveBundle(name, kind string, payload []byte) error
	LoadBundle(name string) ([]byte, time.Time, error)
}

// Options tunes training. Zero fields take the defaults.
type Options struct {
	MinTrainPoints int
	MaxTrainPoints int
	Lag            int
	Iterations     int
	LearningRate   float64
}

// DefaultOptions returns the standard training settings.
func DefaultOptions() Options {
	return Options{
		MinTrainPoints: 10,
		MaxTrainPoints: 90,
		Lag:            7,
		Iterations:     200,
		LearningRate:   0.05,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Lag < 1 {
		o.Lag = d.Lag
	}
	if o.MinTrainPoints < 1 {
		o.MinTrainPoints = d.MinTrainPoints
	}
	if o.MinTrainPoints <= o.Lag {
		o.MinTrainPoints = o.Lag + 1
	}
	if o.MaxTrainPoints < o.MinTrainPoints {
		o.MaxTrainPoints = max(d.MaxTrainPoints, o.MinTrainPoints)
	}
	if o.Iterations < 1 {
		o.Iterations = d.Iterations
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	return o
}

// Bundle is the persisted form of a forecaster.
type Bundle struct {
	Trained   bool      `json:"trained"`
	Hash      uint64    `json:"hash"`
	Model     *arModel  `json:"model,omitempty"`
	TrainedAt time.Time `json:"trained_at"`
}

// Status describes a forecaster for status displays.
type Status struct {
	Name      string    `json:"name"`
	Trained   bool      `json:"trained"`
	Restored  bool      `json:"restored"`
	Hash      uint64    `json:"hash"`
	TrainedAt time.Time `json:"trained_at"`
}

// Forecaster moves from untrained to trained and never back.
type Forecaster struct {
	name  string
	opts  Options
	store BundleStore

	mu        sync.Mutex
	trained   bool
	restored  bool
	hash      uint64
	model     *arModel
	trainedAt time.Time
}

// New returns a forecaster persisted under name. When st already holds a
// trained bundle for name, the forecaster starts trained. st may be nil.
func New(name string, st BundleStore, opts Options) *Forecaster {
	f := &Forecaster{name: name, opts: opts.withDefaults(), store: st}
	f.restore()
	return f
}

func (f *Forecaster) restore() {
	if f.store == nil {
		return
	}
	payload, _, err := f.store.LoadBundle(f.name)
	if err != nil {
		if !errors.Is(err, store.ErrBundleNotFound) {
			slog.Warn("forecaster bundle unavailable", "name", f.name, "error", err)
		}
		return
	}

	var b Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		slog.Warn("forecaster bundle corrupt, starting untrained", "name", f.name, "error", err)
		return
	}
	if !b.Trained || !b.Model.finite() {
		return
	}
	f.trained = true
	f.restored = true
	f.hash = b.Hash
	f.model = b.Model
	f.trainedAt = b.TrainedAt
}

// Train fits the model on the most recent points of series. It reports false
// without touching state when series is too short. Unchanged data on a trained
// forecaster is a no-op that reports true.
func (f *Forecaster) Train(series []float64) (bool, error) {
	if len(series) < f.opts.MinTrainPoints {
		return false, nil
	}
	if len(series) > f.opts.MaxTrainPoints {
		series = series[len(series)-f.opts.MaxTrainPoints:]
	}

	hash, hashErr := hashstructure.Hash(series, hashstructure.FormatV2, nil)

	f.mu.Lock()
	defer f.mu.Unlock()

	if hashErr == nil && f.trained && hash == f.hash {
		return true, nil
	}

	m, err := fitAR(series, f.opts.Lag, f.opts.Iterations, f.opts.LearningRate)
	if err != nil {
		return false, model.Errorf(model.KindModel, "forecaster train", err)
	}

	f.model = m
	f.trained = true
	f.hash = hash
	f.trainedAt = time.Now()

	if err := f.persist(); err != nil {
		slog.Warn("forecaster bundle not saved", "name", f.name, "error", err)
		return true, model.Errorf(model.KindPersistence, "forecaster save", err)
	}
	return true, nil
}

func (f *Forecaster) persist() error {
	if f.store == nil {
		return nil
	}
	payload, err := json.Marshal(Bundle{
		Trained:   f.trained,
		Hash:      f.hash,
		Model:     f.model,
		TrainedAt: f.trainedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	return f.store.SaveBundle(f.name, BundleKind, payload)
}

// Forecast predicts horizon days of spend. It uses the trained model when
// possible and Fallback otherwise. The second value is the mode used. A model
// failure returns the fallback curve together with a model error.
func (f *Forecaster) Forecast(series []float64, horizon int) (model.Curve, string, error) {
	if horizon < 1 {
		horizon = 1
	}

	f.mu.Lock()
	m := f.model
	ready := f.trained && m != nil
	f.mu.Unlock()

	if !ready || len(series) < f.opts.MinTrainPoints || len(series) < m.Lag {
		return Fallback(series, horizon), model.ForecastFallback, nil
	}

	out, err := m.rollout(series, horizon)
	if err != nil {
		return Fallback(series, horizon), model.ForecastFallback, model.Errorf(model.KindModel, "forecaster predict", err)
	}
	return out, model.ForecastModel, nil
}

// Trained reports whether a model has been fitted or restored.
func (f *Forecaster) Trained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trained
}

// Hash returns the content hash of the last training series.
func (f *Forecaster) Hash() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hash
}

// Status returns a snapshot of the forecaster state.
func (f *Forecaster) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Status{
		Name:      f.name,
		Trained:   f.trained,
		Restored:  f.restored,
		Hash:      f.hash,
		TrainedAt: f.trainedAt,
	}
}
