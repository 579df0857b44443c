package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/nestegg/internal/bank"
	"github.com/theirongolddev/nestegg/internal/features"
	"github.com/theirongolddev/nestegg/internal/forecast"
	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/planner"
	"github.com/theirongolddev/nestegg/internal/purchase"
	"github.com/theirongolddev/nestegg/internal/scoring"
	"github.com/theirongolddev/nestegg/internal/store"
)

// Default plan parameters when neither the request nor the dashboard sets them.
const (
	DefaultHorizon = 90
	DefaultGoal    = 10000.0
)

// MaxHorizon caps the planning horizon in days. Larger values from any
// source are clamped.
const MaxHorizon = 3650

// Source supplies account dashboards.
type Source interface {
	FetchDashboard(ctx context.Context, userID int) (bank.Dashboard, error)
}

// Request carries per-call overrides. Zero values defer to the dashboard,
// then to the engine defaults.
type Request struct {
	Horizon    int
	GoalAmount *float64
}

// Config wires an Engine.
type Config struct {
	Source      Source
	History     *store.HistoryStore
	Scorer      *purchase.Scorer
	Forecasters *forecast.Registry

	WindowDays     int
	DefaultHorizon int
	DefaultGoal    float64

	Jitter Jitter
	Now    func() time.Time
}

// Engine runs the merge, retrain, forecast, plan and score flow for one
// user at a time. Different users proceed in parallel.
type Engine struct {
	source      Source
	history     *store.HistoryStore
	scorer      *purchase.Scorer
	forecasters *forecast.Registry

	windowDays int
	horizon    int
	goal       float64
	jitter     Jitter
	now        func() time.Time

	locks store.KeyedMutex
}

// NewEngine builds an engine. History, Scorer and Forecasters are required;
// Source is only needed by Process.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		source:      cfg.Source,
		history:     cfg.History,
		scorer:      cfg.Scorer,
		forecasters: cfg.Forecasters,
		windowDays:  cfg.WindowDays,
		horizon:     cfg.DefaultHorizon,
		goal:        cfg.DefaultGoal,
		jitter:      cfg.Jitter,
		now:         cfg.Now,
	}
	if e.windowDays < 1 {
		e.windowDays = DefaultWindowDays
	}
	if e.horizon < 1 {
		e.horizon = DefaultHorizon
	}
	e.horizon = min(e.horizon, MaxHorizon)
	if e.goal <= 0 {
		e.goal = DefaultGoal
	}
	if e.jitter == nil {
		e.jitter = NoJitter{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Forecasters exposes the per-user forecaster registry.
func (e *Engine) Forecasters() *forecast.Registry {
	return e.forecasters
}

// History exposes the engine's history store.
func (e *Engine) History() *store.HistoryStore {
	return e.history
}

// Scorer exposes the shared purchase scorer.
func (e *Engine) Scorer() *purchase.Scorer {
	return e.scorer
}

// ClearUser deletes the user's stored history and forecaster. It waits for
// any in-flight run for the same user.
func (e *Engine) ClearUser(userID int) error {
	unlock := e.locks.Lock(userID)
	defer unlock()

	if err := e.history.Clear(userID); err != nil {
		return model.Errorf(model.KindPersistence, "clear history", err)
	}
	if err := e.forecasters.Reset(userID); err != nil {
		return model.Errorf(model.KindPersistence, "delete forecaster", err)
	}
	return nil
}

// Process fetches the user's dashboard and runs the full flow. A fetch
// failure is returned as an upstream error; every other failure degrades.
func (e *Engine) Process(ctx context.Context, userID int, req Request) (*model.GraphData, error) {
	if e.source == nil {
		return nil, model.Errorf(model.KindUpstream, "fetch dashboard", errors.New("no source configured"))
	}

	var dash bank.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.source.FetchDashboard(gctx, userID)
		if err != nil {
			return model.Errorf(model.KindUpstream, "fetch dashboard", err)
		}
		dash = d
		return nil
	})
	g.Go(func() error {
		// Warm the cache while the fetch is in flight.
		e.history.Load(userID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash.UserID = userID
	return e.ProcessDashboard(ctx, dash, req)
}

// ProcessDashboard runs the full flow on a dashboard the caller already holds.
func (e *Engine) ProcessDashboard(ctx context.Context, dash bank.Dashboard, req Request) (*model.GraphData, error) {
	if dash.UserID < 0 {
		return nil, model.Errorf(model.KindInput, "process", fmt.Errorf("invalid user id %d", dash.UserID))
	}

	unlock := e.locks.Lock(dash.UserID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	userID := dash.UserID
	log := slog.With("run", uuid.NewString(), "user", userID)
	income := dash.Income
	current := dash.Saved
	horizon, goal := e.resolve(dash, req)

	var problems []string
	note := func(err error) {
		if err == nil {
			return
		}
		log.Warn("degraded", "kind", model.KindOf(err).String(), "error", err)
		problems = append(problems, err.Error())
	}

	incoming := dash.Records()
	hist, grew, err := e.history.Merge(userID, incoming)
	note(err)

	updated := false
	if grew {
		last, _ := hist.Last()
		if e.scorer.Retrain([]model.PurchaseRecord{last}, income) {
			updated = true
		} else {
			note(model.Errorf(model.KindModel, "scorer retrain", errors.New(e.scorer.LastError())))
		}
	}

	daily := AggregateDays(hist, e.windowDays, e.now())
	series := PadSeries(daily.Values(), MinSeriesLength, BaselineDailySpend(income))

	fc := e.forecasters.Get(userID)
	_, err = fc.Train(series)
	note(err)
	spend, mode, err := fc.Forecast(series, horizon)
	note(err)

	budget := planner.DailyBudget(income, spend)
	adj := planner.ForecastAdjustments(spend)
	semantic, notes := SemanticAdjustments(inWindow(hist, daily), horizon)
	for i := range adj {
		adj[i] += semantic[i]
	}
	e.jitter.Apply(userID, adj)
	if len(notes) > 0 {
		log.Debug("purchase adjustments", "count", len(notes))
	}

	ideal := planner.IdealCurve(current, budget, goal, horizon)
	projected := planner.ProjectedCurve(current, budget, horizon, adj)

	money := scoring.Score(ideal, projected)
	overall := scoring.Overall(ideal, projected, current, goal)

	scores, err := e.scorer.PredictErr(features.Encode(hist.Records, income))
	note(err)

	var modelErr *string
	if len(problems) > 0 {
		msg := strings.Join(problems, "; ")
		modelErr = &msg
	}

	log.Debug("processed",
		"grew", grew, "history", hist.Len(), "mode", mode,
		"money_score", money, "overall", overall)

	full := curveSet(projected, ideal, goal, horizon)
	return &model.GraphData{
		Metadata: model.Metadata{
			UserID:             userID,
			CurrentSavings:     current,
			GoalAmount:         goal,
			IncomeMonthly:      income,
			DaysHorizon:        horizon,
			MoneyScore:         money,
			OverallScore:       overall,
			ModelError:         modelErr,
			PurchasesProcessed: len(incoming),
			ModelUpdated:       updated,
			HistoryLength:      hist.Len(),
			ForecastMode:       mode,
		},
		DataPoints: full,
		TimeSeries: model.TimeSeries{
			DailyNetSavings: netSavings(projected, current),
			DailyIncome:     repeat(income/30, horizon),
			Adjustments:     adj,
			TrendFactor:     planner.TrendFactor(spend),
			ForecastSpend:   spend,
		},
		PurchaseScores: model.PurchaseScores{
			Scores:       scores,
			UsedFeatures: features.Columns,
		},
		Views: model.Views{
			Week:        curveSet(projected.Head(7), ideal.Head(7), goal, min(7, horizon)),
			Month:       curveSet(projected.Head(30), ideal.Head(30), goal, min(30, horizon)),
			FullHorizon: full,
		},
	}, nil
}

// resolve picks horizon and goal: request first, then dashboard, then defaults.
func (e *Engine) resolve(dash bank.Dashboard, req Request) (int, float64) {
	horizon := e.horizon
	if dash.Days != nil && *dash.Days > 0 {
		horizon = *dash.Days
	}
	if req.Horizon > 0 {
		horizon = req.Horizon
	}
	horizon = min(horizon, MaxHorizon)

	goal := e.goal
	if dash.GoalAmount != nil {
		goal = *dash.GoalAmount
	}
	if req.GoalAmount != nil {
		goal = *req.GoalAmount
	}
	return horizon, goal
}

// inWindow returns the dated records that fall inside the aggregated window.
func inWindow(h model.UserHistory, daily model.DailySpendSeries) []model.PurchaseRecord {
	if len(daily) == 0 {
		return nil
	}
	start := daily[0].Date
	var out []model.PurchaseRecord
	for _, r := range h.Records {
		t, ok := r.Time()
		if !ok {
			continue
		}
		if !truncateDay(t).Before(start) {
			out = append(out, r)
		}
	}
	return out
}

func curveSet(projected, ideal model.Curve, goal float64, n int) model.CurveSet {
	days := make([]int, n)
	for i := range days {
		days[i] = i
	}
	return model.CurveSet{
		Days:             days,
		ProjectedSavings: projected,
		IdealPlan:        ideal,
		GoalLine:         repeat(goal, n),
	}
}

func netSavings(projected model.Curve, current float64) []float64 {
	out := make([]float64, len(projected))
	prev := current
	for i, v := range projected {
		out[i] = v - prev
		prev = v
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
