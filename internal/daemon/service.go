// Package daemon provides the long-running trajectory poller and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/nestegg/internal/bank"
	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/pipeline"
	"github.com/theirongolddev/nestegg/internal/purchase"
)

const (
	maxDashboardBody = 1 << 20
	pollConcurrency  = 4
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	WatchUsers   []int
}

// Snapshot is the compact trajectory state of one user.
type Snapshot struct {
	UserID         int       `json:"user_id"`
	At             time.Time `json:"at"`
	CurrentSavings float64   `json:"current_savings"`
	GoalAmount     float64   `json:"goal_amount"`
	ProjectedFinal float64   `json:"projected_final"`
	IdealFinal     float64   `json:"ideal_final"`
	MoneyScore     float64   `json:"money_score"`
	OverallScore   float64   `json:"overall_score"`
	HistoryLength  int       `json:"history_length"`
	ForecastMode   string    `json:"forecast_mode"`
	ModelError     string    `json:"model_error,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	HistoryLength  int     `json:"history_length"`
	CurrentSavings float64 `json:"current_savings"`
	ProjectedFinal float64 `json:"projected_final"`
	MoneyScore     float64 `json:"money_score"`
	OverallScore   float64 `json:"overall_score"`
}

func (d Delta) isZero() bool {
	return d.HistoryLength == 0 &&
		d.CurrentSavings == 0 &&
		d.ProjectedFinal == 0 &&
		d.MoneyScore == 0 &&
		d.OverallScore == 0
}

// Event is emitted whenever a user's trajectory changes.
type Event struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int       `json:"user_id"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventTrajectory = "trajectory_delta"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time       `json:"started_at"`
	LastPollAt      time.Time       `json:"last_poll_at"`
	PollIntervalSec int             `json:"poll_interval_sec"`
	PollCount       int64           `json:"poll_count"`
	DataDir         string          `json:"data_dir"`
	WatchUsers      []int           `json:"watch_users"`
	Users           []Snapshot      `json:"users"`
	Scorer          purchase.Status `json:"scorer"`
	LastError       string          `json:"last_error,omitempty"`
	EventCount      int             `json:"event_count"`
	SubscriberCount int             `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	engine *pipeline.Engine

	mu         sync.RWMutex
	startedAt  time.Time
	lastPollAt time.Time
	pollCount  int64
	lastError  string
	snapshots  map[int]Snapshot
	nextSeq    int64
	events     []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, engine *pipeline.Engine) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		engine:    engine,
		startedAt: time.Now(),
		snapshots: make(map[int]Snapshot),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Post("/graph", s.handlePostGraph)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
	})
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if users, err := s.engine.History().Users(); err == nil {
		res := s.engine.History().Warm(users, nil)
		slog.Info("histories loaded", "users", res.Users, "records", res.Records, "parse_errors", res.ParseErrors)
	}

	// Seed initial snapshots so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	var (
		errMu   sync.Mutex
		lastErr string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pollConcurrency)
	for _, id := range s.cfg.WatchUsers {
		g.Go(func() error {
			graph, err := s.engine.Process(gctx, id, pipeline.Request{})
			if err != nil {
				slog.Warn("daemon poll failed", "user", id, "error", err)
				errMu.Lock()
				lastErr = fmt.Sprintf("user %d: %v", id, err)
				errMu.Unlock()
				return nil
			}
			s.observe(graph)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.lastError = lastErr
	s.mu.Unlock()
}

// observe records a fresh result and publishes an event when it differs
// from the previous one for that user.
func (s *Service) observe(g *model.GraphData) {
	now := time.Now()
	snap := snapshotFromGraph(g, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev, prevExists := s.snapshots[snap.UserID]
	s.snapshots[snap.UserID] = snap

	if !prevExists {
		ev = s.newEvent(EventSnapshot, snap, Delta{}, now)
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		ev = s.newEvent(EventTrajectory, snap, delta, now)
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

// newEvent must be called with s.mu held.
func (s *Service) newEvent(typ string, snap Snapshot, d Delta, at time.Time) Event {
	s.nextSeq++
	return Event{
		ID:        uuid.NewString(),
		Seq:       s.nextSeq,
		Type:      typ,
		Timestamp: at,
		UserID:    snap.UserID,
		Snapshot:  snap,
		Delta:     d,
	}
}

func snapshotFromGraph(g *model.GraphData, at time.Time) Snapshot {
	snap := Snapshot{
		UserID:         g.Metadata.UserID,
		At:             at,
		CurrentSavings: g.Metadata.CurrentSavings,
		GoalAmount:     g.Metadata.GoalAmount,
		ProjectedFinal: g.DataPoints.ProjectedSavings.Final(),
		IdealFinal:     g.DataPoints.IdealPlan.Final(),
		MoneyScore:     g.Metadata.MoneyScore,
		OverallScore:   g.Metadata.OverallScore,
		HistoryLength:  g.Metadata.HistoryLength,
		ForecastMode:   g.Metadata.ForecastMode,
	}
	if g.Metadata.ModelError != nil {
		snap.ModelError = *g.Metadata.ModelError
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		HistoryLength:  curr.HistoryLength - prev.HistoryLength,
		CurrentSavings: curr.CurrentSavings - prev.CurrentSavings,
		ProjectedFinal: curr.ProjectedFinal - prev.ProjectedFinal,
		MoneyScore:     curr.MoneyScore - prev.MoneyScore,
		OverallScore:   curr.OverallScore - prev.OverallScore,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	users := make([]Snapshot, 0, len(s.snapshots))
	for _, id := range s.cfg.WatchUsers {
		if snap, ok := s.snapshots[id]; ok {
			users = append(users, snap)
		}
	}
	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		WatchUsers:      s.cfg.WatchUsers,
		Users:           users,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	s.mu.RUnlock()

	st.Scorer = s.engine.Scorer().Status()
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	req, err := requestFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}

	g, err := s.engine.Process(r.Context(), id, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.observe(g)
	writeJSON(w, http.StatusOK, g)
}

func (s *Service) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	req, err := requestFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDashboardBody))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
		return
	}
	dash, err := bank.ParseDashboard(body, id)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	dash.UserID = id

	g, err := s.engine.ProcessDashboard(r.Context(), dash, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.observe(g)
	writeJSON(w, http.StatusOK, g)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	h := s.engine.History().Load(id)
	if h.Records == nil {
		h.Records = []model.PurchaseRecord{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Service) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.ClearUser(id); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "clearing user: %v", err)
		return
	}
	s.mu.Lock()
	delete(s.snapshots, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshots immediately.
	for _, snap := range s.snapshotStatus().Users {
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), UserID: snap.UserID, Snapshot: snap})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func userParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid user id %q", raw)
		return 0, false
	}
	return id, true
}

func requestFromQuery(r *http.Request) (pipeline.Request, error) {
	var req pipeline.Request
	q := r.URL.Query()
	if v := q.Get("horizon"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > pipeline.MaxHorizon {
			return req, fmt.Errorf("invalid horizon %q: want 1-%d days", v, pipeline.MaxHorizon)
		}
		req.Horizon = n
	}
	if v := q.Get("goal"); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("invalid goal %q", v)
		}
		req.GoalAmount = &g
	}
	return req, nil
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case model.KindOf(err) == model.KindUpstream:
		httpError(w, http.StatusBadGateway, "upstream_error", "%v", err)
	case model.KindOf(err) == model.KindInput:
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpError(w, http.StatusServiceUnavailable, "api_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
