package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/nestegg/internal/model"
)

func testGraph() *model.GraphData {
	full := model.CurveSet{
		Days:             make([]int, 90),
		ProjectedSavings: make(model.Curve, 90),
		IdealPlan:        make(model.Curve, 90),
		GoalLine:         make([]float64, 90),
	}
	for d := range full.Days {
		full.Days[d] = d
		full.ProjectedSavings[d] = 1000 + 40*float64(d)
		full.IdealPlan[d] = 1000 + 50*float64(d)
		full.GoalLine[d] = 10000
	}
	head := func(n int) model.CurveSet {
		return model.CurveSet{
			Days:             full.Days[:n],
			ProjectedSavings: full.ProjectedSavings.Head(n),
			IdealPlan:        full.IdealPlan.Head(n),
			GoalLine:         full.GoalLine[:n],
		}
	}
	return &model.GraphData{
		Metadata: model.Metadata{
			UserID:         7,
			CurrentSavings: 1000,
			GoalAmount:     10000,
			IncomeMonthly:  4000,
			DaysHorizon:    90,
			MoneyScore:     820,
			OverallScore:   640,
			ForecastMode:   model.ForecastFallback,
		},
		DataPoints: full,
		Views:      model.Views{Week: head(7), Month: head(30), FullHorizon: full},
	}
}

func loaded(t *testing.T) App {
	t.Helper()
	a := NewApp(func(context.Context) (*model.GraphData, error) { return testGraph(), nil }, Options{UserID: 7})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(GraphLoadedMsg{Graph: testGraph()})
	return m.(App)
}

func TestUpdate_GraphLoaded(t *testing.T) {
	a := loaded(t)
	if !a.loaded || a.loading {
		t.Fatalf("loaded = %v, loading = %v, want true/false", a.loaded, a.loading)
	}
	if got := len(a.currentView().Days); got != 90 {
		t.Errorf("default view days = %d, want 90", got)
	}
}

func TestUpdate_TabKeys(t *testing.T) {
	a := loaded(t)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	a = m.(App)
	if got := len(a.currentView().Days); got != 7 {
		t.Errorf("week view days = %d, want 7", got)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if got := len(a.currentView().Days); got != 30 {
		t.Errorf("after tab, view days = %d, want 30", got)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	a = m.(App)
	if a.activeTab != 2 {
		t.Errorf("activeTab after wrapping left = %d, want 2", a.activeTab)
	}
}

func TestUpdate_MouseSelectsTab(t *testing.T) {
	a := loaded(t)
	m, _ := a.Update(tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := m.(App).activeTab; got != 0 {
		t.Errorf("activeTab = %d, want 0", got)
	}

	m, _ = m.Update(tea.MouseMsg{X: 2, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := m.(App).activeTab; got != 0 {
		t.Errorf("click below header changed tab to %d", got)
	}
}

func TestUpdate_RefreshErrorKeepsGraph(t *testing.T) {
	a := loaded(t)

	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("refresh returned no command")
	}
	a = m.(App)
	if !a.loading {
		t.Error("refresh did not set loading")
	}

	m, _ = a.Update(GraphLoadedMsg{Err: errors.New("upstream down")})
	a = m.(App)
	if a.graph == nil || !a.loaded {
		t.Fatal("failed refresh dropped the previous trajectory")
	}
	if !strings.Contains(a.View(), "refresh failed") {
		t.Error("view does not report the refresh failure")
	}
}

func TestView_InitialErrorAndLoading(t *testing.T) {
	a := NewApp(nil, Options{UserID: 3})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if v := m.View(); !strings.Contains(v, "user 3") {
		t.Errorf("loading view missing user id:\n%s", v)
	}

	m, _ = m.Update(GraphLoadedMsg{Err: errors.New("boom")})
	if v := m.View(); !strings.Contains(v, "Could not load trajectory") {
		t.Errorf("error view missing title:\n%s", v)
	}
}

func TestView_Main(t *testing.T) {
	v := loaded(t).View()
	for _, want := range []string{"Week", "Projected savings", "$10,000", "Alignment"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := strings.Count(v, "\n") + 1; got != 40 {
		t.Errorf("view height = %d, want 40", got)
	}
}

func TestView_TooNarrow(t *testing.T) {
	a := NewApp(nil, Options{})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if v := m.View(); !strings.Contains(v, "too narrow") {
		t.Errorf("narrow view = %q", v)
	}
}

func TestLoadGraphCmd(t *testing.T) {
	want := testGraph()
	msg := loadGraphCmd(func(ctx context.Context) (*model.GraphData, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("load context has no deadline")
		}
		return want, nil
	}, 5*time.Second)()
	got, ok := msg.(GraphLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T, want GraphLoadedMsg", msg)
	}
	if got.Graph != want || got.Err != nil {
		t.Errorf("GraphLoadedMsg = %+v", got)
	}
}

func TestTruncStr(t *testing.T) {
	if got := truncStr("hello world", 5); got != "hell…" {
		t.Errorf("truncStr = %q, want %q", got, "hell…")
	}
	if got := truncStr("hi", 5); got != "hi" {
		t.Errorf("truncStr = %q, want hi", got)
	}
}
