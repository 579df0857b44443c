// Package tui provides the interactive Bubble Tea dashboard for nestegg.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/tui/components"
	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

// Loader produces a fresh trajectory for the dashboard.
type Loader func(ctx context.Context) (*model.GraphData, error)

// GraphLoadedMsg is sent when a load finishes.
type GraphLoadedMsg struct {
	Graph    *model.GraphData
	Err      error
	LoadTime time.Duration
}

// Options configures the dashboard.
type Options struct {
	UserID int
	// AutoRefresh reloads the trajectory at this interval. Zero disables it.
	AutoRefresh time.Duration
	// LoadTimeout bounds a single load. Zero means 30s.
	LoadTimeout time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	load Loader
	opts Options

	graph    *model.GraphData
	err      error
	loaded   bool
	loading  bool
	loadTime time.Duration
	loadedAt time.Time

	width     int
	height    int
	activeTab int
	showHelp  bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	compactWidth     = 100
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the dashboard. load is called on start and on every refresh.
func NewApp(load Loader, opts Options) App {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		load:      load,
		opts:      opts,
		loading:   true,
		activeTab: len(components.Tabs) - 1,
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		loadGraphCmd(a.load, a.opts.LoadTimeout),
	}
	if a.opts.AutoRefresh > 0 {
		cmds = append(cmds, refreshTickCmd(a.opts.AutoRefresh))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case GraphLoadedMsg:
		a.loading = false
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			// Keep the last good trajectory on screen.
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.graph = msg.Graph
		a.loaded = true
		a.loadedAt = time.Now()
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTickCmd(a.opts.AutoRefresh)}
		if !a.loading {
			a.loading = true
			cmds = append(cmds, a.spinner.Tick, loadGraphCmd(a.load, a.opts.LoadTimeout))
		}
		return a, tea.Batch(cmds...)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if idx := components.TabAtX(msg.X); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "?":
		a.showHelp = !a.showHelp
		return a, nil
	case "esc":
		a.showHelp = false
		return a, nil
	case "r":
		if a.loading {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(a.spinner.Tick, loadGraphCmd(a.load, a.opts.LoadTimeout))
	case "tab", "right", "l":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "shift+tab", "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	}
	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// currentView returns the curves for the active tab.
func (a App) currentView() model.CurveSet {
	if a.graph == nil {
		return model.CurveSet{}
	}
	switch a.activeTab {
	case 0:
		return a.graph.Views.Week
	case 1:
		return a.graph.Views.Month
	default:
		return a.graph.Views.FullHorizon
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		if a.err != nil {
			return a.viewError()
		}
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  nestegg needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ nestegg"))
	b.WriteString(subtitleStyle.Render(" · Savings Trajectory"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Forecasting user %d...", a.opts.UserID)))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Bad).
		Background(t.Surface).
		Padding(1, 3).
		Width(min(a.width-4, 70))
	titleStyle := lipgloss.NewStyle().Foreground(t.Bad).Background(t.Surface).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	body := titleStyle.Render("Could not load trajectory") + "\n\n" +
		bodyStyle.Render(a.err.Error()) + "\n\n" +
		hintStyle.Render("[r] retry   [q] quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	rows := []struct{ key, desc string }{
		{"1 2 3", "week / month / full horizon"},
		{"tab ←→", "cycle views"},
		{"r", "refresh trajectory"},
		{"?", "toggle help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-8s", r.key)))
		b.WriteString(descStyle.Render(r.desc))
		b.WriteString("\n")
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(strings.TrimRight(b.String(), "\n")),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// Header: tab bar, then the user and horizon pill.
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	meta := a.graph.Metadata
	pill := pillStyle.Render(" user ") + pillAccent.Render(fmt.Sprintf("%d", meta.UserID)) +
		pillStyle.Render(" │ ") + pillAccent.Render(fmt.Sprintf("%dd", meta.DaysHorizon)) +
		pillStyle.Render(" │ forecast ") + pillAccent.Render(meta.ForecastMode) +
		pillStyle.Render(" ")
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	warning := ""
	switch {
	case a.err != nil:
		warning = "refresh failed: " + a.err.Error()
	case meta.ModelError != nil:
		warning = *meta.ModelError
	}
	age := ""
	if !a.loadedAt.IsZero() {
		age = cli.FormatAgo(a.loadedAt)
		if a.loadTime > 0 {
			age += fmt.Sprintf(" (%.1fs)", a.loadTime.Seconds())
		}
	}
	statusBar := components.RenderStatusBar(w, truncStr(warning, w/2), age)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	content := a.renderTrajectory(cw, contentH)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderTrajectory draws the metric cards, goal bars and charts for the
// active view.
func (a App) renderTrajectory(cw, contentH int) string {
	t := theme.Active
	meta := a.graph.Metadata
	view := a.currentView()

	projectedEnd := view.ProjectedSavings.Final()
	idealEnd := view.IdealPlan.Final()

	metrics := []components.Metric{
		{Label: "Savings", Value: cli.FormatMoneyShort(meta.CurrentSavings), Note: cli.FormatMoneyShort(meta.IncomeMonthly) + "/mo income"},
		{Label: "Goal", Value: cli.FormatMoneyShort(meta.GoalAmount), Note: fmt.Sprintf("in %d days", meta.DaysHorizon)},
		{Label: "Alignment", Value: cli.FormatScore(meta.MoneyScore), Color: theme.ScoreColor(meta.MoneyScore), Note: "vs ideal plan"},
		{Label: "Overall", Value: cli.FormatScore(meta.OverallScore), Color: theme.ScoreColor(meta.OverallScore), Note: fmt.Sprintf("%d purchases", meta.HistoryLength)},
	}

	var rows []string
	if a.isCompactLayout() {
		rows = append(rows,
			components.MetricCardRow(metrics[:2], cw),
			components.MetricCardRow(metrics[2:], cw))
	} else {
		rows = append(rows, components.MetricCardRow(metrics, cw))
	}

	inner := components.CardInnerWidth(cw)
	labelW := 10
	barW := max(inner-labelW-28, 10)
	goals := components.GoalBar("Projected", projectedEnd, meta.GoalAmount,
		cli.FormatMoney(projectedEnd)+" / "+cli.FormatMoney(meta.GoalAmount), labelW, barW) + "\n" +
		components.GoalBar("Ideal", idealEnd, meta.GoalAmount,
			cli.FormatMoney(idealEnd)+" / "+cli.FormatMoney(meta.GoalAmount), labelW, barW)
	rows = append(rows, components.ContentCard(fmt.Sprintf("Day %d outlook", len(view.Days)), goals, cw))

	used := 0
	for _, r := range rows {
		used += lipgloss.Height(r)
	}
	chartH := max(contentH-used-6, 4)

	chart := components.SavingsChart(view.ProjectedSavings, components.DayLabels(view.Days),
		meta.GoalAmount, t.Projected, inner, chartH)
	rows = append(rows, components.ContentCard("Projected savings", chart, cw))

	sparkW := components.CardInnerWidth(cw) - 12
	spend := a.graph.TimeSeries.ForecastSpend.Head(len(view.Days))
	lines := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("ideal     ") +
		components.Sparkline(components.Resample(view.IdealPlan, sparkW), t.Ideal) + "\n" +
		lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("spend     ") +
		components.Sparkline(components.Resample(spend, sparkW), t.Spend)
	rows = append(rows, components.ContentCard("", lines, cw))

	return strings.Join(rows, "\n")
}

// ─── Commands ───────────────────────────────────────────────────

type refreshTickMsg struct{}

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// loadGraphCmd runs load in the background and reports a GraphLoadedMsg.
func loadGraphCmd(load Loader, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		g, err := load(ctx)
		return GraphLoadedMsg{Graph: g, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// truncateHeight keeps at most limit lines of s.
func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
