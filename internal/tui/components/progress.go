package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

// ProgressBar renders a block progress bar with a percentage suffix.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)

	filled := int(pct * float64(width))
	filled = min(max(filled, 0), width)

	barColor := t.Accent
	if pct >= 1 {
		barColor = t.Good
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// GoalPct is the fraction of goal reached by value, clamped to [0, 1].
func GoalPct(value, goal float64) float64 {
	if goal <= 0 {
		return 1
	}
	return clamp01(value / goal)
}

// ColorForGoal returns red/orange/yellow/green as progress toward a goal grows.
func ColorForGoal(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 1:
		return string(t.Good)
	case pct >= 0.5:
		return string(t.Accent)
	case pct >= 0.25:
		return string(t.Warn)
	default:
		return string(t.Bad)
	}
}

// GoalBar renders a labeled bar for value toward goal, followed by the
// caption (typically "$4,000 / $10,000").
func GoalBar(label string, value, goal float64, caption string, labelW, barWidth int) string {
	t := theme.Active
	pct := GoalPct(value, goal)

	bar := progress.New(
		progress.WithSolidFill(ColorForGoal(pct)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorForGoal(pct))).Background(t.Surface).Bold(true)
	captionStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100)) +
		spaceStyle.Render("  ") +
		captionStyle.Render(caption)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
