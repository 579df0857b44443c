package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. warning, when set, replaces
// the key hints and is drawn in the warning color.
func RenderStatusBar(width int, warning, dataAge string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := base.Render(" [1-3]view  [r]efresh  [?]help  [q]uit")
	if warning != "" {
		left = lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).Render(" " + warning)
	}
	right := ""
	if dataAge != "" {
		right = base.Render("Updated " + dataAge + " ")
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + base.Render(strings.Repeat(" ", padding)) + right
}
