package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

// Tab is one trajectory view in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs are the week, month and full-horizon views, in that order.
var Tabs = []Tab{
	{Name: "Week", Key: '1'},
	{Name: "Month", Key: '2'},
	{Name: "Full", Key: '3'},
}

const tabGap = 2

// TabVisualWidth is the rendered width of tab i, shortcut included.
func TabVisualWidth(i int) int {
	return len(Tabs[i].Name) + 4 // " [k]" suffix
}

// TabAtX returns the tab under column x of the rendered bar, or -1.
func TabAtX(x int) int {
	pos := 1 // leading space
	for i := range Tabs {
		w := TabVisualWidth(i)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + tabGap
	}
	return -1
}

// RenderTabBar renders the one-line tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		name := inactiveStyle.Render(tab.Name)
		if i == activeIdx {
			name = activeStyle.Render(tab.Name)
		}
		parts[i] = name + keyStyle.Render(" ["+string(tab.Key)+"]")
	}

	bar := spaceStyle.Render(" ") + strings.Join(parts, spaceStyle.Render(strings.Repeat(" ", tabGap)))
	if pad := width - lipgloss.Width(bar); pad > 0 {
		bar += spaceStyle.Render(strings.Repeat(" ", pad))
	}
	return bar
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
