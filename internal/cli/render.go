package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flexoki Dark, shared with the TUI's default theme.
var (
	colorBorder    = lipgloss.Color("#282726")
	colorTextDim   = lipgloss.Color("#575653")
	colorTextMuted = lipgloss.Color("#6F6E69")
	colorText      = lipgloss.Color("#FFFCF0")
	colorAccent    = lipgloss.Color("#3AA99F")
	colorGreen     = lipgloss.Color("#879A39")
	colorOrange    = lipgloss.Color("#DA702C")
	colorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorTextMuted)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
	badStyle    = lipgloss.NewStyle().Foreground(colorRed)
	ruleStyle   = lipgloss.NewStyle().Foreground(colorTextDim)
)

// Kind selects how a table value is formatted, aligned and colored.
type Kind int

const (
	Text       Kind = iota // left aligned, as given
	Money                  // $1,234.50, negatives in red
	MoneyShort             // $1,234 above a thousand
	Delta                  // signed money, green when >= 0
	Score                  // 0-1000, colored by band
	Count                  // 1,234
	Bar                    // spend bar scaled to the column peak
)

// barWidth is the bar length of the column peak in a Bar column.
const barWidth = 20

// Column is one table column.
type Column struct {
	Header string
	Kind   Kind
}

// Table is a bordered table whose cells are formatted by column kind.
// Rows hold raw values: strings for Text, numbers for the other kinds.
// A string in a numeric column is printed as-is, right aligned.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]any
	Totals  []any // optional row drawn below a rule
}

// Field is one labeled value in a summary table.
type Field struct {
	Label string
	Kind  Kind
	Value any
}

type cell struct {
	text  string
	style lipgloss.Style
	right bool
}

// RenderTitle renders a title box. Details are appended in a muted color,
// separated by dots.
func RenderTitle(title string, details ...string) string {
	content := titleStyle.Render(title)
	if len(details) > 0 {
		content += mutedStyle.Render("  " + strings.Join(details, " · "))
	}
	width := max(55, lipgloss.Width(content)+2)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(content)
}

// RenderTable renders t with each value formatted by its column kind.
func RenderTable(t Table) string {
	if len(t.Columns) == 0 {
		return ""
	}

	peaks := columnPeaks(t)
	format := func(values []any) []cell {
		cells := make([]cell, len(t.Columns))
		for i, col := range t.Columns {
			var v any
			if i < len(values) {
				v = values[i]
			}
			cells[i] = formatCell(col.Kind, v, peaks[i])
		}
		return cells
	}

	headers := make([]cell, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = cell{text: col.Header, style: headerStyle, right: col.Kind != Text && col.Kind != Bar}
	}
	rows := make([][]cell, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, format(r))
	}
	var totals []cell
	if t.Totals != nil {
		totals = format(t.Totals)
	}
	return renderGrid(t.Title, headers, rows, totals)
}

// RenderFields renders labeled values as a two-column summary table.
func RenderFields(title string, fields []Field) string {
	rows := make([][]cell, 0, len(fields))
	for _, f := range fields {
		v := formatCell(f.Kind, f.Value, 0)
		v.right = true
		rows = append(rows, []cell{{text: f.Label, style: mutedStyle}, v})
	}
	return renderGrid(title, nil, rows, nil)
}

func columnPeaks(t Table) []float64 {
	peaks := make([]float64, len(t.Columns))
	for i, col := range t.Columns {
		if col.Kind != Bar {
			continue
		}
		for _, r := range t.Rows {
			if i < len(r) {
				if f, ok := toFloat(r[i]); ok {
					peaks[i] = max(peaks[i], f)
				}
			}
		}
	}
	return peaks
}

func formatCell(k Kind, v any, peak float64) cell {
	f, numeric := toFloat(v)
	if k == Text || !numeric {
		text := ""
		if v != nil {
			text = fmt.Sprint(v)
		}
		return cell{text: text, style: valueStyle, right: k != Text}
	}

	switch k {
	case Money:
		return cell{text: FormatMoney(f), style: signStyle(f, valueStyle), right: true}
	case MoneyShort:
		return cell{text: FormatMoneyShort(f), style: signStyle(f, valueStyle), right: true}
	case Delta:
		return cell{text: FormatDelta(f, 0), style: signStyle(f, goodStyle), right: true}
	case Score:
		return cell{text: FormatScore(f), style: scoreStyle(f), right: true}
	case Count:
		return cell{text: FormatNumber(int64(f)), style: valueStyle, right: true}
	case Bar:
		n := 0
		if peak > 0 {
			n = max(int(f/peak*barWidth), 0)
		}
		text := fmt.Sprintf("%-*s %s", barWidth, strings.Repeat("█", n), FormatMoneyShort(f))
		return cell{text: text, style: valueStyle}
	default:
		return cell{text: fmt.Sprint(v), style: valueStyle, right: true}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func signStyle(v float64, positive lipgloss.Style) lipgloss.Style {
	if v < 0 {
		return badStyle
	}
	return positive
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 700:
		return goodStyle
	case score >= 400:
		return warnStyle
	default:
		return badStyle
	}
}

// renderGrid draws the box. Column widths come from the unstyled text so
// colored cells line up.
func renderGrid(title string, headers []cell, rows [][]cell, totals []cell) string {
	numCols := len(headers)
	for _, r := range rows {
		numCols = max(numCols, len(r))
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	measure := func(cells []cell) {
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c.text))
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r)
	}
	measure(totals)

	rule := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		return ruleStyle.Render(b.String()) + "\n"
	}
	line := func(cells []cell) string {
		var b strings.Builder
		b.WriteString(ruleStyle.Render("│"))
		for i := range widths {
			c := cell{style: valueStyle}
			if i < len(cells) {
				c = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(c.text))
			text := c.text + pad
			if c.right {
				text = pad + c.text
			}
			b.WriteString(" " + c.style.Render(text) + " ")
			b.WriteString(ruleStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if title != "" {
		b.WriteString("  " + headerStyle.Render(title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(headers) > 0 {
		b.WriteString(line(headers))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, r := range rows {
		b.WriteString(line(r))
	}
	if totals != nil {
		b.WriteString(rule("├", "┼", "┤"))
		b.WriteString(line(totals))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// RenderProgressBar renders progress from zero toward goal.
func RenderProgressBar(current, goal float64, width int) string {
	if goal <= 0 || width <= 0 {
		return ""
	}

	pct := min(max(current/goal, 0), 1)
	filled := min(int(pct*float64(width)), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		goodStyle.Render(bar),
		FormatMoneyShort(current),
		FormatMoneyShort(goal),
	)
}

// RenderScore colors a 0-1000 score by band.
func RenderScore(score float64) string {
	return scoreStyle(score).Render(FormatScore(score))
}

// RenderSparkline draws values as block characters scaled between their
// minimum and maximum, so savings curves that never touch zero still show
// their shape.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var b strings.Builder
	for _, v := range values {
		idx := len(blocks) - 1
		if span > 0 {
			idx = int((v - lo) / span * float64(len(blocks)-1))
		}
		b.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return b.String()
}
