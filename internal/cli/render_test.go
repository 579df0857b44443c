package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func tableLines(t *testing.T, out string) []string {
	t.Helper()
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if strings.ContainsAny(l, "╭│├╰") {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		t.Fatalf("no table lines in %q", out)
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Fatalf("line %d width = %d, want %d\n%s", i, lipgloss.Width(l), w, out)
		}
	}
	return lines
}

func TestRenderTable_FormatsByKind(t *testing.T) {
	out := RenderTable(Table{
		Columns: []Column{
			{Header: "Merchant"},
			{Header: "Amount", Kind: Money},
			{Header: "Score", Kind: Score},
		},
		Rows: [][]any{
			{"Cafe", 4.5, 812.4},
			{"Grocer", 1234.5, 90},
		},
	})

	lines := tableLines(t, out)
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6\n%s", len(lines), out)
	}
	for _, want := range []string{"│ Cafe     │", "     $4.50 │", "$1,234.50", "  812 │", "   90 │"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q\n%s", want, out)
		}
	}
}

func TestRenderTable_Totals(t *testing.T) {
	out := RenderTable(Table{
		Columns: []Column{{Header: "Item"}, {Header: "Gap", Kind: Delta}},
		Rows:    [][]any{{"a", 50.0}, {"b", -20.0}},
		Totals:  []any{"Total", 30.0},
	})

	lines := tableLines(t, out)
	if len(lines) != 8 {
		t.Fatalf("lines = %d, want 8\n%s", len(lines), out)
	}
	if !strings.Contains(lines[6], "Total") || !strings.Contains(lines[6], "+$30.00") {
		t.Errorf("totals line = %q", lines[6])
	}
	if !strings.Contains(out, "-$20.00") {
		t.Errorf("negative delta missing\n%s", out)
	}
}

func TestRenderTable_BarScalesToPeak(t *testing.T) {
	out := RenderTable(Table{
		Columns: []Column{{Header: "Day"}, {Header: "Spend", Kind: Bar}},
		Rows:    [][]any{{"Mon", 10.0}, {"Tue", 5.0}, {"Wed", 0.0}},
	})

	lines := tableLines(t, out)
	counts := []int{
		strings.Count(lines[3], "█"),
		strings.Count(lines[4], "█"),
		strings.Count(lines[5], "█"),
	}
	if counts[0] != barWidth || counts[1] != barWidth/2 || counts[2] != 0 {
		t.Errorf("bar lengths = %v, want [%d %d 0]", counts, barWidth, barWidth/2)
	}
}

func TestRenderTable_StringInNumericColumn(t *testing.T) {
	out := RenderTable(Table{
		Columns: []Column{{Header: "Name"}, {Header: "Size", Kind: Count}},
		Rows:    [][]any{{"forecaster/1", "12 kB"}, {"scorer", 1500}},
	})
	if !strings.Contains(out, "12 kB") || !strings.Contains(out, "1,500") {
		t.Errorf("table = %s", out)
	}
}

func TestRenderFields(t *testing.T) {
	out := RenderFields("Plan", []Field{
		{Label: "Goal", Kind: Money, Value: 10000.0},
		{Label: "Purchases", Kind: Count, Value: 1234},
		{Label: "Forecast", Value: "model"},
	})

	tableLines(t, out)
	if !strings.HasPrefix(out, "  Plan") {
		t.Errorf("output does not start with the title: %q", out)
	}
	for _, want := range []string{"$10,000.00", "1,234", "model"} {
		if !strings.Contains(out, want) {
			t.Errorf("fields missing %q\n%s", want, out)
		}
	}
}

func TestRenderTitle_Details(t *testing.T) {
	out := RenderTitle("SAVINGS PLAN", "User 3", "90 days")
	if !strings.Contains(out, "SAVINGS PLAN") || !strings.Contains(out, "User 3 · 90 days") {
		t.Errorf("title = %q", out)
	}
}
