package planner

import (
	"math"
	"testing"
)

func TestIdealCurve_Scenario(t *testing.T) {
	// income 3000/mo, savings 1000, goal 5000, 30 days.
	c := IdealCurve(1000, 100, 5000, 30)
	if len(c) != 30 {
		t.Fatalf("len = %d, want 30", len(c))
	}
	if c[0] != 1000 {
		t.Errorf("c[0] = %v, want 1000", c[0])
	}
	if c.Final() > 5000 {
		t.Errorf("final = %v, want <= 5000", c.Final())
	}
	for d := 1; d < len(c); d++ {
		if c[d] < c[d-1] {
			t.Fatalf("not non-decreasing at %d: %v < %v", d, c[d], c[d-1])
		}
	}
}

func TestIdealCurve_CappedByBudget(t *testing.T) {
	c := IdealCurve(0, 10, 1_000_000, 20)
	for d, v := range c {
		if limit := 10 * float64(d); v > limit+1e-9 {
			t.Fatalf("c[%d] = %v exceeds linear cap %v", d, v, limit)
		}
	}
}

func TestIdealCurve_LogisticWhenBudgetLarge(t *testing.T) {
	c := IdealCurve(0, 1e9, 1000, 11)
	want := 1000 / (1 + math.Exp(-Steepness*(1-Midpoint)))
	if math.Abs(c.Final()-want) > 1e-6 {
		t.Errorf("final = %v, want %v", c.Final(), want)
	}
}

func TestProjectedCurve_Scenario(t *testing.T) {
	c := ProjectedCurve(1000, 100, 30, nil)
	if len(c) != 30 {
		t.Fatalf("len = %d, want 30", len(c))
	}
	if math.Abs(c.Final()-4000) > 1e-9 {
		t.Errorf("final = %v, want 4000", c.Final())
	}
	if c[0] != 1100 {
		t.Errorf("c[0] = %v, want 1100", c[0])
	}
}

func TestProjectedCurve_FloorsContribution(t *testing.T) {
	c := ProjectedCurve(500, 10, 3, []float64{-100, 5, -10})
	want := []float64{500, 515, 515}
	for i := range want {
		if c[i] != want[i] {
			t.Errorf("c[%d] = %v, want %v", i, c[i], want[i])
		}
	}
}

func TestProjectedCurve_Monotone(t *testing.T) {
	adj := []float64{-10, 3, -2, 7, -10, 0}
	c := ProjectedCurve(0, 10, 6, adj)
	for d := 1; d < len(c); d++ {
		if c[d] < c[d-1] {
			t.Fatalf("decreased at %d", d)
		}
	}
}

func TestHorizonClamp(t *testing.T) {
	if got := IdealCurve(10, 5, 100, 0); len(got) != 1 || got[0] != 10 {
		t.Errorf("IdealCurve(h=0) = %v, want [10]", got)
	}
	if got := ProjectedCurve(10, 5, -3, nil); len(got) != 1 || got[0] != 15 {
		t.Errorf("ProjectedCurve(h=-3) = %v, want [15]", got)
	}
}

func TestBudgetAndAdjustments(t *testing.T) {
	if got := DailyBudget(3000, nil); got != 100 {
		t.Errorf("DailyBudget(empty) = %v, want 100", got)
	}
	if got := DailyBudget(300, []float64{50, 50}); got != 0 {
		t.Errorf("DailyBudget(overspend) = %v, want 0", got)
	}

	f := []float64{10, 20, 30}
	adj := ForecastAdjustments(f)
	if adj[0] != 10 || adj[1] != 0 || adj[2] != -10 {
		t.Errorf("adjustments = %v, want [10 0 -10]", adj)
	}
	tf := TrendFactor(f)
	if tf[0] != 0.5 || tf[2] != 1.5 {
		t.Errorf("trend = %v", tf)
	}
	if got := TrendFactor([]float64{0, 0}); got[0] != 1 {
		t.Errorf("trend on zero forecast = %v, want 1s", got)
	}
}
