package scoring

import (
	"math"
	"testing"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/planner"
)

func TestScore_IdenticalCurves(t *testing.T) {
	c := model.Curve{1, 2, 4, 8, 16, 32, 64}
	if got := Score(c, c); math.Abs(got-1000) > 1e-6 {
		t.Errorf("Score(c, c) = %v, want 1000", got)
	}
}

func TestScore_Opposite(t *testing.T) {
	a := model.Curve{1, 2, 4, 8, 16, 32}
	b := model.Curve{-1, -2, -4, -8, -16, -32}
	if got := Score(a, b); got > 1e-6 {
		t.Errorf("Score(mirrored) = %v, want 0", got)
	}
}

func TestScore_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Curve
	}{
		{"empty", nil, nil},
		{"single", model.Curve{1}, model.Curve{2}},
		{"two", model.Curve{1, 2}, model.Curve{2, 3}},
		{"constant", model.Curve{5, 5, 5, 5}, model.Curve{1, 2, 3, 4}},
		{"both constant", model.Curve{5, 5, 5}, model.Curve{7, 7, 7}},
	}
	for _, tt := range tests {
		got := Score(tt.a, tt.b)
		if got < 0 || got > 1000 {
			t.Errorf("%s: Score = %v, want in [0,1000]", tt.name, got)
		}
		if got != 500 {
			t.Errorf("%s: Score = %v, want 500 (all correlations zero)", tt.name, got)
		}
	}
}

func TestScore_TruncatesToShorter(t *testing.T) {
	a := model.Curve{1, 2, 3, 4, 5, 6}
	b := model.Curve{1, 2, 3, 4}
	if got, want := Score(a, b), Score(a[:4], b); got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestOverall_Bounds(t *testing.T) {
	ideal := planner.IdealCurve(1000, 100, 5000, 30)
	projected := planner.ProjectedCurve(1000, 100, 30, nil)

	got := Overall(ideal, projected, 1000, 5000)
	if got < 0 || got > 1000 {
		t.Fatalf("Overall = %v, want in [0,1000]", got)
	}
	// Projected reaches at least the ideal's progress here.
	want := 0.6*Score(ideal, projected) + 400
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Overall = %v, want %v", got, want)
	}
}

func TestOverall_NoProgress(t *testing.T) {
	flatCurve := model.Curve{100, 100, 100}
	if got := Overall(flatCurve, flatCurve, 100, 100); math.Abs(got-700) > 1e-9 {
		t.Errorf("Overall(flat) = %v, want %v", got, 0.6*500+400)
	}
	below := model.Curve{90, 90, 90}
	if got := Overall(flatCurve, below, 100, 100); math.Abs(got-300) > 1e-9 {
		t.Errorf("Overall(below) = %v, want %v", got, 0.6*500)
	}
	if got := Overall(nil, nil, 0, 100); got != 0 {
		t.Errorf("Overall(empty) = %v, want 0", got)
	}
}
