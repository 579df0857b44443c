// Package scoring rates how well a projected savings curve follows the ideal one.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/nestegg/internal/model"
)

// Blend weights for level, velocity and acceleration correlation.
const (
	WeightLevel = 0.50
	WeightD1    = 0.35
	WeightD2    = 0.15

	// MaxScore is the top of the score range.
	MaxScore = 1000.0

	overallShapeWeight    = 0.6
	overallProgressWeight = 0.4
)

// Score compares the shapes of two curves on a 0-1000 scale. Curves are
// truncated to the shorter length before comparison.
func Score(ideal, projected model.Curve) float64 {
	n := min(len(ideal), len(projected))
	a, b := ideal[:n], projected[:n]

	blend := WeightLevel*safeCorr(a, b) +
		WeightD1*safeCorr(diff(a), diff(b)) +
		WeightD2*safeCorr(diff(diff(a)), diff(diff(b)))

	return clamp((blend+1)/2*MaxScore, 0, MaxScore)
}

// Overall folds end-of-horizon goal progress into Score. The ratio of projected
// to ideal progress is clamped to [0,1] and blended 60/40 with Score.
func Overall(ideal, projected model.Curve, current, goal float64) float64 {
	if len(ideal) == 0 || len(projected) == 0 {
		return 0
	}

	idealProgress := ideal.Final() - current
	projProgress := projected.Final() - current

	var ratio float64
	switch {
	case idealProgress > 0:
		ratio = clamp(projProgress/idealProgress, 0, 1)
	case projected.Final() >= ideal.Final():
		ratio = 1
	}

	overall := overallShapeWeight*Score(ideal, projected) + overallProgressWeight*ratio*MaxScore
	return clamp(overall, 0, MaxScore)
}

// safeCorr is the Pearson correlation, or 0 with fewer than 3 points or no variance.
func safeCorr(a, b []float64) float64 {
	if len(a) < 3 || len(a) != len(b) {
		return 0
	}
	if flat(a) || flat(b) {
		return 0
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func flat(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := range out {
		out[i] = xs[i+1] - xs[i]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
