// Package planner builds cumulative savings curves over a horizon.
package planner

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/nestegg/internal/model"
)

// Shape of the ideal curve: slow start, acceleration past the midpoint.
const (
	Steepness = 4.8
	Midpoint  = 0.35
)

// IdealCurve approaches goal along a logistic path, never faster than
// saving dailyBudget every day from current.
func IdealCurve(current, dailyBudget, goal float64, horizon int) model.Curve {
	if horizon < 1 {
		horizon = 1
	}

	x := make([]float64, horizon)
	if horizon == 1 {
		x[0] = 0
	} else {
		floats.Span(x, 0, 1)
	}

	out := make(model.Curve, horizon)
	for d, xv := range x {
		y := 1 / (1 + math.Exp(-Steepness*(xv-Midpoint)))
		ideal := current + (goal-current)*y
		linear := current + dailyBudget*float64(d)
		out[d] = math.Min(ideal, linear)
	}
	return out
}

// ProjectedCurve accumulates max(dailyBudget+adjustments[d], 0) on top of
// current. Missing adjustments count as zero.
func ProjectedCurve(current, dailyBudget float64, horizon int, adjustments []float64) model.Curve {
	if horizon < 1 {
		horizon = 1
	}

	contrib := make([]float64, horizon)
	for d := range contrib {
		var adj float64
		if d < len(adjustments) {
			adj = adjustments[d]
		}
		contrib[d] = math.Max(dailyBudget+adj, 0)
	}

	out := make(model.Curve, horizon)
	floats.CumSum(out, contrib)
	floats.AddConst(current, out)
	return out
}

// DailyBudget is what remains of daily income after forecast spend.
func DailyBudget(incomeMonthly float64, forecast model.Curve) float64 {
	return math.Max(0, incomeMonthly/30-mean(forecast))
}

// ForecastAdjustments is positive on days the forecast dips below its own mean.
func ForecastAdjustments(forecast model.Curve) []float64 {
	m := mean(forecast)
	out := make([]float64, len(forecast))
	for d, v := range forecast {
		out[d] = m - v
	}
	return out
}

// TrendFactor is each forecast day relative to the forecast mean.
func TrendFactor(forecast model.Curve) []float64 {
	m := mean(forecast)
	out := make([]float64, len(forecast))
	for d, v := range forecast {
		if m == 0 {
			out[d] = 1
			continue
		}
		out[d] = v / m
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
