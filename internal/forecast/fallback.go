package forecast

import (
	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/nestegg/internal/model"
)

// Fallback is the deterministic forecast used whenever no trained model is
// available. Empty input gives zeros and fewer than 7 points repeat the last
// value. Otherwise a level blended from the last value and the last-week mean
// is extended by the recent trend. Values never go below zero.
func Fallback(series []float64, horizon int) model.Curve {
	if horizon < 1 {
		horizon = 1
	}
	out := make(model.Curve, horizon)
	n := len(series)
	if n == 0 {
		return out
	}

	last := series[n-1]
	if n < 7 {
		for i := range out {
			out[i] = max(0, last)
		}
		return out
	}

	base := 0.5*last + 0.5*stat.Mean(series[n-7:], nil)
	back := series[max(0, n-14)]
	trend := (last - back) / float64(max(1, min(7, n-7)))

	for i := range out {
		out[i] = max(0, base+trend*float64(i))
	}
	return out
}
