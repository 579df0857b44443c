package forecast

import (
	"errors"
	"math"
	"slices"
)

var errNonFinite = errors.New("forecast: non-finite model output")

// arModel is a linear autoregressive one-step predictor over scaled values.
type arModel struct {
	Lag     int       `json:"lag"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Scale   float64   `json:"scale"`
}

// fitAR fits an arModel by full-batch gradient descent on mean squared error.
// Each window of lag points predicts the point that follows it.
func fitAR(series []float64, lag, iterations int, lr float64) (*arModel, error) {
	if len(series) <= lag {
		return nil, errors.New("forecast: series shorter than lag")
	}

	scale := slices.Max(series)
	if scale <= 0 {
		scale = 1
	}
	x := make([]float64, len(series))
	for i, v := range series {
		x[i] = v / scale
	}

	m := &arModel{Lag: lag, Weights: make([]float64, lag), Scale: scale}
	for j := range m.Weights {
		m.Weights[j] = 1 / float64(lag)
	}

	samples := len(x) - lag
	grad := make([]float64, lag)
	for it := 0; it < iterations; it++ {
		clear(grad)
		var gb float64
		for i := lag; i < len(x); i++ {
			window := x[i-lag : i]
			e := m.predictScaled(window) - x[i]
			for j, v := range window {
				grad[j] += e * v
			}
			gb += e
		}
		k := 2 / float64(samples)
		for j := range m.Weights {
			m.Weights[j] -= lr * k * grad[j]
		}
		m.Bias -= lr * k * gb
	}

	if !m.finite() {
		return nil, errNonFinite
	}
	return m, nil
}

func (m *arModel) predictScaled(window []float64) float64 {
	y := m.Bias
	for j, v := range window {
		y += m.Weights[j] * v
	}
	return y
}

func (m *arModel) finite() bool {
	if m == nil || m.Lag < 1 || len(m.Weights) != m.Lag || m.Scale <= 0 {
		return false
	}
	if math.IsNaN(m.Bias) || math.IsInf(m.Bias, 0) {
		return false
	}
	for _, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return false
		}
	}
	return true
}

// rollout predicts horizon steps, feeding each floored prediction back in.
func (m *arModel) rollout(series []float64, horizon int) ([]float64, error) {
	window := make([]float64, 0, m.Lag+horizon)
	for _, v := range series[len(series)-m.Lag:] {
		window = append(window, v/m.Scale)
	}

	out := make([]float64, horizon)
	for i := range out {
		y := m.predictScaled(window[len(window)-m.Lag:])
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, errNonFinite
		}
		y = max(0, y)
		out[i] = y * m.Scale
		window = append(window, y)
	}
	return out, nil
}
