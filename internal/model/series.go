package model

import "time"

// DailySpend holds the total spend for a single calendar day.
type DailySpend struct {
	Date   time.Time
	Amount float64
}

// DailySpendSeries is a dense, ascending run of days.
type DailySpendSeries []DailySpend

// Values returns the amounts in date order.
func (s DailySpendSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = d.Amount
	}
	return out
}

// Total returns the sum of all days.
func (s DailySpendSeries) Total() float64 {
	var sum float64
	for _, d := range s {
		sum += d.Amount
	}
	return sum
}

// Curve is a per-day series over a planning horizon.
type Curve []float64

// Final returns the last value, or 0 for an empty curve.
func (c Curve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1]
}

// Head returns at most the first n values.
func (c Curve) Head(n int) Curve {
	if n > len(c) {
		n = len(c)
	}
	if n < 0 {
		n = 0
	}
	return c[:n]
}

// FeatureVector is one encoded purchase.
type FeatureVector []float64

// FeatureTable is an encoded purchase list with named columns.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureVector
}
