// Package pipeline turns purchase histories into savings trajectories.
package pipeline

import (
	"time"

	"github.com/theirongolddev/nestegg/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// DefaultWindowDays is the trailing window used to build the spend series.
	DefaultWindowDays = 30
	// MinSeriesLength is the shortest series handed to the forecaster.
	MinSeriesLength = 3
	// BaselineSpendShare is the share of daily income assumed spent when
	// there is no history at all.
	BaselineSpendShare = 0.6
)

const dayLayout = "2006-01-02"

// AggregateDays sums purchases per calendar day over a window of windowDays
// ending at the latest dated purchase, or at now when no purchase has a
// parseable timestamp. Days without purchases are zero. Output is ascending.
func AggregateDays(h model.UserHistory, windowDays int, now time.Time) model.DailySpendSeries {
	if windowDays < 1 {
		windowDays = 1
	}

	dayMap := make(map[string]decimal.Decimal)
	var end time.Time

	for _, r := range h.Records {
		t, ok := r.Time()
		if !ok {
			continue
		}
		day := truncateDay(t)
		if day.After(end) {
			end = day
		}
		key := day.Format(dayLayout)
		dayMap[key] = dayMap[key].Add(decimal.NewFromFloat(r.Amount))
	}

	if end.IsZero() {
		end = truncateDay(now)
	}
	start := end.AddDate(0, 0, -(windowDays - 1))

	series := make(model.DailySpendSeries, 0, windowDays)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		amt, _ := dayMap[day.Format(dayLayout)].Float64()
		series = append(series, model.DailySpend{Date: day, Amount: amt})
	}
	return series
}

// truncateDay keeps the calendar date of t as written, dropping its zone.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PadSeries pads the front of values to at least minLen points. The pad value is
// the mean of values, or fallback when values is empty.
func PadSeries(values []float64, minLen int, fallback float64) []float64 {
	if len(values) >= minLen {
		return values
	}

	pad := fallback
	if len(values) > 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		pad = sum / float64(len(values))
	}

	out := make([]float64, 0, minLen)
	for i := len(values); i < minLen; i++ {
		out = append(out, pad)
	}
	return append(out, values...)
}

// BaselineDailySpend is the spend assumed for a user with no history.
func BaselineDailySpend(incomeMonthly float64) float64 {
	return BaselineSpendShare * incomeMonthly / 30
}

// SpendSeries aggregates the window and pads it to MinSeriesLength.
func SpendSeries(h model.UserHistory, windowDays int, incomeMonthly float64, now time.Time) []float64 {
	values := AggregateDays(h, windowDays, now).Values()
	return PadSeries(values, MinSeriesLength, BaselineDailySpend(incomeMonthly))
}
