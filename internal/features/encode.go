// Package features encodes purchases into model inputs. Training and
// inference share this one transform.
package features

import (
	"github.com/theirongolddev/nestegg/internal/model"
)

// RollingWindow is the per-category window for the running mean amount.
const RollingWindow = 20

// Column names, in order.
var Columns = func() []string {
	cols := []string{"dow", "hour", "month", "amount", "is_recurring", "income", "is_discretionary", "delta_vs_cat"}
	for _, c := range Categories {
		cols = append(cols, "cat_"+c)
	}
	return cols
}()

// Encode encodes records against a single monthly income.
func Encode(records []model.PurchaseRecord, income float64) model.FeatureTable {
	incomes := make([]float64, len(records))
	for i := range incomes {
		incomes[i] = income
	}
	return encode(records, incomes)
}

// EncodeSamples encodes training samples, each with its own income.
func EncodeSamples(samples []model.TrainingSample) model.FeatureTable {
	records := make([]model.PurchaseRecord, len(samples))
	incomes := make([]float64, len(samples))
	for i, s := range samples {
		records[i] = s.Record
		incomes[i] = s.Income
	}
	return encode(records, incomes)
}

func encode(records []model.PurchaseRecord, incomes []float64) model.FeatureTable {
	table := model.FeatureTable{
		Columns: append([]string(nil), Columns...),
		Rows:    make([]model.FeatureVector, 0, len(records)),
	}

	recent := make(map[string][]float64)

	for i, r := range records {
		dow, hour, month := 0.0, 0.0, 1.0
		if t, ok := r.Time(); ok {
			// Monday is 0.
			dow = float64((int(t.Weekday()) + 6) % 7)
			hour = float64(t.Hour())
			month = float64(t.Month())
		}

		cat := Canonical(r.Category, r.Merchant)

		window := append(recent[cat], r.Amount)
		if len(window) > RollingWindow {
			window = window[len(window)-RollingWindow:]
		}
		recent[cat] = window
		var sum float64
		for _, v := range window {
			sum += v
		}
		delta := r.Amount - sum/float64(len(window))

		row := model.FeatureVector{
			dow,
			hour,
			month,
			r.Amount,
			boolf(r.IsRecurring),
			incomes[i],
			boolf(!IsEssential(cat)),
			delta,
		}
		for _, c := range Categories {
			row = append(row, boolf(c == cat))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
