package purchase

import (
	"math"
	"strings"

	"github.com/theirongolddev/nestegg/internal/model"
)

// Synthetic target bounds.
const (
	TargetBase = 750.0
	TargetMin  = 300.0
	TargetMax  = 1000.0
)

var (
	essentialCategories     = []string{"groceries", "rent", "utilities", "healthcare"}
	discretionaryCategories = []string{"entertainment", "restaurants", "shopping"}
	goodMerchants           = []string{"grocery", "pharmacy", "gas station", "utility"}
	badMerchants            = []string{"casino", "luxury", "expensive"}
)

// Target is the rule-based score a purchase is trained toward. Essentials
// score better than discretionary spend, both scaled by the amount relative to
// daily income. Merchant keywords and a flat amount penalty adjust the result,
// which is clamped to [TargetMin, TargetMax].
func Target(r model.PurchaseRecord, incomeMonthly float64) float64 {
	category := strings.ToLower(r.Category)
	merchant := strings.ToLower(r.Merchant)

	var ratio float64
	if incomeMonthly > 0 {
		ratio = r.Amount / (incomeMonthly / 30)
	}

	var catMod float64
	switch {
	case containsAny(category, essentialCategories):
		catMod = 50 - math.Min(ratio*100, 150)
	case containsAny(category, discretionaryCategories):
		catMod = -math.Min(ratio*150, 200)
	default:
		catMod = -math.Min(ratio*100, 100)
	}

	var merchMod float64
	switch {
	case containsAny(merchant, goodMerchants):
		merchMod = 25
	case containsAny(merchant, badMerchants):
		merchMod = -75
	}

	amountPenalty := -math.Min(r.Amount/10, 100)

	score := TargetBase + catMod + merchMod + amountPenalty
	return math.Max(TargetMin, math.Min(TargetMax, score))
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
