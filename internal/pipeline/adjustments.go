package pipeline

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/nestegg/internal/model"
)

// Relation is how a purchase changes future spending.
type Relation string

// Relations.
const (
	RelationSubstitute Relation = "substitute" // replaces a recurring outside purchase
	RelationComplement Relation = "complement" // brings its own recurring cost
	RelationOther      Relation = "other"
)

// Semantics is the heuristic reading of one purchase.
type Semantics struct {
	Relation          Relation
	Necessity         float64
	PaybackDays       int
	MonthlyComplement float64
}

var (
	longTermMerchants = []string{"ikea", "home depot", "lowe's", "best buy", "costco", "target", "walmart",
		"keurig", "dyson", "whirlpool", "samsung", "lg", "apple store"}
	coffeeMerchants = []string{"starbucks", "dunkin", "bluebottle", "coffee bean", "peet", "philz"}
	durableKeywords = []string{"coffee maker", "coffee machine", "keurig", "espresso", "appliance",
		"water filter", "air purifier", "air fryer", "vacuum", "dishwasher",
		"washer", "dryer", "fridge", "refrigerator"}
)

const (
	complementDelayDays = 14
	rampSteepness       = 6.0
	rampMidpoint        = 0.35
)

// Classify reads a purchase's merchant, category and description text.
func Classify(r model.PurchaseRecord) Semantics {
	text := strings.ToLower(r.Merchant + " " + r.Category + " " + r.Description)

	s := Semantics{Relation: RelationOther, Necessity: 0.4}
	switch {
	case strings.Contains(text, "coffee maker") || strings.Contains(text, "keurig"):
		s.Relation = RelationSubstitute
		s.PaybackDays = 90
	case containsAny(text, "filter", "pods"):
		s.Relation = RelationComplement
		s.MonthlyComplement = 15
	case containsAny(text, "milk", "cereal"):
		s.Relation = RelationComplement
		s.MonthlyComplement = 25
	}

	switch {
	case containsAny(text, "rent", "mortgage", "utilities", "insurance", "medicine"):
		s.Necessity = 0.9
	case containsAny(text, "entertainment", "luxury", "gaming", "hobby"):
		s.Necessity = 0.1
	}
	return s
}

// AdjustmentNote explains one contribution to the adjustment series.
type AdjustmentNote struct {
	Kind     string  `json:"kind"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	StartDay int     `json:"start_day"`
	Days     int     `json:"days"`
	Daily    float64 `json:"daily"`
}

type datedRecord struct {
	model.PurchaseRecord
	at time.Time
}

// SemanticAdjustments converts durable and consumable purchases into per-day
// dollar adjustments over horizon days. Substitutes ramp up a daily saving
// after they pay back; complements cost a fixed amount per day after a delay.
// Records without a parseable timestamp are ignored.
func SemanticAdjustments(records []model.PurchaseRecord, horizon int) ([]float64, []AdjustmentNote) {
	steps := max(1, horizon)
	adj := make([]float64, steps)
	var notes []AdjustmentNote

	dated := make([]datedRecord, 0, len(records))
	for _, r := range records {
		if t, ok := r.Time(); ok {
			dated = append(dated, datedRecord{PurchaseRecord: r, at: t})
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })

	for _, r := range dated {
		sem := Classify(r.PurchaseRecord)
		merchant := strings.ToLower(strings.TrimSpace(r.Merchant))
		desc := strings.ToLower(r.Description)

		if sem.Relation == RelationSubstitute || containsTerm(merchant, longTermMerchants) || containsAny(desc, durableKeywords...) {
			target := weeklyCoffeeSavings(dated, r.at) / 7
			target *= (0.8 + 0.4*sem.Necessity) * (1 + math.Min(r.Amount, 400)/1000)

			payback := sem.PaybackDays
			if payback <= 0 {
				payback = int(math.Ceil(r.Amount / math.Max(target, 0.1)))
			}

			start := min(max(payback, 0), steps-1)
			rampDays := min(45, max(10, int(10+r.Amount/12)))
			end := min(start+rampDays, steps)

			if end > start && target > 0 {
				n := end - start
				for i := 0; i < n; i++ {
					x := 0.0
					if n > 1 {
						x = float64(i) / float64(n-1)
					}
					adj[start+i] += target / (1 + math.Exp(-rampSteepness*(x-rampMidpoint)))
				}
				notes = append(notes, AdjustmentNote{
					Kind: "substitute_gain", Merchant: r.Merchant, Amount: r.Amount,
					StartDay: start, Days: n, Daily: target,
				})
			}
		}

		if sem.Relation == RelationComplement && sem.MonthlyComplement > 0 {
			start := min(complementDelayDays, steps-1)
			perDay := sem.MonthlyComplement / 30 * (0.7 + 0.6*sem.Necessity)
			for d := start; d < steps; d++ {
				adj[d] -= perDay
			}
			notes = append(notes, AdjustmentNote{
				Kind: "complement_cost", Merchant: r.Merchant, Amount: r.Amount,
				StartDay: start, Days: steps - start, Daily: perDay,
			})
		}
	}
	return adj, notes
}

// weeklyCoffeeSavings estimates what brewing at home saves per week, from
// coffee-shop spend in the 14 days before at.
func weeklyCoffeeSavings(records []datedRecord, at time.Time) float64 {
	from := at.Add(-14 * 24 * time.Hour)
	var spend float64
	for _, r := range records {
		if r.at.Before(at) && !r.at.Before(from) && containsTerm(strings.ToLower(strings.TrimSpace(r.Merchant)), coffeeMerchants) {
			spend += r.Amount
		}
	}
	weekly := spend * 7 / 14
	if weekly <= 0 {
		weekly = 25
	}
	return math.Max(weekly*0.6, 6)
}

// containsTerm reports whether s equals one of terms.
func containsTerm(s string, terms []string) bool {
	for _, t := range terms {
		if s == t {
			return true
		}
	}
	return false
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Jitter perturbs adjustment series. Implementations must be deterministic
// for a given configuration and user.
type Jitter interface {
	Apply(userID int, adj []float64)
}

// NoJitter leaves adjustments untouched.
type NoJitter struct{}

// Apply implements Jitter.
func (NoJitter) Apply(int, []float64) {}

// SeededJitter adds zero-mean Gaussian noise with standard deviation Scale,
// seeded from Seed and the user id.
type SeededJitter struct {
	Seed  uint64
	Scale float64
}

// Apply implements Jitter.
func (j SeededJitter) Apply(userID int, adj []float64) {
	if j.Scale <= 0 {
		return
	}
	rng := rand.New(rand.NewPCG(j.Seed, uint64(userID)))
	for i := range adj {
		adj[i] += rng.NormFloat64() * j.Scale
	}
}
