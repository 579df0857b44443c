package features

import "strings"

// Canonical categories, in one-hot column order.
const (
	CatGroceries     = "groceries"
	CatRent          = "rent"
	CatUtilities     = "utilities"
	CatRestaurants   = "restaurants"
	CatEntertainment = "entertainment"
	CatOther         = "other"
)

// Categories lists the canonical categories in column order.
var Categories = []string{CatGroceries, CatRent, CatUtilities, CatRestaurants, CatEntertainment, CatOther}

var essentials = map[string]bool{CatRent: true, CatUtilities: true, CatGroceries: true}

type alias struct {
	key, cat string
}

// aliases is matched exactly first, then as substrings in this order.
var aliases = []alias{
	{"grocery", CatGroceries}, {"groceries", CatGroceries}, {"supermart", CatGroceries},
	{"target", CatGroceries}, {"costco", CatGroceries}, {"whole foods", CatGroceries},
	{"walmart", CatGroceries}, {"trader joe", CatGroceries}, {"trader joe's", CatGroceries},

	{"rent", CatRent}, {"rentco", CatRent}, {"mortgage", CatRent}, {"hoa", CatRent},

	{"utility", CatUtilities}, {"utilities", CatUtilities}, {"city power", CatUtilities},
	{"internet", CatUtilities}, {"wifi", CatUtilities}, {"electric", CatUtilities},
	{"gas", CatUtilities}, {"water", CatUtilities}, {"comcast", CatUtilities}, {"verizon", CatUtilities},

	{"restaurant", CatRestaurants}, {"resturant", CatRestaurants}, {"food", CatRestaurants},
	{"other food", CatRestaurants}, {"starbucks", CatRestaurants}, {"bluebottle", CatRestaurants},
	{"coffee", CatRestaurants}, {"ubereats", CatRestaurants}, {"doordash", CatRestaurants},
	{"chipotle", CatRestaurants}, {"office lunch", CatRestaurants}, {"deli", CatRestaurants},

	{"entertainment", CatEntertainment}, {"netflix", CatEntertainment}, {"amc", CatEntertainment},
	{"concert", CatEntertainment}, {"spotify", CatEntertainment}, {"theatre", CatEntertainment},
}

var exactAliases = func() map[string]string {
	m := make(map[string]string, len(aliases))
	for _, a := range aliases {
		m[a.key] = a.cat
	}
	return m
}()

// keyword rules applied when no alias matches.
var rules = []struct {
	cat   string
	terms []string
}{
	{CatRent, []string{"rent", "mortgage"}},
	{CatUtilities, []string{"power", "gas", "water", "internet", "wifi", "electric", "utility"}},
	{CatRestaurants, []string{"restaurant", "resturant", "cafe", "coffee", "eat", "food", "deli", "pizza", "bar", "grill", "dash", "eats"}},
	{CatEntertainment, []string{"movie", "netflix", "spotify", "concert", "amc", "theatre"}},
	{CatGroceries, []string{"grocery", "mart", "market", "costco", "target", "walmart", "trader joe", "whole foods"}},
}

// Canonical maps free-form category and merchant text to a canonical category.
func Canonical(category, merchant string) string {
	return canonicalText(category + " " + merchant)
}

func canonicalText(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return CatOther
	}
	if c, ok := exactAliases[s]; ok {
		return c
	}
	for _, a := range aliases {
		if strings.Contains(s, a.key) {
			return a.cat
		}
	}
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(s, term) {
				return r.cat
			}
		}
	}
	return CatOther
}

// IsEssential reports whether a canonical category counts as essential spend.
func IsEssential(cat string) bool {
	return essentials[cat]
}
