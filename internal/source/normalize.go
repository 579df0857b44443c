package source

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/nestegg/internal/model"

	"github.com/shopspring/decimal"
)

// Normalize maps a raw purchase payload onto a PurchaseRecord using the
// fixed alias table. Missing or invalid fields take zero values; it never fails.
// fallbackUser is used when the payload carries no user id.
func Normalize(raw map[string]any, fallbackUser int) model.PurchaseRecord {
	r := model.PurchaseRecord{
		UserID:      fallbackUser,
		Timestamp:   coerceString(lookup(raw, aliasTimestamp)),
		Merchant:    coerceString(lookup(raw, aliasMerchant)),
		Category:    coerceString(lookup(raw, aliasCategory)),
		Amount:      CoerceAmount(lookup(raw, aliasAmount)),
		IsRecurring: coerceBool(lookup(raw, aliasRecurring)),
		Description: coerceString(lookup(raw, aliasDescription)),
	}
	if id, ok := coerceInt(lookup(raw, aliasUserID)); ok {
		r.UserID = id
	}
	return Clean(r)
}

// NormalizeAll normalizes a list of raw payloads, preserving order.
func NormalizeAll(raws []map[string]any, fallbackUser int) []model.PurchaseRecord {
	out := make([]model.PurchaseRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, fallbackUser))
	}
	return out
}

// Clean repairs an already typed record: non-finite amounts become 0
// and surrounding whitespace is trimmed from string fields.
func Clean(r model.PurchaseRecord) model.PurchaseRecord {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		r.Amount = 0
	}
	r.Timestamp = strings.TrimSpace(r.Timestamp)
	r.Merchant = strings.TrimSpace(r.Merchant)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	return r
}

func lookup(raw map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// CoerceAmount converts a loosely typed amount to a float.
// Strings may carry a currency symbol or thousands separators.
func CoerceAmount(v any) float64 {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case float32:
		return CoerceAmount(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return 0
		}
		d = parsed
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		d = parsed
	default:
		return 0
	}
	f, _ := d.Float64()
	return f
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "y":
			return true
		}
		return false
	case float64:
		return x != 0
	case int:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}

func coerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}
