package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/source"
)

// Dashboard is one user's account snapshot from the banking source.
type Dashboard struct {
	UserID       int              `json:"user_id"`
	Income       float64          `json:"income"`
	Expenditures float64          `json:"expenditures"`
	Score        float64          `json:"score"`
	Saved        float64          `json:"saved"`
	GoalAmount   *float64         `json:"goal_amount,omitempty"`
	TargetDate   string           `json:"target_date,omitempty"`
	Days         *int             `json:"days,omitempty"`
	Purchases    []map[string]any `json:"purchases"`
}

// Records normalizes the dashboard's purchases, oldest first as delivered.
func (d Dashboard) Records() []model.PurchaseRecord {
	return source.NormalizeAll(d.Purchases, d.UserID)
}

// purchaseKeys mark a top-level latest-purchase payload.
var purchaseKeys = []string{"amount", "merchant", "purchase_time", "category", "ts", "timestamp"}

// ParseDashboard decodes a dashboard body. It accepts either a "purchases"
// list or the single latest purchase flattened into the top level.
// fallbackUser is used when the body carries no user id.
func ParseDashboard(body []byte, fallbackUser int) (Dashboard, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Dashboard{}, fmt.Errorf("bank: parsing dashboard: %w", err)
	}
	if raw == nil {
		return Dashboard{}, fmt.Errorf("bank: parsing dashboard: empty body")
	}

	d := Dashboard{
		UserID:       fallbackUser,
		Income:       source.CoerceAmount(first(raw, "income", "income_monthly", "monthly_income")),
		Expenditures: source.CoerceAmount(raw["expenditures"]),
		Score:        source.CoerceAmount(raw["score"]),
		Saved:        source.CoerceAmount(first(raw, "saved", "current_savings", "savings")),
		TargetDate:   stringOf(first(raw, "target_date", "goal_date")),
	}
	if id, ok := intOf(first(raw, "userId", "user_id")); ok {
		d.UserID = id
	}
	if v := first(raw, "goal_amount", "goal"); v != nil {
		g := source.CoerceAmount(v)
		d.GoalAmount = &g
	}
	if days, ok := intOf(first(raw, "days", "days_horizon")); ok && days > 0 {
		d.Days = &days
	}

	switch list := raw["purchases"].(type) {
	case []any:
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				d.Purchases = append(d.Purchases, m)
			}
		}
	default:
		if hasAny(raw, purchaseKeys) {
			latest := make(map[string]any, len(purchaseKeys)+2)
			for _, k := range append(purchaseKeys, "description", "is_recurring") {
				if v, ok := raw[k]; ok {
					latest[k] = v
				}
			}
			d.Purchases = []map[string]any{latest}
		}
	}

	return d, nil
}

func first(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func hasAny(raw map[string]any, keys []string) bool {
	return first(raw, keys...) != nil
}

func intOf(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(x), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
