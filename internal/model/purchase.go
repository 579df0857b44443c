// Package model defines domain types for purchase histories and savings trajectories.
package model

import (
	"strings"
	"time"
)

// PurchaseRecord is one normalized purchase event.
// Timestamp is kept verbatim; it is only parsed for aggregation.
type PurchaseRecord struct {
	UserID      int     `json:"user_id"`
	Timestamp   string  `json:"ts"`
	Merchant    string  `json:"merchant"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	IsRecurring bool    `json:"is_recurring"`
	Description string  `json:"description"`
}

// Same reports whether two records share the dedup identity
// (timestamp, amount, merchant, category, description).
func (r PurchaseRecord) Same(o PurchaseRecord) bool {
	return r.Timestamp == o.Timestamp &&
		r.Amount == o.Amount &&
		r.Merchant == o.Merchant &&
		r.Category == o.Category &&
		r.Description == o.Description
}

// timeLayouts are tried in order when parsing a record timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the record timestamp. The second return is false when
// the timestamp is empty or matches none of the known layouts.
func (r PurchaseRecord) Time() (time.Time, bool) {
	return ParseTimestamp(r.Timestamp)
}

// ParseTimestamp parses a purchase timestamp in any supported layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UserHistory is the ordered purchase list for one user, in arrival order.
type UserHistory struct {
	UserID  int              `json:"user_id"`
	Records []PurchaseRecord `json:"records"`
}

// Len returns the number of stored records.
func (h UserHistory) Len() int {
	return len(h.Records)
}

// Last returns the most recently appended record.
func (h UserHistory) Last() (PurchaseRecord, bool) {
	if len(h.Records) == 0 {
		return PurchaseRecord{}, false
	}
	return h.Records[len(h.Records)-1], true
}

// TrainingSample pairs a purchase with the income it was scored against
// and its synthetic target. Features are re-derived at fit time.
type TrainingSample struct {
	Record PurchaseRecord `json:"record"`
	Income float64        `json:"income"`
	Target float64        `json:"target"`
}
