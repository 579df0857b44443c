package source

// DiscoveredFile is a per-user history file found on disk.
type DiscoveredFile struct {
	Path   string
	UserID int
}

// Field aliases accepted in raw purchase payloads, in priority order.
var (
	aliasTimestamp   = []string{"ts", "timestamp", "purchase_time", "purchase_date", "date"}
	aliasUserID      = []string{"user_id", "userId", "customer_id"}
	aliasMerchant    = []string{"merchant", "merchant_name", "payee"}
	aliasAmount      = []string{"amount", "value", "price"}
	aliasCategory    = []string{"category", "type"}
	aliasDescription = []string{"description", "desc", "memo"}
	aliasRecurring   = []string{"is_recurring", "recurring"}
)
