package activity

import "time"

// Entry is one audit-trail record. Writes are best-effort: the financial
// transaction never depends on an entry being persisted.
type Entry struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	CustomerID *int64    `json:"customer_id,omitempty"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}
