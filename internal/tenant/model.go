package tenant

import "time"

// Tenant is an isolated organization on the platform. Every billing row is
// scoped to exactly one tenant.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Shortcode string    `json:"shortcode"` // mobile-money paybill used for webhook routing
	SenderID  string    `json:"sender_id"` // SMS sender name
	CreatedAt time.Time `json:"created_at"`
}
