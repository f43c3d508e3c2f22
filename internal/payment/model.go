package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode is how the money arrived
type Mode string

const (
	ModeMpesa  Mode = "MPESA"
	ModeCash   Mode = "CASH"
	ModeBank   Mode = "BANK"
	ModeCheque Mode = "CHEQUE"
)

// ValidMode reports whether m is a supported payment mode
func ValidMode(m string) bool {
	switch Mode(m) {
	case ModeMpesa, ModeCash, ModeBank, ModeCheque:
		return true
	}
	return false
}

// Payment is a raw money-received event.
//
// ExternalRef is the provider transaction ID for mobile money and a generated
// reference for manual entries; it is unique system-wide and is the
// idempotency key that keeps retried webhooks from creating duplicates.
// Amount is immutable. Receipted flips from false to true exactly once, when
// settlement produces the receipt, and the row is never mutated again.
// CustomerID is nullable: an M-Pesa payment whose bill reference matches no
// customer is stored unmatched for manual reconciliation.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	CustomerID  *int64          `json:"customer_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        Mode            `json:"mode"`
	ExternalRef string          `json:"external_ref"`
	PayerName   string          `json:"payer_name"`
	PayerPhone  string          `json:"payer_phone"`
	Receipted   bool            `json:"receipted"`
	ReceiptID   *uuid.UUID      `json:"receipt_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
