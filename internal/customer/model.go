package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents a customer's service status
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Type distinguishes how a customer is billed
type Type string

const (
	TypePrepaid  Type = "prepaid"
	TypePostpaid Type = "postpaid"
)

// Customer is a tenant-scoped billing subject.
//
// ClosingBalance is the authoritative running amount owed: positive means the
// customer owes money, negative means they hold credit from overpayment. It is
// mutated only by invoice generation (adds the monthly charge) and settlement
// (subtracts the payment amount). Customers are never deleted while invoices
// or payments reference them; deactivation is a status change.
type Customer struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	CustomerType   Type            `json:"customer_type"`
	MonthlyCharge  decimal.Decimal `json:"monthly_charge"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
