package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the payment state of an invoice
type Status string

const (
	StatusUnpaid        Status = "UNPAID"
	StatusPartiallyPaid Status = "PPAID"
	StatusPaid          Status = "PAID"
	StatusCancelled     Status = "CANCELLED"
)

// Invoice is a billing charge for one period.
//
// Amount is immutable once created. AmountPaid starts at zero and only ever
// increases, and never exceeds Amount. Status is derived from the two via
// StatusFor; CANCELLED is terminal and set only through cancellation.
type Invoice struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	CustomerID    int64           `json:"customer_id"`
	InvoiceNo     string          `json:"invoice_no"`
	Period        string          `json:"period"` // YYYY-MM
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        Status          `json:"status"`
	SystemCreated bool            `json:"system_created"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatusFor derives the invoice status from the amount relationship:
// nothing paid is UNPAID, anything in between is PPAID, fully covered is PAID.
func StatusFor(amount, amountPaid decimal.Decimal) Status {
	switch {
	case amountPaid.LessThanOrEqual(decimal.Zero):
		return StatusUnpaid
	case amountPaid.LessThan(amount):
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// Outstanding returns the amount still due on the invoice
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.AmountPaid)
}

// IsOpen reports whether the invoice can still receive allocations
func (i *Invoice) IsOpen() bool {
	return i.Status == StatusUnpaid || i.Status == StatusPartiallyPaid
}

// NumberFor builds the human-readable invoice number for a customer/period
// pair. The (customer, period) uniqueness constraint makes it collision-free.
func NumberFor(customerID int64, period string) string {
	return fmt.Sprintf("INV-%s-%d", period, customerID)
}

// ValidPeriod reports whether p is a YYYY-MM billing period
func ValidPeriod(p string) bool {
	_, err := time.Parse("2006-01", p)
	return err == nil
}
