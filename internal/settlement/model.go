package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the immutable record that a payment was applied. It links one
// payment (1:1, enforced by a unique constraint) to zero or more invoices via
// its lines. Zero lines means the entire amount became unapplied credit.
type Receipt struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   int64           `json:"tenant_id"`
	CustomerID int64           `json:"customer_id"`
	PaymentID  uuid.UUID       `json:"payment_id"`
	ReceiptNo  string          `json:"receipt_no"`
	Amount     decimal.Decimal `json:"amount"`
	PayerName  string          `json:"payer_name"`
	TxnCode    string          `json:"txn_code"`
	CreatedAt  time.Time       `json:"created_at"`
	Lines      []ReceiptLine   `json:"lines"`
}

// ReceiptLine records how much of the receipt's amount went to one invoice
type ReceiptLine struct {
	InvoiceID int64           `json:"invoice_id"`
	InvoiceNo string          `json:"invoice_no"`
	Amount    decimal.Decimal `json:"amount"`
}

// AllocatedTotal returns the sum applied to invoices; never exceeds Amount
func (r *Receipt) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		total = total.Add(line.Amount)
	}
	return total
}
