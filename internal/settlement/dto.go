package settlement

import "github.com/shopspring/decimal"

// RecordPaymentRequest represents the request body for a manual payment entry
type RecordPaymentRequest struct {
	CustomerID int64           `json:"customer_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Mode       string          `json:"mode" validate:"required"` // CASH, BANK, CHEQUE, MPESA
	PaidByName string          `json:"paid_by_name,omitempty"`
	Reference  string          `json:"reference,omitempty"` // optional external reference for idempotent retries
}

// SettleRequest represents the request body for settling an existing payment
type SettleRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
}

// ReceiptLineResponse represents one invoice allocation on a receipt
type ReceiptLineResponse struct {
	InvoiceID int64  `json:"invoice_id"`
	InvoiceNo string `json:"invoice_no"`
	Amount    string `json:"amount"`
}

// ReceiptResponse represents the response for a receipt
type ReceiptResponse struct {
	ID         string                `json:"id"`
	CustomerID int64                 `json:"customer_id"`
	PaymentID  string                `json:"payment_id"`
	ReceiptNo  string                `json:"receipt_no"`
	Amount     string                `json:"amount"`
	PayerName  string                `json:"payer_name,omitempty"`
	TxnCode    string                `json:"txn_code,omitempty"`
	CreatedAt  string                `json:"created_at"`
	Lines      []ReceiptLineResponse `json:"lines"`
}

// ToResponse converts a Receipt model to a ReceiptResponse DTO
func (r *Receipt) ToResponse() *ReceiptResponse {
	lines := make([]ReceiptLineResponse, len(r.Lines))
	for i, line := range r.Lines {
		lines[i] = ReceiptLineResponse{
			InvoiceID: line.InvoiceID,
			InvoiceNo: line.InvoiceNo,
			Amount:    line.Amount.StringFixed(2),
		}
	}

	return &ReceiptResponse{
		ID:         r.ID.String(),
		CustomerID: r.CustomerID,
		PaymentID:  r.PaymentID.String(),
		ReceiptNo:  r.ReceiptNo,
		Amount:     r.Amount.StringFixed(2),
		PayerName:  r.PayerName,
		TxnCode:    r.TxnCode,
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Lines:      lines,
	}
}
