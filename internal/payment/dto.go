package payment

// PaymentResponse represents the response for a single payment
type PaymentResponse struct {
	ID          string `json:"id"`
	CustomerID  *int64 `json:"customer_id,omitempty"`
	Amount      string `json:"amount"`
	Mode        string `json:"mode"`
	ExternalRef string `json:"external_ref"`
	PayerName   string `json:"payer_name,omitempty"`
	PayerPhone  string `json:"payer_phone,omitempty"`
	Receipted   bool   `json:"receipted"`
	ReceiptID   string `json:"receipt_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ToResponse converts a Payment model to a PaymentResponse DTO
func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:          p.ID.String(),
		CustomerID:  p.CustomerID,
		Amount:      p.Amount.StringFixed(2),
		Mode:        string(p.Mode),
		ExternalRef: p.ExternalRef,
		PayerName:   p.PayerName,
		PayerPhone:  p.PayerPhone,
		Receipted:   p.Receipted,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if p.ReceiptID != nil {
		resp.ReceiptID = p.ReceiptID.String()
	}
	return resp
}
