package invoice

// GenerateRequest represents the request body for a manual generation run
type GenerateRequest struct {
	Period string `json:"period" validate:"required"` // YYYY-MM
}

// GenerateResponse summarizes a generation run
type GenerateResponse struct {
	Period   string             `json:"period"`
	Created  int                `json:"created"`
	Invoices []*InvoiceResponse `json:"invoices"`
}

// InvoiceResponse represents the response for a single invoice
type InvoiceResponse struct {
	ID            int64  `json:"id"`
	CustomerID    int64  `json:"customer_id"`
	InvoiceNo     string `json:"invoice_no"`
	Period        string `json:"period"`
	Amount        string `json:"amount"`
	AmountPaid    string `json:"amount_paid"`
	Status        string `json:"status"`
	SystemCreated bool   `json:"system_created"`
	CreatedAt     string `json:"created_at"`
}

// ToResponse converts an Invoice model to an InvoiceResponse DTO
func (i *Invoice) ToResponse() *InvoiceResponse {
	return &InvoiceResponse{
		ID:            i.ID,
		CustomerID:    i.CustomerID,
		InvoiceNo:     i.InvoiceNo,
		Period:        i.Period,
		Amount:        i.Amount.StringFixed(2),
		AmountPaid:    i.AmountPaid.StringFixed(2),
		Status:        string(i.Status),
		SystemCreated: i.SystemCreated,
		CreatedAt:     i.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
