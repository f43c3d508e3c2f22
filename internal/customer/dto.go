package customer

import "github.com/shopspring/decimal"

// CreateCustomerRequest represents the request body for registering a customer
type CreateCustomerRequest struct {
	Name          string          `json:"name" validate:"required,min=2,max=100"`
	Phone         string          `json:"phone" validate:"required"`
	CustomerType  string          `json:"customer_type,omitempty"`
	MonthlyCharge decimal.Decimal `json:"monthly_charge"`
}

// UpdateStatusRequest represents the request body for toggling service status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// BalanceResponse represents the response for a customer's balance
type BalanceResponse struct {
	CustomerID     int64  `json:"customer_id"`
	ClosingBalance string `json:"closing_balance"`
}

// CustomerResponse represents the response for a single customer
type CustomerResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	CustomerType   string `json:"customer_type"`
	MonthlyCharge  string `json:"monthly_charge"`
	ClosingBalance string `json:"closing_balance"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// ToResponse converts a Customer model to a CustomerResponse DTO
func (c *Customer) ToResponse() *CustomerResponse {
	return &CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Phone:          c.Phone,
		CustomerType:   string(c.CustomerType),
		MonthlyCharge:  c.MonthlyCharge.StringFixed(2),
		ClosingBalance: c.ClosingBalance.StringFixed(2),
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
