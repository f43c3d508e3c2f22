package mpesa

import "github.com/shopspring/decimal"

// CallbackRequest is the payment notification posted by the mobile-money
// provider. BillReference carries the phone number the customer registered
// with, which is how the payment is matched within the tenant.
type CallbackRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	PayerPhone    string          `json:"payer_phone"`
	PayerName     string          `json:"payer_name"`
	BillReference string          `json:"bill_reference"`
	Timestamp     string          `json:"timestamp"`
}

// CallbackResponse is the acknowledgment the provider expects. Anything but
// result code 0 triggers provider-side retries, so the webhook acknowledges
// as soon as the payment is stored and settles asynchronously.
type CallbackResponse struct {
	ResultCode int    `json:"result_code"`
	ResultDesc string `json:"result_desc"`
}

var (
	ackAccepted = CallbackResponse{ResultCode: 0, ResultDesc: "Accepted"}
	ackRejected = CallbackResponse{ResultCode: 1, ResultDesc: "Rejected"}
)
