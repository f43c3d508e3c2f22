package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mutua/takabill/internal/customer"
	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/payment"
)

// ErrReceiptNumberTaken signals that a receipt insert hit the unique
// constraint on the receipt number. The orchestrator regenerates and retries
// within its attempt budget.
var ErrReceiptNumberTaken = errors.New("receipt number already taken")

// Store opens the transactional unit of work for settlement. All reads and
// writes inside one Transact call commit or roll back together.
type Store interface {
	Transact(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of operations available inside a settlement transaction.
//
// PaymentForUpdate and CustomerForUpdate take row locks for the duration of
// the transaction; the customer lock is what serializes concurrent
// settlements (and invoice generation) for the same customer.
type Tx interface {
	PaymentForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	CustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*customer.Customer, error)

	// OpenInvoices returns UNPAID/PPAID invoices oldest-created-first.
	OpenInvoices(ctx context.Context, tenantID, customerID int64) ([]*invoice.Invoice, error)

	// ApplyAllocation increases an invoice's paid amount and sets its status.
	ApplyAllocation(ctx context.Context, invoiceID int64, applied decimal.Decimal, status invoice.Status) error

	SetCustomerBalance(ctx context.Context, customerID int64, balance decimal.Decimal) error

	ReceiptNumberExists(ctx context.Context, receiptNo string) (bool, error)

	// InsertReceipt persists the receipt and its invoice lines. Returns
	// ErrReceiptNumberTaken on a receipt-number collision so the caller can
	// regenerate without aborting the transaction.
	InsertReceipt(ctx context.Context, receipt *Receipt) error

	MarkReceipted(ctx context.Context, paymentID, receiptID uuid.UUID) error
}
