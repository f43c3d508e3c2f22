package settlement

import "errors"

// Settlement failure kinds. Handlers map these onto HTTP statuses; everything
// else surfaces as an internal error.
var (
	// ErrPaymentNotFound means the payment ID does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAlreadyReceipted means the payment was settled before. Safe to treat
	// as a no-op on retried webhooks.
	ErrAlreadyReceipted = errors.New("payment already receipted")

	// ErrCustomerNotFound means the payment has no matched customer or the
	// customer row is missing.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrTenantMismatch means the payment belongs to a different tenant than
	// the caller.
	ErrTenantMismatch = errors.New("payment belongs to another tenant")

	// ErrInvalidAmount rejects non-positive payment amounts before any
	// transaction opens.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrInvalidMode rejects unknown payment modes.
	ErrInvalidMode = errors.New("unknown payment mode")

	// ErrReceiptNumberExhausted means receipt number generation kept
	// colliding. The whole settlement rolled back; the caller may retry later.
	ErrReceiptNumberExhausted = errors.New("receipt number generation exhausted retries")

	// ErrConcurrencyConflict means the settlement repeatedly lost the race
	// against concurrent settlements for the same customer.
	ErrConcurrencyConflict = errors.New("settlement conflicted with a concurrent transaction")
)
