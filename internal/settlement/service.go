package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/payment"
)

const (
	// settleTimeout bounds the settlement transaction's wall-clock time.
	settleTimeout = 20 * time.Second

	// conflictRetries is how many times a settlement restarts from scratch
	// after losing a race against a concurrent transaction.
	conflictRetries = 3

	// notifyTimeout bounds the fire-and-forget confirmation send.
	notifyTimeout = 10 * time.Second
)

// Auditor records activity-log entries. Writes are best-effort: a failure is
// logged and never fails the settlement.
type Auditor interface {
	Record(ctx context.Context, tenantID int64, customerID *int64, actor, action, details string) error
}

// Notifier delivers the post-settlement confirmation to the customer.
type Notifier interface {
	Send(ctx context.Context, tenantID int64, phone, text string) error
}

// PaymentRecorder creates payment rows for the manual entry flow.
type PaymentRecorder interface {
	Create(ctx context.Context, params payment.CreateParams) (*payment.Payment, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*payment.Payment, error)
}

// Service is the settlement orchestrator: it validates a payment, allocates
// it across the customer's open invoices, moves the closing balance, issues
// the receipt, and flips the payment's receipted flag, all inside one store
// transaction.
type Service struct {
	store    Store
	payments PaymentRecorder
	numbers  *NumberGenerator
	auditor  Auditor
	notifier Notifier
}

// NewService creates a new settlement service. auditor and notifier may be
// nil, which disables the corresponding best-effort side effect.
func NewService(store Store, payments PaymentRecorder, numbers *NumberGenerator, auditor Auditor, notifier Notifier) *Service {
	return &Service{
		store:    store,
		payments: payments,
		numbers:  numbers,
		auditor:  auditor,
		notifier: notifier,
	}
}

// Settle applies the payment against the customer's open invoices and
// produces the receipt.
//
// Financial state changes are atomic: on any error nothing is persisted. On
// success the payment is permanently receipted, exactly one receipt exists,
// and the closing balance has moved by exactly minus the payment amount.
// The allocation result only affects per-invoice status; the balance debit is
// always the full amount, with any unallocated remainder staying as credit.
func (s *Service) Settle(ctx context.Context, tenantID int64, paymentID uuid.UUID) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	var (
		receipt       *Receipt
		customerPhone string
	)

	for attempt := 1; ; attempt++ {
		receipt = nil
		err := s.store.Transact(ctx, func(tx Tx) error {
			p, err := tx.PaymentForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			if p == nil {
				return ErrPaymentNotFound
			}
			if p.TenantID != tenantID {
				return ErrTenantMismatch
			}
			if p.Receipted {
				return ErrAlreadyReceipted
			}
			if p.CustomerID == nil {
				return ErrCustomerNotFound
			}
			if !p.Amount.IsPositive() {
				return ErrInvalidAmount
			}

			c, err := tx.CustomerForUpdate(ctx, tenantID, *p.CustomerID)
			if err != nil {
				return err
			}
			if c == nil {
				return ErrCustomerNotFound
			}

			open, err := tx.OpenInvoices(ctx, tenantID, c.ID)
			if err != nil {
				return err
			}

			allocations, _ := Allocate(p.Amount, open)

			byID := make(map[int64]*invoice.Invoice, len(open))
			for _, inv := range open {
				byID[inv.ID] = inv
			}
			for _, alloc := range allocations {
				inv := byID[alloc.InvoiceID]
				newPaid := inv.AmountPaid.Add(alloc.Amount)
				if err := tx.ApplyAllocation(ctx, inv.ID, alloc.Amount, invoice.StatusFor(inv.Amount, newPaid)); err != nil {
					return err
				}
			}

			// The ledger debit is the full payment amount regardless of how
			// much landed on invoices; the remainder stays as credit.
			newBalance := c.ClosingBalance.Sub(p.Amount)
			if err := tx.SetCustomerBalance(ctx, c.ID, newBalance); err != nil {
				return err
			}

			rcpt := &Receipt{
				ID:         uuid.New(),
				TenantID:   tenantID,
				CustomerID: c.ID,
				PaymentID:  p.ID,
				Amount:     p.Amount,
				PayerName:  p.PayerName,
				TxnCode:    p.ExternalRef,
			}
			rcpt.Lines = make([]ReceiptLine, len(allocations))
			for i, alloc := range allocations {
				rcpt.Lines[i] = ReceiptLine(alloc)
			}

			if err := s.insertWithUniqueNumber(ctx, tx, rcpt); err != nil {
				return err
			}

			if err := tx.MarkReceipted(ctx, p.ID, rcpt.ID); err != nil {
				return err
			}

			receipt = rcpt
			customerPhone = c.Phone
			return nil
		})
		if err == nil {
			break
		}
		if IsRetryableConflict(err) && attempt < conflictRetries {
			log.Printf("[Settlement] Conflict on payment %s (attempt %d), retrying", paymentID, attempt)
			continue
		}
		if IsRetryableConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	s.recordAudit(receipt)
	s.notify(receipt, customerPhone)

	return receipt, nil
}

// insertWithUniqueNumber runs the bounded generate-check-insert loop for the
// receipt number. The unique constraint is the final authority; a collision
// on insert regenerates within the same budget.
func (s *Service) insertWithUniqueNumber(ctx context.Context, tx Tx, rcpt *Receipt) error {
	for i := 0; i < receiptNumberAttempts; i++ {
		number := s.numbers.Generate(rcpt.TenantID)

		exists, err := tx.ReceiptNumberExists(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		rcpt.ReceiptNo = number
		err = tx.InsertReceipt(ctx, rcpt)
		if errors.Is(err, ErrReceiptNumberTaken) {
			continue
		}
		return err
	}
	return ErrReceiptNumberExhausted
}

// recordAudit writes the activity-log entry after commit. Best-effort.
func (s *Service) recordAudit(rcpt *Receipt) {
	if s.auditor == nil || rcpt == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	details := fmt.Sprintf("receipt %s for %s applied to %d invoice(s)",
		rcpt.ReceiptNo, rcpt.Amount.StringFixed(2), len(rcpt.Lines))
	customerID := rcpt.CustomerID
	if err := s.auditor.Record(ctx, rcpt.TenantID, &customerID, "system", "payment.settled", details); err != nil {
		log.Printf("[Settlement] Audit log write failed for receipt %s: %v", rcpt.ReceiptNo, err)
	}
}

// notify sends the confirmation SMS after commit. Fire-and-forget: failures
// are logged and swallowed.
func (s *Service) notify(rcpt *Receipt, phone string) {
	if s.notifier == nil || rcpt == nil || phone == "" {
		return
	}

	text := fmt.Sprintf("Payment of %s received. Receipt %s. Thank you.",
		rcpt.Amount.StringFixed(2), rcpt.ReceiptNo)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Send(ctx, rcpt.TenantID, phone, text); err != nil {
			log.Printf("[Settlement] Confirmation SMS failed for receipt %s: %v", rcpt.ReceiptNo, err)
		}
	}()
}

// RecordPayment validates and records a manual payment entry (cash, bank,
// cheque) and settles it synchronously.
func (s *Service) RecordPayment(ctx context.Context, tenantID int64, req *RecordPaymentRequest) (*Receipt, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !payment.ValidMode(req.Mode) {
		return nil, ErrInvalidMode
	}

	externalRef := req.Reference
	if externalRef == "" {
		externalRef = fmt.Sprintf("%s-%s", req.Mode, uuid.New())
	}

	customerID := req.CustomerID
	p, err := s.payments.Create(ctx, payment.CreateParams{
		TenantID:    tenantID,
		CustomerID:  &customerID,
		Amount:      req.Amount,
		Mode:        payment.Mode(req.Mode),
		ExternalRef: externalRef,
		PayerName:   req.PaidByName,
	})
	if errors.Is(err, payment.ErrDuplicateTransaction) {
		// Retried submission of the same reference: settle the existing row
		// (a no-op if it is already receipted).
		existing, lookupErr := s.payments.GetByExternalRef(ctx, externalRef)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, err
		}
		p = existing
	} else if err != nil {
		return nil, err
	}

	return s.Settle(ctx, tenantID, p.ID)
}
