package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mutua/takabill/internal/customer"
	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/payment"
)

// PostgresStore implements Store over database/sql with lib/pq
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres-backed settlement store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Transact runs fn inside a single database transaction
func (s *PostgresStore) Transact(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement transaction: %w", err)
	}
	return nil
}

// IsRetryableConflict reports whether err is a serialization failure or
// deadlock, i.e. the transaction lost a race and should be retried whole.
func IsRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) PaymentForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT id, tenant_id, customer_id, amount, mode, external_ref, payer_name, payer_phone, receipted, receipt_id, created_at
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`

	p := &payment.Payment{}
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.CustomerID, &p.Amount, &p.Mode, &p.ExternalRef,
		&p.PayerName, &p.PayerPhone, &p.Receipted, &p.ReceiptID, &p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return p, nil
}

func (t *postgresTx) CustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*customer.Customer, error) {
	query := `
		SELECT id, tenant_id, name, phone, customer_type, monthly_charge, closing_balance, status, created_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`

	c := &customer.Customer{}
	err := t.tx.QueryRowContext(ctx, query, customerID, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.CustomerType,
		&c.MonthlyCharge, &c.ClosingBalance, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock customer: %w", err)
	}
	return c, nil
}

func (t *postgresTx) OpenInvoices(ctx context.Context, tenantID, customerID int64) ([]*invoice.Invoice, error) {
	query := `
		SELECT id, tenant_id, customer_id, invoice_no, period, amount, amount_paid, status, system_created, created_at
		FROM invoices
		WHERE tenant_id = $1 AND customer_id = $2 AND status IN ('UNPAID', 'PPAID')
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`

	rows, err := t.tx.QueryContext(ctx, query, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		inv := &invoice.Invoice{}
		if err := rows.Scan(
			&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.InvoiceNo, &inv.Period,
			&inv.Amount, &inv.AmountPaid, &inv.Status, &inv.SystemCreated, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan open invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

func (t *postgresTx) ApplyAllocation(ctx context.Context, invoiceID int64, applied decimal.Decimal, status invoice.Status) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE invoices
		SET amount_paid = amount_paid + $2, status = $3
		WHERE id = $1
	`, invoiceID, applied, status)
	if err != nil {
		return fmt.Errorf("failed to apply allocation: %w", err)
	}
	return nil
}

func (t *postgresTx) SetCustomerBalance(ctx context.Context, customerID int64, balance decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE customers SET closing_balance = $2 WHERE id = $1
	`, customerID, balance)
	if err != nil {
		return fmt.Errorf("failed to update closing balance: %w", err)
	}
	return nil
}

func (t *postgresTx) ReceiptNumberExists(ctx context.Context, receiptNo string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM receipts WHERE receipt_no = $1)`, receiptNo).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check receipt number: %w", err)
	}
	return exists, nil
}

// InsertReceipt writes the receipt and its lines under a savepoint. A unique
// violation on the receipt number rolls back to the savepoint and returns
// ErrReceiptNumberTaken, leaving the outer transaction usable so the caller
// can regenerate the number.
func (t *postgresTx) InsertReceipt(ctx context.Context, receipt *Receipt) error {
	if _, err := t.tx.ExecContext(ctx, `SAVEPOINT receipt_insert`); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO receipts (id, tenant_id, customer_id, payment_id, receipt_no, amount, payer_name, txn_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, receipt.ID, receipt.TenantID, receipt.CustomerID, receipt.PaymentID,
		receipt.ReceiptNo, receipt.Amount, receipt.PayerName, receipt.TxnCode,
	).Scan(&receipt.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if _, rbErr := t.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT receipt_insert`); rbErr != nil {
				return fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
			}
			if pqErr.Constraint == "receipts_payment_id_key" {
				return ErrAlreadyReceipted
			}
			return ErrReceiptNumberTaken
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	for _, line := range receipt.Lines {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO receipt_invoices (receipt_id, invoice_id, amount)
			VALUES ($1, $2, $3)
		`, receipt.ID, line.InvoiceID, line.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert receipt line: %w", err)
		}
	}

	if _, err := t.tx.ExecContext(ctx, `RELEASE SAVEPOINT receipt_insert`); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (t *postgresTx) MarkReceipted(ctx context.Context, paymentID, receiptID uuid.UUID) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE payments
		SET receipted = TRUE, receipt_id = $2
		WHERE id = $1 AND receipted = FALSE
	`, paymentID, receiptID)
	if err != nil {
		return fmt.Errorf("failed to mark payment receipted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check receipted update: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyReceipted
	}
	return nil
}
