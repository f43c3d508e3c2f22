package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ErrDuplicateTransaction is returned when a payment with the same external
// reference already exists. Mobile-money providers retry callbacks, so the
// caller treats this as a successful no-op.
var ErrDuplicateTransaction = errors.New("duplicate external transaction reference")

// Repository handles payment data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new payment repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const paymentColumns = `id, tenant_id, customer_id, amount, mode, external_ref, payer_name, payer_phone, receipted, receipt_id, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.CustomerID,
		&p.Amount,
		&p.Mode,
		&p.ExternalRef,
		&p.PayerName,
		&p.PayerPhone,
		&p.Receipted,
		&p.ReceiptID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateParams carries the fields for recording a new payment
type CreateParams struct {
	TenantID    int64
	CustomerID  *int64
	Amount      decimal.Decimal
	Mode        Mode
	ExternalRef string
	PayerName   string
	PayerPhone  string
}

// Create inserts a new payment. The unique index on external_ref is the
// system-wide idempotency guard: a second insert for the same reference
// returns ErrDuplicateTransaction instead of a new row.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Payment, error) {
	query := `
		INSERT INTO payments (id, tenant_id, customer_id, amount, mode, external_ref, payer_name, payer_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.db.QueryRowContext(ctx, query,
		uuid.New(), params.TenantID, params.CustomerID, params.Amount,
		params.Mode, params.ExternalRef, params.PayerName, params.PayerPhone))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return p, nil
}

// GetByID retrieves a payment by ID, scoped to a tenant
func (r *Repository) GetByID(ctx context.Context, tenantID int64, id uuid.UUID) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND tenant_id = $2`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// GetByExternalRef retrieves a payment by its external transaction reference
func (r *Repository) GetByExternalRef(ctx context.Context, externalRef string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_ref = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, externalRef))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by external ref: %w", err)
	}

	return p, nil
}

// ListByCustomer retrieves payments for a customer, newest first
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID int64, limit, offset int) ([]*Payment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM payments WHERE tenant_id = $1 AND customer_id = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	return payments, total, nil
}

// ListUnmatched retrieves payments that could not be matched to a customer,
// for the manual reconciliation screen.
func (r *Repository) ListUnmatched(ctx context.Context, tenantID int64, limit, offset int) ([]*Payment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM payments WHERE tenant_id = $1 AND customer_id IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count unmatched payments: %w", err)
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE tenant_id = $1 AND customer_id IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list unmatched payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	return payments, total, nil
}
