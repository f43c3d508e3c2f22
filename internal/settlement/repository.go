package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the read side for receipts. The PDF renderer and the API
// consume receipts through here; writes only happen inside the settlement
// transaction.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new receipt repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const receiptColumns = `id, tenant_id, customer_id, payment_id, receipt_no, amount, payer_name, txn_code, created_at`

func (r *Repository) scanReceipt(ctx context.Context, row *sql.Row) (*Receipt, error) {
	rcpt := &Receipt{}
	err := row.Scan(
		&rcpt.ID, &rcpt.TenantID, &rcpt.CustomerID, &rcpt.PaymentID,
		&rcpt.ReceiptNo, &rcpt.Amount, &rcpt.PayerName, &rcpt.TxnCode, &rcpt.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	if err := r.loadLines(ctx, rcpt); err != nil {
		return nil, err
	}
	return rcpt, nil
}

func (r *Repository) loadLines(ctx context.Context, rcpt *Receipt) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ri.invoice_id, i.invoice_no, ri.amount
		FROM receipt_invoices ri
		JOIN invoices i ON i.id = ri.invoice_id
		WHERE ri.receipt_id = $1
		ORDER BY ri.id
	`, rcpt.ID)
	if err != nil {
		return fmt.Errorf("failed to load receipt lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line ReceiptLine
		if err := rows.Scan(&line.InvoiceID, &line.InvoiceNo, &line.Amount); err != nil {
			return fmt.Errorf("failed to scan receipt line: %w", err)
		}
		rcpt.Lines = append(rcpt.Lines, line)
	}
	return rows.Err()
}

// GetByID retrieves a receipt with its invoice lines, scoped to a tenant
func (r *Repository) GetByID(ctx context.Context, tenantID int64, id uuid.UUID) (*Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1 AND tenant_id = $2`
	return r.scanReceipt(ctx, r.db.QueryRowContext(ctx, query, id, tenantID))
}

// GetByPaymentID retrieves the receipt issued for a payment, if any
func (r *Repository) GetByPaymentID(ctx context.Context, tenantID int64, paymentID uuid.UUID) (*Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE payment_id = $1 AND tenant_id = $2`
	return r.scanReceipt(ctx, r.db.QueryRowContext(ctx, query, paymentID, tenantID))
}

// ListByCustomer retrieves a customer's receipts, newest first, without lines
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID int64, limit, offset int) ([]*Receipt, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM receipts WHERE tenant_id = $1 AND customer_id = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*Receipt
	for rows.Next() {
		rcpt := &Receipt{}
		if err := rows.Scan(
			&rcpt.ID, &rcpt.TenantID, &rcpt.CustomerID, &rcpt.PaymentID,
			&rcpt.ReceiptNo, &rcpt.Amount, &rcpt.PayerName, &rcpt.TxnCode, &rcpt.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rcpt)
	}

	return receipts, total, nil
}
