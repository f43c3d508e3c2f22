package invoice

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles invoice data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new invoice repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const invoiceColumns = `id, tenant_id, customer_id, invoice_no, period, amount, amount_paid, status, system_created, created_at`

func scanInvoice(row interface{ Scan(...interface{}) error }) (*Invoice, error) {
	i := &Invoice{}
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.CustomerID,
		&i.InvoiceNo,
		&i.Period,
		&i.Amount,
		&i.AmountPaid,
		&i.Status,
		&i.SystemCreated,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// GetByID retrieves an invoice by ID, scoped to a tenant
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return inv, nil
}

// ListByCustomer retrieves all invoices for a customer, newest first
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID int64, limit, offset int) ([]*Invoice, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM invoices WHERE tenant_id = $1 AND customer_id = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, total, nil
}

// ListOpenByCustomer retrieves a customer's open invoices oldest-first. This
// is the allocation order for settlement: creation timestamp ascending with
// the row ID as the stable tie-break.
func (r *Repository) ListOpenByCustomer(ctx context.Context, tenantID, customerID int64) ([]*Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND customer_id = $2 AND status IN ('UNPAID', 'PPAID')
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, nil
}

// Cancel marks an invoice CANCELLED. Only open invoices can be cancelled;
// cancellation is terminal.
func (r *Repository) Cancel(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	query := `
		UPDATE invoices
		SET status = 'CANCELLED'
		WHERE id = $1 AND tenant_id = $2 AND status IN ('UNPAID', 'PPAID')
		RETURNING ` + invoiceColumns

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}

	return inv, nil
}
