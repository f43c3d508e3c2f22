package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// Generation errors
var (
	ErrInvalidPeriod = errors.New("period must be in YYYY-MM format")
)

// generatorPageSize bounds how many customers are charged per transaction,
// keeping row locks short-lived.
const generatorPageSize = 100

// ChargeResult describes how a new monthly charge lands against a customer's
// prior balance.
type ChargeResult struct {
	Status     Status
	AmountPaid decimal.Decimal
	NewBalance decimal.Decimal
}

// ApplyCharge computes the state of a freshly generated invoice given the
// customer's balance before the charge. A negative prior balance is credit
// from earlier overpayment and is consumed by the new charge: enough credit
// makes the invoice PAID on arrival, some credit makes it PPAID, none leaves
// it UNPAID. The new closing balance is always prior + charge.
func ApplyCharge(priorBalance, charge decimal.Decimal) ChargeResult {
	paid := decimal.Zero
	if priorBalance.IsNegative() {
		credit := priorBalance.Neg()
		paid = decimal.Min(credit, charge)
	}

	return ChargeResult{
		Status:     StatusFor(charge, paid),
		AmountPaid: paid,
		NewBalance: priorBalance.Add(charge),
	}
}

// Generator creates the monthly invoices for a tenant's active customers.
// It is the charge-direction counterpart of the settlement orchestrator and
// mutates the same customer balances, so it takes the same row locks.
type Generator struct {
	db *sql.DB
}

// NewGenerator creates a new invoice generator
func NewGenerator(db *sql.DB) *Generator {
	return &Generator{db: db}
}

// GenerateForPeriod creates invoices for every active customer of the tenant
// who does not already have one for the period. Safe to re-run: customers
// already invoiced for the period are skipped, which also makes the run
// resumable after a partial failure.
func (g *Generator) GenerateForPeriod(ctx context.Context, tenantID int64, period string) ([]*Invoice, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}

	var created []*Invoice
	for {
		batch, scanned, err := g.generatePage(ctx, tenantID, period)
		if err != nil {
			return created, err
		}
		created = append(created, batch...)
		if scanned < generatorPageSize {
			return created, nil
		}
	}
}

// generatePage charges one page of customers inside a single transaction.
// Customer rows are locked for the duration so the generator never interleaves
// with a concurrent settlement on the same customer.
func (g *Generator) generatePage(ctx context.Context, tenantID int64, period string) ([]*Invoice, int, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin generation transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, monthly_charge, closing_balance
		FROM customers
		WHERE tenant_id = $1
		  AND status = 'active'
		  AND monthly_charge > 0
		  AND NOT EXISTS (
			SELECT 1 FROM invoices i
			WHERE i.customer_id = customers.id AND i.period = $2
		  )
		ORDER BY id
		LIMIT $3
		FOR UPDATE
	`, tenantID, period, generatorPageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select customers for generation: %w", err)
	}

	type target struct {
		customerID int64
		charge     decimal.Decimal
		balance    decimal.Decimal
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.customerID, &t.charge, &t.balance); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan customer for generation: %w", err)
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed reading customers for generation: %w", err)
	}
	if len(targets) == 0 {
		return nil, 0, nil
	}

	var created []*Invoice
	for _, t := range targets {
		result := ApplyCharge(t.balance, t.charge)

		inv := &Invoice{}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO invoices (tenant_id, customer_id, invoice_no, period, amount, amount_paid, status, system_created)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
			ON CONFLICT (customer_id, period) DO NOTHING
			RETURNING id, tenant_id, customer_id, invoice_no, period, amount, amount_paid, status, system_created, created_at
		`, tenantID, t.customerID, NumberFor(t.customerID, period), period,
			t.charge, result.AmountPaid, result.Status).Scan(
			&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.InvoiceNo, &inv.Period,
			&inv.Amount, &inv.AmountPaid, &inv.Status, &inv.SystemCreated, &inv.CreatedAt,
		)
		if err == sql.ErrNoRows {
			// Another run invoiced this customer after our page query; skip
			// without touching the balance.
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to insert invoice: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE customers SET closing_balance = $2 WHERE id = $1
		`, t.customerID, result.NewBalance)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to update customer balance: %w", err)
		}

		created = append(created, inv)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit generation transaction: %w", err)
	}

	if len(created) > 0 {
		log.Printf("[Billing] Generated %d invoices for tenant %d period %s", len(created), tenantID, period)
	}
	return created, len(targets), nil
}
