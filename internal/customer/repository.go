package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository handles customer data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new customer repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const customerColumns = `id, tenant_id, name, phone, customer_type, monthly_charge, closing_balance, status, created_at`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.Phone,
		&c.CustomerType,
		&c.MonthlyCharge,
		&c.ClosingBalance,
		&c.Status,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new customer into the database
func (r *Repository) Create(ctx context.Context, tenantID int64, req *CreateCustomerRequest) (*Customer, error) {
	customerType := req.CustomerType
	if customerType == "" {
		customerType = string(TypePostpaid)
	}

	query := `
		INSERT INTO customers (tenant_id, name, phone, customer_type, monthly_charge)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + customerColumns

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query,
		tenantID, req.Name, req.Phone, customerType, req.MonthlyCharge))
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return c, nil
}

// GetByID retrieves a customer by ID, scoped to a tenant
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND tenant_id = $2`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return c, nil
}

// GetByPhone retrieves a customer by phone number within a tenant. The
// payment webhook uses this to match a bill reference to a customer.
func (r *Repository) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND phone = $2`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, tenantID, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}

	return c, nil
}

// List retrieves customers for a tenant with pagination
func (r *Repository) List(ctx context.Context, tenantID int64, limit, offset int) ([]*Customer, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	return customers, total, nil
}

// UpdateStatus changes a customer's service status. Customers are never
// deleted while billing rows reference them.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id int64, status Status) (*Customer, error) {
	query := `
		UPDATE customers
		SET status = $3
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + customerColumns

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id, tenantID, status))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update customer status: %w", err)
	}

	return c, nil
}

// Balance returns just the closing balance for a customer
func (r *Repository) Balance(ctx context.Context, tenantID, id int64) (decimal.Decimal, error) {
	query := `SELECT closing_balance FROM customers WHERE id = $1 AND tenant_id = $2`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(&balance); err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, sql.ErrNoRows
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}
