package tenant

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles tenant data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new tenant repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new tenant into the database
func (r *Repository) Create(ctx context.Context, name, shortcode, senderID string) (*Tenant, error) {
	query := `
		INSERT INTO tenants (name, shortcode, sender_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, shortcode, sender_id, created_at
	`

	t := &Tenant{}
	err := r.db.QueryRowContext(ctx, query, name, shortcode, senderID).Scan(
		&t.ID,
		&t.Name,
		&t.Shortcode,
		&t.SenderID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	return t, nil
}

// GetByID retrieves a tenant by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	query := `
		SELECT id, name, shortcode, sender_id, created_at
		FROM tenants
		WHERE id = $1
	`

	t := &Tenant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Shortcode,
		&t.SenderID,
		&t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return t, nil
}

// GetByShortcode resolves a tenant from its mobile-money paybill shortcode.
// Used by the payment webhook to route callbacks.
func (r *Repository) GetByShortcode(ctx context.Context, shortcode string) (*Tenant, error) {
	query := `
		SELECT id, name, shortcode, sender_id, created_at
		FROM tenants
		WHERE shortcode = $1
	`

	t := &Tenant{}
	err := r.db.QueryRowContext(ctx, query, shortcode).Scan(
		&t.ID,
		&t.Name,
		&t.Shortcode,
		&t.SenderID,
		&t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant by shortcode: %w", err)
	}

	return t, nil
}

// List retrieves all tenants
func (r *Repository) List(ctx context.Context) ([]*Tenant, error) {
	query := `
		SELECT id, name, shortcode, sender_id, created_at
		FROM tenants
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t := &Tenant{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Shortcode, &t.SenderID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	return tenants, nil
}
