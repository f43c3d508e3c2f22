package activity

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles activity-log persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record writes one audit entry
func (r *Repository) Record(ctx context.Context, tenantID int64, customerID *int64, actor, action, details string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (tenant_id, customer_id, actor, action, details)
		VALUES ($1, $2, $3, $4, $5)
	`, tenantID, customerID, actor, action, details)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListByTenant retrieves a tenant's audit trail, newest first
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activity: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, customer_id, actor, action, details, created_at
		FROM activity_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CustomerID, &e.Actor, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, total, nil
}
