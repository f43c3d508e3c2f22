package database

import (
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations applies the schema. Statements are idempotent so the
// application can run them on every startup.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			shortcode  TEXT NOT NULL UNIQUE,
			sender_id  TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id              BIGSERIAL PRIMARY KEY,
			tenant_id       BIGINT NOT NULL REFERENCES tenants(id),
			name            TEXT NOT NULL,
			phone           TEXT NOT NULL,
			customer_type   TEXT NOT NULL DEFAULT 'postpaid',
			monthly_charge  NUMERIC(12,2) NOT NULL DEFAULT 0,
			closing_balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			status          TEXT NOT NULL DEFAULT 'active',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (tenant_id, phone)
		)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id             BIGSERIAL PRIMARY KEY,
			tenant_id      BIGINT NOT NULL REFERENCES tenants(id),
			customer_id    BIGINT NOT NULL REFERENCES customers(id),
			invoice_no     TEXT NOT NULL UNIQUE,
			period         TEXT NOT NULL,
			amount         NUMERIC(12,2) NOT NULL,
			amount_paid    NUMERIC(12,2) NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'UNPAID',
			system_created BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (customer_id, period)
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id           UUID PRIMARY KEY,
			tenant_id    BIGINT NOT NULL REFERENCES tenants(id),
			customer_id  BIGINT REFERENCES customers(id),
			amount       NUMERIC(12,2) NOT NULL,
			mode         TEXT NOT NULL,
			external_ref TEXT NOT NULL UNIQUE,
			payer_name   TEXT NOT NULL DEFAULT '',
			payer_phone  TEXT NOT NULL DEFAULT '',
			receipted    BOOLEAN NOT NULL DEFAULT FALSE,
			receipt_id   UUID,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			id          UUID PRIMARY KEY,
			tenant_id   BIGINT NOT NULL REFERENCES tenants(id),
			customer_id BIGINT NOT NULL REFERENCES customers(id),
			payment_id  UUID NOT NULL UNIQUE REFERENCES payments(id),
			receipt_no  TEXT NOT NULL UNIQUE,
			amount      NUMERIC(12,2) NOT NULL,
			payer_name  TEXT NOT NULL DEFAULT '',
			txn_code    TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS receipt_invoices (
			id         BIGSERIAL PRIMARY KEY,
			receipt_id UUID NOT NULL REFERENCES receipts(id),
			invoice_id BIGINT NOT NULL REFERENCES invoices(id),
			amount     NUMERIC(12,2) NOT NULL,
			UNIQUE (receipt_id, invoice_id)
		)`,

		`CREATE TABLE IF NOT EXISTS activity_logs (
			id          BIGSERIAL PRIMARY KEY,
			tenant_id   BIGINT NOT NULL,
			customer_id BIGINT,
			actor       TEXT NOT NULL DEFAULT 'system',
			action      TEXT NOT NULL,
			details     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_invoices_open
			ON invoices (customer_id, created_at)
			WHERE status IN ('UNPAID', 'PPAID')`,

		`CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments (customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_tenant ON activity_logs (tenant_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
