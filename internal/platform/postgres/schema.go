package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates all tables if they do not exist. Statements are ordered by
// foreign-key dependency. This is a dev/test bootstrap, not a migration tool;
// production deployments own their schema lifecycle.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS onboarding_states (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		date_of_birth TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address_line1 TEXT NOT NULL DEFAULT '',
		address_line2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		signature_data TEXT NOT NULL DEFAULT '',
		signature_signed_at TIMESTAMPTZ,
		consent_version TEXT NOT NULL DEFAULT '',
		verification_ref TEXT NOT NULL DEFAULT '',
		personal_info_completed BOOLEAN NOT NULL DEFAULT FALSE,
		personal_info_completed_at TIMESTAMPTZ,
		signature_completed BOOLEAN NOT NULL DEFAULT FALSE,
		signature_completed_at TIMESTAMPTZ,
		legal_consent_completed BOOLEAN NOT NULL DEFAULT FALSE,
		legal_consent_completed_at TIMESTAMPTZ,
		verification_completed BOOLEAN NOT NULL DEFAULT FALSE,
		verification_completed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS assets (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		asset_type TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		value DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS assets_owner_idx ON assets (owner_id)`,

	`CREATE TABLE IF NOT EXISTS beneficiaries (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		relationship TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address_line1 TEXT NOT NULL DEFAULT '',
		address_line2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS beneficiaries_owner_idx ON beneficiaries (owner_id)`,

	`CREATE TABLE IF NOT EXISTS inheritance_rules (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 100,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS inheritance_rules_owner_idx ON inheritance_rules (owner_id)`,

	`CREATE TABLE IF NOT EXISTS rule_allocations (
		id UUID PRIMARY KEY,
		rule_id UUID NOT NULL REFERENCES inheritance_rules(id) ON DELETE CASCADE,
		asset_id UUID NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		beneficiary_id UUID NOT NULL REFERENCES beneficiaries(id) ON DELETE CASCADE,
		percentage DOUBLE PRECISION,
		amount DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK ((percentage IS NULL) <> (amount IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS rule_allocations_asset_idx ON rule_allocations (asset_id)`,
	`CREATE INDEX IF NOT EXISTS rule_allocations_rule_idx ON rule_allocations (rule_id)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL DEFAULT '',
		entity_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, created_at DESC)`,
}

// EnsureSchema applies the bootstrap schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
