package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// bootstrapDDL creates the governance tables. Every table carries the
// convention columns (id, is_deleted, deleted_at, deleted_by, updated_at)
// expected by the record store.
var bootstrapDDL = []string{
	`CREATE TABLE IF NOT EXISTS objectives (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		owner_id BIGINT,
		directorate_id BIGINT NOT NULL,
		year INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_objectives_directorate ON objectives(directorate_id) WHERE is_deleted = FALSE`,

	`CREATE TABLE IF NOT EXISTS key_results (
		id BIGSERIAL PRIMARY KEY,
		objective_id BIGINT NOT NULL REFERENCES objectives(id),
		title TEXT NOT NULL,
		target_value NUMERIC,
		current_value NUMERIC,
		unit TEXT,
		due_date TIMESTAMPTZ,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_key_results_objective ON key_results(objective_id) WHERE is_deleted = FALSE`,

	`CREATE TABLE IF NOT EXISTS pca_items (
		id BIGSERIAL PRIMARY KEY,
		item_pca TEXT NOT NULL,
		description TEXT NOT NULL,
		estimated_value NUMERIC,
		quarter TEXT,
		year INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'planned',
		directorate_id BIGINT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT pca_items_item_pca_year_key UNIQUE (item_pca, year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pca_items_directorate ON pca_items(directorate_id) WHERE is_deleted = FALSE`,

	`CREATE TABLE IF NOT EXISTS committees (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		ata TEXT,
		meeting_date TIMESTAMPTZ,
		directorate_id BIGINT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_committees_directorate ON committees(directorate_id) WHERE is_deleted = FALSE`,

	`CREATE TABLE IF NOT EXISTS committee_members (
		id BIGSERIAL PRIMARY KEY,
		committee_id BIGINT NOT NULL REFERENCES committees(id),
		personnel_id BIGINT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT committee_members_committee_personnel_key UNIQUE (committee_id, personnel_id)
	)`,

	`CREATE TABLE IF NOT EXISTS personnel (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		registration TEXT,
		position TEXT,
		directorate_id BIGINT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT personnel_email_key UNIQUE (email)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_personnel_directorate ON personnel(directorate_id) WHERE is_deleted = FALSE`,
}

// EnsureSchema creates the governance tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range bootstrapDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
