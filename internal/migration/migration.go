package migration

import (
	"context"

	"equipdata/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createUploadsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create uploads table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(150) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createUploadsTable(ctx context.Context, db *sqlx.DB) error {
	// BIGSERIAL ids give the deterministic tie-break ordering for records
	// sharing an uploaded_at timestamp.
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS uploads (
			id BIGSERIAL PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			total_rows INTEGER NOT NULL CHECK (total_rows >= 1),
			avg_flow_rate DOUBLE PRECISION NOT NULL,
			avg_pressure DOUBLE PRECISION NOT NULL,
			equipment_distribution JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_uploads_owner_id ON uploads(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_uploads_owner_uploaded ON uploads(owner_id, uploaded_at DESC, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return err
		}
	}

	return nil
}
