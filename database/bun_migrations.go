package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type bunMigration struct {
	version string
	name    string
	up      func(context.Context, *bun.DB) error
}

// bunMigrations are applied in order and recorded in bun_schema_migrations
var bunMigrations = []bunMigration{
	{"001", "create_kv_entries", init001CreateKVEntries},
	{"002", "create_jobs_table", init002CreateJobsTable},
}

// runMigrations runs all Bun migrations
func (b *BunDB) runMigrations(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bun_schema_migrations (
			version TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	type AppliedMigration struct {
		bun.BaseModel `bun:"table:bun_schema_migrations"`
		Version       string `bun:"version,pk"`
		Name          string `bun:"name"`
	}
	var applied []AppliedMigration
	err = b.db.NewSelect().
		Model(&applied).
		Column("version", "name").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.Version] = true
	}

	for _, m := range bunMigrations {
		if appliedMap[m.version] {
			continue
		}

		Logger.Info("Running migration", "version", m.version, "name", m.name)
		if err := m.up(ctx, b.db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}

		_, err = b.db.NewInsert().
			Model(&AppliedMigration{Version: m.version, Name: m.name}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.version, err)
		}
	}

	Logger.Info("All migrations completed successfully")
	return nil
}

// Migration 001: key-value entries holding resume records
func init001CreateKVEntries(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			entry_key TEXT PRIMARY KEY,
			entry_value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}

	// prefix scans use LIKE 'resume:%', which postgres only indexes with pattern ops
	if db.Dialect().Name() == dialect.PG {
		_, err = db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_kv_entries_key_pattern ON kv_entries (entry_key text_pattern_ops)")
		if err != nil {
			return fmt.Errorf("failed to create kv prefix index: %w", err)
		}
	}
	return nil
}

// Migration 002: jobs table
func init002CreateJobsTable(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT DEFAULT 'pending',
			progress INTEGER DEFAULT 0,
			current_step TEXT DEFAULT '',
			total_steps INTEGER DEFAULT 0,
			message TEXT DEFAULT '',
			error TEXT,
			result TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at TIMESTAMP,
			completed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_type ON jobs(type)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at) WHERE completed_at IS NOT NULL",
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			// Partial indexes might not be supported in all SQLite versions
			Logger.Warn("Could not create index (might not be supported)", "error", err)
		}
	}
	return nil
}
