package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
	"github.com/uptrace/bun/dialect/pgdialect"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// EphemeralPostgresDB is a BunDB backed by a throwaway PostgreSQL server
type EphemeralPostgresDB struct {
	*BunDB
	server *postgrestest.Server
}

// SetupEphemeralPostgresDatabase starts a private PostgreSQL instance, migrates it and wraps it in Bun
func SetupEphemeralPostgresDatabase(ctx context.Context) (*EphemeralPostgresDB, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	dsn, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to create resuminds database: %w", err)
	}
	Logger.Info("Created ephemeral database", "dsn", dsn)

	if err := runPostgresMigrations(dsn); err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to open resuminds database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Logger.Info("Connected to ephemeral PostgreSQL database successfully")
	return &EphemeralPostgresDB{
		BunDB:  newBunDB(sqlDB, pgdialect.New(), "ephemeral"),
		server: pgt,
	}, nil
}

// runPostgresMigrations applies the embedded SQL migrations with golang-migrate.
// It uses its own connection because closing the migrator closes the database handle.
func runPostgresMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	source, err := iofs.New(postgresMigrations, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	Logger.Info("PostgreSQL migrations applied", "version", version, "dirty", dirty)
	return nil
}

// Close closes the database connection and removes the ephemeral server
func (e *EphemeralPostgresDB) Close() error {
	if e.BunDB != nil {
		if err := e.BunDB.Close(); err != nil {
			Logger.Warn("Failed to close database connection", "error", err)
		}
	}

	if e.server != nil {
		Logger.Info("Cleaning up ephemeral PostgreSQL server...")
		e.server.Cleanup()
		Logger.Info("Ephemeral PostgreSQL server cleaned up")
	}

	return nil
}
