// Package migrations provides a framework for database schema management.
//
// This package implements a migration system that allows for reliable, idempotent
// database schema creation. It tracks executed migrations in a dedicated table and
// ensures all required tables exist before the API or the mail worker start.
//
// The migration system supports:
// - Automatic creation of missing tables
// - Tracking of executed migrations
// - Per-driver DDL for MySQL, PostgreSQL and SQLite
// - Idempotent execution of migrations (safe to run multiple times)
package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/database"
)

// Migration represents a database migration.
// Each migration performs a specific schema change and is tracked
// to ensure it runs exactly once.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table affected by this migration, used for existence checks
	TableName string
	// Statements returns the DDL for the given driver, executed in order
	Statements func(driver string) []string
}

// Migrator handles database migrations.
type Migrator struct {
	db *database.Pool
}

// NewMigrator creates a new migrator.
//
// Parameters:
//   - db: A database connection pool to use for migrations
//
// Returns:
//   - *Migrator: A configured migrator
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db: db,
	}
}

// RunMigrations runs all pending database migrations.
// A migration whose table already exists is recorded without running its DDL.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Str("driver", m.db.DriverName()).Msg("Running database migrations")
	startTime := time.Now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	executedMigrations, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrations := GetMigrations()
	migrationsRun := 0
	migrationsRecorded := 0

	for _, migration := range migrations {
		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		_, executed := executedMigrations[migration.Name]

		switch {
		case exists && executed:
			continue

		case exists:
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")

			if err := m.recordMigration(ctx, m.db.DB, migration); err != nil {
				return err
			}
			migrationsRecorded++

		default:
			if executed {
				log.Warn().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Table doesn't exist but should. Running migration to create it.")
			} else {
				log.Info().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Running migration")
			}

			if err := m.runMigration(ctx, migration, !executed); err != nil {
				return err
			}
			migrationsRun++
		}
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("migrations_recorded", migrationsRecorded).
		Int("total_migrations", len(migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

// createMigrationsTable creates the migrations table if it doesn't exist.
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(255) NOT NULL PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, constants.TableMigrations)
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns the set of executed migration names.
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]struct{}, error) {
	var names []string
	query := fmt.Sprintf(`SELECT name FROM %s`, constants.TableMigrations)
	if err := m.db.SelectContext(ctx, &names, query); err != nil {
		return nil, err
	}

	executed := make(map[string]struct{}, len(names))
	for _, name := range names {
		executed[name] = struct{}{}
	}
	return executed, nil
}

// runMigration runs a migration within a transaction and optionally records it.
// If the migration fails, the transaction is rolled back. MySQL commits DDL
// implicitly, which is why every statement uses IF NOT EXISTS.
func (m *Migrator) runMigration(ctx context.Context, migration Migration, record bool) error {
	driver := m.db.DriverName()

	return m.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range migration.Statements(driver) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Name, err)
			}
		}

		if !record {
			return nil
		}
		return m.recordMigration(ctx, tx, migration)
	})
}

// recordMigration records a migration as completed.
func (m *Migrator) recordMigration(ctx context.Context, exec sqlx.ExecerContext, migration Migration) error {
	query := m.db.Rebind(fmt.Sprintf(`INSERT INTO %s (name, description) VALUES (?, ?)`, constants.TableMigrations))
	if _, err := exec.ExecContext(ctx, query, migration.Name, migration.Description); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
	}
	return nil
}

// tableExists checks if a table exists in the current database schema.
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var query string
	switch m.db.DriverName() {
	case constants.DriverPostgres:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	case constants.DriverSQLite:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	default:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	}

	var count int
	if err := m.db.GetContext(ctx, &count, m.db.Rebind(query), tableName); err != nil {
		return false, err
	}
	return count > 0, nil
}
