// Package database provides database access for the password reset service.
// It implements a connection pool over sqlx, transaction management and the
// Querier abstraction the repositories are written against.
package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
// Repositories depend on it so the same code runs inside or outside a transaction.
type Querier interface {
	// ExecContext executes a query without returning any rows.
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// GetContext scans a single row into dest.
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// SelectContext scans all rows into the slice dest.
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Rebind rewrites ? placeholders into the driver's bind style.
	Rebind(query string) string

	// DriverName reports the driver the connection was opened with.
	DriverName() string
}

// Compile-time checks that both sqlx handles satisfy Querier.
var (
	_ Querier = (*sqlx.DB)(nil)
	_ Querier = (*sqlx.Tx)(nil)
)
