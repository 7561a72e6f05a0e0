package server

import (
	"context"
	"time"
)

// ServerDBHealthChecker defines the interface for database health checks.
// This interface abstracts database connectivity testing to allow for
// dependency injection and simpler testing of health check endpoints.
type ServerDBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	HealthCheck(ctx context.Context) error

	// Close terminates the database connection
	Close()
}

// ResetPurger removes reset requests that expired before the retention window.
type ResetPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// MailWorker delivers queued mail until its context is cancelled.
type MailWorker interface {
	Run(ctx context.Context) error
}
