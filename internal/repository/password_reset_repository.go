// Package repository provides data access for the password reset service.
// Queries use ? placeholders and are rebound for the active driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/database"
	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// ErrResetRequestAlreadyUsed is returned by MarkUsed when the row was consumed
// concurrently, or does not exist.
var ErrResetRequestAlreadyUsed = errors.New("reset request already used")

// PasswordResetRepository defines methods for storing and consuming reset requests.
type PasswordResetRepository interface {
	// Create inserts a new reset request.
	//
	// Parameters:
	//   - ctx: Context for cancellation control
	//   - req: The request to store; a UUID is assigned when ID is empty
	//
	// Returns:
	//   - DuplicateError if the ID already exists
	//   - Other errors for database issues
	Create(ctx context.Context, req *models.ResetRequest) error

	// ListRecentByEmail returns up to limit requests for an email, newest first.
	// Ties on created_at are broken by id so the order is stable.
	//
	// Returns:
	//   - An empty slice when the email has no requests
	//   - An error if retrieval fails
	ListRecentByEmail(ctx context.Context, email string, limit int) ([]*models.ResetRequest, error)

	// MarkUsed flips used from false to true and stamps used_at.
	// The update is conditional on used still being false.
	//
	// Returns:
	//   - ErrResetRequestAlreadyUsed if no unused row matched
	//   - Other errors for database issues
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error

	// DeleteExpiredBefore removes requests that expired before cutoff.
	//
	// Returns:
	//   - The number of deleted rows
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLPasswordResetRepository implements PasswordResetRepository on any sqlx Querier.
type SQLPasswordResetRepository struct {
	db database.Querier
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(db database.Querier) PasswordResetRepository {
	return &SQLPasswordResetRepository{db: db}
}

const resetRequestColumns = "id, email, otp_hash, otp_salt, action_token, expires_at, used, created_at, used_at"

// Create stores a new reset request.
func (r *SQLPasswordResetRepository) Create(ctx context.Context, req *models.ResetRequest) error {
	startTime := time.Now()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	// SQLite compares timestamps as text, so every stored time is UTC
	req.CreatedAt = req.CreatedAt.UTC()
	req.ExpiresAt = utcNullTime(req.ExpiresAt)
	req.UsedAt = utcNullTime(req.UsedAt)

	query := r.db.Rebind(fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TablePasswordResetRequests, resetRequestColumns))

	args := []interface{}{
		req.ID,
		req.Email,
		req.OTPHash,
		req.OTPSalt,
		req.ActionToken,
		req.ExpiresAt,
		req.Used,
		req.CreatedAt,
		req.UsedAt,
	}

	_, err := r.db.ExecContext(ctx, query, args...)

	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		if utils.IsDuplicateError(utils.ParseError(err)) {
			return utils.NewDuplicateError("ResetRequest", constants.ColumnID, req.ID)
		}
		return fmt.Errorf("failed to create reset request: %w", err)
	}

	log.Debug().
		Str(constants.ColumnID, req.ID).
		Time(constants.ColumnExpiresAt, req.ExpiresAt.Time).
		Msg("Reset request created")

	return nil
}

// ListRecentByEmail retrieves the newest reset requests for an email.
func (r *SQLPasswordResetRepository) ListRecentByEmail(ctx context.Context, email string, limit int) ([]*models.ResetRequest, error) {
	startTime := time.Now()

	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE email = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, resetRequestColumns, constants.TablePasswordResetRequests))

	requests := []*models.ResetRequest{}
	err := r.db.SelectContext(ctx, &requests, query, email, limit)

	utils.LogDBQuery(query, []interface{}{email, limit}, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list reset requests: %w", err)
	}

	return requests, nil
}

// MarkUsed consumes a reset request with a compare-and-set on used.
func (r *SQLPasswordResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	startTime := time.Now()
	usedAt = usedAt.UTC()

	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET used = TRUE, used_at = ?
		WHERE id = ? AND used = FALSE
	`, constants.TablePasswordResetRequests))

	result, err := r.db.ExecContext(ctx, query, usedAt, id)

	utils.LogDBQuery(query, []interface{}{usedAt, id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to mark reset request used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrResetRequestAlreadyUsed
	}

	return nil
}

// DeleteExpiredBefore removes stale reset requests.
func (r *SQLPasswordResetRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	startTime := time.Now()
	cutoff = cutoff.UTC()

	query := r.db.Rebind(fmt.Sprintf(`
		DELETE FROM %s
		WHERE expires_at IS NULL OR expires_at < ?
	`, constants.TablePasswordResetRequests))

	result, err := r.db.ExecContext(ctx, query, cutoff)

	utils.LogDBQuery(query, []interface{}{cutoff}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset requests: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().Int64("count", rowsAffected).Msg("Deleted expired reset requests")
	}

	return rowsAffected, nil
}

func utcNullTime(t sql.NullTime) sql.NullTime {
	if !t.Valid {
		return t
	}
	return sql.NullTime{Time: t.Time.UTC(), Valid: true}
}
