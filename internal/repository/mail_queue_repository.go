package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/database"
	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// ErrMailClaimLost is returned when a mail is no longer in sending under the
// attempt the caller claimed it with. Another worker owns the row now.
var ErrMailClaimLost = errors.New("mail claim lost")

// MailQueueRepository persists outbound mail until a dispatcher delivers it.
//
// A claim is identified by the row id and the attempts value ClaimBatch
// returned. Every later write is conditional on both, so a worker whose claim
// was released and re-claimed elsewhere cannot overwrite the new owner.
type MailQueueRepository interface {
	// Enqueue stores an envelope as a queued mail and returns its id.
	Enqueue(ctx context.Context, env *models.MailEnvelope) (int64, error)

	// ClaimBatch moves up to limit queued mails to sending and returns them,
	// oldest first. A mail claimed by another worker is skipped.
	ClaimBatch(ctx context.Context, limit int) ([]*models.QueuedMail, error)

	// RenewClaim refreshes updated_at on a claimed mail. It reports false when
	// the claim is gone and the mail must not be sent.
	RenewClaim(ctx context.Context, id int64, attempt int) (bool, error)

	// MarkSent records a successful delivery and clears both bodies.
	MarkSent(ctx context.Context, id int64, attempt int) error

	// MarkFailed records a failed attempt. The mail goes back to queued until
	// it has been attempted maxAttempts times, then it is parked as failed and
	// its bodies are cleared.
	MarkFailed(ctx context.Context, id int64, attempt int, cause string, maxAttempts int) error

	// ReleaseStale handles mails stuck in sending since before cutoff. Mails
	// with attempts left are requeued; the rest are parked as failed.
	ReleaseStale(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error)

	// DeleteFinishedBefore removes sent and failed mails last touched before cutoff.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByStatus returns the number of mails per status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// SQLMailQueueRepository implements MailQueueRepository on any sqlx Querier.
type SQLMailQueueRepository struct {
	db  database.Querier
	now func() time.Time
}

// NewMailQueueRepository creates a new MailQueueRepository.
func NewMailQueueRepository(db database.Querier) MailQueueRepository {
	return &SQLMailQueueRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue implements MailQueueRepository. PostgreSQL has no LastInsertId, so
// the id is read back with RETURNING there.
func (r *SQLMailQueueRepository) Enqueue(ctx context.Context, env *models.MailEnvelope) (int64, error) {
	startTime := time.Now()
	mail := models.NewQueuedMail(env, r.now())

	query := fmt.Sprintf(`
		INSERT INTO %s (recipients, subject, text_body, html_body, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableMailQueue)

	args := []interface{}{
		mail.Recipients,
		mail.Subject,
		mail.TextBody,
		mail.HTMLBody,
		mail.Status,
		mail.Attempts,
		mail.CreatedAt,
		mail.UpdatedAt,
	}

	var id int64
	var err error
	if r.db.DriverName() == constants.DriverPostgres {
		query = r.db.Rebind(query + " RETURNING id")
		err = r.db.GetContext(ctx, &id, query, args...)
	} else {
		query = r.db.Rebind(query)
		var result sql.Result
		result, err = r.db.ExecContext(ctx, query, args...)
		if err == nil {
			id, err = result.LastInsertId()
		}
	}

	utils.LogDBQuery(query, []interface{}{mail.Recipients, mail.Subject, mail.Status}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to enqueue mail: %w", err)
	}

	return id, nil
}

// ClaimBatch implements MailQueueRepository. Each row is claimed with a
// conditional update, which works without SKIP LOCKED on every driver.
func (r *SQLMailQueueRepository) ClaimBatch(ctx context.Context, limit int) ([]*models.QueuedMail, error) {
	startTime := time.Now()

	selectQuery := r.db.Rebind(fmt.Sprintf(`
		SELECT id, recipients, subject, text_body, html_body, status, attempts, last_error, created_at, updated_at, sent_at
		FROM %s
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, constants.TableMailQueue))

	candidates := []*models.QueuedMail{}
	err := r.db.SelectContext(ctx, &candidates, selectQuery, constants.MailStatusQueued, limit)

	utils.LogDBQuery(selectQuery, []interface{}{constants.MailStatusQueued, limit}, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to select queued mail: %w", err)
	}

	claimQuery := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ? AND status = ?
	`, constants.TableMailQueue))

	claimed := make([]*models.QueuedMail, 0, len(candidates))
	for _, mail := range candidates {
		now := r.now()
		result, err := r.db.ExecContext(ctx, claimQuery, constants.MailStatusSending, now, mail.ID, constants.MailStatusQueued)
		if err != nil {
			return claimed, fmt.Errorf("failed to claim mail %d: %w", mail.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return claimed, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			continue
		}

		mail.Status = constants.MailStatusSending
		mail.Attempts++
		mail.UpdatedAt = now
		claimed = append(claimed, mail)
	}

	return claimed, nil
}

// RenewClaim implements MailQueueRepository.
func (r *SQLMailQueueRepository) RenewClaim(ctx context.Context, id int64, attempt int) (bool, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET updated_at = ?
		WHERE id = ? AND status = ? AND attempts = ?
	`, constants.TableMailQueue))

	result, err := r.db.ExecContext(ctx, query, r.now(), id, constants.MailStatusSending, attempt)
	if err != nil {
		return false, fmt.Errorf("failed to renew claim on mail %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkSent implements MailQueueRepository. The bodies carry the one-time
// password, so they are blanked once the mail is out.
func (r *SQLMailQueueRepository) MarkSent(ctx context.Context, id int64, attempt int) error {
	now := r.now()
	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, sent_at = ?, updated_at = ?, last_error = NULL, text_body = '', html_body = ''
		WHERE id = ? AND status = ? AND attempts = ?
	`, constants.TableMailQueue))

	result, err := r.db.ExecContext(ctx, query,
		constants.MailStatusSent, now, now,
		id, constants.MailStatusSending, attempt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mail %d sent: %w", id, err)
	}
	return requireClaimed(result, id)
}

// MarkFailed implements MailQueueRepository.
func (r *SQLMailQueueRepository) MarkFailed(ctx context.Context, id int64, attempt int, cause string, maxAttempts int) error {
	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = CASE WHEN attempts >= ? THEN ? ELSE ? END,
			text_body = CASE WHEN attempts >= ? THEN '' ELSE text_body END,
			html_body = CASE WHEN attempts >= ? THEN '' ELSE html_body END,
			last_error = ?, updated_at = ?
		WHERE id = ? AND status = ? AND attempts = ?
	`, constants.TableMailQueue))

	result, err := r.db.ExecContext(ctx, query,
		maxAttempts, constants.MailStatusFailed, constants.MailStatusQueued,
		maxAttempts, maxAttempts,
		utils.TruncateString(cause, 1000), r.now(),
		id, constants.MailStatusSending, attempt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mail %d failed: %w", id, err)
	}
	return requireClaimed(result, id)
}

// ReleaseStale implements MailQueueRepository.
func (r *SQLMailQueueRepository) ReleaseStale(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = CASE WHEN attempts >= ? THEN ? ELSE ? END,
			text_body = CASE WHEN attempts >= ? THEN '' ELSE text_body END,
			html_body = CASE WHEN attempts >= ? THEN '' ELSE html_body END,
			updated_at = ?
		WHERE status = ? AND updated_at < ?
	`, constants.TableMailQueue))

	result, err := r.db.ExecContext(ctx, query,
		maxAttempts, constants.MailStatusFailed, constants.MailStatusQueued,
		maxAttempts, maxAttempts,
		r.now(),
		constants.MailStatusSending, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale mail: %w", err)
	}
	return result.RowsAffected()
}

// DeleteFinishedBefore implements MailQueueRepository.
func (r *SQLMailQueueRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	startTime := time.Now()
	cutoff = cutoff.UTC()

	query := r.db.Rebind(fmt.Sprintf(`
		DELETE FROM %s
		WHERE status IN (?, ?) AND updated_at < ?
	`, constants.TableMailQueue))

	args := []interface{}{constants.MailStatusSent, constants.MailStatusFailed, cutoff}
	result, err := r.db.ExecContext(ctx, query, args...)

	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete finished mail: %w", err)
	}
	return result.RowsAffected()
}

func requireClaimed(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("mail %d: %w", id, ErrMailClaimLost)
	}
	return nil
}

type statusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

// CountByStatus implements MailQueueRepository.
func (r *SQLMailQueueRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM %s GROUP BY status`, constants.TableMailQueue)

	rows := []statusCount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count mail: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
