package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
)

// MockMailQueue is a function-field fake of repository.MailQueueRepository
type MockMailQueue struct {
	EnqueueFunc       func(ctx context.Context, env *models.MailEnvelope) (int64, error)
	ClaimBatchFunc    func(ctx context.Context, limit int) ([]*models.QueuedMail, error)
	RenewClaimFunc    func(ctx context.Context, id int64, attempt int) (bool, error)
	MarkSentFunc      func(ctx context.Context, id int64, attempt int) error
	MarkFailedFunc    func(ctx context.Context, id int64, attempt int, cause string, maxAttempts int) error
	ReleaseStaleFunc  func(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error)
	DeleteFunc        func(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatusFunc func(ctx context.Context) (map[string]int64, error)

	mu     sync.Mutex
	sent   []int64
	failed []int64
}

func (m *MockMailQueue) Enqueue(ctx context.Context, env *models.MailEnvelope) (int64, error) {
	return m.EnqueueFunc(ctx, env)
}

func (m *MockMailQueue) ClaimBatch(ctx context.Context, limit int) ([]*models.QueuedMail, error) {
	if m.ClaimBatchFunc == nil {
		return nil, nil
	}
	return m.ClaimBatchFunc(ctx, limit)
}

func (m *MockMailQueue) RenewClaim(ctx context.Context, id int64, attempt int) (bool, error) {
	if m.RenewClaimFunc == nil {
		return true, nil
	}
	return m.RenewClaimFunc(ctx, id, attempt)
}

func (m *MockMailQueue) MarkSent(ctx context.Context, id int64, attempt int) error {
	m.mu.Lock()
	m.sent = append(m.sent, id)
	m.mu.Unlock()
	if m.MarkSentFunc == nil {
		return nil
	}
	return m.MarkSentFunc(ctx, id, attempt)
}

func (m *MockMailQueue) MarkFailed(ctx context.Context, id int64, attempt int, cause string, maxAttempts int) error {
	m.mu.Lock()
	m.failed = append(m.failed, id)
	m.mu.Unlock()
	if m.MarkFailedFunc == nil {
		return nil
	}
	return m.MarkFailedFunc(ctx, id, attempt, cause, maxAttempts)
}

func (m *MockMailQueue) ReleaseStale(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	if m.ReleaseStaleFunc == nil {
		return 0, nil
	}
	return m.ReleaseStaleFunc(ctx, cutoff, maxAttempts)
}

func (m *MockMailQueue) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteFunc == nil {
		return 0, nil
	}
	return m.DeleteFunc(ctx, cutoff)
}

func (m *MockMailQueue) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if m.CountByStatusFunc == nil {
		return map[string]int64{}, nil
	}
	return m.CountByStatusFunc(ctx)
}

// memoryQueue is a stateful in-memory queue that enforces claims the way the
// SQL repository does: every write after a claim must match the row's status
// and attempts.
type memoryQueue struct {
	mu          sync.Mutex
	now         func() time.Time
	rows        []*models.QueuedMail
	beforeRenew func(id int64)
}

func (q *memoryQueue) find(id int64) *models.QueuedMail {
	for _, row := range q.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (q *memoryQueue) held(id int64, attempt int) *models.QueuedMail {
	row := q.find(id)
	if row == nil || row.Status != constants.MailStatusSending || row.Attempts != attempt {
		return nil
	}
	return row
}

func (q *memoryQueue) Enqueue(ctx context.Context, env *models.MailEnvelope) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	mail := models.NewQueuedMail(env, q.now())
	mail.ID = int64(len(q.rows) + 1)
	q.rows = append(q.rows, mail)
	return mail.ID, nil
}

func (q *memoryQueue) ClaimBatch(ctx context.Context, limit int) ([]*models.QueuedMail, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var claimed []*models.QueuedMail
	for _, row := range q.rows {
		if len(claimed) == limit {
			break
		}
		if row.Status != constants.MailStatusQueued {
			continue
		}
		row.Status = constants.MailStatusSending
		row.Attempts++
		row.UpdatedAt = q.now()
		copied := *row
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (q *memoryQueue) RenewClaim(ctx context.Context, id int64, attempt int) (bool, error) {
	if q.beforeRenew != nil {
		q.beforeRenew(id)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	row := q.held(id, attempt)
	if row == nil {
		return false, nil
	}
	row.UpdatedAt = q.now()
	return true, nil
}

func (q *memoryQueue) MarkSent(ctx context.Context, id int64, attempt int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	row := q.held(id, attempt)
	if row == nil {
		return repository.ErrMailClaimLost
	}
	row.Status = constants.MailStatusSent
	row.TextBody, row.HTMLBody = "", ""
	row.UpdatedAt = q.now()
	return nil
}

func (q *memoryQueue) MarkFailed(ctx context.Context, id int64, attempt int, cause string, maxAttempts int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	row := q.held(id, attempt)
	if row == nil {
		return repository.ErrMailClaimLost
	}
	q.settle(row, maxAttempts)
	return nil
}

func (q *memoryQueue) ReleaseStale(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var count int64
	for _, row := range q.rows {
		if row.Status == constants.MailStatusSending && row.UpdatedAt.Before(cutoff) {
			q.settle(row, maxAttempts)
			count++
		}
	}
	return count, nil
}

func (q *memoryQueue) settle(row *models.QueuedMail, maxAttempts int) {
	if row.Attempts >= maxAttempts {
		row.Status = constants.MailStatusFailed
		row.TextBody, row.HTMLBody = "", ""
	} else {
		row.Status = constants.MailStatusQueued
	}
	row.UpdatedAt = q.now()
}

func (q *memoryQueue) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (q *memoryQueue) CountByStatus(ctx context.Context) (map[string]int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := map[string]int64{}
	for _, row := range q.rows {
		counts[row.Status]++
	}
	return counts, nil
}

// MockTransport records every envelope it is asked to send
type MockTransport struct {
	SendFunc func(ctx context.Context, env *models.MailEnvelope) error

	mu        sync.Mutex
	envelopes []*models.MailEnvelope
}

func (m *MockTransport) Name() string { return "mock" }

func (m *MockTransport) Send(ctx context.Context, env *models.MailEnvelope) error {
	m.mu.Lock()
	m.envelopes = append(m.envelopes, env)
	m.mu.Unlock()
	if m.SendFunc == nil {
		return nil
	}
	return m.SendFunc(ctx, env)
}
