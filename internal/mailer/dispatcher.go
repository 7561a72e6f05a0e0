package mailer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/metrics"
	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// Dispatcher moves mail from the queue to a Transport.
type Dispatcher struct {
	queue        repository.MailQueueRepository
	transport    Transport
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	staleAfter   time.Duration
	sendTimeout  time.Duration
	now          func() time.Time
}

// BatchResult summarizes one dispatch pass.
type BatchResult struct {
	Claimed  int
	Sent     int
	Failed   int
	Skipped  int
	Released int64
}

// NewDispatcher creates a dispatcher using the batch, attempt and polling
// settings from cfg.
func NewDispatcher(queue repository.MailQueueRepository, transport Transport, cfg *config.MailSettings) *Dispatcher {
	return &Dispatcher{
		queue:        queue,
		transport:    transport,
		batchSize:    cfg.BatchSize,
		maxAttempts:  cfg.MaxAttempts,
		pollInterval: cfg.PollInterval,
		staleAfter:   constants.MailStaleAfter,
		sendTimeout:  constants.MailSendTimeout,
		now:          time.Now,
	}
}

// RunOnce requeues stale mail, then claims and delivers one batch.
// A failed delivery is recorded on the row and does not stop the batch.
func (d *Dispatcher) RunOnce(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	released, err := d.queue.ReleaseStale(ctx, d.now().Add(-d.staleAfter), d.maxAttempts)
	if err != nil {
		return result, err
	}
	result.Released = released
	if released > 0 {
		log.Warn().Int64("count", released).Msg("Released mail stuck in sending")
	}

	batch, err := d.queue.ClaimBatch(ctx, d.batchSize)
	result.Claimed = len(batch)

	// Rows claimed before a claim error are still delivered
	for _, queued := range batch {
		switch d.deliver(ctx, queued) {
		case deliverySent:
			result.Sent++
		case deliveryFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	if err != nil {
		return result, err
	}

	d.recordQueueDepth(ctx)
	return result, nil
}

type deliveryOutcome int

const (
	deliverySkipped deliveryOutcome = iota
	deliverySent
	deliveryFailed
)

func (d *Dispatcher) deliver(ctx context.Context, queued *models.QueuedMail) deliveryOutcome {
	id, attempt := queued.ID, queued.Attempts
	mailID := strconv.FormatInt(id, 10)

	// Rows claimed late in a batch may have been released while earlier rows
	// were sending; only the current claim holder may send.
	owned, err := d.queue.RenewClaim(ctx, id, attempt)
	if err != nil {
		log.Error().Err(err).Str("mail_id", mailID).Msg("Failed to renew mail claim")
		return deliverySkipped
	}
	if !owned {
		log.Warn().Str("mail_id", mailID).Int("attempt", attempt).Msg("Mail claim lost, skipping")
		return deliverySkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	sendErr := d.transport.Send(sendCtx, queued.Envelope())
	cancel()

	utils.LogMailDelivery(mailID, d.transport.Name(), attempt, sendErr)

	if sendErr != nil {
		metrics.MailDeliveriesTotal.WithLabelValues(d.transport.Name(), metrics.OutcomeFailed).Inc()
		if err := d.queue.MarkFailed(ctx, id, attempt, sendErr.Error(), d.maxAttempts); err != nil {
			log.Error().Err(err).Str("mail_id", mailID).Msg("Failed to record mail failure")
		}
		if attempt >= d.maxAttempts {
			log.Error().Str("mail_id", mailID).Int("attempts", attempt).Msg("Mail parked after final attempt")
		}
		return deliveryFailed
	}

	metrics.MailDeliveriesTotal.WithLabelValues(d.transport.Name(), metrics.OutcomeSent).Inc()
	if err := d.queue.MarkSent(ctx, id, attempt); err != nil {
		// The mail went out; a retry would send it twice, so only log
		log.Error().Err(err).Str("mail_id", mailID).Msg("Failed to mark mail sent")
	}
	return deliverySent
}

func (d *Dispatcher) recordQueueDepth(ctx context.Context) {
	counts, err := d.queue.CountByStatus(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read mail queue depth")
		return
	}
	for _, status := range []string{
		constants.MailStatusQueued,
		constants.MailStatusSending,
		constants.MailStatusSent,
		constants.MailStatusFailed,
	} {
		metrics.MailQueueDepth.WithLabelValues(status).Set(float64(counts[status]))
	}
}

// Run polls the queue until ctx is cancelled. Errors from a pass are logged
// and the next tick tries again.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Info().
		Str("transport", d.transport.Name()).
		Dur("poll_interval", d.pollInterval).
		Int("batch_size", d.batchSize).
		Msg("Mail dispatcher started")

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Mail dispatch pass failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Mail dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Drain runs passes until the queue has nothing left to claim.
func (d *Dispatcher) Drain(ctx context.Context) (BatchResult, error) {
	var total BatchResult
	for {
		result, err := d.RunOnce(ctx)
		total.Claimed += result.Claimed
		total.Sent += result.Sent
		total.Failed += result.Failed
		total.Skipped += result.Skipped
		total.Released += result.Released
		if err != nil {
			return total, err
		}
		// Failed rows go back to queued, so stop once a pass sends nothing
		if result.Claimed == 0 || result.Sent == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}
