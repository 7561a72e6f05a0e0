package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/identity"
	"github.com/stockmaster/stockmaster-backend/internal/metrics"
	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// OTPHasher digests and checks one-time passwords
type OTPHasher interface {
	Hash(otp string) (hash string, salt string, err error)
	Verify(otp, hash, salt string) (bool, error)
}

// PasswordResetService issues one-time passwords and exchanges them for the
// provider's action token
type PasswordResetService struct {
	settings    *config.PasswordResetSettings
	identity    identity.Provider
	resets      repository.PasswordResetRepository
	mailQueue   repository.MailQueueRepository
	hasher      OTPHasher
	mail        *resetMailRenderer
	generateOTP func() (string, error)
	now         func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService.
// The settings are validated here so a misconfigured service never starts.
func NewPasswordResetService(
	settings *config.PasswordResetSettings,
	provider identity.Provider,
	resets repository.PasswordResetRepository,
	mailQueue repository.MailQueueRepository,
	hasher OTPHasher,
	generateOTP func() (string, error),
) (*PasswordResetService, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	subject := settings.MailSubject
	if subject == "" {
		subject = constants.DefaultResetMailSubject
	}
	renderer, err := newResetMailRenderer(subject)
	if err != nil {
		return nil, err
	}

	return &PasswordResetService{
		settings:    settings,
		identity:    provider,
		resets:      resets,
		mailQueue:   mailQueue,
		hasher:      hasher,
		mail:        renderer,
		generateOTP: generateOTP,
		now:         time.Now,
	}, nil
}

// RequestReset issues a one-time password for email and queues it for delivery.
// An unknown email returns nil without side effects, so callers cannot tell
// whether an account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	if _, err := s.identity.LookupByEmail(ctx, email); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			utils.LogPasswordReset(constants.LogEventResetUnknownAccount, email, true, "")
			metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.OutcomeUnknownAccount).Inc()
			return nil
		}
		return s.requestFailed(email, "lookup", constants.MsgResetStartFailed, err)
	}

	otp, err := s.generateOTP()
	if err != nil {
		return s.requestFailed(email, "generate_otp", constants.MsgResetCodeFailed, err)
	}

	link, err := s.identity.PasswordResetLink(ctx, email, s.settings.RedirectURL)
	if err != nil {
		return s.requestFailed(email, "reset_link", constants.MsgResetCodeFailed, err)
	}

	actionToken, err := identity.ExtractActionToken(link)
	if err != nil {
		return s.requestFailed(email, "extract_action_token", constants.MsgResetCodeFailed, err)
	}

	otpHash, otpSalt, err := s.hasher.Hash(otp)
	if err != nil {
		return s.requestFailed(email, "hash_otp", constants.MsgResetCodeFailed, err)
	}

	req := models.NewResetRequest(email, otpHash, otpSalt, actionToken, s.now(), s.settings.OTPExpiry)
	if err := s.resets.Create(ctx, req); err != nil {
		return s.requestFailed(email, "store_request", constants.MsgResetUnavailable, err)
	}

	envelope, err := s.mail.Render(email, otp, s.settings.OTPExpiry)
	if err != nil {
		return s.requestFailed(email, "render_mail", constants.MsgResetUnavailable, err)
	}

	mailID, err := s.mailQueue.Enqueue(ctx, envelope)
	if err != nil {
		return s.requestFailed(email, "enqueue_mail", constants.MsgResetUnavailable, err)
	}

	log.Debug().
		Str("reset_request_id", req.ID).
		Int64("mail_id", mailID).
		Msg("Reset code issued")
	utils.LogPasswordReset(constants.LogEventResetRequested, email, true, "")
	metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.OutcomeIssued).Inc()

	return nil
}

func (s *PasswordResetService) requestFailed(email, operation, devInfo string, cause error) error {
	utils.LogPasswordReset(constants.LogEventResetRequested, email, false, operation+": "+cause.Error())
	metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
	return utils.NewServiceUnavailableError(devInfo, cause)
}

// VerifyOTP exchanges a one-time password for the action token of the
// request it was issued with. Only the newest requests are considered; the
// first unused one whose code matches is selected regardless of expiry, and
// an expired selection is rejected without being consumed.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, otp string) (*models.VerifyOTPResponse, error) {
	email = models.NormalizeEmail(email)

	candidates, err := s.resets.ListRecentByEmail(ctx, email, s.settings.CandidateLimit)
	if err != nil {
		return nil, s.verifyFailed(email, metrics.OutcomeUnavailable, "list_requests",
			utils.NewServiceUnavailableError(constants.MsgResetUnavailable, err))
	}

	if len(candidates) == 0 {
		return nil, s.verifyFailed(email, metrics.OutcomeNotFound, "no_requests", utils.NewResetRequestNotFoundError())
	}

	match := s.selectCandidate(candidates, otp)
	if match == nil {
		return nil, s.verifyFailed(email, metrics.OutcomeInvalid, "no_match", utils.NewInvalidOTPError())
	}

	now := s.now()
	if match.IsExpired(now) {
		return nil, s.verifyFailed(email, metrics.OutcomeExpired, "expired", utils.NewOTPExpiredError())
	}

	if err := s.resets.MarkUsed(ctx, match.ID, now); err != nil {
		if errors.Is(err, repository.ErrResetRequestAlreadyUsed) {
			// Another verification consumed the record first
			return nil, s.verifyFailed(email, metrics.OutcomeInvalid, "lost_race", utils.NewInvalidOTPError())
		}
		return nil, s.verifyFailed(email, metrics.OutcomeUnavailable, "mark_used",
			utils.NewServiceUnavailableError(constants.MsgResetUnavailable, err))
	}
	match.MarkUsed(now)

	utils.LogPasswordReset(constants.LogEventOTPVerified, email, true, "")
	metrics.PasswordResetVerificationsTotal.WithLabelValues(metrics.OutcomeVerified).Inc()

	return &models.VerifyOTPResponse{ActionToken: match.ActionToken, Email: email}, nil
}

// selectCandidate returns the first unused candidate whose digest matches otp.
// A digest that cannot be decoded is treated as a non-match.
func (s *PasswordResetService) selectCandidate(candidates []*models.ResetRequest, otp string) *models.ResetRequest {
	for _, candidate := range candidates {
		if candidate.Used {
			continue
		}
		ok, err := s.hasher.Verify(otp, candidate.OTPHash, candidate.OTPSalt)
		if err != nil {
			log.Warn().Err(err).Str("reset_request_id", candidate.ID).Msg("Unreadable reset code digest")
			continue
		}
		if ok {
			return candidate
		}
	}
	return nil
}

func (s *PasswordResetService) verifyFailed(email, outcome, reason string, err *utils.AppError) error {
	if err.DevInfo != "" {
		reason = reason + ": " + err.DevInfo
	}
	utils.LogPasswordReset(constants.LogEventOTPRejected, email, false, reason)
	metrics.PasswordResetVerificationsTotal.WithLabelValues(outcome).Inc()
	return err
}

// ListRequests returns the newest reset requests for email as seen at now,
// for the support inspection route.
func (s *PasswordResetService) ListRequests(ctx context.Context, email string, limit int) ([]models.ResetRequestView, error) {
	requests, err := s.resets.ListRecentByEmail(ctx, models.NormalizeEmail(email), limit)
	if err != nil {
		return nil, utils.NewServiceUnavailableError(constants.MsgResetUnavailable, err)
	}

	now := s.now()
	views := make([]models.ResetRequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, req.View(now))
	}
	return views, nil
}

// PurgeExpired deletes requests that expired more than retention ago, along
// with sent or failed mail last touched before the same cutoff. It returns the
// number of requests deleted.
func (s *PasswordResetService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)

	count, err := s.resets.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	mails, err := s.mailQueue.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return count, err
	}
	if mails > 0 {
		log.Info().Int64("count", mails).Msg("Purged finished mail")
	}
	return count, nil
}
