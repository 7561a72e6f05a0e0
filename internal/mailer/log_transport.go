package mailer

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
)

// LogTransport writes envelopes to the log instead of delivering them.
// Bodies are never logged because they carry the one-time password.
type LogTransport struct{}

// NewLogTransport creates a LogTransport.
func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

// Name implements Transport.
func (t *LogTransport) Name() string {
	return constants.MailTransportLog
}

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, env *models.MailEnvelope) error {
	log.Info().
		Int("recipient_count", len(env.To)).
		Str("subject", env.Subject).
		Int("text_bytes", len(env.Text)).
		Int("html_bytes", len(env.HTML)).
		Msg("Mail written to log transport")
	return nil
}
