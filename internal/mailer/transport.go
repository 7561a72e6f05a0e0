// Package mailer delivers queued mail. The reset flow only writes envelopes to
// the mail queue; a Dispatcher claims them and hands each to a Transport.
package mailer

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
)

// Transport delivers a single envelope.
type Transport interface {
	// Name identifies the transport in logs and metrics.
	Name() string

	// Send delivers env to every recipient or returns an error.
	Send(ctx context.Context, env *models.MailEnvelope) error
}

// Sender is the From identity used by every transport.
type Sender struct {
	Name    string
	Address string
}

// String formats the sender as an RFC 5322 address.
func (s Sender) String() string {
	return (&mail.Address{Name: s.Name, Address: s.Address}).String()
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(ctx context.Context, cfg *config.MailSettings) (Transport, error) {
	from := Sender{Name: cfg.FromName, Address: cfg.FromAddress}

	switch cfg.Transport {
	case constants.MailTransportSendGrid:
		return NewSendGridTransport(cfg.SendGridAPIKey, from), nil
	case constants.MailTransportSES:
		return NewSESTransport(ctx, cfg.SESRegion, from)
	case constants.MailTransportResend:
		return NewResendTransport(cfg.ResendAPIKey, from), nil
	case constants.MailTransportLog:
		return NewLogTransport(), nil
	}

	return nil, fmt.Errorf("unsupported mail transport: %s", cfg.Transport)
}
