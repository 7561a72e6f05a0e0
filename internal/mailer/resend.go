package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
)

// resendEmails is the part of the Resend emails service used here.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendTransport delivers through the Resend API.
type ResendTransport struct {
	emails resendEmails
	from   Sender
}

// NewResendTransport creates a Resend transport for apiKey.
func NewResendTransport(apiKey string, from Sender) *ResendTransport {
	client := resend.NewClient(apiKey)
	return &ResendTransport{emails: client.Emails, from: from}
}

// Name implements Transport.
func (t *ResendTransport) Name() string {
	return constants.MailTransportResend
}

// Send implements Transport.
func (t *ResendTransport) Send(ctx context.Context, env *models.MailEnvelope) error {
	_, err := t.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    t.from.String(),
		To:      env.To,
		Subject: env.Subject,
		Html:    env.HTML,
		Text:    env.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}
