package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
)

// sendGridClient is the part of *sendgrid.Client used here.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridTransport delivers through the SendGrid v3 API.
type SendGridTransport struct {
	client sendGridClient
	from   Sender
}

// NewSendGridTransport creates a SendGrid transport for apiKey.
func NewSendGridTransport(apiKey string, from Sender) *SendGridTransport {
	return &SendGridTransport{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

// Name implements Transport.
func (t *SendGridTransport) Name() string {
	return constants.MailTransportSendGrid
}

// Send implements Transport. Any non-2xx status is a failed delivery.
func (t *SendGridTransport) Send(ctx context.Context, env *models.MailEnvelope) error {
	response, err := t.client.SendWithContext(ctx, buildSendGridMessage(t.from, env))
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected mail: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func buildSendGridMessage(from Sender, env *models.MailEnvelope) *sgmail.SGMailV3 {
	message := sgmail.NewV3Mail()
	message.SetFrom(sgmail.NewEmail(from.Name, from.Address))
	message.Subject = env.Subject

	p := sgmail.NewPersonalization()
	for _, to := range env.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	message.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html
	if env.Text != "" {
		message.AddContent(sgmail.NewContent("text/plain", env.Text))
	}
	if env.HTML != "" {
		message.AddContent(sgmail.NewContent("text/html", env.HTML))
	}
	return message
}
