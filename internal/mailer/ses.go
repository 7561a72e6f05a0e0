package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/models"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the part of *ses.Client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport delivers through Amazon SES.
type SESTransport struct {
	client sesAPI
	from   Sender
}

// NewSESTransport loads the default AWS credential chain for region.
func NewSESTransport(ctx context.Context, region string, from Sender) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &SESTransport{client: ses.NewFromConfig(cfg), from: from}, nil
}

// Name implements Transport.
func (t *SESTransport) Name() string {
	return constants.MailTransportSES
}

// Send implements Transport.
func (t *SESTransport) Send(ctx context.Context, env *models.MailEnvelope) error {
	body := &types.Body{}
	if env.Text != "" {
		body.Text = &types.Content{Data: aws.String(env.Text), Charset: aws.String(charsetUTF8)}
	}
	if env.HTML != "" {
		body.Html = &types.Content{Data: aws.String(env.HTML), Charset: aws.String(charsetUTF8)}
	}

	_, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(t.from.String()),
		Destination: &types.Destination{ToAddresses: env.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(env.Subject), Charset: aws.String(charsetUTF8)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}
