package identity

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/stockmaster/stockmaster-backend/internal/config"
)

// authClient is the part of *auth.Client used here.
type authClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	PasswordResetLinkWithSettings(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
}

// FirebaseProvider implements Provider on Firebase Authentication.
type FirebaseProvider struct {
	client     authClient
	isNotFound func(error) bool
}

// NewFirebaseProvider initializes a Firebase app from cfg and returns a
// provider backed by its Auth client.
func NewFirebaseProvider(ctx context.Context, cfg *config.FirebaseSettings) (*FirebaseProvider, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	log.Info().Str("project_id", cfg.ProjectID).Msg("Firebase auth client initialized")

	return newFirebaseProvider(client), nil
}

func newFirebaseProvider(client authClient) *FirebaseProvider {
	return &FirebaseProvider{
		client:     client,
		isNotFound: auth.IsUserNotFound,
	}
}

// serviceAccount is the credentials JSON layout Google client libraries accept.
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// clientOptions picks the credential source. A credentials file wins over an
// inline client email and private key; with neither, application default
// credentials are used.
func clientOptions(cfg *config.FirebaseSettings) ([]option.ClientOption, error) {
	switch {
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil

	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		creds, err := json.Marshal(serviceAccount{
			Type:        "service_account",
			ProjectID:   cfg.ProjectID,
			ClientEmail: cfg.ClientEmail,
			PrivateKey:  cfg.PrivateKey,
			TokenURI:    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode firebase credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil

	case cfg.ClientEmail != "" || cfg.PrivateKey != "":
		return nil, fmt.Errorf("firebase client email and private key must be set together")
	}

	return nil, nil
}

// LookupByEmail implements Provider.
func (p *FirebaseProvider) LookupByEmail(ctx context.Context, email string) (*Account, error) {
	user, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		if p.isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account := &Account{Disabled: user.Disabled}
	if user.UserInfo != nil {
		account.UID = user.UID
		account.Email = user.Email
	}
	return account, nil
}

// PasswordResetLink implements Provider. The link is generated for in-app
// handling so the client can exchange the action token itself.
func (p *FirebaseProvider) PasswordResetLink(ctx context.Context, email, redirectURL string) (string, error) {
	link, err := p.client.PasswordResetLinkWithSettings(ctx, email, &auth.ActionCodeSettings{
		URL:             redirectURL,
		HandleCodeInApp: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate password reset link: %w", err)
	}
	return link, nil
}
