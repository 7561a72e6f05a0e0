// Package identity talks to the external identity provider that owns user
// accounts. The reset flow only needs two things from it: whether an account
// exists for an email, and a provider-issued action token for that account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

var (
	// ErrAccountNotFound is returned by LookupByEmail when no account has the email.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMissingActionToken is returned when a reset link carries no action code.
	ErrMissingActionToken = errors.New("reset link has no action token")
)

// Account is the subset of a provider account the reset flow uses.
type Account struct {
	UID      string
	Email    string
	Disabled bool
}

// Provider is implemented by identity providers.
type Provider interface {
	// LookupByEmail returns the account registered for email, or ErrAccountNotFound.
	LookupByEmail(ctx context.Context, email string) (*Account, error)

	// PasswordResetLink asks the provider for a password reset link that
	// returns the user to redirectURL.
	PasswordResetLink(ctx context.Context, email, redirectURL string) (string, error)
}

// ExtractActionToken returns the oobCode query parameter of a reset link.
func ExtractActionToken(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse reset link: %w", err)
	}

	token := u.Query().Get(constants.ActionTokenQueryParam)
	if token == "" {
		return "", ErrMissingActionToken
	}
	return token, nil
}
