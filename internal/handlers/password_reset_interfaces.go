// Package handlers provides HTTP request handlers for the Stockmaster password reset API.
package handlers

import (
	"context"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/models"
)

// PasswordResetServiceInterface defines the methods required from the password reset service.
// The handlers depend on this interface rather than the concrete service so they can be
// tested without a database or identity provider.
type PasswordResetServiceInterface interface {
	// RequestReset issues a one-time password for the given email.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - email: The address to send the code to
	//
	// Returns:
	//   - nil on success, and also when no account exists for the email
	//   - A service unavailable error if a dependency fails
	RequestReset(ctx context.Context, email string) error

	// VerifyOTP exchanges a one-time password for the provider action token.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - email: The address the code was issued for
	//   - otp: The code submitted by the user
	//
	// Returns:
	//   - The action token and normalized email on success
	//   - A not found, invalid code, expired or service unavailable error otherwise
	VerifyOTP(ctx context.Context, email, otp string) (*models.VerifyOTPResponse, error)

	// ListRequests returns the newest reset requests for an email.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - email: The address to inspect
	//   - limit: The maximum number of requests to return
	//
	// Returns:
	//   - Views of the requests, newest first
	//   - An error if retrieval fails
	ListRequests(ctx context.Context, email string, limit int) ([]models.ResetRequestView, error)

	// PurgeExpired deletes requests that expired more than retention ago.
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}
