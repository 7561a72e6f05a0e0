// Package auth provides one-time password digests and the bearer token
// authentication of the support routes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// Context keys for storing the authenticated principal and request metadata.
const (
	// SubjectContextKey is the context key for the token subject.
	SubjectContextKey ContextKey = constants.SubjectContextKey

	// RoleContextKey is the context key for the token role.
	RoleContextKey ContextKey = constants.RoleContextKey

	// RequestIDContextKey is the context key for storing the unique request ID.
	RequestIDContextKey ContextKey = constants.RequestIDContextKey
)

// Principal is the caller identified by an AuthProvider.
type Principal struct {
	Subject string
	Role    string
}

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the caller if valid.
	Authenticate(r *http.Request) (*Principal, error)
}

// JWTAuthProvider implements JWT-based authentication.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{jwtService: jwtService}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
// The token is read from the Authorization header only.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*Principal, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" || !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)

	claims, err := p.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &Principal{Subject: claims.Subject, Role: claims.Role}, nil
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provider and only lets the request through if one succeeds.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := GetRequestID(r)
		if !ok {
			requestID = chimiddleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = r.Header.Get(constants.HeaderXRequestID)
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		var lastErr error
		for _, provider := range providers {
			principal, err := provider.Authenticate(r)
			if err == nil {
				ctx = context.WithValue(ctx, SubjectContextKey, principal.Subject)
				ctx = context.WithValue(ctx, RoleContextKey, principal.Role)

				log.Info().
					Str("subject", principal.Subject).
					Str("role", principal.Role).
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Caller authenticated")

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			lastErr = err
		}

		log.Info().
			Err(lastErr).
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
			return
		}
		utils.Unauthorized(w, constants.MsgAuthRequired)
	})
}

// RequireAuth returns a middleware that requires authentication.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// GetSubject extracts the authenticated subject from the request context.
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectContextKey).(string)
	return subject, ok
}

// GetRole extracts the authenticated role from the request context.
func GetRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(RoleContextKey).(string)
	return role, ok
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(RequestIDContextKey).(string)
	return requestID, ok && requestID != ""
}
