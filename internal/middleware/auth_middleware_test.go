package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stockmaster/stockmaster-backend/internal/auth"
	"github.com/stockmaster/stockmaster-backend/internal/middleware"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// MockJWTValidator is a mock implementation of the JWTValidator interface
type MockJWTValidator struct {
	ValidateTokenFunc func(tokenString string) (*auth.AdminClaims, error)
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*auth.AdminClaims, error) {
	return m.ValidateTokenFunc(tokenString)
}

// MockHandler is a simple http.Handler implementation for testing middleware
type MockHandler struct {
	Called bool
}

func (m *MockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.Called = true
	w.WriteHeader(http.StatusOK)
}

func withPrincipal(r *http.Request, subject, role string) *http.Request {
	ctx := context.WithValue(r.Context(), auth.SubjectContextKey, subject)
	ctx = context.WithValue(ctx, auth.RoleContextKey, role)
	return r.WithContext(ctx)
}

func TestJWTAuth(t *testing.T) {
	validator := &MockJWTValidator{
		ValidateTokenFunc: func(tokenString string) (*auth.AdminClaims, error) {
			if tokenString != "good-token" {
				return nil, utils.NewInvalidTokenError()
			}
			claims := &auth.AdminClaims{Role: "admin"}
			claims.Subject = "support@stockmaster.test"
			return claims, nil
		},
	}

	t.Run("Valid token", func(t *testing.T) {
		var gotSubject, gotRole string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSubject, _ = auth.GetSubject(r)
			gotRole, _ = auth.GetRole(r)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/admin/password-reset/requests", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()

		middleware.JWTAuth(validator)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "support@stockmaster.test", gotSubject)
		assert.Equal(t, "admin", gotRole)
	})

	t.Run("Invalid token", func(t *testing.T) {
		next := &MockHandler{}
		req := httptest.NewRequest(http.MethodGet, "/api/admin/password-reset/requests", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rr := httptest.NewRecorder()

		middleware.JWTAuth(validator)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, next.Called)
	})

	t.Run("Missing token", func(t *testing.T) {
		next := &MockHandler{}
		rr := httptest.NewRecorder()

		middleware.JWTAuth(validator)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, next.Called)
	})

	t.Run("Validator error", func(t *testing.T) {
		failing := &MockJWTValidator{
			ValidateTokenFunc: func(string) (*auth.AdminClaims, error) { return nil, errors.New("boom") },
		}
		next := &MockHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rr := httptest.NewRecorder()

		middleware.JWTAuth(failing)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, next.Called)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		prepare        func(r *http.Request) *http.Request
		expectedStatus int
		expectCalled   bool
	}{
		{
			name:           "Admin allowed",
			prepare:        func(r *http.Request) *http.Request { return withPrincipal(r, "support", "admin") },
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "Other role forbidden",
			prepare:        func(r *http.Request) *http.Request { return withPrincipal(r, "viewer", "viewer") },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Missing role forbidden",
			prepare:        func(r *http.Request) *http.Request { return withPrincipal(r, "support", "") },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Unauthenticated",
			prepare:        func(r *http.Request) *http.Request { return r },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &MockHandler{}
			req := tt.prepare(httptest.NewRequest(http.MethodGet, "/api/admin/password-reset/requests", nil))
			rr := httptest.NewRecorder()

			middleware.RequireRole("admin")(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectCalled, next.Called)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.SecurityHeaders()(&MockHandler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rr.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'self'", rr.Header().Get("Content-Security-Policy"))
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.NoStore()(&MockHandler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/password-reset/verify", nil))

	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rr.Header().Get("Pragma"))
	assert.Equal(t, "0", rr.Header().Get("Expires"))
}
