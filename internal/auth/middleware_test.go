package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/stockmaster/stockmaster-backend/internal/auth"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// MockJWTValidator implements the JWTValidator interface for testing
type MockJWTValidator struct {
	ValidateFunc func(string) (*auth.AdminClaims, error)
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*auth.AdminClaims, error) {
	return m.ValidateFunc(tokenString)
}

func adminValidator() *MockJWTValidator {
	return &MockJWTValidator{
		ValidateFunc: func(token string) (*auth.AdminClaims, error) {
			if token != "good-token" {
				return nil, utils.NewInvalidTokenError()
			}
			claims := &auth.AdminClaims{Role: "admin"}
			claims.Subject = "support@stockmaster.test"
			return claims, nil
		},
	}
}

func TestJWTAuthProvider_Authenticate(t *testing.T) {
	provider := auth.NewJWTAuthProvider(adminValidator())

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"Valid bearer token", "Bearer good-token", false},
		{"Missing header", "", true},
		{"Wrong scheme", "Basic dXNlcjpwYXNz", true},
		{"Invalid token", "Bearer bad-token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			principal, err := provider.Authenticate(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && principal.Role != "admin" {
				t.Errorf("Role = %q, want admin", principal.Role)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	var gotSubject, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = auth.GetSubject(r)
		gotRole, _ = auth.GetRole(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.RequireAuth(auth.NewJWTAuthProvider(adminValidator()))(next)

	t.Run("Authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, r)

		if rr.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", rr.Code)
		}
		if gotSubject != "support@stockmaster.test" || gotRole != "admin" {
			t.Errorf("context = (%q, %q)", gotSubject, gotRole)
		}
	})

	t.Run("Missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", rr.Code)
		}
	})

	t.Run("Invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bad-token")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, r)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", rr.Code)
		}
	})
}

func TestGetRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := auth.GetRequestID(r); ok {
		t.Error("Expected no request id on a bare request")
	}

	r = r.WithContext(context.WithValue(r.Context(), auth.RequestIDContextKey, "req-1"))
	if id, ok := auth.GetRequestID(r); !ok || id != "req-1" {
		t.Errorf("GetRequestID() = (%q, %v)", id, ok)
	}
}

func TestRequireAuthUsesRouterRequestID(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = auth.GetRequestID(r)
	})
	handler := chimiddleware.RequestID(auth.RequireAuth(auth.NewJWTAuthProvider(adminValidator()))(next))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good-token")
	r.Header.Set("X-Request-Id", "edge-42")

	handler.ServeHTTP(httptest.NewRecorder(), r)

	if gotID != "edge-42" {
		t.Errorf("request id = %q, want edge-42", gotID)
	}
}
