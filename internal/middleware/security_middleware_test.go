package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockmaster/stockmaster-backend/internal/metrics"
	"github.com/stockmaster/stockmaster-backend/internal/middleware"
	"github.com/stockmaster/stockmaster-backend/internal/utils/ratelimit"
)

// MockBackend implements ratelimit.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ratelimit.Decision), args.Error(1)
}

func TestRateLimit(t *testing.T) {
	t.Run("Allowed request", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Allow", mock.Anything, "request:203.0.113.7").
			Return(ratelimit.Decision{Allowed: true, Limit: 5}, nil)

		next := &MockHandler{}
		req := httptest.NewRequest(http.MethodPost, "/api/password-reset/request", nil)
		req.RemoteAddr = "203.0.113.7:41234"
		rr := httptest.NewRecorder()

		middleware.RateLimit(backend, "request", nil)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, next.Called)
		assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
		backend.AssertExpectations(t)
	})

	t.Run("Limited request", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Allow", mock.Anything, "verify:198.51.100.4").
			Return(ratelimit.Decision{Allowed: false, Limit: 5, RetryAfter: 1500 * time.Millisecond}, nil)

		before := testutil.ToFloat64(metrics.RateLimitedTotal.WithLabelValues("verify"))

		next := &MockHandler{}
		req := httptest.NewRequest(http.MethodPost, "/api/password-reset/verify", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
		rr := httptest.NewRecorder()

		ips, err := middleware.NewClientIPResolver([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		middleware.RateLimit(backend, "verify", ips)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.False(t, next.Called)
		assert.Equal(t, "2", rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "too_many_requests")
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitedTotal.WithLabelValues("verify")))
	})

	t.Run("Zero retry after rounds up to one second", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Allow", mock.Anything, mock.Anything).
			Return(ratelimit.Decision{Allowed: false, Limit: 5}, nil)

		rr := httptest.NewRecorder()
		middleware.RateLimit(backend, "request", nil)(&MockHandler{}).
			ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/password-reset/request", nil))

		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	})

	t.Run("Backend failure lets the request through", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Allow", mock.Anything, mock.Anything).
			Return(ratelimit.Decision{Allowed: true, Limit: 5}, errors.New("redis: connection refused"))

		next := &MockHandler{}
		rr := httptest.NewRecorder()
		middleware.RateLimit(backend, "request", nil)(next).
			ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/password-reset/request", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, next.Called)
	})

	t.Run("Exempted path skips the backend", func(t *testing.T) {
		backend := new(MockBackend)

		next := &MockHandler{}
		rr := httptest.NewRecorder()
		middleware.RateLimit(backend, "request", nil)(next).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.True(t, next.Called)
		backend.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
	})

	t.Run("Separate routes use separate keys", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.PerMinute(1, 1), time.Minute, time.Hour)
		defer store.Stop()

		requestLimited := middleware.RateLimit(store, "request", nil)(&MockHandler{})
		verifyLimited := middleware.RateLimit(store, "verify", nil)(&MockHandler{})

		send := func(h http.Handler, path string) int {
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.RemoteAddr = "192.0.2.10:5000"
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			return rr.Code
		}

		assert.Equal(t, http.StatusOK, send(requestLimited, "/api/password-reset/request"))
		assert.Equal(t, http.StatusTooManyRequests, send(requestLimited, "/api/password-reset/request"))
		assert.Equal(t, http.StatusOK, send(verifyLimited, "/api/password-reset/verify"))
	})

	t.Run("Forwarded header from an untrusted peer does not open a new bucket", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.PerMinute(5, 5), time.Minute, time.Hour)
		defer store.Stop()

		ips, err := middleware.NewClientIPResolver([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		limited := middleware.RateLimit(store, "verify", ips)(&MockHandler{})

		allowed := 0
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/password-reset/verify", nil)
			req.RemoteAddr = "203.0.113.7:5000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
			rr := httptest.NewRecorder()
			limited.ServeHTTP(rr, req)
			if rr.Code == http.StatusOK {
				allowed++
			}
		}

		assert.Equal(t, 5, allowed)
	})
}

func TestRequestLogger(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(nil))
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/implicit", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.CollectAndCount(metrics.HTTPRequestDurationSeconds)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/implicit", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	// One series per route pattern, method and status
	assert.Equal(t, before+2, testutil.CollectAndCount(metrics.HTTPRequestDurationSeconds))
}
