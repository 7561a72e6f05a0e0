// Package middleware provides HTTP middleware components.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/metrics"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
	"github.com/stockmaster/stockmaster-backend/internal/utils/ratelimit"
)

// RateLimit is middleware that limits the rate of requests per client and route.
// Counters are keyed by route and client IP, so a client exhausting the
// request route can still verify a code it already has.
//
// Parameters:
//   - backend: The limiter deciding each request, in-memory or shared
//   - route: Label used for the counter key and the rate limited metric
//   - ips: Resolves the client address; nil keys on the peer address
//
// Returns:
//   - A middleware function that can be used with an HTTP handler
//
// A backend error lets the request through. Losing the limiter must not take
// the reset flow down with it.
func RateLimit(backend ratelimit.Backend, route string, ips *ClientIPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := ips.ClientIP(r)

			decision, err := backend.Allow(r.Context(), route+":"+clientIP)
			if err != nil {
				log.Warn().Err(err).Str("route", route).Msg("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(decision.Limit))

			if !decision.Allowed {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Str("route", route).
					Msg("Rate limit exceeded")

				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				utils.TooManyRequests(w, retryAfterSeconds(decision.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds a wait up to whole seconds, never below one
func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// RequestLogger logs every request once it completes and records its latency.
// The route label is the chi route pattern, not the raw path.
func RequestLogger(ips *ClientIPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			latency := time.Since(start)

			metrics.HTTPRequestDurationSeconds.
				WithLabelValues(routePattern(r), r.Method, strconv.Itoa(status)).
				Observe(latency.Seconds())

			utils.LogHTTPRequest(
				chimiddleware.GetReqID(r.Context()),
				r.Method,
				r.URL.Path,
				ips.ClientIP(r),
				r.UserAgent(),
				status,
				latency,
			)
		})
	}
}

// routePattern returns the matched chi route, or "unmatched"
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// isExemptedPath returns true if the path should be exempted from rate limiting
func isExemptedPath(path string) bool {
	exemptPrefixes := []string{
		constants.HealthPath,
		constants.VersionPath,
		constants.MetricsPath,
	}

	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
