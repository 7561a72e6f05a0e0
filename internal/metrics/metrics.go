// Package metrics provides Prometheus metrics for the password reset service.
// Every collector is registered on the default registry and served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockmaster"

// Outcome labels shared by the reset counters.
const (
	OutcomeIssued         = "issued"
	OutcomeUnknownAccount = "unknown_account"
	OutcomeVerified       = "verified"
	OutcomeNotFound       = "not_found"
	OutcomeInvalid        = "invalid"
	OutcomeExpired        = "expired"
	OutcomeUnavailable    = "unavailable"
	OutcomeSent           = "sent"
	OutcomeFailed         = "failed"
)

var (
	// PasswordResetRequestsTotal counts reset requests by outcome.
	PasswordResetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_requests_total",
			Help:      "Total number of password reset requests by outcome.",
		},
		[]string{"outcome"},
	)

	// PasswordResetVerificationsTotal counts OTP verifications by outcome.
	PasswordResetVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_verifications_total",
			Help:      "Total number of one-time password verifications by outcome.",
		},
		[]string{"outcome"},
	)

	// MailDeliveriesTotal counts delivery attempts per transport.
	MailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_deliveries_total",
			Help:      "Total number of mail delivery attempts by transport and outcome.",
		},
		[]string{"transport", "outcome"},
	)

	// MailQueueDepth is the number of mails per queue status at the last poll.
	MailQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mail_queue_depth",
			Help:      "Number of mails in the queue by status.",
		},
		[]string{"status"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		},
		[]string{"route"},
	)

	// HTTPRequestDurationSeconds is request latency by route template (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"route", "method", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
