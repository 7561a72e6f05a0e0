// Package ratelimit provides rate limiting for the public password reset routes.
// It implements the token bucket algorithm in memory and a fixed window
// counter in Redis for deployments running more than one API instance.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Limiter represents a rate limiter for a specific client identity.
// It implements a token bucket algorithm where tokens are added at a
// fixed rate and requests consume tokens from the bucket.
type Limiter struct {
	// tokens is the current number of tokens in the bucket
	tokens float64

	// lastTime is the last time tokens were added to the bucket
	lastTime time.Time

	// rate is the token refill rate (tokens per second)
	rate float64

	// capacity is the maximum number of tokens the bucket can hold
	capacity float64

	mu sync.Mutex
}

// Rate controls how many requests per second are allowed
type Rate struct {
	// RequestsPerSecond defines how many tokens are added per second
	RequestsPerSecond float64

	// Burst defines the maximum size of the token bucket
	Burst int
}

// PerMinute builds a Rate from a per-minute budget
func PerMinute(requests, burst int) Rate {
	return Rate{
		RequestsPerSecond: float64(requests) / 60,
		Burst:             burst,
	}
}

// NewLimiter creates a new rate limiter with the specified rate and burst capacity.
func NewLimiter(rate float64, burst int) *Limiter {
	return newLimiterAt(rate, burst, time.Now())
}

func newLimiterAt(rate float64, burst int, now time.Time) *Limiter {
	return &Limiter{
		tokens:   float64(burst),
		lastTime: now,
		rate:     rate,
		capacity: float64(burst),
	}
}

// Allow checks if a request should be allowed based on the rate limit.
func (l *Limiter) Allow() bool {
	allowed, _ := l.AllowAt(time.Now())
	return allowed
}

// AllowAt consumes a token at the given instant. When the bucket is empty it
// reports how long the caller has to wait for the next token.
func (l *Limiter) AllowAt(now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elapsed := now.Sub(l.lastTime).Seconds(); elapsed > 0 {
		l.tokens = math.Min(l.capacity, l.tokens+elapsed*l.rate)
		l.lastTime = now
	}

	if l.tokens >= 1 {
		l.tokens--
		return true, 0
	}

	if l.rate <= 0 {
		return false, time.Duration(math.MaxInt64)
	}

	missing := 1 - l.tokens
	return false, time.Duration(missing / l.rate * float64(time.Second))
}

// ResetTokens refills the bucket.
func (l *Limiter) ResetTokens() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = l.capacity
	l.lastTime = time.Now()
}

// idleSince reports how long the limiter has not been used
func (l *Limiter) idleSince(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return now.Sub(l.lastTime)
}
