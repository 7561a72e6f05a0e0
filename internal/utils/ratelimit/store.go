package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	RetryAfter time.Duration
}

// Backend decides whether the request identified by key may proceed.
type Backend interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Store manages in-memory rate limiters for multiple clients.
type Store struct {
	// limiters maps client keys to their rate limiters
	limiters map[string]*Limiter

	rate Rate

	mu sync.RWMutex

	// limiters idle for longer than maxAge are dropped by cleanup
	maxAge time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

var _ Backend = (*Store)(nil)

// NewStore creates a new store and starts its cleanup routine.
func NewStore(rate Rate, cleanupInterval, maxAge time.Duration) *Store {
	store := &Store{
		limiters: make(map[string]*Limiter),
		rate:     rate,
		maxAge:   maxAge,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go store.cleanupRoutine(cleanupInterval)
	}

	return store
}

// GetLimiter returns the limiter for key, creating it on first use.
func (s *Store) GetLimiter(key string) *Limiter {
	s.mu.RLock()
	limiter, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		return limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have created it meanwhile
	if limiter, exists = s.limiters[key]; exists {
		return limiter
	}

	limiter = newLimiterAt(s.rate.RequestsPerSecond, s.rate.Burst, s.now())
	s.limiters[key] = limiter
	return limiter
}

// Allow implements Backend
func (s *Store) Allow(_ context.Context, key string) (Decision, error) {
	allowed, retryAfter := s.GetLimiter(key).AllowAt(s.now())
	return Decision{
		Allowed:    allowed,
		Limit:      s.rate.Burst,
		RetryAfter: retryAfter,
	}, nil
}

// Len returns the number of tracked clients
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

// Stop ends the cleanup routine
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

// cleanup removes limiters that have been inactive for longer than maxAge.
// An idle bucket has refilled completely, so dropping it changes nothing.
func (s *Store) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, limiter := range s.limiters {
		if limiter.idleSince(now) > s.maxAge {
			delete(s.limiters, key)
			removed++
		}
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(s.limiters)).Msg("Rate limiter cleanup")
	}
}
