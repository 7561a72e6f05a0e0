package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// Counter is the subset of the go-redis client used by RedisStore
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisStore is a fixed window limiter shared by every API instance.
type RedisStore struct {
	client Counter
	limit  int
	window time.Duration
	prefix string
}

var _ Backend = (*RedisStore)(nil)

// NewRedisClient connects to the Redis server at url and verifies it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, constants.RedisCallTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("Connected to Redis")
	return client, nil
}

// NewRedisStore allows limit requests per window for each key.
func NewRedisStore(client Counter, limit int, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		limit:  limit,
		window: window,
		prefix: constants.RateLimitKeyPrefix,
	}
}

// Allow implements Backend. The window starts with the first request for a key.
func (r *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RedisCallTimeout)
	defer cancel()

	redisKey := r.prefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{Allowed: true, Limit: r.limit}, fmt.Errorf("rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return Decision{Allowed: true, Limit: r.limit}, fmt.Errorf("rate limit expiry: %w", err)
		}
	}

	if count <= int64(r.limit) {
		return Decision{Allowed: true, Limit: r.limit}, nil
	}

	retryAfter, err := r.client.PTTL(ctx, redisKey).Result()
	if err != nil || retryAfter <= 0 {
		// Key without expiry, e.g. after a failed EXPIRE; restore it
		retryAfter = r.window
		if err == nil {
			_ = r.client.Expire(ctx, redisKey, r.window).Err()
		}
	}

	return Decision{Allowed: false, Limit: r.limit, RetryAfter: retryAfter}, nil
}
