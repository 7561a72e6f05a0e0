package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout  = 10 * time.Second
	DBQueryTimeout       = 15 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
	DBConnMaxIdleTime    = 30 * time.Minute
)

// Maintenance
const (
	RateLimitCleanupInterval = 10 * time.Minute
	RateLimitBucketMaxAge    = 1 * time.Hour

	// MailStaleAfter is how long a mail may sit in sending before it is requeued.
	MailStaleAfter = 5 * time.Minute

	// ResetRequestRetention is how long expired reset requests are kept.
	ResetRequestRetention = 24 * time.Hour
	ResetPurgeInterval    = 1 * time.Hour
)

// Outbound calls
const (
	IdentityCallTimeout   = 10 * time.Second
	MailSendTimeout       = 15 * time.Second
	RedisCallTimeout      = 2 * time.Second
	DefaultMailPollPeriod = 5 * time.Second
)
