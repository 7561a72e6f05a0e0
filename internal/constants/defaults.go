// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide sensible defaults for configuration settings and establish
// the boundaries of the password reset flow. Changes to these values may significantly
// impact application behavior and security.
package constants

import "time"

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultAppName is the application name used in logs and mail templates.
	DefaultAppName = "stockmaster"

	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 4000

	// DefaultDBPort is the default MySQL port.
	DefaultDBPort = 3306

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default minimum number of database connections.
	DefaultDBMinConnections = 5

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Database Drivers define the SQL dialects the store can run on.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
const MaxRequestBodySize = 1048576 // 1MB in bytes

// Password Reset Defaults define the shape and lifetime of one-time passwords.
const (
	// OTPLength is the number of decimal digits in a one-time password.
	OTPLength = 6

	// OTPModulus bounds generated one-time passwords to OTPLength digits.
	OTPModulus = 1000000

	// DefaultOTPExpiry is how long an issued one-time password stays verifiable.
	DefaultOTPExpiry = 10 * time.Minute

	// DefaultCandidateLimit is the number of most recent requests scanned on verification.
	DefaultCandidateLimit = 5

	// DefaultResetMailSubject is the subject line of the one-time password mail.
	DefaultResetMailSubject = "Your Stockmaster password reset code"

	// ActionTokenQueryParam is the query parameter of the provider reset link that carries the action token.
	ActionTokenQueryParam = "oobCode"

	// DefaultAdminListLimit is the number of records returned by the support inspection route.
	DefaultAdminListLimit = 20

	// MaxAdminListLimit caps the support inspection route.
	MaxAdminListLimit = 100
)

// Default OTP Hash Settings define the Argon2id parameters used to digest one-time passwords.
const (
	// DefaultOTPHashMemory is the memory cost parameter for Argon2id hashing.
	DefaultOTPHashMemory = 64 * 1024

	// DefaultOTPHashIterations is the number of iterations for Argon2id hashing.
	DefaultOTPHashIterations = 3

	// DefaultOTPHashParallelism is the parallelism parameter for Argon2id hashing.
	DefaultOTPHashParallelism = 2

	// DefaultOTPHashSaltLength is the length in bytes of the random salt.
	DefaultOTPHashSaltLength = 16

	// DefaultOTPHashKeyLength is the length in bytes of the generated hash.
	DefaultOTPHashKeyLength = 32

	// DevOTPHashMemory is a reduced memory setting for development environments.
	DevOTPHashMemory = 16 * 1024

	// DevOTPHashIterations is a reduced iteration count for development environments.
	DevOTPHashIterations = 1
)

// Mail Defaults define the behavior of the outbound mail worker.
const (
	// MailTransportSendGrid delivers through the SendGrid v3 API.
	MailTransportSendGrid = "sendgrid"

	// MailTransportSES delivers through Amazon SES.
	MailTransportSES = "ses"

	// MailTransportResend delivers through the Resend API.
	MailTransportResend = "resend"

	// MailTransportLog only writes the envelope to the log.
	MailTransportLog = "log"

	// DefaultMailFromName is the display name on outgoing mail.
	DefaultMailFromName = "Stockmaster"

	// DefaultMailBatchSize is the number of queued mails claimed per poll.
	DefaultMailBatchSize = 25

	// DefaultMailMaxAttempts is the number of delivery attempts before a mail is marked failed.
	DefaultMailMaxAttempts = 5

	// DefaultSESRegion is the AWS region used when none is configured.
	DefaultSESRegion = "us-east-1"
)

// Mail Statuses define the lifecycle of a queued mail.
const (
	MailStatusQueued  = "queued"
	MailStatusSent    = "sent"
	MailStatusFailed  = "failed"
	MailStatusSending = "sending"
)

// Rate Limit Defaults apply to the public password reset routes.
const (
	// DefaultRateLimitPerMinute is the sustained request rate per client and route.
	DefaultRateLimitPerMinute = 5

	// DefaultRateLimitBurst is the number of requests a client may make at once.
	DefaultRateLimitBurst = 5

	// RateLimitKeyPrefix namespaces rate limit counters in Redis.
	RateLimitKeyPrefix = "stockmaster:ratelimit:"
)

// Default GDPR Retention Periods define how long different categories of logs are kept.
const (
	// StandardLogRetentionDays is the number of days to retain standard logs.
	StandardLogRetentionDays = 90

	// PersonalDataRetentionDays is the number of days to retain logs with personal data.
	PersonalDataRetentionDays = 30

	// SensitiveDataRetentionDays is the number of days to retain logs with sensitive data.
	SensitiveDataRetentionDays = 15

	// DefaultLogMaxSizeMB is the size at which a log file is rotated.
	DefaultLogMaxSizeMB = 50
)

// Default Log Paths
const (
	DefaultStandardLogPath  = "./logs/standard"
	DefaultPersonalLogPath  = "./logs/personal"
	DefaultSensitiveLogPath = "./logs/sensitive"
)

// Auth Constants define values related to the admin bearer tokens.
const (
	// DefaultJWTIssuer is the issuer claim value expected on admin tokens.
	DefaultJWTIssuer = "stockmaster-api"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "

	// RoleAdmin is the role claim required by the support inspection routes.
	RoleAdmin = "admin"
)
