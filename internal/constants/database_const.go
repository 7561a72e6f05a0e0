// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table and column names so SQL in the
// repositories and migrations refers to one source of truth.
package constants

// Table Names
const (
	// TablePasswordResetRequests stores one row per issued one-time password.
	TablePasswordResetRequests = "password_reset_requests"

	// TableMailQueue stores outbound mail waiting for the mail worker.
	TableMailQueue = "mail_queue"

	// TableMigrations records applied schema migrations.
	TableMigrations = "schema_migrations"
)

// Common Column Names
const (
	ColumnID        = "id"
	ColumnEmail     = "email"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Password Reset Request Columns
const (
	ColumnOTPHash     = "otp_hash"
	ColumnOTPSalt     = "otp_salt"
	ColumnActionToken = "action_token"
	ColumnExpiresAt   = "expires_at"
	ColumnUsed        = "used"
	ColumnUsedAt      = "used_at"
)

// Mail Queue Columns
const (
	ColumnRecipients = "recipients"
	ColumnSubject    = "subject"
	ColumnTextBody   = "text_body"
	ColumnHTMLBody   = "html_body"
	ColumnStatus     = "status"
	ColumnAttempts   = "attempts"
	ColumnLastError  = "last_error"
	ColumnSentAt     = "sent_at"
)

// Index Names
const (
	IndexResetEmailCreated = "idx_prr_email_created"
	IndexMailStatusCreated = "idx_mail_status_created"
)
