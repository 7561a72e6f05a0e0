// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling, categorization,
// and messaging. User-facing messages are informative without revealing whether an
// account exists or how the identity provider failed.
package constants

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgAuthRequired indicates that the caller must authenticate to access the resource.
	MsgAuthRequired = "Authentication required"

	// MsgAccessDenied indicates that the caller lacks permission for the requested action.
	MsgAccessDenied = "You don't have permission to access this resource"

	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgTokenExpired indicates that the bearer token has expired.
	MsgTokenExpired = "Authentication token has expired"

	// MsgInvalidToken indicates that the provided token is invalid.
	MsgInvalidToken = "Invalid token"

	// MsgRequestBodyTooLarge indicates that the request payload exceeds size limits.
	MsgRequestBodyTooLarge = "Request body too large"

	// MsgEmptyRequestBody indicates that a request body was expected but not provided.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON indicates that the request body contains invalid JSON.
	MsgMalformedJSON = "Request body contains malformed JSON"

	// MsgResourceNotFound indicates that the requested resource does not exist.
	MsgResourceNotFound = "The requested resource could not be found"

	// MsgResourceAlreadyExists indicates a duplicate resource conflict.
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"

	// MsgMethodNotAllowed indicates that the HTTP method is not supported for the endpoint.
	MsgMethodNotAllowed = "This method is not allowed for this resource"

	// MsgTooManyRequests indicates that the client exceeded its rate limit.
	MsgTooManyRequests = "Too many requests, please try again later"
)

// Password Reset Messages are returned by the reset routes.
const (
	// MsgResetUnavailable is returned when a dependency of the reset flow fails.
	MsgResetUnavailable = "Unable to process password reset right now"

	// MsgResetStartFailed is recorded when the account lookup fails.
	MsgResetStartFailed = "Unable to start password reset request"

	// MsgResetCodeFailed is recorded when the provider could not issue an action token.
	MsgResetCodeFailed = "Unable to generate reset code"

	// MsgResetRequestNotFound is returned when no reset request exists for the email.
	MsgResetRequestNotFound = "No reset request found for this email"

	// MsgInvalidOTP is returned when no unused request matches the supplied code.
	MsgInvalidOTP = "Invalid or already used OTP"

	// MsgOTPExpired is returned when the matching request is past its expiry.
	MsgOTPExpired = "The OTP has expired. Please request a new one."
)

// Database Error Codes define driver codes for constraint violations.
const (
	// PGErrorDuplicateConstraint is the PostgreSQL error code for unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the PostgreSQL error code for foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// PGErrorNotNullConstraint is the PostgreSQL error code for not-null constraint violations.
	PGErrorNotNullConstraint = "23502"

	// MySQLErrorDuplicateEntry is the MySQL error number for unique key violations.
	MySQLErrorDuplicateEntry = 1062

	// MySQLErrorBadNull is the MySQL error number for not-null violations.
	MySQLErrorBadNull = 1048

	// MySQLErrorNoReferencedRow is the MySQL error number for foreign key violations.
	MySQLErrorNoReferencedRow = 1452
)

// Logger Constants define values used for structured logging.
const (
	// LogCategoryPasswordReset is the log category for reset flow events.
	LogCategoryPasswordReset = "password_reset"

	// LogCategoryMail is the log category for mail worker events.
	LogCategoryMail = "mail"

	// LogEventResetRequested is logged when a reset code was issued.
	LogEventResetRequested = "reset_requested"

	// LogEventResetUnknownAccount is logged when a reset was requested for an unknown email.
	LogEventResetUnknownAccount = "reset_unknown_account"

	// LogEventOTPVerified is logged when a one-time password was accepted.
	LogEventOTPVerified = "otp_verified"

	// LogEventOTPRejected is logged when a one-time password was rejected.
	LogEventOTPRejected = "otp_rejected"

	// LogRedactedValue is used to replace sensitive values in logs.
	LogRedactedValue = "[REDACTED]"
)
