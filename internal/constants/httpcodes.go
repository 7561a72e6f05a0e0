package constants

// HTTP Status Codes
const (
	StatusOK = 200

	StatusNoContent = 204

	StatusBadRequest = 400

	StatusUnauthorized = 401

	StatusForbidden = 403

	StatusNotFound = 404

	StatusMethodNotAllowed = 405

	StatusConflict = 409

	StatusTooManyRequests = 429

	StatusInternalServerError = 500

	StatusServiceUnavailable = 503
)

// Response Codes
const (
	ResponseSuccess = true

	ResponseFailure = false

	CodeBadRequest = "bad_request"

	CodeUnauthorized = "unauthorized"

	CodeForbidden = "forbidden"

	CodeNotFound = "not_found"

	CodeMethodNotAllowed = "method_not_allowed"

	CodeConflict = "conflict"

	CodeInternalError = "internal_error"

	CodeValidationError = "validation_error"

	CodeTokenExpired = "token_expired"

	CodeTokenInvalid = "token_invalid"

	CodeDuplicateResource = "duplicate_resource"

	CodeTooManyRequests = "too_many_requests"

	CodeServiceUnavailable = "service_unavailable"

	CodeResetRequestNotFound = "reset_request_not_found"

	CodeInvalidOTP = "invalid_otp"

	CodeOTPExpired = "otp_expired"
)

// Headers
const (
	HeaderContentType = "Content-Type"

	HeaderCacheControl = "Cache-Control"

	HeaderPragma = "Pragma"

	HeaderExpires = "Expires"

	HeaderAuthorization = "Authorization"

	HeaderXRequestID = "X-Request-ID"

	HeaderRetryAfter = "Retry-After"

	HeaderXRateLimitLimit = "X-RateLimit-Limit"

	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"

	HeaderXContentTypeOptions = "X-Content-Type-Options"

	HeaderXFrameOptions = "X-Frame-Options"

	HeaderXXSSProtection = "X-XSS-Protection"

	HeaderReferrerPolicy = "Referrer-Policy"

	HeaderContentSecurityPolicy = "Content-Security-Policy"

	HeaderXForwardedFor = "X-Forwarded-For"

	HeaderXRealIP = "X-Real-IP"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
)

// Security Header Values
const (
	FrameOptionsDeny = "DENY"

	XSSProtectionModeBlock = "1; mode=block"

	ContentTypeOptionsNoSniff = "nosniff"

	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"

	CSPDefaultSrc = "default-src 'self'"

	CacheControlNoStore = "no-cache, no-store, must-revalidate"

	PragmaNoCache = "no-cache"

	ExpiresZero = "0"
)
