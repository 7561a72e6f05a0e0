package constants

// Base Routes
const (
	APIBasePath = "/api"
	HealthPath  = "/health"
	VersionPath = "/version"
	MetricsPath = "/metrics"
)

// Password Reset Routes
const (
	PasswordResetBasePath    = "/api/password-reset"
	PasswordResetRequestPath = "/api/password-reset/request"
	PasswordResetVerifyPath  = "/api/password-reset/verify"
)

// Admin Routes
const (
	AdminBasePath          = "/api/admin"
	AdminResetRequestsPath = "/api/admin/password-reset/requests"
)

// Query Parameters
const (
	QueryParamEmail = "email"
	QueryParamLimit = "limit"
)
