package constants

// Context Key Names
const (
	RequestIDContextKey = "request_id"
	SubjectContextKey   = "subject"
	RoleContextKey      = "role"
	EmailContextKey     = "email"
)

// Field Limits
const (
	MaxEmailLength = 255
)

// GDPR Log Categories
const (
	GDPRCategoryStandard  = "standard"
	GDPRCategoryPersonal  = "personal"
	GDPRCategorySensitive = "sensitive"
)

// Reset Request Statuses are derived at read time and never stored.
const (
	ResetStatusPending = "pending"
	ResetStatusUsed    = "used"
	ResetStatusExpired = "expired"
)
