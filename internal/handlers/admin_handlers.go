package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// AdminHandler serves the support inspection routes.
type AdminHandler struct {
	resetService PasswordResetServiceInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(resetService PasswordResetServiceInterface) *AdminHandler {
	return &AdminHandler{
		resetService: resetService,
	}
}

// ListResetRequests returns the newest reset requests for an email.
// Digests and action tokens are never included.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /api/admin/password-reset/requests?email=...&limit=...
//
// Requires:
//   - Authentication: Admin role
//
// Responses:
//   - 200 OK: List of reset request views
//   - 400 Bad Request: Missing email or bad limit
//   - 401 Unauthorized: No valid token
//   - 403 Forbidden: Not an admin
//   - 503 Service Unavailable: Store failure
func (h *AdminHandler) ListResetRequests(w http.ResponseWriter, r *http.Request) {
	if h.resetService == nil {
		utils.InternalServerError(w, errors.New("password reset service not initialized"))
		return
	}

	query := r.URL.Query()

	email := query.Get(constants.QueryParamEmail)
	if email == "" {
		utils.ErrorFromAppError(w, utils.NewValidationError(constants.QueryParamEmail, "This field is required"))
		return
	}
	if !utils.IsValidEmail(email) {
		utils.ErrorFromAppError(w, utils.NewValidationError(constants.QueryParamEmail, "Must be a valid email address"))
		return
	}

	limit := constants.DefaultAdminListLimit
	if raw := query.Get(constants.QueryParamLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.ErrorFromAppError(w, utils.NewValidationError(constants.QueryParamLimit, "Must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > constants.MaxAdminListLimit {
		limit = constants.MaxAdminListLimit
	}

	views, err := h.resetService.ListRequests(r.Context(), email, limit)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, views)
}
