package handlers

import (
	"errors"
	"net/http"

	"github.com/stockmaster/stockmaster-backend/internal/models"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// PasswordResetHandler handles the public password reset routes.
type PasswordResetHandler struct {
	resetService PasswordResetServiceInterface
}

// NewPasswordResetHandler creates a new PasswordResetHandler.
//
// Parameters:
//   - resetService: Service issuing and verifying one-time passwords
//
// Returns:
//   - A properly initialized PasswordResetHandler
func NewPasswordResetHandler(resetService PasswordResetServiceInterface) *PasswordResetHandler {
	return &PasswordResetHandler{
		resetService: resetService,
	}
}

// RequestReset starts a password reset for an email address.
// The response is the same whether or not an account exists.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /api/password-reset/request
//
// Request Body:
//   - email: string (required)
//
// Responses:
//   - 204 No Content: Code issued, or no account exists
//   - 400 Bad Request: Malformed body or invalid email
//   - 503 Service Unavailable: Identity provider or store failure
func (h *PasswordResetHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	if h.resetService == nil {
		utils.InternalServerError(w, errors.New("password reset service not initialized"))
		return
	}

	var req models.RequestResetRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.NoContent(w)
}

// VerifyOTP exchanges a one-time password for the action token that lets the
// client set a new password with the identity provider.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /api/password-reset/verify
//
// Request Body:
//   - email: string (required)
//   - otp: string (required, 6 characters)
//
// Responses:
//   - 200 OK: {"actionToken": "...", "email": "..."}
//   - 400 Bad Request: Invalid, used or expired code
//   - 404 Not Found: No reset request exists for the email
//   - 503 Service Unavailable: Store failure
func (h *PasswordResetHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if h.resetService == nil {
		utils.InternalServerError(w, errors.New("password reset service not initialized"))
		return
	}

	var req models.VerifyOTPRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	resp, err := h.resetService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	// Clients read actionToken at the top level, so the body is not enveloped
	utils.SendJSON(w, http.StatusOK, resp)
}
