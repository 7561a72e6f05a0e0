// Package models provides data structures for the Stockmaster password reset service.
// This file contains the reset request record and the payloads of the reset routes.
// A reset request is created when a one-time password is issued and is consumed
// exactly once when that password is verified.
package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// ResetRequest is the durable record of one one-time password issuance.
// The password itself is never stored; OTPHash and OTPSalt hold its Argon2id digest.
type ResetRequest struct {
	// ID is an opaque identifier assigned on insert
	ID string `json:"id" db:"id"`

	// Email is the normalized address the code was issued for. Not unique.
	Email string `json:"email" db:"email"`

	// OTPHash is the base64 Argon2id digest of the one-time password
	OTPHash string `json:"-" db:"otp_hash"`

	// OTPSalt is the base64 salt used for OTPHash
	OTPSalt string `json:"-" db:"otp_salt"`

	// ActionToken is the provider-issued code the client exchanges to set a new password
	ActionToken string `json:"-" db:"action_token"`

	// ExpiresAt is when the code stops being verifiable. A NULL value counts as expired.
	ExpiresAt sql.NullTime `json:"-" db:"expires_at"`

	// Used flips to true once, on successful verification
	Used bool `json:"used" db:"used"`

	// CreatedAt is assigned by the service when the record is written
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UsedAt is stamped together with Used
	UsedAt sql.NullTime `json:"-" db:"used_at"`
}

// TableName returns the database table name for the ResetRequest model.
func (r *ResetRequest) TableName() string {
	return constants.TablePasswordResetRequests
}

// NewResetRequest creates an unused reset request that expires ttl after now.
func NewResetRequest(email, otpHash, otpSalt, actionToken string, now time.Time, ttl time.Duration) *ResetRequest {
	return &ResetRequest{
		Email:       NormalizeEmail(email),
		OTPHash:     otpHash,
		OTPSalt:     otpSalt,
		ActionToken: actionToken,
		ExpiresAt:   sql.NullTime{Time: now.Add(ttl), Valid: true},
		Used:        false,
		CreatedAt:   now,
	}
}

// IsExpired reports whether the request can no longer be verified at now.
// A request expiring exactly at now is still valid.
func (r *ResetRequest) IsExpired(now time.Time) bool {
	if !r.ExpiresAt.Valid {
		return true
	}
	return r.ExpiresAt.Time.Before(now)
}

// Status derives the lifecycle state of the request at now. It is never stored.
func (r *ResetRequest) Status(now time.Time) string {
	switch {
	case r.Used:
		return constants.ResetStatusUsed
	case r.IsExpired(now):
		return constants.ResetStatusExpired
	default:
		return constants.ResetStatusPending
	}
}

// MarkUsed flips the request to used. It is a no-op on an already used request.
func (r *ResetRequest) MarkUsed(at time.Time) {
	if r.Used {
		return
	}
	r.Used = true
	r.UsedAt = sql.NullTime{Time: at, Valid: true}
}

// ResetRequestView is the support-facing projection of a reset request.
// It carries neither the digest nor the action token.
type ResetRequestView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// View projects the request for the support inspection route.
func (r *ResetRequest) View(now time.Time) ResetRequestView {
	view := ResetRequestView{
		ID:        r.ID,
		Email:     r.Email,
		Status:    r.Status(now),
		CreatedAt: r.CreatedAt,
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		view.ExpiresAt = &t
	}
	if r.UsedAt.Valid {
		t := r.UsedAt.Time
		view.UsedAt = &t
	}
	return view
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestResetRequest is the body of POST /api/password-reset/request.
type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// VerifyOTPRequest is the body of POST /api/password-reset/verify.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	OTP   string `json:"otp" validate:"required,otp_code"`
}

// VerifyOTPResponse is returned by a successful verification.
type VerifyOTPResponse struct {
	ActionToken string `json:"actionToken"`
	Email       string `json:"email"`
}
