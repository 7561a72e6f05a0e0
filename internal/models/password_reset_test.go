package models_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stockmaster/stockmaster-backend/internal/models"
)

func TestResetRequest_TableName(t *testing.T) {
	r := &models.ResetRequest{}
	assert.Equal(t, "password_reset_requests", r.TableName())
}

func TestNewResetRequest(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	r := models.NewResetRequest("  Alice@Example.COM ", "hash", "salt", "oob-1", now, 10*time.Minute)

	assert.Equal(t, "alice@example.com", r.Email)
	assert.Equal(t, "hash", r.OTPHash)
	assert.Equal(t, "salt", r.OTPSalt)
	assert.Equal(t, "oob-1", r.ActionToken)
	assert.True(t, r.ExpiresAt.Valid)
	assert.Equal(t, now.Add(10*time.Minute), r.ExpiresAt.Time)
	assert.False(t, r.Used)
	assert.False(t, r.UsedAt.Valid)
	assert.Equal(t, now, r.CreatedAt)
	assert.Empty(t, r.ID, "ID is assigned by the store")
}

func TestResetRequest_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		expiresAt sql.NullTime
		expired   bool
	}{
		{"in the future", sql.NullTime{Time: now.Add(time.Minute), Valid: true}, false},
		{"exactly now", sql.NullTime{Time: now, Valid: true}, false},
		{"in the past", sql.NullTime{Time: now.Add(-time.Second), Valid: true}, true},
		{"missing", sql.NullTime{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &models.ResetRequest{ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expired, r.IsExpired(now))
		})
	}
}

func TestResetRequest_Status(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := sql.NullTime{Time: now.Add(time.Minute), Valid: true}
	past := sql.NullTime{Time: now.Add(-time.Minute), Valid: true}

	assert.Equal(t, "pending", (&models.ResetRequest{ExpiresAt: future}).Status(now))
	assert.Equal(t, "expired", (&models.ResetRequest{ExpiresAt: past}).Status(now))
	assert.Equal(t, "used", (&models.ResetRequest{ExpiresAt: past, Used: true}).Status(now))
	assert.Equal(t, "used", (&models.ResetRequest{ExpiresAt: future, Used: true}).Status(now))
}

func TestResetRequest_MarkUsed(t *testing.T) {
	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &models.ResetRequest{}

	r.MarkUsed(first)
	assert.True(t, r.Used)
	assert.Equal(t, first, r.UsedAt.Time)

	// used never reverts and the first stamp is kept
	r.MarkUsed(first.Add(time.Hour))
	assert.True(t, r.Used)
	assert.Equal(t, first, r.UsedAt.Time)
}

func TestResetRequest_View(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := models.NewResetRequest("bob@example.com", "hash", "salt", "oob", now, 10*time.Minute)
	r.ID = "req-1"

	view := r.View(now)
	assert.Equal(t, "req-1", view.ID)
	assert.Equal(t, "bob@example.com", view.Email)
	assert.Equal(t, "pending", view.Status)
	assert.NotNil(t, view.ExpiresAt)
	assert.Nil(t, view.UsedAt)

	r.MarkUsed(now.Add(time.Minute))
	view = r.View(now.Add(time.Minute))
	assert.Equal(t, "used", view.Status)
	assert.NotNil(t, view.UsedAt)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", models.NormalizeEmail("\tUser@Example.com  "))
	assert.Equal(t, "", models.NormalizeEmail("   "))
}
