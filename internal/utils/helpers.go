// Package utils provides utility functions and helpers for common operations
// used throughout the application. It includes error types, response helpers,
// request validation, logging setup and small string helpers.
package utils

import (
	"strings"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// TruncateString truncates a string to the given maximum length and adds ellipsis if necessary.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// MaskEmail masks the user part of an email address, showing only the first and last character.
//
// For example: "user@example.com" becomes "u**r@example.com"
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	user := parts[0]
	domain := parts[1]

	if len(user) <= 2 {
		return email
	}

	return string(user[0]) + strings.Repeat("*", len(user)-2) + string(user[len(user)-1]) + "@" + domain
}

// SanitizeKeys removes potentially sensitive fields from a map.
// It recursively traverses nested maps and slices of maps.
func SanitizeKeys(data map[string]interface{}) map[string]interface{} {
	sensitiveKeys := map[string]bool{
		constants.ColumnOTPHash:     true,
		constants.ColumnOTPSalt:     true,
		constants.ColumnActionToken: true,
		"otp":                       true,
		"actiontoken":               true,
		"password":                  true,
		"api_key":                   true,
		"token":                     true,
		"secret":                    true,
		"private_key":               true,
	}

	result := make(map[string]interface{})

	for k, v := range data {
		if sensitiveKeys[strings.ToLower(k)] {
			result[k] = constants.LogRedactedValue
			continue
		}

		if nestedMap, ok := v.(map[string]interface{}); ok {
			result[k] = SanitizeKeys(nestedMap)
			continue
		}

		if nestedMapSlice, ok := v.([]map[string]interface{}); ok {
			sanitizedSlice := make([]map[string]interface{}, len(nestedMapSlice))
			for i, nestedMap := range nestedMapSlice {
				sanitizedSlice[i] = SanitizeKeys(nestedMap)
			}
			result[k] = sanitizedSlice
			continue
		}

		result[k] = v
	}

	return result
}
