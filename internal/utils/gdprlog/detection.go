// Package gdprlog provides GDPR-compliant logging for the password reset service.
//
// Log entries are classified as standard, personal or sensitive by inspecting
// field names and values. Personal entries (email addresses, client IPs) and
// sensitive entries (reset codes, action tokens, credentials) are written in
// full to their own retention-limited log and in masked form to the standard log.
package gdprlog

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	passwordPattern = regexp.MustCompile(`(?i)passw(or)?d|pwd`)

	// authPattern matches credential-like field names
	authPattern = regexp.MustCompile(`(?i)auth|token|secret|api[_-]?key|private[_-]?key|credential|jwt|bearer`)

	// jwtValuePattern matches compact JWS values regardless of field name
	jwtValuePattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)

	// pemValuePattern matches PEM encoded keys, e.g. a service account key pasted into a log
	pemValuePattern = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)

	personalDataIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bemail\b`),
		regexp.MustCompile(`(?i)\bip\b`),
		regexp.MustCompile(`(?i)\bip[_\s-]?addr`),
		regexp.MustCompile(`(?i)\buser[_\s-]?id\b`),
		regexp.MustCompile(`(?i)\buser[_\s-]?agent\b`),
	}
)

// SensitiveFieldNames lists field name fragments whose values must never reach the standard log.
var SensitiveFieldNames = []string{
	"password", "otp", "oob_code", "action_token", "token", "secret",
	"api_key", "private_key", "jwt", "hash", "salt", "authorization",
}

// PersonalFieldNames lists field name fragments that identify a person.
var PersonalFieldNames = []string{
	"email", "recipient", "remote_addr", "ip_address", "client_ip",
	"user_agent", "uid", "display_name", "phone",
}

// IsSensitiveField reports whether a field holds a secret, judged by its name or its value.
func IsSensitiveField(fieldName string, value interface{}) bool {
	lowerName := strings.ToLower(fieldName)
	for _, name := range SensitiveFieldNames {
		if strings.Contains(lowerName, name) {
			return true
		}
	}

	if passwordPattern.MatchString(lowerName) || authPattern.MatchString(lowerName) {
		return true
	}

	if strValue, ok := value.(string); ok && len(strValue) >= 3 {
		return ContainsSensitiveData(strValue)
	}

	return false
}

// IsPersonalField reports whether a field holds personal data.
func IsPersonalField(fieldName string, value interface{}) bool {
	lowerName := strings.ToLower(fieldName)
	for _, name := range PersonalFieldNames {
		if strings.Contains(lowerName, name) {
			return true
		}
	}

	for _, pattern := range personalDataIndicators {
		if pattern.MatchString(lowerName) {
			return true
		}
	}

	if strValue, ok := value.(string); ok {
		return emailPattern.MatchString(strValue)
	}

	return false
}

// IsEmailField checks if a field name or value appears to be an email address.
func IsEmailField(fieldName string, value interface{}) bool {
	if strings.Contains(strings.ToLower(fieldName), "email") {
		return true
	}

	if strValue, ok := value.(string); ok {
		return emailPattern.MatchString(strValue)
	}

	return false
}

// ContainsSensitiveData checks a value for bearer tokens or key material.
func ContainsSensitiveData(s string) bool {
	if len(s) < 5 {
		return false
	}

	trimmed := strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
	return jwtValuePattern.MatchString(trimmed) || pemValuePattern.MatchString(s)
}
