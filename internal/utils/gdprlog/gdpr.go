package gdprlog

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// LogCategory represents the GDPR classification of a log
type LogCategory int

const (
	// StandardLog contains no personal data
	StandardLog LogCategory = iota
	// PersonalLog contains personal data (email addresses, client IPs)
	PersonalLog
	// SensitiveLog contains secrets (one-time passwords, action tokens, credentials)
	SensitiveLog
)

// String returns the category name used in log paths and metrics
func (c LogCategory) String() string {
	switch c {
	case PersonalLog:
		return constants.GDPRCategoryPersonal
	case SensitiveLog:
		return constants.GDPRCategorySensitive
	default:
		return constants.GDPRCategoryStandard
	}
}

// GDPRLogger wraps zerolog loggers with GDPR compliance features
type GDPRLogger struct {
	standardLogger  zerolog.Logger
	personalLogger  zerolog.Logger
	sensitiveLogger zerolog.Logger
	writers         *rotatingWriters
	config          *config.GDPRLoggingSettings
	stopRotation    chan struct{}
}

// NewGDPRLogger creates a new GDPR-compliant logger writing to rotated files
func NewGDPRLogger(cfg *config.GDPRLoggingSettings) (*GDPRLogger, error) {
	for _, dir := range []string{
		cfg.StandardLogPath,
		cfg.PersonalLogPath,
		cfg.SensitiveLogPath,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	writers := newRotatingWriters(cfg)

	// Standard logger also goes to the console outside production
	var standardOutput io.Writer = writers.standard
	if os.Getenv("APP_ENV") != constants.EnvProduction {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
		standardOutput = zerolog.MultiLevelWriter(consoleWriter, writers.standard)
	}

	gl := NewGDPRLoggerWithWriters(cfg, standardOutput, writers.personal, writers.sensitive)
	gl.writers = writers
	return gl, nil
}

// NewGDPRLoggerWithWriters builds a logger on caller supplied writers.
// It performs no file handling and is what tests use.
func NewGDPRLoggerWithWriters(cfg *config.GDPRLoggingSettings, standard, personal, sensitive io.Writer) *GDPRLogger {
	return &GDPRLogger{
		standardLogger:  zerolog.New(standard).With().Timestamp().Logger(),
		personalLogger:  zerolog.New(personal).With().Timestamp().Logger(),
		sensitiveLogger: zerolog.New(sensitive).With().Timestamp().Logger(),
		config:          cfg,
	}
}

// DetermineLogCategory analyzes log data to determine its GDPR category
func (gl *GDPRLogger) DetermineLogCategory(fields map[string]interface{}) LogCategory {
	for key, value := range fields {
		if IsSensitiveField(key, value) {
			return SensitiveLog
		}
	}

	for key, value := range fields {
		if IsPersonalField(key, value) {
			return PersonalLog
		}
	}

	return StandardLog
}

// SanitizeLogFields removes or masks sensitive data based on configuration
func (gl *GDPRLogger) SanitizeLogFields(fields map[string]interface{}) map[string]interface{} {
	sanitizationLevel := strings.ToLower(gl.config.LogSanitizationLevel)
	if sanitizationLevel == "none" {
		return fields
	}

	sanitizedFields := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		sanitizedFields[k] = v
	}

	// Secrets are always redacted
	for k, v := range sanitizedFields {
		if IsSensitiveField(k, v) {
			sanitizedFields[k] = constants.LogRedactedValue
		}
	}

	for k, v := range sanitizedFields {
		if v == constants.LogRedactedValue || !IsPersonalField(k, v) {
			continue
		}
		switch sanitizationLevel {
		case "low":
			if IsEmailField(k, v) {
				sanitizedFields[k] = MaskEmail(fmt.Sprintf("%v", v))
			}
		case "medium":
			sanitizedFields[k] = MaskPersonalData(k, v)
		case "high":
			sanitizedFields[k] = "[PERSONAL_DATA]"
		}
	}

	return sanitizedFields
}

// MaskPersonalData applies appropriate masking based on the field type and name
func MaskPersonalData(fieldName string, value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		if IsEmailField(fieldName, value) {
			return MaskEmail(v)
		} else if len(v) > 2 {
			return string(v[0]) + strings.Repeat("*", len(v)-2) + string(v[len(v)-1])
		}
		return "**"

	case int64:
		if strings.Contains(strings.ToLower(fieldName), "id") || v <= 0 {
			return "***"
		}
		return fmt.Sprintf("~%d", int64(math.Pow10(int(math.Log10(float64(v))))))

	case int:
		if strings.Contains(strings.ToLower(fieldName), "id") || v <= 0 {
			return "***"
		}
		return fmt.Sprintf("~%d", int(math.Pow10(int(math.Log10(float64(v))))))

	case bool:
		return v

	case time.Time:
		return v.Format("2006-01-02")
	}

	return "***"
}

// MaskEmail masks an email address, showing only the first 2 and last 2 characters of the local part
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***@***"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) <= 4 {
		return username[0:1] + "***@" + domain
	}

	return username[0:2] + strings.Repeat("*", len(username)-4) + username[len(username)-2:] + "@" + domain
}

// Log creates a log event with GDPR compliance.
// Personal and sensitive entries are written in full to their own log and
// in sanitized form to the standard log.
func (gl *GDPRLogger) Log(level zerolog.Level, msg string, fields map[string]interface{}) {
	if level < zerolog.GlobalLevel() {
		return
	}

	category := gl.DetermineLogCategory(fields)

	switch category {
	case SensitiveLog:
		writeEvent(gl.sensitiveLogger.WithLevel(level), fields, msg)
		writeEvent(gl.standardLogger.WithLevel(level), gl.SanitizeLogFields(fields), msg+" [Sensitive data redacted]")

	case PersonalLog:
		writeEvent(gl.personalLogger.WithLevel(level), fields, msg)
		writeEvent(gl.standardLogger.WithLevel(level), gl.SanitizeLogFields(fields), msg)

	default:
		writeEvent(gl.standardLogger.WithLevel(level), fields, msg)
	}
}

func writeEvent(event *zerolog.Event, fields map[string]interface{}, msg string) {
	for k, v := range fields {
		event = addField(event, k, v)
	}
	event.Msg(msg)
}

// addField adds a field to a zerolog event with the appropriate type
func addField(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Time:
		return event.Time(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case []string:
		return event.Strs(key, v)
	case error:
		return event.AnErr(key, v)
	default:
		return event.Interface(key, v)
	}
}

// Debug logs at debug level with GDPR compliance
func (gl *GDPRLogger) Debug(msg string, fields map[string]interface{}) {
	gl.Log(zerolog.DebugLevel, msg, fields)
}

// Info logs at info level with GDPR compliance
func (gl *GDPRLogger) Info(msg string, fields map[string]interface{}) {
	gl.Log(zerolog.InfoLevel, msg, fields)
}

// Warn logs at warn level with GDPR compliance
func (gl *GDPRLogger) Warn(msg string, fields map[string]interface{}) {
	gl.Log(zerolog.WarnLevel, msg, fields)
}

// Error logs at error level with GDPR compliance
func (gl *GDPRLogger) Error(msg string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}

	if err != nil {
		fields["error"] = err.Error()
	}

	gl.Log(zerolog.ErrorLevel, msg, fields)
}

// Fatal logs at fatal level with GDPR compliance and then exits
func (gl *GDPRLogger) Fatal(msg string, fields map[string]interface{}) {
	gl.Log(zerolog.FatalLevel, msg, fields)
	os.Exit(1)
}
