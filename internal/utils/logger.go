package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/utils/gdprlog"
)

// Global GDPR logger instance
var gdprLogger *gdprlog.GDPRLogger

// InitLogger initializes the application logger with the given configuration
func InitLogger(cfg *config.AppConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var gdprLogErr error
	gdprLogger, gdprLogErr = gdprlog.NewGDPRLogger(&cfg.GDPRLogging)
	if gdprLogErr != nil {
		// Fall back to standard logging if GDPR logger fails
		fmt.Fprintf(os.Stderr, "Failed to initialize GDPR logger: %v\n", gdprLogErr)
		setupStandardLogger(cfg)
	} else {
		if err = gdprLogger.SetupLogRotation(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up GDPR log rotation: %v\n", err)
		}

		// Route the global logger through the GDPR logger
		log.Logger = createGDPRCompatibleLogger(cfg)

		retention := gdprLogger.GetLogRetentionConfig()
		log.Debug().
			Int("standard_days", retention.StandardLogDays).
			Int("personal_days", retention.PersonalLogDays).
			Int("sensitive_days", retention.SensitiveLogDays).
			Msg("GDPR log retention")
	}

	log.Info().Msg("Logger initialized")
}

// CloseLogger flushes and closes the GDPR log files
func CloseLogger() {
	if gdprLogger == nil {
		return
	}
	if err := gdprLogger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close GDPR logger: %v\n", err)
	}
}

// GetGDPRLogger returns the global GDPR logger instance
func GetGDPRLogger() *gdprlog.GDPRLogger {
	return gdprLogger
}

// SetGDPRLogger sets the global GDPR logger instance
func SetGDPRLogger(logger *gdprlog.GDPRLogger) {
	gdprLogger = logger
}

// setupStandardLogger configures the standard zerolog logger (fallback)
func setupStandardLogger(cfg *config.AppConfig) {
	var output io.Writer = os.Stdout
	if strings.ToLower(cfg.Logging.Format) == "console" && !cfg.App.IsProduction() {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("env", cfg.App.Environment).
		Logger()
}

// createGDPRCompatibleLogger creates a zerolog.Logger that forwards to GDPR logger
func createGDPRCompatibleLogger(cfg *config.AppConfig) zerolog.Logger {
	return zerolog.New(gdprLogHook{}).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("env", cfg.App.Environment).
		Logger()
}

// gdprLogHook is a writer that forwards logs to GDPR logger
type gdprLogHook struct{}

// Write implements io.Writer to handle log entries
func (h gdprLogHook) Write(p []byte) (n int, err error) {
	if gdprLogger == nil {
		return os.Stdout.Write(p)
	}

	var logEntry map[string]interface{}
	if err = json.Unmarshal(p, &logEntry); err != nil {
		gdprLogger.Error("Failed to parse log entry", err, nil)
		return len(p), nil
	}

	level, _ := logEntry["level"].(string)
	message, _ := logEntry["message"].(string)
	delete(logEntry, "level")
	delete(logEntry, "message")
	delete(logEntry, "time")

	switch level {
	case "debug", "trace":
		gdprLogger.Debug(message, logEntry)
	case "info":
		gdprLogger.Info(message, logEntry)
	case "warn":
		gdprLogger.Warn(message, logEntry)
	case "error":
		var logErr error
		if errMsg, ok := logEntry["error"].(string); ok {
			logErr = errors.New(errMsg)
			delete(logEntry, "error")
		}
		gdprLogger.Error(message, logErr, logEntry)
	case "fatal", "panic":
		gdprLogger.Fatal(message, logEntry)
	}

	return len(p), nil
}

// RequestLogger creates a logger with request-specific context
func RequestLogger(requestID, method, path string) zerolog.Logger {
	return log.With().
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path).
		Logger()
}

// LogHTTPRequest logs an HTTP request with request details
func LogHTTPRequest(requestID, method, path, remoteAddr, userAgent string, statusCode int, latency time.Duration) {
	fields := map[string]interface{}{
		constants.RequestIDContextKey: requestID,
		"method":                      method,
		"path":                        path,
		"remote_addr":                 remoteAddr,
		"user_agent":                  userAgent,
		"status":                      statusCode,
		"latency":                     latency,
	}

	// Probes and scrapes only show up in debug mode
	if path == constants.HealthPath || path == constants.MetricsPath {
		if zerolog.GlobalLevel() > zerolog.DebugLevel {
			return
		}
		if gdprLogger != nil {
			gdprLogger.Debug("HTTP Request", fields)
			return
		}
	}

	if gdprLogger != nil {
		switch {
		case statusCode >= 500:
			gdprLogger.Error("HTTP Request", nil, fields)
		case statusCode >= 400:
			gdprLogger.Warn("HTTP Request", fields)
		case strings.HasPrefix(path, constants.APIBasePath):
			gdprLogger.Info("HTTP Request", fields)
		default:
			gdprLogger.Debug("HTTP Request", fields)
		}
		return
	}

	event := log.Debug()
	switch {
	case statusCode >= 500:
		event = log.Error()
	case statusCode >= 400:
		event = log.Warn()
	case strings.HasPrefix(path, constants.APIBasePath):
		event = log.Info()
	}

	event.
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path).
		Str("remote_addr", remoteAddr).
		Str("user_agent", userAgent).
		Int("status", statusCode).
		Dur("latency", latency).
		Msg("HTTP Request")
}

// LogError logs an error with context information
func LogError(err error, context map[string]interface{}) {
	if gdprLogger != nil {
		gdprLogger.Error("Error occurred", err, context)
		return
	}

	event := log.Error().Err(err)
	for key, value := range context {
		event = event.Interface(key, value)
	}
	event.Msg("Error occurred")
}

// LogDBQuery logs a database query for debugging. Arguments of queries touching
// secret columns are redacted and email arguments are masked.
func LogDBQuery(query string, args []interface{}, duration time.Duration, err error) {
	lowerQuery := strings.ToLower(query)
	redact := strings.Contains(lowerQuery, constants.ColumnOTPHash) ||
		strings.Contains(lowerQuery, constants.ColumnActionToken)

	safeArgs := make([]interface{}, len(args))
	for i, arg := range args {
		s, ok := arg.(string)
		switch {
		case ok && redact:
			safeArgs[i] = constants.LogRedactedValue
		case ok && gdprlog.IsEmailField("", s):
			safeArgs[i] = MaskEmail(s)
		default:
			safeArgs[i] = arg
		}
	}

	if err == nil && zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}

	event.
		Str("query", strings.Join(strings.Fields(query), " ")).
		Interface("args", safeArgs).
		Dur("duration", duration).
		Msg("Database query executed")
}

// LogPasswordReset logs an outcome of the reset flow. The email is personal
// data and ends up masked in the standard log.
func LogPasswordReset(event, email string, success bool, reason string) {
	fields := map[string]interface{}{
		"event":                   event,
		constants.EmailContextKey: email,
		"success":                 success,
	}
	if reason != "" {
		fields["reason"] = reason
	}

	if gdprLogger != nil {
		if success {
			gdprLogger.Info(constants.LogCategoryPasswordReset, fields)
		} else {
			gdprLogger.Warn(constants.LogCategoryPasswordReset, fields)
		}
		return
	}

	logEvent := log.Info()
	if !success {
		logEvent = log.Warn()
	}
	logEvent = logEvent.
		Str("event", event).
		Str(constants.EmailContextKey, MaskEmail(email)).
		Bool("success", success)
	if reason != "" {
		logEvent = logEvent.Str("reason", reason)
	}
	logEvent.Msg(constants.LogCategoryPasswordReset)
}

// LogMailDelivery logs the result of one delivery attempt from the mail queue
func LogMailDelivery(mailID, transport string, attempt int, err error) {
	fields := map[string]interface{}{
		"mail_id":   mailID,
		"transport": transport,
		"attempt":   attempt,
	}

	if gdprLogger != nil {
		if err != nil {
			gdprLogger.Error(constants.LogCategoryMail, err, fields)
		} else {
			gdprLogger.Info(constants.LogCategoryMail, fields)
		}
		return
	}

	logEvent := log.Info()
	if err != nil {
		logEvent = log.Error().Err(err)
	}
	logEvent.
		Str("mail_id", mailID).
		Str("transport", transport).
		Int("attempt", attempt).
		Msg(constants.LogCategoryMail)
}

// SetLogLevel updates the global log level
func SetLogLevel(level string) error {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}

	zerolog.SetGlobalLevel(parsedLevel)
	log.Info().Str("level", parsedLevel.String()).Msg("Log level changed")

	return nil
}
