package utils_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
	"github.com/stockmaster/stockmaster-backend/internal/utils/gdprlog"
)

// captureOutput captures fallback zerolog output for testing
func captureOutput(fn func()) string {
	original := log.Logger
	defer func() { log.Logger = original }()

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).With().Timestamp().Logger()

	fn()
	return buf.String()
}

// captureGDPR installs a GDPR logger on buffers for the duration of fn
func captureGDPR(t *testing.T, fn func()) (standard, personal, sensitive string) {
	t.Helper()
	original := utils.GetGDPRLogger()
	defer utils.SetGDPRLogger(original)

	var std, pers, sens bytes.Buffer
	utils.SetGDPRLogger(gdprlog.NewGDPRLoggerWithWriters(
		&config.GDPRLoggingSettings{LogSanitizationLevel: "medium"}, &std, &pers, &sens,
	))

	fn()
	return std.String(), pers.String(), sens.String()
}

// createTestConfig creates a config for testing
func createTestConfig(t *testing.T) *config.AppConfig {
	tempDir := t.TempDir()

	return &config.AppConfig{
		App: config.AppSettings{
			Name:        "test-app",
			Version:     "1.0.0",
			Environment: constants.EnvProduction,
		},
		Logging: config.LoggingSettings{
			Level:  "debug",
			Format: "json",
		},
		GDPRLogging: config.GDPRLoggingSettings{
			PersonalLogPath:            filepath.Join(tempDir, "personal"),
			SensitiveLogPath:           filepath.Join(tempDir, "sensitive"),
			StandardLogPath:            filepath.Join(tempDir, "standard"),
			LogSanitizationLevel:       "medium",
			PersonalDataRetentionDays:  30,
			SensitiveDataRetentionDays: 90,
			StandardLogRetentionDays:   7,
			MaxSizeMB:                  1,
		},
	}
}

func TestInitLogger(t *testing.T) {
	originalLogger := log.Logger
	originalGDPR := utils.GetGDPRLogger()
	t.Cleanup(func() {
		utils.CloseLogger()
		log.Logger = originalLogger
		utils.SetGDPRLogger(originalGDPR)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	t.Setenv("APP_ENV", constants.EnvProduction)
	cfg := createTestConfig(t)
	utils.InitLogger(cfg)

	if utils.GetGDPRLogger() == nil {
		t.Fatal("expected GDPR logger to be installed")
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	originalLogger := log.Logger
	originalGDPR := utils.GetGDPRLogger()
	t.Cleanup(func() {
		utils.CloseLogger()
		log.Logger = originalLogger
		utils.SetGDPRLogger(originalGDPR)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	t.Setenv("APP_ENV", constants.EnvProduction)
	cfg := createTestConfig(t)
	cfg.Logging.Level = "invalid_level"
	utils.InitLogger(cfg)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("global level = %v, want info", zerolog.GlobalLevel())
	}
}

func TestGetSetGDPRLogger(t *testing.T) {
	original := utils.GetGDPRLogger()
	defer utils.SetGDPRLogger(original)

	utils.SetGDPRLogger(nil)
	if utils.GetGDPRLogger() != nil {
		t.Errorf("Expected GetGDPRLogger to return nil after setting to nil")
	}
}

func TestRequestLogger(t *testing.T) {
	output := captureOutput(func() {
		logger := utils.RequestLogger("req-1", "POST", "/api/password-reset/verify")
		logger.Info().Msg("handled")
	})

	for _, want := range []string{`"request_id":"req-1"`, `"method":"POST"`, `"path":"/api/password-reset/verify"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in %s", want, output)
		}
	}
}

func TestLogHTTPRequest(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	t.Run("Fallback logger levels", func(t *testing.T) {
		original := utils.GetGDPRLogger()
		utils.SetGDPRLogger(nil)
		defer utils.SetGDPRLogger(original)

		tests := []struct {
			status    int
			wantLevel string
		}{
			{204, `"level":"info"`},
			{404, `"level":"warn"`},
			{503, `"level":"error"`},
		}
		for _, tt := range tests {
			output := captureOutput(func() {
				utils.LogHTTPRequest("req", "POST", "/api/password-reset/request", "10.0.0.1", "curl", tt.status, time.Millisecond)
			})
			if !strings.Contains(output, tt.wantLevel) {
				t.Errorf("status %d: expected %s in %s", tt.status, tt.wantLevel, output)
			}
		}
	})

	t.Run("Health probes skipped above debug", func(t *testing.T) {
		standard, _, _ := captureGDPR(t, func() {
			utils.LogHTTPRequest("req", "GET", constants.HealthPath, "10.0.0.1", "kube-probe", 200, time.Millisecond)
		})
		if standard != "" {
			t.Errorf("expected no output, got %s", standard)
		}
	})

	t.Run("Client address stays out of standard log", func(t *testing.T) {
		standard, personal, _ := captureGDPR(t, func() {
			utils.LogHTTPRequest("req", "POST", "/api/password-reset/request", "10.20.30.40", "curl", 204, time.Millisecond)
		})
		if !strings.Contains(personal, "10.20.30.40") {
			t.Errorf("personal log should hold the address: %s", personal)
		}
		if strings.Contains(standard, "10.20.30.40") {
			t.Errorf("standard log leaks the address: %s", standard)
		}
	})
}

func TestLogError(t *testing.T) {
	original := utils.GetGDPRLogger()
	utils.SetGDPRLogger(nil)
	defer utils.SetGDPRLogger(original)

	output := captureOutput(func() {
		utils.LogError(errors.New("insert failed"), map[string]interface{}{"table": "mail_queue"})
	})

	if !strings.Contains(output, "insert failed") || !strings.Contains(output, "mail_queue") {
		t.Errorf("unexpected output %s", output)
	}
}

func TestLogPasswordReset(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	t.Run("GDPR logger masks email in standard log", func(t *testing.T) {
		standard, personal, _ := captureGDPR(t, func() {
			utils.LogPasswordReset(constants.LogEventResetRequested, "jane.doe@example.com", true, "")
		})
		if !strings.Contains(personal, "jane.doe@example.com") {
			t.Errorf("personal log should hold the address: %s", personal)
		}
		if strings.Contains(standard, "jane.doe@example.com") || !strings.Contains(standard, constants.LogEventResetRequested) {
			t.Errorf("unexpected standard output %s", standard)
		}
	})

	t.Run("Fallback masks email", func(t *testing.T) {
		original := utils.GetGDPRLogger()
		utils.SetGDPRLogger(nil)
		defer utils.SetGDPRLogger(original)

		output := captureOutput(func() {
			utils.LogPasswordReset(constants.LogEventOTPRejected, "user@example.com", false, "expired")
		})
		for _, want := range []string{`"level":"warn"`, "u**r@example.com", `"reason":"expired"`} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %s in %s", want, output)
			}
		}
	})
}

func TestLogMailDelivery(t *testing.T) {
	original := utils.GetGDPRLogger()
	utils.SetGDPRLogger(nil)
	defer utils.SetGDPRLogger(original)

	output := captureOutput(func() {
		utils.LogMailDelivery("mail-1", constants.MailTransportSES, 2, errors.New("throttled"))
	})

	for _, want := range []string{`"level":"error"`, `"mail_id":"mail-1"`, `"attempt":2`, "throttled"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in %s", want, output)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := utils.SetLogLevel("warn"); err != nil {
		t.Fatalf("SetLogLevel() error = %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("GlobalLevel() = %s, want warn", zerolog.GlobalLevel())
	}
	if err := utils.SetLogLevel("loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestLogDBQuery(t *testing.T) {
	original := utils.GetGDPRLogger()
	utils.SetGDPRLogger(nil)
	defer utils.SetGDPRLogger(original)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	t.Run("Secret columns are redacted", func(t *testing.T) {
		output := captureOutput(func() {
			utils.LogDBQuery("INSERT INTO password_reset_requests (id, otp_hash) VALUES (?, ?)", []interface{}{"id-1", "digest"}, time.Millisecond, nil)
		})
		if strings.Contains(output, "digest") || !strings.Contains(output, constants.LogRedactedValue) {
			t.Errorf("unexpected output %s", output)
		}
	})

	t.Run("Email arguments are masked", func(t *testing.T) {
		output := captureOutput(func() {
			utils.LogDBQuery("SELECT id FROM password_reset_requests WHERE email = ?", []interface{}{"user@example.com", 5}, time.Millisecond, nil)
		})
		if strings.Contains(output, "user@example.com") || !strings.Contains(output, "u**r@example.com") {
			t.Errorf("unexpected output %s", output)
		}
	})

	t.Run("Skipped above debug unless failing", func(t *testing.T) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

		quiet := captureOutput(func() {
			utils.LogDBQuery("SELECT 1", nil, time.Millisecond, nil)
		})
		failing := captureOutput(func() {
			utils.LogDBQuery("SELECT 1", nil, time.Millisecond, errors.New("bad connection"))
		})
		if quiet != "" {
			t.Errorf("expected no output, got %s", quiet)
		}
		if !strings.Contains(failing, "bad connection") {
			t.Errorf("expected failure to be logged, got %s", failing)
		}
	})
}
