package gdprlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

func TestGetLogRetentionConfig(t *testing.T) {
	cfg := setupTestLogDirectories(t)
	logger, _, _, _ := newTestLogger(cfg)

	got := logger.GetLogRetentionConfig()
	if got.StandardLogDays != 7 || got.PersonalLogDays != 30 || got.SensitiveLogDays != 90 {
		t.Errorf("unexpected retention %+v", got)
	}
}

func TestNewRotatingWriters(t *testing.T) {
	cfg := setupTestLogDirectories(t)
	cfg.Compress = true

	writers := newRotatingWriters(cfg)

	if writers.personal.MaxAge != cfg.PersonalDataRetentionDays {
		t.Errorf("personal MaxAge = %d, want %d", writers.personal.MaxAge, cfg.PersonalDataRetentionDays)
	}
	if writers.sensitive.Filename != filepath.Join(cfg.SensitiveLogPath, "sensitive.log") {
		t.Errorf("unexpected sensitive file %s", writers.sensitive.Filename)
	}
	if writers.standard.MaxSize != 1 || !writers.standard.Compress {
		t.Errorf("size and compression not applied: %+v", writers.standard)
	}
	if len(writers.all()) != 3 {
		t.Errorf("expected three writers")
	}
}

func TestRotateCreatesBackup(t *testing.T) {
	t.Setenv("APP_ENV", constants.EnvProduction)
	cfg := setupTestLogDirectories(t)

	logger, err := NewGDPRLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create GDPRLogger: %v", err)
	}
	defer logger.Close()

	logger.Info("before rotation", map[string]interface{}{"status": "ok"})

	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	entries, err := os.ReadDir(cfg.StandardLogPath)
	if err != nil {
		t.Fatalf("Failed to read log dir: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected active log and a backup, found %d files", len(entries))
	}
}

func TestRotateWithoutWriters(t *testing.T) {
	logger, _, _, _ := newTestLogger(setupTestLogDirectories(t))

	if err := logger.Rotate(); err != nil {
		t.Errorf("Rotate() on writer-less logger should be a no-op, got %v", err)
	}
	if err := logger.SetupLogRotation(); err == nil {
		t.Error("SetupLogRotation() should fail without rotating writers")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSetupLogRotationIsIdempotent(t *testing.T) {
	t.Setenv("APP_ENV", constants.EnvProduction)
	logger, err := NewGDPRLogger(setupTestLogDirectories(t))
	if err != nil {
		t.Fatalf("Failed to create GDPRLogger: %v", err)
	}

	if err := logger.SetupLogRotation(); err != nil {
		t.Fatalf("SetupLogRotation() error = %v", err)
	}
	first := logger.stopRotation
	if err := logger.SetupLogRotation(); err != nil {
		t.Fatalf("second SetupLogRotation() error = %v", err)
	}
	if logger.stopRotation != first {
		t.Error("second call should not start another worker")
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if logger.stopRotation != nil {
		t.Error("Close() should stop the rotation worker")
	}
}
