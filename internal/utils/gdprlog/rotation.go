package gdprlog

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stockmaster/stockmaster-backend/internal/config"
)

// rotationInterval forces a daily rotation so retention applies on quiet days too
const rotationInterval = 24 * time.Hour

// LogRetentionConfig describes how long each log category is kept
type LogRetentionConfig struct {
	StandardLogDays  int `json:"standard_log_days"`
	PersonalLogDays  int `json:"personal_log_days"`
	SensitiveLogDays int `json:"sensitive_log_days"`
}

// rotatingWriters holds one lumberjack writer per category.
// lumberjack deletes backups older than MaxAge whenever it rotates.
type rotatingWriters struct {
	standard  *lumberjack.Logger
	personal  *lumberjack.Logger
	sensitive *lumberjack.Logger
}

func newRotatingWriters(cfg *config.GDPRLoggingSettings) *rotatingWriters {
	newWriter := func(dir, name string, maxAge int) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:  filepath.Join(dir, name),
			MaxSize:   cfg.MaxSizeMB,
			MaxAge:    maxAge,
			Compress:  cfg.Compress,
			LocalTime: false,
		}
	}

	return &rotatingWriters{
		standard:  newWriter(cfg.StandardLogPath, "standard.log", cfg.StandardLogRetentionDays),
		personal:  newWriter(cfg.PersonalLogPath, "personal.log", cfg.PersonalDataRetentionDays),
		sensitive: newWriter(cfg.SensitiveLogPath, "sensitive.log", cfg.SensitiveDataRetentionDays),
	}
}

func (w *rotatingWriters) all() []*lumberjack.Logger {
	return []*lumberjack.Logger{w.standard, w.personal, w.sensitive}
}

// SetupLogRotation starts the background worker that rotates all logs daily
func (gl *GDPRLogger) SetupLogRotation() error {
	if gl.writers == nil {
		return errors.New("logger has no rotating writers")
	}
	if gl.stopRotation != nil {
		return nil
	}

	gl.stopRotation = make(chan struct{})
	go gl.rotationWorker(gl.stopRotation)

	log.Debug().Msg("GDPR log rotation started")
	return nil
}

func (gl *GDPRLogger) rotationWorker(stop <-chan struct{}) {
	ticker := time.NewTicker(rotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := gl.Rotate(); err != nil {
				log.Error().Err(err).Msg("Failed to rotate GDPR logs")
			}
		case <-stop:
			return
		}
	}
}

// Rotate closes the current log files, starts new ones and prunes expired backups
func (gl *GDPRLogger) Rotate() error {
	if gl.writers == nil {
		return nil
	}

	var errs []error
	for _, w := range gl.writers.all() {
		if err := w.Rotate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the rotation worker and closes the log files
func (gl *GDPRLogger) Close() error {
	if gl.stopRotation != nil {
		close(gl.stopRotation)
		gl.stopRotation = nil
	}
	if gl.writers == nil {
		return nil
	}

	var errs []error
	for _, w := range gl.writers.all() {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetLogRetentionConfig returns the retention in effect for each category
func (gl *GDPRLogger) GetLogRetentionConfig() LogRetentionConfig {
	return LogRetentionConfig{
		StandardLogDays:  gl.config.StandardLogRetentionDays,
		PersonalLogDays:  gl.config.PersonalDataRetentionDays,
		SensitiveLogDays: gl.config.SensitiveDataRetentionDays,
	}
}
