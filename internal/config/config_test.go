package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfigYAML = `
app:
  environment: testing
  name: stockmaster
  version: 1.0.0
server:
  host: 127.0.0.1
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
database:
  host: localhost
  port: 3306
  name: stockmaster
  user: testuser
  password: testpass
password_reset:
  redirect_url: https://app.stockmaster.test/reset
firebase:
  project_id: stockmaster-test
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Environment != "testing" {
		t.Errorf("Expected Environment = %s, got %s", "testing", cfg.App.Environment)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected Port = %d, got %d", 8080, cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Expected default Driver = mysql, got %s", cfg.Database.Driver)
	}
	if cfg.PasswordReset.OTPExpiry != 10*time.Minute {
		t.Errorf("Expected OTPExpiry = 10m, got %v", cfg.PasswordReset.OTPExpiry)
	}
	if cfg.PasswordReset.CandidateLimit != 5 {
		t.Errorf("Expected CandidateLimit = 5, got %d", cfg.PasswordReset.CandidateLimit)
	}
	if cfg.Mail.Transport != "log" {
		t.Errorf("Expected non-production mail transport = log, got %s", cfg.Mail.Transport)
	}
}

func TestLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name: "missing redirect url",
			mutate: func(s string) string {
				return strings.Replace(s, "  redirect_url: https://app.stockmaster.test/reset\n", "", 1)
			},
			wantErr: "redirect url must be set",
		},
		{
			name: "relative redirect url",
			mutate: func(s string) string {
				return strings.Replace(s, "https://app.stockmaster.test/reset", "/reset", 1)
			},
			wantErr: "not an absolute url",
		},
		{
			name: "missing firebase project",
			mutate: func(s string) string {
				return strings.Replace(s, "  project_id: stockmaster-test\n", "", 1)
			},
			wantErr: "firebase project id",
		},
		{
			name: "unknown driver",
			mutate: func(s string) string {
				return strings.Replace(s, "database:\n", "database:\n  driver: oracle\n", 1)
			},
			wantErr: "unsupported database driver",
		},
		{
			name: "unknown mail transport",
			mutate: func(s string) string {
				return s + "mail:\n  transport: pigeon\n"
			},
			wantErr: "unsupported mail transport",
		},
		{
			name: "sendgrid without key",
			mutate: func(s string) string {
				return s + "mail:\n  transport: sendgrid\n  from_address: no-reply@stockmaster.test\n"
			},
			wantErr: "sendgrid api key",
		},
		{
			name: "malformed trusted proxy",
			mutate: func(s string) string {
				return strings.Replace(s, "  write_timeout: 10s\n", "  write_timeout: 10s\n  trusted_proxies: [\"10.0.0.0/33\"]\n", 1)
			},
			wantErr: "invalid trusted proxy",
		},
		{
			name: "production without jwt secret",
			mutate: func(s string) string {
				return strings.Replace(s, "environment: testing", "environment: production", 1)
			},
			wantErr: "JWT secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.mutate(validConfigYAML)))
			if err == nil {
				t.Fatalf("Load() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PASSWORD_RESET_OTP_EXPIRY", "15m")
	t.Setenv("MYSQLHOST", "railway.internal")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PasswordReset.OTPExpiry != 15*time.Minute {
		t.Errorf("Expected OTPExpiry = 15m, got %v", cfg.PasswordReset.OTPExpiry)
	}
	if cfg.Database.Host != "railway.internal" {
		t.Errorf("Expected Database.Host from MYSQLHOST, got %s", cfg.Database.Host)
	}
}

func TestGet(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()

	testCfg := &AppConfig{App: AppSettings{Name: "TestApp"}}
	cfg = testCfg

	if result := Get(); result != testCfg {
		t.Errorf("Get() = %v, want %v", result, testCfg)
	}
}

func TestDatabaseSettings_ConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		settings DatabaseSettings
		want     string
	}{
		{
			name: "MySQL with password",
			settings: DatabaseSettings{
				Driver: "mysql", Host: "localhost", Port: 3306, Name: "testdb", User: "user", Password: "pass",
			},
			want: "user:pass@tcp(localhost:3306)/testdb?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		},
		{
			name: "MySQL without password",
			settings: DatabaseSettings{
				Driver: "mysql", Host: "localhost", Port: 3306, Name: "testdb", User: "user",
			},
			want: "user@tcp(localhost:3306)/testdb?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		},
		{
			name: "Postgres",
			settings: DatabaseSettings{
				Driver: "postgres", Host: "db", Port: 5432, Name: "stock", User: "u", Password: "p",
			},
			want: "host=db port=5432 user=u password=p dbname=stock sslmode=disable",
		},
		{
			name:     "SQLite",
			settings: DatabaseSettings{Driver: "sqlite", Name: "stock.db"},
			want:     "file:stock.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:     "Explicit DSN wins",
			settings: DatabaseSettings{Driver: "postgres", DSN: "postgres://x"},
			want:     "postgres://x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if connStr := tt.settings.ConnectionString(); connStr != tt.want {
				t.Errorf("ConnectionString() = %v, want %v", connStr, tt.want)
			}
		})
	}
}

func TestServerSettings_ServerAddress(t *testing.T) {
	settings := ServerSettings{Host: "localhost", Port: 8080}

	want := "localhost:8080"
	if got := settings.ServerAddress(); got != want {
		t.Errorf("ServerAddress() = %v, want %v", got, want)
	}
}

func TestAppSettings_Environment(t *testing.T) {
	tests := []struct {
		name         string
		environment  string
		isDev        bool
		isProduction bool
		isTesting    bool
	}{
		{"Development", "development", true, false, false},
		{"Production", "PRODUCTION", false, true, false},
		{"Testing", "testing", false, false, true},
		{"Unknown", "unknown", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := AppSettings{Environment: tt.environment}

			if got := settings.IsDevelopment(); got != tt.isDev {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.isDev)
			}
			if got := settings.IsProduction(); got != tt.isProduction {
				t.Errorf("IsProduction() = %v, want %v", got, tt.isProduction)
			}
			if got := settings.IsTesting(); got != tt.isTesting {
				t.Errorf("IsTesting() = %v, want %v", got, tt.isTesting)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &AppConfig{}
	setDefaults(cfg)

	if cfg.App.Environment != "development" {
		t.Errorf("Default App.Environment = %v, want development", cfg.App.Environment)
	}
	if cfg.App.Name != "stockmaster" {
		t.Errorf("Default App.Name = %v, want stockmaster", cfg.App.Name)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Default Server.Port = %v, want 4000", cfg.Server.Port)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Default Database.Port = %v, want 3306", cfg.Database.Port)
	}
	if cfg.OTPHash.Memory != 16*1024 {
		t.Errorf("Default development OTPHash.Memory = %v, want %v", cfg.OTPHash.Memory, 16*1024)
	}
	if cfg.Mail.MaxAttempts != 5 || cfg.Mail.BatchSize != 25 {
		t.Errorf("Unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.RateLimit.RequestsPerMinute != 5 {
		t.Errorf("Default RateLimit.RequestsPerMinute = %v, want 5", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.PasswordReset.MailSubject != "Your Stockmaster password reset code" {
		t.Errorf("Default MailSubject = %q", cfg.PasswordReset.MailSubject)
	}
}

func TestPasswordResetSettings_Validate(t *testing.T) {
	valid := PasswordResetSettings{
		RedirectURL:    "https://app.stockmaster.test/reset",
		OTPExpiry:      10 * time.Minute,
		CandidateLimit: 5,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	zeroExpiry := valid
	zeroExpiry.OTPExpiry = 0
	if err := zeroExpiry.Validate(); err == nil {
		t.Error("Validate() expected error for zero expiry")
	}

	zeroLimit := valid
	zeroLimit.CandidateLimit = 0
	if err := zeroLimit.Validate(); err == nil {
		t.Error("Validate() expected error for zero candidate limit")
	}
}
