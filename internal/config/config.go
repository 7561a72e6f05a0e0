package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App           AppSettings           `yaml:"app"`
	Database      DatabaseSettings      `yaml:"database"`
	Server        ServerSettings        `yaml:"server"`
	JWT           JWTSettings           `yaml:"jwt"`
	Logging       LoggingSettings       `yaml:"logging"`
	CORS          CORSSettings          `yaml:"cors"`
	OTPHash       HashSettings          `yaml:"otp_hash"`
	GDPRLogging   GDPRLoggingSettings   `yaml:"gdpr_logging"`
	PasswordReset PasswordResetSettings `yaml:"password_reset"`
	Firebase      FirebaseSettings      `yaml:"firebase"`
	Mail          MailSettings          `yaml:"mail"`
	RateLimit     RateLimitSettings     `yaml:"rate_limit"`
}

// GDPRLoggingSettings contains GDPR-compliant logging configuration
type GDPRLoggingSettings struct {
	PersonalDataRetentionDays  int    `yaml:"personal_data_retention_days" env:"GDPR_PERSONAL_RETENTION_DAYS"`
	SensitiveDataRetentionDays int    `yaml:"sensitive_data_retention_days" env:"GDPR_SENSITIVE_RETENTION_DAYS"`
	StandardLogRetentionDays   int    `yaml:"standard_log_retention_days" env:"GDPR_STANDARD_RETENTION_DAYS"`
	PersonalLogPath            string `yaml:"personal_log_path" env:"GDPR_PERSONAL_LOG_PATH"`
	SensitiveLogPath           string `yaml:"sensitive_log_path" env:"GDPR_SENSITIVE_LOG_PATH"`
	StandardLogPath            string `yaml:"standard_log_path" env:"GDPR_STANDARD_LOG_PATH"`
	LogSanitizationLevel       string `yaml:"log_sanitization_level" env:"GDPR_SANITIZATION_LEVEL"`
	MaxSizeMB                  int    `yaml:"max_size_mb" env:"GDPR_LOG_MAX_SIZE_MB"`
	Compress                   bool   `yaml:"compress" env:"GDPR_LOG_COMPRESS"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV,NODE_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings.
// Hosted MySQL providers export MYSQL* variables, so both spellings are accepted.
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	DSN      string `yaml:"dsn" env:"DB_DSN,DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST,MYSQLHOST"`
	Port     int    `yaml:"port" env:"DB_PORT,MYSQLPORT"`
	Name     string `yaml:"name" env:"DB_NAME,MYSQLDATABASE"`
	User     string `yaml:"user" env:"DB_USER,MYSQLUSER"`
	Password string `yaml:"password" env:"DB_PASSWORD,MYSQLPASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT,PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is believed.
	// Empty means clients are identified by their peer address.
	TrustedProxies []string `yaml:"trusted_proxies" env:"SERVER_TRUSTED_PROXIES"`
}

// JWTSettings contains the settings used to validate admin bearer tokens
type JWTSettings struct {
	Secret string `yaml:"secret" env:"JWT_SECRET"`
	Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains the Argon2id parameters for one-time password digests
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"OTP_HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"OTP_HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"OTP_HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"OTP_HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"OTP_HASH_KEY_LENGTH"`
}

// PasswordResetSettings configures the reset request and verification flow
type PasswordResetSettings struct {
	RedirectURL    string        `yaml:"redirect_url" env:"PASSWORD_RESET_REDIRECT_URL"`
	OTPExpiry      time.Duration `yaml:"otp_expiry" env:"PASSWORD_RESET_OTP_EXPIRY"`
	CandidateLimit int           `yaml:"candidate_limit" env:"PASSWORD_RESET_CANDIDATE_LIMIT"`
	MailSubject    string        `yaml:"mail_subject" env:"PASSWORD_RESET_MAIL_SUBJECT"`
	// PurgeExpired enables the hourly in-process purge. Records are kept by default.
	PurgeExpired bool `yaml:"purge_expired" env:"PASSWORD_RESET_PURGE_EXPIRED"`
}

// FirebaseSettings contains the identity provider credentials.
// Either CredentialsFile or the ClientEmail/PrivateKey pair is used.
type FirebaseSettings struct {
	ProjectID       string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	ClientEmail     string `yaml:"client_email" env:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey      string `yaml:"private_key" env:"FIREBASE_PRIVATE_KEY"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// MailSettings configures outbound mail delivery
type MailSettings struct {
	Transport      string        `yaml:"transport" env:"MAIL_TRANSPORT"`
	FromAddress    string        `yaml:"from_address" env:"MAIL_FROM_ADDRESS"`
	FromName       string        `yaml:"from_name" env:"MAIL_FROM_NAME"`
	SendGridAPIKey string        `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	ResendAPIKey   string        `yaml:"resend_api_key" env:"RESEND_API_KEY,RESEND_API"`
	SESRegion      string        `yaml:"ses_region" env:"AWS_REGION"`
	BatchSize      int           `yaml:"batch_size" env:"MAIL_BATCH_SIZE"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"MAIL_POLL_INTERVAL"`
	MaxAttempts    int           `yaml:"max_attempts" env:"MAIL_MAX_ATTEMPTS"`
	EmbeddedWorker bool          `yaml:"embedded_worker" env:"MAIL_EMBEDDED_WORKER"`
}

// RateLimitSettings configures per-client throttling of the reset routes
type RateLimitSettings struct {
	Enabled           bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	RequestsPerMinute int    `yaml:"requests_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	Burst             int    `yaml:"burst" env:"RATE_LIMIT_BURST"`
	RedisURL          string `yaml:"redis_url" env:"REDIS_URL"`
}

// ConnectionString returns the database connection string for the configured driver
func (dbs *DatabaseSettings) ConnectionString() string {
	if dbs.DSN != "" {
		return dbs.DSN
	}

	switch dbs.Driver {
	case constants.DriverPostgres:
		sslMode := dbs.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dbs.Host, dbs.Port, dbs.User, dbs.Password, dbs.Name, sslMode,
		)
	case constants.DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbs.Name)
	}

	// MariaDB/MySQL connection string format: username:password@tcp(host:port)/dbname
	password := dbs.Password
	if password != "" {
		password = ":" + password
	}

	return fmt.Sprintf(
		"%s%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		dbs.User, password, dbs.Host, dbs.Port, dbs.Name,
	)
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = config

	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Driver == "" {
		config.Database.Driver = constants.DriverMySQL
	}
	if config.Database.Port == 0 && config.Database.Driver == constants.DriverMySQL {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	// OTP hash defaults, lighter outside production
	if config.OTPHash.Memory == 0 {
		if config.App.IsProduction() {
			config.OTPHash.Memory = constants.DefaultOTPHashMemory
		} else {
			config.OTPHash.Memory = constants.DevOTPHashMemory
		}
	}
	if config.OTPHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.OTPHash.Iterations = constants.DefaultOTPHashIterations
		} else {
			config.OTPHash.Iterations = constants.DevOTPHashIterations
		}
	}
	if config.OTPHash.Parallelism == 0 {
		config.OTPHash.Parallelism = constants.DefaultOTPHashParallelism
	}
	if config.OTPHash.SaltLength == 0 {
		config.OTPHash.SaltLength = constants.DefaultOTPHashSaltLength
	}
	if config.OTPHash.KeyLength == 0 {
		config.OTPHash.KeyLength = constants.DefaultOTPHashKeyLength
	}

	if config.PasswordReset.OTPExpiry == 0 {
		config.PasswordReset.OTPExpiry = constants.DefaultOTPExpiry
	}
	if config.PasswordReset.CandidateLimit == 0 {
		config.PasswordReset.CandidateLimit = constants.DefaultCandidateLimit
	}
	if config.PasswordReset.MailSubject == "" {
		config.PasswordReset.MailSubject = constants.DefaultResetMailSubject
	}

	if config.Mail.Transport == "" {
		if config.App.IsProduction() {
			config.Mail.Transport = constants.MailTransportSendGrid
		} else {
			config.Mail.Transport = constants.MailTransportLog
		}
	}
	if config.Mail.FromName == "" {
		config.Mail.FromName = constants.DefaultMailFromName
	}
	if config.Mail.SESRegion == "" {
		config.Mail.SESRegion = constants.DefaultSESRegion
	}
	if config.Mail.BatchSize == 0 {
		config.Mail.BatchSize = constants.DefaultMailBatchSize
	}
	if config.Mail.PollInterval == 0 {
		config.Mail.PollInterval = constants.DefaultMailPollPeriod
	}
	if config.Mail.MaxAttempts == 0 {
		config.Mail.MaxAttempts = constants.DefaultMailMaxAttempts
	}

	if config.RateLimit.RequestsPerMinute == 0 {
		config.RateLimit.RequestsPerMinute = constants.DefaultRateLimitPerMinute
	}
	if config.RateLimit.Burst == 0 {
		config.RateLimit.Burst = constants.DefaultRateLimitBurst
	}

	if config.GDPRLogging.StandardLogRetentionDays == 0 {
		config.GDPRLogging.StandardLogRetentionDays = constants.StandardLogRetentionDays
	}
	if config.GDPRLogging.PersonalDataRetentionDays == 0 {
		config.GDPRLogging.PersonalDataRetentionDays = constants.PersonalDataRetentionDays
	}
	if config.GDPRLogging.SensitiveDataRetentionDays == 0 {
		config.GDPRLogging.SensitiveDataRetentionDays = constants.SensitiveDataRetentionDays
	}
	if config.GDPRLogging.StandardLogPath == "" {
		config.GDPRLogging.StandardLogPath = constants.DefaultStandardLogPath
	}
	if config.GDPRLogging.PersonalLogPath == "" {
		config.GDPRLogging.PersonalLogPath = constants.DefaultPersonalLogPath
	}
	if config.GDPRLogging.SensitiveLogPath == "" {
		config.GDPRLogging.SensitiveLogPath = constants.DefaultSensitiveLogPath
	}
	if config.GDPRLogging.LogSanitizationLevel == "" {
		config.GDPRLogging.LogSanitizationLevel = "medium"
	}
	if config.GDPRLogging.MaxSizeMB == 0 {
		config.GDPRLogging.MaxSizeMB = constants.DefaultLogMaxSizeMB
	}
}

// validateConfig validates that the configuration has all required values.
// Every problem found here stops startup.
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	// In production, ensure we have a proper JWT secret
	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	switch config.Database.Driver {
	case constants.DriverMySQL, constants.DriverPostgres:
		if config.Database.DSN == "" && config.Database.User == "" {
			return fmt.Errorf("database user must be set")
		}
	case constants.DriverSQLite:
		if config.Database.DSN == "" && config.Database.Name == "" {
			return fmt.Errorf("database name must be set for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if err := config.PasswordReset.Validate(); err != nil {
		return err
	}

	if config.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase project id must be set")
	}

	if err := config.Mail.Validate(); err != nil {
		return err
	}

	if config.RateLimit.RequestsPerMinute < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}

	for _, proxy := range config.Server.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			return fmt.Errorf("invalid trusted proxy: %s", proxy)
		}
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// Validate checks the reset flow settings. It is also used by callers that
// build the settings by hand instead of through Load.
func (p *PasswordResetSettings) Validate() error {
	if p.RedirectURL == "" {
		return fmt.Errorf("password reset redirect url must be set")
	}
	u, err := url.Parse(p.RedirectURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("password reset redirect url is not an absolute url: %q", p.RedirectURL)
	}
	if p.OTPExpiry <= 0 {
		return fmt.Errorf("password reset otp expiry must be positive")
	}
	if p.CandidateLimit <= 0 {
		return fmt.Errorf("password reset candidate limit must be positive")
	}
	return nil
}

// Validate checks that the selected transport has what it needs to deliver mail
func (m *MailSettings) Validate() error {
	switch m.Transport {
	case constants.MailTransportSendGrid:
		if m.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key must be set for the sendgrid transport")
		}
	case constants.MailTransportResend:
		if m.ResendAPIKey == "" {
			return fmt.Errorf("resend api key must be set for the resend transport")
		}
	case constants.MailTransportSES, constants.MailTransportLog:
	default:
		return fmt.Errorf("unsupported mail transport: %s", m.Transport)
	}

	if m.Transport != constants.MailTransportLog && m.FromAddress == "" {
		return fmt.Errorf("mail from address must be set")
	}
	if m.BatchSize <= 0 || m.MaxAttempts <= 0 || m.PollInterval <= 0 {
		return fmt.Errorf("mail batch size, max attempts and poll interval must be positive")
	}
	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_driver", config.Database.Driver).
		Str("db_host", config.Database.Host).
		Int("db_port", config.Database.Port).
		Str("db_name", config.Database.Name).
		Str("firebase_project", config.Firebase.ProjectID).
		Str("mail_transport", config.Mail.Transport).
		Bool("rate_limit", config.RateLimit.Enabled).
		Bool("redis_rate_limit", config.RateLimit.RedisURL != "").
		Dur("code_ttl", config.PasswordReset.OTPExpiry).
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")
}
