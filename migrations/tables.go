package migrations

import (
	"fmt"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// GetMigrations returns all migrations in the order they must run.
func GetMigrations() []Migration {
	return []Migration{
		createPasswordResetRequestsTable(),
		createMailQueueTable(),
	}
}

// createPasswordResetRequestsTable creates the table holding issued one-time passwords.
// Rows are only ever looked up by email, newest first.
func createPasswordResetRequestsTable() Migration {
	table := constants.TablePasswordResetRequests

	return Migration{
		Name:        "create_password_reset_requests_table",
		Description: "Creates the password_reset_requests table",
		TableName:   table,
		Statements: func(driver string) []string {
			switch driver {
			case constants.DriverPostgres:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id VARCHAR(36) PRIMARY KEY,
							email VARCHAR(255) NOT NULL,
							otp_hash VARCHAR(255) NOT NULL,
							otp_salt VARCHAR(255) NOT NULL,
							action_token TEXT NOT NULL,
							expires_at TIMESTAMPTZ NULL,
							used BOOLEAN NOT NULL DEFAULT FALSE,
							created_at TIMESTAMPTZ NOT NULL,
							used_at TIMESTAMPTZ NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_prr_email_created ON %s (email, created_at)`, table),
				}
			case constants.DriverSQLite:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id TEXT PRIMARY KEY,
							email TEXT NOT NULL,
							otp_hash TEXT NOT NULL,
							otp_salt TEXT NOT NULL,
							action_token TEXT NOT NULL,
							expires_at DATETIME NULL,
							used BOOLEAN NOT NULL DEFAULT FALSE,
							created_at DATETIME NOT NULL,
							used_at DATETIME NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_prr_email_created ON %s (email, created_at)`, table),
				}
			default:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id CHAR(36) NOT NULL PRIMARY KEY,
							email VARCHAR(255) NOT NULL,
							otp_hash VARCHAR(255) NOT NULL,
							otp_salt VARCHAR(255) NOT NULL,
							action_token TEXT NOT NULL,
							expires_at DATETIME(6) NULL,
							used BOOLEAN NOT NULL DEFAULT FALSE,
							created_at DATETIME(6) NOT NULL,
							used_at DATETIME(6) NULL,
							INDEX idx_prr_email_created (email, created_at)
						) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table),
				}
			}
		},
	}
}

// createMailQueueTable creates the outbound mail queue drained by the mail worker.
func createMailQueueTable() Migration {
	table := constants.TableMailQueue

	return Migration{
		Name:        "create_mail_queue_table",
		Description: "Creates the mail_queue table",
		TableName:   table,
		Statements: func(driver string) []string {
			switch driver {
			case constants.DriverPostgres:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id BIGSERIAL PRIMARY KEY,
							recipients TEXT NOT NULL,
							subject VARCHAR(255) NOT NULL,
							text_body TEXT NOT NULL,
							html_body TEXT NOT NULL,
							status VARCHAR(16) NOT NULL DEFAULT 'queued',
							attempts INTEGER NOT NULL DEFAULT 0,
							last_error TEXT NULL,
							created_at TIMESTAMPTZ NOT NULL,
							updated_at TIMESTAMPTZ NOT NULL,
							sent_at TIMESTAMPTZ NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_mail_status_created ON %s (status, created_at)`, table),
				}
			case constants.DriverSQLite:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id INTEGER PRIMARY KEY AUTOINCREMENT,
							recipients TEXT NOT NULL,
							subject TEXT NOT NULL,
							text_body TEXT NOT NULL,
							html_body TEXT NOT NULL,
							status TEXT NOT NULL DEFAULT 'queued',
							attempts INTEGER NOT NULL DEFAULT 0,
							last_error TEXT NULL,
							created_at DATETIME NOT NULL,
							updated_at DATETIME NOT NULL,
							sent_at DATETIME NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_mail_status_created ON %s (status, created_at)`, table),
				}
			default:
				return []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %s (
							id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
							recipients TEXT NOT NULL,
							subject VARCHAR(255) NOT NULL,
							text_body MEDIUMTEXT NOT NULL,
							html_body MEDIUMTEXT NOT NULL,
							status VARCHAR(16) NOT NULL DEFAULT 'queued',
							attempts INT NOT NULL DEFAULT 0,
							last_error TEXT NULL,
							created_at DATETIME(6) NOT NULL,
							updated_at DATETIME(6) NOT NULL,
							sent_at DATETIME(6) NULL,
							INDEX idx_mail_status_created (status, created_at)
						) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table),
				}
			}
		},
	}
}
