package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordResetRequestsDDL(t *testing.T) {
	migration := createPasswordResetRequestsTable()

	mysql := strings.Join(migration.Statements("mysql"), "\n")
	assert.Contains(t, mysql, "id CHAR(36) NOT NULL PRIMARY KEY")
	assert.Contains(t, mysql, "expires_at DATETIME(6) NULL")
	assert.Contains(t, mysql, "used BOOLEAN NOT NULL DEFAULT FALSE")
	assert.Contains(t, mysql, "INDEX idx_prr_email_created (email, created_at)")

	postgres := migration.Statements("postgres")
	assert.Len(t, postgres, 2)
	assert.Contains(t, postgres[0], "expires_at TIMESTAMPTZ NULL")
	assert.NotContains(t, postgres[0], "ENGINE=InnoDB")

	sqlite := migration.Statements("sqlite")
	assert.Len(t, sqlite, 2)
	assert.Contains(t, sqlite[0], "id TEXT PRIMARY KEY")
}

func TestMailQueueDDL(t *testing.T) {
	migration := createMailQueueTable()

	assert.Contains(t, migration.Statements("mysql")[0], "AUTO_INCREMENT")
	assert.Contains(t, migration.Statements("postgres")[0], "BIGSERIAL")
	assert.Contains(t, migration.Statements("sqlite")[0], "AUTOINCREMENT")

	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		ddl := strings.Join(migration.Statements(driver), "\n")
		assert.Contains(t, ddl, "status", driver)
		assert.Contains(t, ddl, "DEFAULT 'queued'", driver)
		assert.Contains(t, ddl, "idx_mail_status_created", driver)
	}
}

func TestUnknownDriverFallsBackToMySQL(t *testing.T) {
	migration := createMailQueueTable()
	assert.Equal(t, migration.Statements("mysql"), migration.Statements("tidb"))
}
