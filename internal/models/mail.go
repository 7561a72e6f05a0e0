package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// MailEnvelope is a message handed to the notification sink.
type MailEnvelope struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// QueuedMail is a mail envelope persisted in the outbound queue.
type QueuedMail struct {
	ID         int64          `db:"id"`
	Recipients string         `db:"recipients"`
	Subject    string         `db:"subject"`
	TextBody   string         `db:"text_body"`
	HTMLBody   string         `db:"html_body"`
	Status     string         `db:"status"`
	Attempts   int            `db:"attempts"`
	LastError  sql.NullString `db:"last_error"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
	SentAt     sql.NullTime   `db:"sent_at"`
}

// TableName returns the database table name for the QueuedMail model.
func (m *QueuedMail) TableName() string {
	return constants.TableMailQueue
}

// NewQueuedMail converts an envelope into a queued row.
func NewQueuedMail(env *MailEnvelope, now time.Time) *QueuedMail {
	return &QueuedMail{
		Recipients: strings.Join(env.To, ","),
		Subject:    env.Subject,
		TextBody:   env.Text,
		HTMLBody:   env.HTML,
		Status:     constants.MailStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Envelope rebuilds the envelope the row was created from.
func (m *QueuedMail) Envelope() *MailEnvelope {
	var to []string
	for _, addr := range strings.Split(m.Recipients, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &MailEnvelope{
		To:      to,
		Subject: m.Subject,
		Text:    m.TextBody,
		HTML:    m.HTMLBody,
	}
}
