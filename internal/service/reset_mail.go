package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"

	"github.com/stockmaster/stockmaster-backend/internal/models"
)

const (
	resetMailText = `Use this code to reset your password: {{.Code}}. It expires in {{.Minutes}} minutes.`
	resetMailHTML = `<p>Use this code to reset your password:</p><h2>{{.Code}}</h2><p>This code expires in {{.Minutes}} minutes.</p>`
)

type resetMailData struct {
	Code    string
	Minutes int
}

// resetMailRenderer renders the one-time password mail
type resetMailRenderer struct {
	subject string
	text    *template.Template
	html    *htmltemplate.Template
}

func newResetMailRenderer(subject string) (*resetMailRenderer, error) {
	text, err := template.New("reset_text").Parse(resetMailText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reset mail text template: %w", err)
	}
	html, err := htmltemplate.New("reset_html").Parse(resetMailHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reset mail html template: %w", err)
	}
	return &resetMailRenderer{subject: subject, text: text, html: html}, nil
}

// Render builds the envelope for code, addressed to email
func (r *resetMailRenderer) Render(email, code string, ttl time.Duration) (*models.MailEnvelope, error) {
	data := resetMailData{Code: code, Minutes: int(ttl.Round(time.Minute).Minutes())}

	var text, html bytes.Buffer
	if err := r.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render reset mail text: %w", err)
	}
	if err := r.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render reset mail html: %w", err)
	}

	return &models.MailEnvelope{
		To:      []string{email},
		Subject: r.subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
