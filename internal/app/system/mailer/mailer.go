// Package mailer sends application email over SMTP.
package mailer

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// DevMode logs messages instead of sending them. Used when no SMTP
	// host is configured.
	DevMode bool
}

// Mailer sends email using the configured SMTP server.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a Mailer. When cfg.Host is empty the mailer runs in dev
// mode regardless of cfg.DevMode.
func New(cfg Config, log *zap.Logger) *Mailer {
	if cfg.Host == "" {
		cfg.DevMode = true
	}
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers the email. In dev mode the message is logged and
// discarded.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return fmt.Errorf("send email: missing recipient")
	}

	if m.cfg.DevMode {
		m.log.Info("dev mailer: would send email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.String("text_body", e.TextBody),
		)
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, e)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", e.To, err)
	}
	return nil
}

// buildMessage assembles a multipart/alternative MIME message so mail
// clients can pick the HTML or text body.
func buildMessage(from string, e Email) []byte {
	const boundary = "hm-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	if e.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(e.HTMLBody)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
