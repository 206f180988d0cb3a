package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/phrazzld/todo-api/internal/config"
)

// SMTPMailer is a Mailer backed by a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth

	// sendFunc is injectable for testing; defaults to smtp.SendMail.
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a Mailer that delivers via the configured SMTP relay.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		auth:     auth,
		sendFunc: smtp.SendMail,
	}
}

// Send implements Mailer using a single SMTP transaction.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	// smtp.SendMail has no context support; check for cancellation up front
	// so queued sends don't fire after shutdown.
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := buildMIME(m.from, msg)

	if err := m.sendFunc(m.addr, m.auth, m.from, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// buildMIME assembles a minimal HTML email wire format.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}
