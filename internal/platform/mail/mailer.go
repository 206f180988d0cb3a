// Package mail provides the outgoing email transport used by background
// notification tasks.
package mail

import (
	"context"
	"log/slog"
)

// Message is a rendered email ready for transport.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer defines the interface for sending email.
type Mailer interface {
	// Send delivers the message. Implementations should honor context
	// cancellation where the underlying transport allows it.
	Send(ctx context.Context, msg Message) error
}

// LogMailer is a Mailer that only logs outgoing mail. It is the default
// transport for local development and tests, where no SMTP relay exists.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{
		logger: logger.With("component", "log_mailer"),
	}
}

// Send implements Mailer by logging the message instead of delivering it.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("outgoing email (not sent, mail disabled)",
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.HTML))
	return nil
}
