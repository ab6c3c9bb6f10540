// Package notify composes and sends user-facing emails.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Email is a composed message with both text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers an email. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer logs outgoing mail instead of delivering it.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, email Email) error {
	slog.InfoContext(ctx, "email not delivered (log mailer)",
		"to", email.To,
		"subject", email.Subject,
		"text_bytes", len(email.TextBody),
		"html_bytes", len(email.HTMLBody),
	)
	return nil
}

// Outbox records sent mail in memory.
type Outbox struct {
	mu   sync.Mutex
	sent []Email
}

func (o *Outbox) Send(_ context.Context, email Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, email)
	return nil
}

// Sent returns a copy of every email sent so far.
func (o *Outbox) Sent() []Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Email, len(o.sent))
	copy(out, o.sent)
	return out
}
