package notifications

import (
	"context"
	"log/slog"
)

// EmailSender is the outbound email port. Implementations must be safe for
// concurrent use.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes emails to the structured log instead of delivering them.
// It stands in for a real provider in development and tests.
type LogSender struct{}

// NewLogSender returns an EmailSender that only logs.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the email and reports success.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	slog.InfoContext(ctx, "email dispatched",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}
