package senders

import (
	"context"

	"github.com/google/uuid"
)

// logSender writes messages to the log instead of delivering them. Used in development.
type logSender struct {
	base
}

func (e *logSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	id := "log-" + uuid.NewString()
	e.log.Sugar().Infow("Mail not sent (log transport)",
		"to", recipient,
		"subject", subject,
		"body", body,
		"message_id", id,
	)
	return id, nil
}
