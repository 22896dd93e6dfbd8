package senders

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/fiffu/seatwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sender delivers one message and returns the transport's message id.
type Sender interface {
	Send(ctx context.Context, subject, body, recipient string) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"mailgun": &mailgunSender{base},
		"smtp":    &smtpSender{base},
		"log":     &logSender{base},
	}
}

// NewSender picks the transport named by MAIL_TRANSPORT.
func NewSender(log *zap.Logger, cfg *config.Config, registry Registry) (Sender, error) {
	sender, ok := registry[cfg.Mail.Transport]
	if !ok {
		return nil, fmt.Errorf("unsupported mail transport %q, want one of %v", cfg.Mail.Transport, registry.names())
	}
	log.Sugar().Infow("Mail transport selected", "transport", cfg.Mail.Transport)
	return sender, nil
}

func (r Registry) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
