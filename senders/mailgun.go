package senders

import (
	"context"
	"net/http"

	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	base
}

func (e *mailgunSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	if e.cfg.Mailgun.APIBase != "" {
		mg.SetAPIBase(e.cfg.Mailgun.APIBase)
	}
	mg.SetClient(&http.Client{Transport: e.transport})

	message := mg.NewMessage(e.cfg.Mail.SenderFrom, subject, body, recipient)

	_, id, err := mg.Send(ctx, message)
	return id, err
}
