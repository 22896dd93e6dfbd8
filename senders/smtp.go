package senders

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
)

// smtpSender relays through an SMTP server. STARTTLS is used whenever the server offers it, and
// credentials are only sent to servers that advertise AUTH.
type smtpSender struct {
	base
}

func (e *smtpSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg := e.cfg.SMTP

	msg := email.NewEmail()
	msg.From = e.cfg.Mail.SenderFrom
	msg.To = []string{recipient}
	msg.Subject = subject
	msg.Text = []byte(body)
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDHost(msg.From))
	msg.Headers.Set("Message-Id", id)

	raw, err := msg.Bytes()
	if err != nil {
		return "", err
	}
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("sender address %q: %w", msg.From, err)
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	if err := e.deliver(ctx, addr, auth, from.Address, recipient, raw); err != nil {
		return "", err
	}
	return id, nil
}

// deliver runs one SMTP session. The connection carries ctx's deadline and is closed when ctx
// ends, so a stalled relay cannot outlive the send timeout.
func (e *smtpSender) deliver(ctx context.Context, addr string, auth smtp.Auth, from, to string, raw []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return withContext(ctx, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return withContext(ctx, err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return withContext(ctx, err)
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return withContext(ctx, err)
	}
	if err := c.Rcpt(to); err != nil {
		return withContext(ctx, err)
	}
	w, err := c.Data()
	if err != nil {
		return withContext(ctx, err)
	}
	if _, err := w.Write(raw); err != nil {
		return withContext(ctx, err)
	}
	if err := w.Close(); err != nil {
		return withContext(ctx, err)
	}
	return withContext(ctx, c.Quit())
}

// withContext reports ctx's error in place of the I/O error it caused.
func withContext(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("smtp: %w", ctx.Err())
	}
	return err
}

func messageIDHost(from string) string {
	from = strings.TrimSuffix(strings.TrimSpace(from), ">")
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "seatwatch.local"
}
