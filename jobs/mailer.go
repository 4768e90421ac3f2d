package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// messageSender is the part of mail.Client the mailer uses.
type messageSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends plain-text mail through an unauthenticated relay such as
// Mailpit or a local MTA.
type SMTPMailer struct {
	from   string
	client messageSender
}

// NewSMTPMailer constructs an SMTPMailer for host:port.
func NewSMTPMailer(host string, port int, from string) (*SMTPMailer, error) {
	client, err := mail.NewClient(host,
		mail.WithTLSPortPolicy(mail.NoTLS),
		mail.WithPort(port),
		mail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("jobs: smtp client: %w", err)
	}
	return &SMTPMailer{from: from, client: client}, nil
}

// Send delivers msg. The dial and the SMTP exchange stop when ctx ends.
func (m *SMTPMailer) Send(ctx context.Context, msg SendEmailPayload) error {
	out, err := m.compose(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("jobs: send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg SendEmailPayload) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("jobs: sender %q: %w", m.from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("jobs: recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}
