package mailer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/tixlabs/tix-server/config"
)

// Attachment is an inline attachment referenced from the HTML body
// via cid:<ContentID>.
type Attachment struct {
	Filename  string
	ContentID string
	MIMEType  string
	Content   []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers a single message over the configured relay. Sends are
// best-effort from the caller's point of view; failures are returned, never
// retried here.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	for _, att := range msg.Attachments {
		att := att
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Content)
				return err
			}),
		}
		if att.MIMEType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.MIMEType},
				"Content-ID":   {fmt.Sprintf("<%s>", att.ContentID)},
			}))
		}
		gm.Embed(att.Filename, settings...)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}

	return nil
}
