package service

import (
	"context"
	"fmt"

	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
	"github.com/tixlabs/tix-server/pkg/mailer"
)

// NotificationService fans one queued batch out into per-recipient emails.
// A failed recipient is logged and skipped; the batch is never retried for
// one bad mailbox.
type NotificationService interface {
	ProcessBatch(ctx context.Context, in NotificationInput) error
}

type notificationService struct {
	mail mailer.Mailer
	l    pkgLog.Logger
}

func NewNotificationService(mail mailer.Mailer, l pkgLog.Logger) NotificationService {
	return &notificationService{mail: mail, l: l}
}

func (s *notificationService) ProcessBatch(ctx context.Context, in NotificationInput) error {
	if len(in.Emails) == 0 {
		return nil
	}

	subject, html := buildAlertMail(in)

	sent := 0
	for _, to := range in.Emails {
		if err := ctx.Err(); err != nil {
			// Shutdown mid-batch: leave the message unmarked so the
			// remaining recipients get another chance.
			return err
		}

		if err := s.mail.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: html}); err != nil {
			s.l.Errorf(ctx, "service.notificationService.ProcessBatch: send to %s: %v", to, err)
			continue
		}
		sent++
	}

	s.l.Infof(ctx, "Notification batch done - event: %s, kind: %s, sent: %d/%d", in.EventTitle, in.Alert, sent, len(in.Emails))

	return nil
}

func buildAlertMail(in NotificationInput) (subject, html string) {
	if in.Alert == "waitlist-release" {
		subject = fmt.Sprintf("Tickets available: %s", in.EventTitle)
		html = fmt.Sprintf(`
			<div style="font-family: Arial, sans-serif; border: 1px solid #ddd; padding: 20px; max-width: 400px; margin: auto;">
			  <h2 style="color: #1a7f37;">Good news!</h2>
			  <p>Tickets for <strong>%s</strong> are available again.</p>
			  <p style="text-align: left;"><strong>Date:</strong> %s</p>
			  <p style="text-align: left;"><strong>Location:</strong> %s</p>
			  <p>You are receiving this because you joined the waitlist. Seats go fast!</p>
			</div>`,
			in.EventTitle, in.NewDate, in.NewLocation,
		)
		return subject, html
	}

	subject = fmt.Sprintf("IMPORTANT: Update for %s", in.EventTitle)
	html = fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; border: 1px solid #ddd; padding: 20px; max-width: 400px; margin: auto;">
		  <h2 style="color: #b35900;">Event Update</h2>
		  <p>Details for <strong>%s</strong> have changed. Your ticket remains valid.</p>
		  <p style="text-align: left;"><strong>Date:</strong> %s</p>
		  <p style="text-align: left;"><strong>Location:</strong> %s</p>
		</div>`,
		in.EventTitle, in.NewDate, in.NewLocation,
	)
	return subject, html
}
