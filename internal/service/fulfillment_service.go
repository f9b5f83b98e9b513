package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	redisrepo "github.com/tixlabs/tix-server/internal/repository/redis"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
	"github.com/tixlabs/tix-server/pkg/mailer"
	"github.com/tixlabs/tix-server/pkg/util"
)

// mailMarkerTTL bounds how long a confirmation-sent marker lives. Order
// redeliveries happen within seconds or minutes; a month is plenty.
const mailMarkerTTL = 30 * 24 * time.Hour

// FulfillmentService turns a queued order into a persisted ticket plus the
// guarded ledger increment, then dispatches the confirmation email.
//
// A nil return acknowledges the message, including the
// handled-but-rejected outcome when capacity no longer holds; retrying the
// same order cannot make seats appear. A non-nil return leaves the message
// for redelivery, which is safe because the ticket insert is idempotent on
// scan code.
type FulfillmentService interface {
	ProcessOrder(ctx context.Context, in OrderInput) error
}

type fulfillmentService struct {
	eventRepo  repo.EventRepository
	ticketRepo repo.TicketRepository
	userRepo   repo.UserRepository
	mailMarker redisrepo.MailMarkerRepository
	mail       mailer.Mailer
	l          pkgLog.Logger
}

func NewFulfillmentService(
	eventRepo repo.EventRepository,
	ticketRepo repo.TicketRepository,
	userRepo repo.UserRepository,
	mailMarker redisrepo.MailMarkerRepository,
	mail mailer.Mailer,
	l pkgLog.Logger,
) FulfillmentService {
	return &fulfillmentService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		mailMarker: mailMarker,
		mail:       mail,
		l:          l,
	}
}

func (s *fulfillmentService) ProcessOrder(ctx context.Context, in OrderInput) error {
	if in.Quantity < models.MinTicketQuantity || in.Quantity > models.MaxTicketQuantity {
		// Should have been rejected at admission; dropping is the only
		// sane outcome for a poisoned message.
		s.l.Warnf(ctx, "service.fulfillmentService.ProcessOrder: dropping order with quantity %d", in.Quantity)
		return nil
	}

	e, err := s.eventRepo.Get(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.l.Warnf(ctx, "service.fulfillmentService.ProcessOrder: event %s gone, dropping order", in.EventID)
			return nil
		}
		return fmt.Errorf("failed to fetch event: %w", err)
	}

	t := &models.Ticket{
		ID:       uuid.NewString(),
		EventID:  in.EventID,
		UserID:   in.UserID,
		Quantity: in.Quantity,
		ScanCode: in.ScanCode,
	}

	res, err := s.ticketRepo.Fulfill(ctx, t)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.l.Warnf(ctx, "service.fulfillmentService.ProcessOrder: event %s gone, dropping order", in.EventID)
			return nil
		}
		return fmt.Errorf("failed to fulfill order: %w", err)
	}

	switch res.Status {
	case repo.FulfillRejected:
		// The admission gate admitted optimistically and lost the race.
		// Known gap: the buyer saw an accepted purchase and gets no
		// callback; we only record the outcome.
		s.l.Infof(ctx, "Order rejected at fulfillment - event_id: %s, user_id: %s, requested: %d, remaining: %d",
			in.EventID, in.UserID, in.Quantity, res.Remaining)
		return nil

	case repo.FulfillDuplicate:
		s.l.Infof(ctx, "Duplicate delivery for scan code %s, ticket already persisted", in.ScanCode)

	case repo.FulfillCreated:
		s.l.Infof(ctx, "Ticket issued - event_id: %s, user_id: %s, quantity: %d", in.EventID, in.UserID, in.Quantity)
	}

	// Ticket issuance is the durable contract; everything below is
	// best-effort and must not fail the message.
	s.sendConfirmation(ctx, e, t)

	return nil
}

func (s *fulfillmentService) sendConfirmation(ctx context.Context, e *models.Event, t *models.Ticket) {
	u, err := s.userRepo.Get(ctx, t.UserID)
	if err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.sendConfirmation: %v", err)
		return
	}
	if u.Email == "" {
		return
	}

	claimed, err := s.mailMarker.MarkSent(ctx, t.ScanCode, mailMarkerTTL)
	if err != nil {
		// Marker store unavailable: a duplicate email beats a missing one.
		s.l.Errorf(ctx, "service.fulfillmentService.sendConfirmation: %v", err)
		claimed = true
	}
	if !claimed {
		s.l.Debugf(ctx, "Confirmation already sent for scan code %s", t.ScanCode)
		return
	}

	msg, err := buildConfirmationMail(u.Email, e, t)
	if err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.sendConfirmation: %v", err)
		return
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.sendConfirmation: %v", err)
		// Release the marker so a redelivery may retry the email.
		if clearErr := s.mailMarker.ClearSent(ctx, t.ScanCode); clearErr != nil {
			s.l.Errorf(ctx, "service.fulfillmentService.sendConfirmation: %v", clearErr)
		}
		return
	}

	s.l.Infof(ctx, "Confirmation email sent to %s", u.Email)
}

func buildConfirmationMail(to string, e *models.Event, t *models.Ticket) (mailer.Message, error) {
	qrPNG, err := qrcode.Encode(t.ScanCode, qrcode.Medium, 200)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render qr code: %w", err)
	}

	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; text-align: center; border: 1px solid #ddd; padding: 20px; max-width: 400px; margin: auto;">
		  <h2 style="color: #003580;">Ticket Confirmed!</h2>
		  <p>You are going to <strong>%s</strong></p>
		  <hr/>
		  <p style="text-align: left;"><strong>Date:</strong> %s</p>
		  <p style="text-align: left;"><strong>Location:</strong> %s</p>
		  <p style="text-align: left;"><strong>Quantity:</strong> %d</p>
		  <div style="margin: 20px 0;"><img src="cid:ticketqrcode" alt="QR Code" style="width: 200px; height: 200px;" /></div>
		</div>`,
		e.Title, util.FormatDate(e.Date), e.Location, t.Quantity,
	)

	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("Confirmation: Ticket for %s", e.Title),
		HTML:    html,
		Attachments: []mailer.Attachment{
			{
				Filename:  "qrcode.png",
				ContentID: "ticketqrcode",
				MIMEType:  "image/png",
				Content:   qrPNG,
			},
		},
	}, nil
}
