package service

import (
	"context"
	"errors"

	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
	"github.com/tixlabs/tix-server/pkg/util"
)

type TicketService interface {
	// ListMine returns the caller's tickets joined with the event details
	// needed to render them.
	ListMine(ctx context.Context, userID string) ([]TicketWithEvent, error)

	// Verify checks a ticket in. The first scan succeeds; every later scan
	// of the same code fails with ErrTicketUsed, unknown codes with
	// ErrTicketNotFound.
	Verify(ctx context.Context, scanCode string) (*VerifyOutput, error)
}

type ticketService struct {
	ticketRepo repo.TicketRepository
	eventRepo  repo.EventRepository
	userRepo   repo.UserRepository
	l          pkgLog.Logger
}

func NewTicketService(
	ticketRepo repo.TicketRepository,
	eventRepo repo.EventRepository,
	userRepo repo.UserRepository,
	l pkgLog.Logger,
) TicketService {
	return &ticketService{
		ticketRepo: ticketRepo,
		eventRepo:  eventRepo,
		userRepo:   userRepo,
		l:          l,
	}
}

func (s *ticketService) ListMine(ctx context.Context, userID string) ([]TicketWithEvent, error) {
	tickets, err := s.ticketRepo.ListByUser(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "service.ticketService.ListMine: %v", err)
		return nil, err
	}

	// Users rarely hold tickets for many distinct events; a per-request
	// cache keeps this at one event fetch per event.
	events := make(map[string]*models.Event, len(tickets))

	out := make([]TicketWithEvent, 0, len(tickets))
	for _, t := range tickets {
		e, ok := events[t.EventID]
		if !ok {
			e, err = s.eventRepo.Get(ctx, t.EventID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					// Event deleted after purchase; show the bare ticket.
					e = &models.Event{ID: t.EventID}
				} else {
					s.l.Errorf(ctx, "service.ticketService.ListMine: %v", err)
					return nil, err
				}
			}
			events[t.EventID] = e
		}

		out = append(out, TicketWithEvent{
			Ticket:        t,
			EventTitle:    e.Title,
			EventDate:     e.Date,
			EventLocation: e.Location,
		})
	}

	return out, nil
}

func (s *ticketService) Verify(ctx context.Context, scanCode string) (*VerifyOutput, error) {
	t, err := s.ticketRepo.CheckIn(ctx, scanCode)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrTicketNotFound
		case errors.Is(err, repo.ErrTicketUsed):
			return nil, ErrTicketUsed
		default:
			s.l.Errorf(ctx, "service.ticketService.Verify: %v", err)
			return nil, err
		}
	}

	out := &VerifyOutput{
		Valid:        true,
		Quantity:     t.Quantity,
		PurchaseDate: util.FormatDate(t.PurchasedAt),
	}

	if u, err := s.userRepo.Get(ctx, t.UserID); err == nil {
		out.Owner = u.Username
	} else {
		s.l.Warnf(ctx, "service.ticketService.Verify: owner lookup: %v", err)
	}

	if e, err := s.eventRepo.Get(ctx, t.EventID); err == nil {
		out.Event = e.Title
		out.Date = util.FormatDate(e.Date)
	} else {
		s.l.Warnf(ctx, "service.ticketService.Verify: event lookup: %v", err)
	}

	s.l.Infof(ctx, "Ticket checked in - scan_code: %s", scanCode)

	return out, nil
}
