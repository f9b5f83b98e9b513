package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/delivery/kafka/producer"
	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
	"github.com/tixlabs/tix-server/pkg/util"
)

type EventService interface {
	Create(ctx context.Context, claims Claims, in CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, in ListEventsInput) (*ListEventsOutput, error)
	ListByOrganizer(ctx context.Context, claims Claims) ([]models.Event, error)

	// Update persists new details, then enqueues an update batch for ticket
	// holders. A capacity increase also enqueues a waitlist-release batch
	// and clears the waitlist.
	Update(ctx context.Context, claims Claims, id string, in UpdateEventInput) (*models.Event, error)

	Delete(ctx context.Context, claims Claims, id string) error
	Analytics(ctx context.Context, claims Claims, id string) (*AnalyticsOutput, error)
	JoinWaitlist(ctx context.Context, claims Claims, eventID string) error
}

type eventService struct {
	eventRepo    repo.EventRepository
	ticketRepo   repo.TicketRepository
	waitlistRepo repo.WaitlistRepository
	userRepo     repo.UserRepository
	prod         producer.Producer
	l            pkgLog.Logger
}

func NewEventService(
	eventRepo repo.EventRepository,
	ticketRepo repo.TicketRepository,
	waitlistRepo repo.WaitlistRepository,
	userRepo repo.UserRepository,
	prod producer.Producer,
	l pkgLog.Logger,
) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		ticketRepo:   ticketRepo,
		waitlistRepo: waitlistRepo,
		userRepo:     userRepo,
		prod:         prod,
		l:            l,
	}
}

func (s *eventService) Create(ctx context.Context, claims Claims, in CreateEventInput) (*models.Event, error) {
	if !claims.Role.CanManageEvents() {
		return nil, ErrForbidden
	}

	e := &models.Event{
		ID:          uuid.NewString(),
		OrganizerID: claims.UserID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Location:    in.Location,
		Price:       in.Price,
		Capacity:    in.Capacity,
	}

	if err := s.eventRepo.Create(ctx, e); err != nil {
		s.l.Errorf(ctx, "service.eventService.Create: %v", err)
		return nil, err
	}

	s.l.Infof(ctx, "Event created - id: %s, title: %s, capacity: %d", e.ID, e.Title, e.Capacity)

	return e, nil
}

func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.eventRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Get: %v", err)
		return nil, err
	}

	return e, nil
}

func (s *eventService) List(ctx context.Context, in ListEventsInput) (*ListEventsOutput, error) {
	events, total, err := s.eventRepo.List(ctx, repo.ListEventsFilter{
		Search:   in.Search,
		Location: in.Location,
		Date:     in.Date,
		Page:     in.Page,
		Limit:    in.Limit,
	})
	if err != nil {
		s.l.Errorf(ctx, "service.eventService.List: %v", err)
		return nil, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 6
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}

	return &ListEventsOutput{
		Events:      events,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
		TotalEvents: total,
	}, nil
}

func (s *eventService) ListByOrganizer(ctx context.Context, claims Claims) ([]models.Event, error) {
	if !claims.Role.CanManageEvents() {
		return nil, ErrForbidden
	}

	events, err := s.eventRepo.ListByOrganizer(ctx, claims.UserID)
	if err != nil {
		s.l.Errorf(ctx, "service.eventService.ListByOrganizer: %v", err)
		return nil, err
	}

	return events, nil
}

// canTouch reports whether claims may mutate the given event. Admins may
// touch anything; organizers only their own events.
func canTouch(claims Claims, e *models.Event) bool {
	if claims.Role == models.RoleAdmin {
		return true
	}
	return claims.Role == models.RoleOrganizer && e.OrganizerID == claims.UserID
}

func (s *eventService) Update(ctx context.Context, claims Claims, id string, in UpdateEventInput) (*models.Event, error) {
	prev, err := s.eventRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Update: %v", err)
		return nil, err
	}
	if !canTouch(claims, prev) {
		return nil, ErrForbidden
	}
	if in.Capacity < prev.Sold {
		return nil, ErrCapacityBelowSold
	}

	updated := &models.Event{
		ID:          prev.ID,
		OrganizerID: prev.OrganizerID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Location:    in.Location,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Sold:        prev.Sold,
	}

	if err := s.eventRepo.Update(ctx, updated); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Update: %v", err)
		return nil, err
	}

	// Notifications ride the queue; a broker hiccup here must not undo the
	// committed update. Log and move on.
	s.notifyTicketHolders(ctx, updated)
	if in.Capacity > prev.Capacity {
		s.releaseWaitlist(ctx, updated)
	}

	return updated, nil
}

func (s *eventService) notifyTicketHolders(ctx context.Context, e *models.Event) {
	emails, err := s.ticketRepo.HolderEmails(ctx, e.ID)
	if err != nil {
		s.l.Errorf(ctx, "service.eventService.notifyTicketHolders: %v", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	if err := s.prod.PublishNotification(ctx, kafka.NotificationBatch{
		EventTitle:  e.Title,
		NewDate:     util.FormatDate(e.Date),
		NewLocation: e.Location,
		Emails:      emails,
		Alert:       kafka.AlertEventUpdate,
	}); err != nil {
		s.l.Errorf(ctx, "service.eventService.notifyTicketHolders: %v", err)
		return
	}

	s.l.Infof(ctx, "Update batch enqueued - event_id: %s, recipients: %d", e.ID, len(emails))
}

// releaseWaitlist publishes before deleting: a crash between the two leaves
// entries behind for a second (duplicate) notification, never a silent one.
func (s *eventService) releaseWaitlist(ctx context.Context, e *models.Event) {
	entries, err := s.waitlistRepo.ListByEvent(ctx, e.ID)
	if err != nil {
		s.l.Errorf(ctx, "service.eventService.releaseWaitlist: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	emails := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Email != "" {
			emails = append(emails, entry.Email)
		}
	}

	if len(emails) > 0 {
		if err := s.prod.PublishNotification(ctx, kafka.NotificationBatch{
			EventTitle:  e.Title,
			NewDate:     util.FormatDate(e.Date),
			NewLocation: e.Location,
			Emails:      emails,
			Alert:       kafka.AlertWaitlistRelease,
		}); err != nil {
			s.l.Errorf(ctx, "service.eventService.releaseWaitlist: %v", err)
			return
		}
	}

	if err := s.waitlistRepo.DeleteByEvent(ctx, e.ID); err != nil {
		s.l.Errorf(ctx, "service.eventService.releaseWaitlist: %v", err)
		return
	}

	s.l.Infof(ctx, "Waitlist released - event_id: %s, notified: %d", e.ID, len(emails))
}

func (s *eventService) Delete(ctx context.Context, claims Claims, id string) error {
	e, err := s.eventRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Delete: %v", err)
		return err
	}
	if !canTouch(claims, e) {
		return ErrForbidden
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Delete: %v", err)
		return err
	}

	s.l.Infof(ctx, "Event deleted - id: %s, title: %s", e.ID, e.Title)

	return nil
}

func (s *eventService) Analytics(ctx context.Context, claims Claims, id string) (*AnalyticsOutput, error) {
	e, err := s.eventRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.Analytics: %v", err)
		return nil, err
	}
	if !canTouch(claims, e) {
		return nil, ErrForbidden
	}

	stats, err := s.ticketRepo.Stats(ctx, id)
	if err != nil {
		s.l.Errorf(ctx, "service.eventService.Analytics: %v", err)
		return nil, err
	}

	out := &AnalyticsOutput{
		TotalSold:      e.Sold,
		Capacity:       e.Capacity,
		CheckedInCount: stats.CheckedIn,
		TotalAttendees: stats.TotalTickets,
	}
	if e.Capacity > 0 {
		out.SalesPercentage = roundPct(float64(e.Sold) / float64(e.Capacity) * 100)
	}
	// Check-in rate is per order, not per seat: a party of five scans one
	// code, so the denominator is ticket rows rather than Sold.
	if stats.TotalTickets > 0 {
		out.CheckInPercentage = roundPct(float64(stats.CheckedIn) / float64(stats.TotalTickets) * 100)
	}

	return out, nil
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *eventService) JoinWaitlist(ctx context.Context, claims Claims, eventID string) error {
	e, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.eventService.JoinWaitlist: %v", err)
		return err
	}

	// The waitlist is for sold-out events only.
	if e.Remaining() > 0 {
		return ErrEventNotSoldOut
	}

	u, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		s.l.Errorf(ctx, "service.eventService.JoinWaitlist: %v", err)
		return err
	}

	if err := s.waitlistRepo.Add(ctx, &models.WaitlistEntry{
		ID:      uuid.NewString(),
		EventID: eventID,
		UserID:  claims.UserID,
		Email:   u.Email,
	}); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrAlreadyWaitlisted
		}
		s.l.Errorf(ctx, "service.eventService.JoinWaitlist: %v", err)
		return err
	}

	s.l.Infof(ctx, "Waitlist join - event_id: %s, user_id: %s", eventID, claims.UserID)

	return nil
}
