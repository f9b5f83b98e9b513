package service

import (
	"context"
	"errors"
	"sync"
	"time"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	"github.com/tixlabs/tix-server/pkg/mailer"
)

// memStore is a single-lock in-memory stand-in for Postgres, shared by the
// fake repositories so Fulfill and CheckIn keep their atomicity under
// concurrent test callers.
type memStore struct {
	mu       sync.Mutex
	events   map[string]*models.Event
	users    map[string]*models.User
	tickets  map[string]*models.Ticket // keyed by scan code
	waitlist map[string][]models.WaitlistEntry
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[string]*models.Event),
		users:    make(map[string]*models.User),
		tickets:  make(map[string]*models.Ticket),
		waitlist: make(map[string][]models.WaitlistEntry),
	}
}

func (s *memStore) addEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := e
	s.events[e.ID] = &cp
}

func (s *memStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
}

func (s *memStore) sold(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[eventID]; ok {
		return e.Sold
	}
	return -1
}

func (s *memStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

type fakeEventRepo struct {
	store *memStore
}

func (r *fakeEventRepo) Create(_ context.Context, e *models.Event) error {
	r.store.addEvent(*e)
	return nil
}

func (r *fakeEventRepo) Get(_ context.Context, id string) (*models.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) List(_ context.Context, _ repo.ListEventsFilter) ([]models.Event, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Event, 0, len(r.store.events))
	for _, e := range r.store.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (r *fakeEventRepo) ListByOrganizer(_ context.Context, organizerID string) ([]models.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.store.events {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *models.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	prev, ok := r.store.events[e.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cp := *e
	cp.Sold = prev.Sold
	r.store.events[e.ID] = &cp
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.store.events, id)
	return nil
}

type fakeTicketRepo struct {
	store *memStore
}

func (r *fakeTicketRepo) Fulfill(_ context.Context, t *models.Ticket) (repo.FulfillResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.events[t.EventID]
	if !ok {
		return repo.FulfillResult{}, repo.ErrNotFound
	}

	if _, exists := r.store.tickets[t.ScanCode]; exists {
		return repo.FulfillResult{Status: repo.FulfillDuplicate, Remaining: e.Capacity - e.Sold}, nil
	}

	if e.Sold+t.Quantity > e.Capacity {
		return repo.FulfillResult{Status: repo.FulfillRejected, Remaining: e.Capacity - e.Sold}, nil
	}

	cp := *t
	cp.PurchasedAt = time.Now()
	r.store.tickets[t.ScanCode] = &cp
	e.Sold += t.Quantity

	return repo.FulfillResult{Status: repo.FulfillCreated, Remaining: e.Capacity - e.Sold}, nil
}

func (r *fakeTicketRepo) GetByScanCode(_ context.Context, scanCode string) (*models.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tickets[scanCode]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) ListByUser(_ context.Context, userID string) ([]models.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Ticket, 0)
	for _, t := range r.store.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) CheckIn(_ context.Context, scanCode string) (*models.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tickets[scanCode]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if t.IsCheckedIn {
		return nil, repo.ErrTicketUsed
	}
	t.IsCheckedIn = true
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) HolderEmails(_ context.Context, eventID string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, t := range r.store.tickets {
		if t.EventID != eventID {
			continue
		}
		u, ok := r.store.users[t.UserID]
		if !ok || u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		out = append(out, u.Email)
	}
	return out, nil
}

func (r *fakeTicketRepo) Stats(_ context.Context, eventID string) (repo.CheckInStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var stats repo.CheckInStats
	for _, t := range r.store.tickets {
		if t.EventID != eventID {
			continue
		}
		stats.TotalTickets++
		if t.IsCheckedIn {
			stats.CheckedIn++
		}
	}
	return stats, nil
}

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	cp := *u
	r.store.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.getBy(func(u *models.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.getBy(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) getBy(match func(*models.User) bool) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.store.users, id)
	return nil
}

type fakeWaitlistRepo struct {
	store *memStore
}

func (r *fakeWaitlistRepo) Add(_ context.Context, entry *models.WaitlistEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.waitlist[entry.EventID] {
		if existing.UserID == entry.UserID {
			return repo.ErrDuplicate
		}
	}
	r.store.waitlist[entry.EventID] = append(r.store.waitlist[entry.EventID], *entry)
	return nil
}

func (r *fakeWaitlistRepo) ListByEvent(_ context.Context, eventID string) ([]models.WaitlistEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.WaitlistEntry, len(r.store.waitlist[eventID]))
	copy(out, r.store.waitlist[eventID])
	return out, nil
}

func (r *fakeWaitlistRepo) DeleteByEvent(_ context.Context, eventID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.waitlist, eventID)
	return nil
}

// fakeProducer records published messages instead of talking to a broker.
type fakeProducer struct {
	mu            sync.Mutex
	orders        []kafka.OrderMessage
	notifications []kafka.NotificationBatch
	publishErr    error
}

func (p *fakeProducer) PublishOrder(_ context.Context, msg kafka.OrderMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.orders = append(p.orders, msg)
	return nil
}

func (p *fakeProducer) PublishNotification(_ context.Context, batch kafka.NotificationBatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.notifications = append(p.notifications, batch)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

// fakeMailer records sent messages; addresses in failTo error out.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failTo map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[msg.To] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakeMailMarker mimics the Redis SETNX marker.
type fakeMailMarker struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newFakeMailMarker() *fakeMailMarker {
	return &fakeMailMarker{claimed: make(map[string]bool)}
}

func (m *fakeMailMarker) MarkSent(_ context.Context, scanCode string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[scanCode] {
		return false, nil
	}
	m.claimed[scanCode] = true
	return true, nil
}

func (m *fakeMailMarker) ClearSent(_ context.Context, scanCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, scanCode)
	return nil
}
