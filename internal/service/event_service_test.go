package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/models"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

type eventFixture struct {
	store *memStore
	prod  *fakeProducer
	svc   EventService
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	store := newMemStore()
	prod := &fakeProducer{}
	svc := NewEventService(
		&fakeEventRepo{store: store},
		&fakeTicketRepo{store: store},
		&fakeWaitlistRepo{store: store},
		&fakeUserRepo{store: store},
		prod,
		pkgLog.InitializeTestZapLogger(),
	)
	return &eventFixture{store: store, prod: prod, svc: svc}
}

var organizerClaims = Claims{UserID: "org-1", Role: models.RoleOrganizer}

func baseUpdate(capacity int) UpdateEventInput {
	return UpdateEventInput{
		Title:       "Go Conference",
		Description: "Talks and hallway track",
		Date:        time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC),
		Location:    "Hamburg",
		Price:       49,
		Capacity:    capacity,
	}
}

func TestCreateEvent_RequiresManagerRole(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.svc.Create(context.Background(), Claims{UserID: "u-1", Role: models.RoleAttendee}, CreateEventInput{
		Title: "Nope", Description: "x", Date: time.Now(), Location: "x", Capacity: 10,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	e, err := f.svc.Create(context.Background(), organizerClaims, CreateEventInput{
		Title: "Go Conference", Description: "x", Date: time.Now(), Location: "Berlin", Capacity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "org-1", e.OrganizerID)
	assert.Equal(t, 0, e.Sold)
}

func TestUpdate_NotifiesTicketHolders(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Title: "Go Conference", Capacity: 50})
	f.store.addUser(models.User{ID: "u-1", Email: "alice@example.com"})
	f.store.addUser(models.User{ID: "u-2", Email: "bob@example.com"})
	f.store.mu.Lock()
	f.store.tickets["scan-1"] = &models.Ticket{EventID: "ev-1", UserID: "u-1", ScanCode: "scan-1"}
	f.store.tickets["scan-2"] = &models.Ticket{EventID: "ev-1", UserID: "u-2", ScanCode: "scan-2"}
	f.store.mu.Unlock()

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(50))
	require.NoError(t, err)

	require.Len(t, f.prod.notifications, 1)
	batch := f.prod.notifications[0]
	assert.Equal(t, kafka.AlertEventUpdate, batch.Alert)
	assert.Equal(t, "Go Conference", batch.EventTitle)
	assert.Equal(t, "Hamburg", batch.NewLocation)
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, batch.Emails)
}

func TestUpdate_NoHoldersNoBatch(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Title: "Go Conference", Capacity: 50})

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(50))
	require.NoError(t, err)
	assert.Empty(t, f.prod.notifications)
}

func TestUpdate_CapacityRaiseReleasesWaitlist(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Title: "Go Conference", Capacity: 50, Sold: 50})
	f.store.mu.Lock()
	f.store.waitlist["ev-1"] = []models.WaitlistEntry{
		{ID: "w-1", EventID: "ev-1", UserID: "u-1", Email: "alice@example.com"},
		{ID: "w-2", EventID: "ev-1", UserID: "u-2", Email: "bob@example.com"},
		{ID: "w-3", EventID: "ev-1", UserID: "u-3", Email: "carol@example.com"},
	}
	f.store.mu.Unlock()

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(60))
	require.NoError(t, err)

	// Exactly one waitlist-release batch carrying all three entries, and
	// the entries are gone afterwards.
	var releases []kafka.NotificationBatch
	for _, b := range f.prod.notifications {
		if b.Alert == kafka.AlertWaitlistRelease {
			releases = append(releases, b)
		}
	}
	require.Len(t, releases, 1)
	assert.ElementsMatch(t,
		[]string{"alice@example.com", "bob@example.com", "carol@example.com"},
		releases[0].Emails,
	)

	f.store.mu.Lock()
	assert.Empty(t, f.store.waitlist["ev-1"])
	f.store.mu.Unlock()
}

func TestUpdate_SameCapacityKeepsWaitlist(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Title: "Go Conference", Capacity: 50, Sold: 50})
	f.store.mu.Lock()
	f.store.waitlist["ev-1"] = []models.WaitlistEntry{
		{ID: "w-1", EventID: "ev-1", UserID: "u-1", Email: "alice@example.com"},
	}
	f.store.mu.Unlock()

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(50))
	require.NoError(t, err)

	assert.Empty(t, f.prod.notifications)
	f.store.mu.Lock()
	assert.Len(t, f.store.waitlist["ev-1"], 1)
	f.store.mu.Unlock()
}

func TestUpdate_ForeignOrganizerForbidden(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "someone-else", Capacity: 50})

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(50))
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins may touch any event.
	_, err = f.svc.Update(context.Background(), Claims{UserID: "adm-1", Role: models.RoleAdmin}, "ev-1", baseUpdate(50))
	assert.NoError(t, err)
}

func TestUpdate_NeverTouchesSold(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Capacity: 50, Sold: 12})

	e, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(80))
	require.NoError(t, err)
	assert.Equal(t, 12, e.Sold)
	assert.Equal(t, 12, f.store.sold("ev-1"))
}

func TestUpdate_CapacityBelowSoldRejected(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Capacity: 50, Sold: 30})

	_, err := f.svc.Update(context.Background(), organizerClaims, "ev-1", baseUpdate(20))
	assert.ErrorIs(t, err, ErrCapacityBelowSold)
	assert.Equal(t, 50, func() int {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		return f.store.events["ev-1"].Capacity
	}())
}

func TestJoinWaitlist(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Capacity: 2, Sold: 1})
	f.store.addUser(models.User{ID: "u-1", Email: "alice@example.com"})

	claims := Claims{UserID: "u-1", Role: models.RoleAttendee}

	// Seats remain, so no waitlisting yet.
	err := f.svc.JoinWaitlist(context.Background(), claims, "ev-1")
	assert.ErrorIs(t, err, ErrEventNotSoldOut)

	f.store.mu.Lock()
	f.store.events["ev-1"].Sold = 2
	f.store.mu.Unlock()

	require.NoError(t, f.svc.JoinWaitlist(context.Background(), claims, "ev-1"))

	err = f.svc.JoinWaitlist(context.Background(), claims, "ev-1")
	assert.ErrorIs(t, err, ErrAlreadyWaitlisted)

	f.store.mu.Lock()
	require.Len(t, f.store.waitlist["ev-1"], 1)
	assert.Equal(t, "alice@example.com", f.store.waitlist["ev-1"][0].Email)
	f.store.mu.Unlock()
}

func TestAnalytics(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Capacity: 100, Sold: 40})
	// Two orders covering 40 seats between them; check-in rate counts the
	// orders that scanned, not the seats they cover.
	f.store.mu.Lock()
	f.store.tickets["scan-1"] = &models.Ticket{EventID: "ev-1", UserID: "u-1", ScanCode: "scan-1", Quantity: 35, IsCheckedIn: true}
	f.store.tickets["scan-2"] = &models.Ticket{EventID: "ev-1", UserID: "u-2", ScanCode: "scan-2", Quantity: 5}
	f.store.mu.Unlock()

	out, err := f.svc.Analytics(context.Background(), organizerClaims, "ev-1")
	require.NoError(t, err)

	assert.Equal(t, 40, out.TotalSold)
	assert.Equal(t, 100, out.Capacity)
	assert.InDelta(t, 40.0, out.SalesPercentage, 0.001)
	assert.Equal(t, 1, out.CheckedInCount)
	assert.Equal(t, 2, out.TotalAttendees)
	assert.InDelta(t, 50.0, out.CheckInPercentage, 0.001)
}

func TestDelete_ForbiddenForAttendee(t *testing.T) {
	f := newEventFixture(t)
	f.store.addEvent(models.Event{ID: "ev-1", OrganizerID: "org-1", Capacity: 10})

	err := f.svc.Delete(context.Background(), Claims{UserID: "u-1", Role: models.RoleAttendee}, "ev-1")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.Delete(context.Background(), organizerClaims, "ev-1"))

	err = f.svc.Delete(context.Background(), organizerClaims, "ev-1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
