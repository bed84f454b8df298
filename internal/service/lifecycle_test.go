package service

// These tests exercise the full seat lifecycle against a real MySQL
// instance. They are skipped unless TEST_DATABASE_DSN points at a database
// with the schema from migrations/schema.sql loaded, e.g.
//
//	TEST_DATABASE_DSN='root@tcp(127.0.0.1:3306)/ticketing_test?parseTime=true&loc=UTC' go test ./internal/service/
//
// Every fixture wipes all tables, so never point this at real data.

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

type fixture struct {
	db *sql.DB

	users        *repository.UserRepo
	venues       *repository.VenueRepo
	events       *repository.EventRepo
	seatRepo     *repository.SeatRepo
	reservations *repository.ReservationRepo
	ticketRepo   *repository.TicketRepo

	seats   *SeatService
	rez     *ReservationService
	tickets *TicketService
	sweeper *Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	// FK-safe wipe order.
	for _, table := range []string{
		"tickets", "reservation_items", "reservations",
		"refresh_tokens", "seats", "events", "venues", "users",
	} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "wipe %s", table)
	}

	f := &fixture{
		db:           db,
		users:        repository.NewUserRepo(db),
		venues:       repository.NewVenueRepo(db),
		events:       repository.NewEventRepo(db),
		seatRepo:     repository.NewSeatRepo(db),
		reservations: repository.NewReservationRepo(db),
		ticketRepo:   repository.NewTicketRepo(db),
	}
	f.seats = NewSeatService(f.seatRepo, f.venues, f.events, f.reservations, f.ticketRepo, 15)
	f.rez = NewReservationService(f.reservations, f.seatRepo, f.events, f.ticketRepo, f.users, 15)
	f.tickets = NewTicketService(f.ticketRepo, f.reservations, f.seatRepo, f.users, 24)
	f.sweeper = NewSweeper(f.reservations, f.seatRepo)
	return f
}

func (f *fixture) createUser(t *testing.T, email string) uint64 {
	t.Helper()
	id, err := f.users.Create(context.Background(), email, "Test User", "password", model.RoleCustomer, 4)
	require.NoError(t, err)
	return id
}

// createVenueEvent makes a venue with seatCount seats and a published event
// starting at startsAt. Returns the event ID and the seat IDs in order.
func (f *fixture) createVenueEvent(t *testing.T, seatCount int, startsAt time.Time) (uint64, []uint64) {
	t.Helper()
	ctx := context.Background()

	v := &model.Venue{Name: fmt.Sprintf("Venue %d", time.Now().UnixNano()), Address: "1 Main St", Capacity: uint32(seatCount)}
	require.NoError(t, f.venues.Create(ctx, v))

	seats := make([]model.Seat, 0, seatCount)
	for i := 0; i < seatCount; i++ {
		seats = append(seats, model.Seat{
			VenueID:    v.ID,
			Section:    "A",
			RowLabel:   "1",
			SeatNumber: uint32(i + 1),
			PriceCents: 1000,
		})
	}
	require.NoError(t, f.seatRepo.CreateBulk(ctx, seats))
	stored, err := f.seatRepo.ListByVenue(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, stored, seatCount)
	ids := make([]uint64, 0, seatCount)
	for _, s := range stored {
		ids = append(ids, s.ID)
	}

	ev := &model.Event{
		VenueID:  v.ID,
		Name:     "Test Event",
		StartsAt: startsAt.UTC(),
		EndsAt:   startsAt.Add(2 * time.Hour).UTC(),
		Status:   model.EventPublished,
	}
	require.NoError(t, f.events.Create(ctx, ev))
	return ev.ID, ids
}

func (f *fixture) seatStatus(t *testing.T, id uint64) string {
	t.Helper()
	var status string
	require.NoError(t, f.db.QueryRow("SELECT status FROM seats WHERE id = ?", id).Scan(&status))
	return status
}

func requireDomainErr(t *testing.T, err error, status int) *Error {
	t.Helper()
	require.Error(t, err)
	var de *Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, status, de.Status, "message: %s", de.Message)
	return de
}

func TestReservationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.createUser(t, "alice@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 4, time.Now().Add(48*time.Hour))
	picked := seatIDs[:2]

	blocked, err := f.seats.Block(ctx, picked, eventID, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, picked, blocked)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, picked[0]))

	eventSeats, err := f.seats.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	statuses := map[uint64]string{}
	for _, s := range eventSeats {
		statuses[s.ID] = s.Status
	}
	assert.Equal(t, model.SeatReserved, statuses[picked[0]])
	assert.Equal(t, model.SeatAvailable, statuses[seatIDs[2]])

	rez, err := f.rez.Store(ctx, userID, eventID, picked)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, rez.Status)
	assert.Equal(t, uint32(2000), rez.TotalAmountCents)
	assert.Len(t, rez.Items, 2)
	require.NotNil(t, rez.ExpiresAt)
	assert.True(t, rez.ExpiresAt.After(time.Now().UTC()))

	// The same seat cannot enter a second pending reservation; the conflict
	// names the existing reservation so the client can pick it back up.
	_, err = f.rez.Store(ctx, userID, eventID, picked[:1])
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, rez.ID, de.ReservationID)

	confirmed, tickets, err := f.rez.Confirm(ctx, rez.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.ExpiresAt)
	require.Len(t, tickets, 2)
	for _, tk := range tickets {
		assert.Equal(t, model.TicketActive, tk.Status)
		assert.Len(t, tk.TicketCode, 10)
	}
	assert.Equal(t, model.SeatSold, f.seatStatus(t, picked[0]))
	assert.Equal(t, model.SeatSold, f.seatStatus(t, picked[1]))

	// Confirming a settled reservation mints nothing.
	_, _, err = f.rez.Confirm(ctx, rez.ID, userID)
	de = requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, "Reservation is not pending", de.Message)

	owned, err := f.tickets.List(ctx, userID, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestBlockConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 2, time.Now().Add(48*time.Hour))
	seat := seatIDs[:1]

	_, err := f.seats.Block(ctx, seat, eventID, alice)
	require.NoError(t, err)

	_, err = f.seats.Block(ctx, seat, eventID, bob)
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, fmt.Sprintf("Seat %d is on hold", seat[0]), de.Message)

	rez, err := f.rez.Store(ctx, alice, eventID, seat)
	require.NoError(t, err)
	_, _, err = f.rez.Confirm(ctx, rez.ID, alice)
	require.NoError(t, err)

	_, err = f.seats.Block(ctx, seat, eventID, bob)
	de = requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, fmt.Sprintf("Seat %d already sold for this event", seat[0]), de.Message)

	_, err = f.seats.Block(ctx, []uint64{seatIDs[1]}, eventID, bob)
	require.NoError(t, err)
}

func TestConcurrentBlockSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const contenders = 8
	userIDs := make([]uint64, contenders)
	for i := range userIDs {
		userIDs[i] = f.createUser(t, fmt.Sprintf("user%d@example.com", i))
	}
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	var wins, conflicts int64
	var wg sync.WaitGroup
	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func(userID uint64) {
			defer wg.Done()
			_, err := f.seats.Block(ctx, seatIDs, eventID, userID)
			if err == nil {
				atomic.AddInt64(&wins, 1)
				return
			}
			var de *Error
			if assert.ErrorAs(t, err, &de) {
				assert.Equal(t, http.StatusConflict, de.Status)
				atomic.AddInt64(&conflicts, 1)
			}
		}(userIDs[i])
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.Equal(t, int64(contenders-1), conflicts)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, seatIDs[0]))
}

func TestReleaseOnlyOwnHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)

	n, err := f.seats.Release(ctx, seatIDs, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, seatIDs[0]))

	n, err = f.seats.Release(ctx, seatIDs, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seatIDs[0]))

	// Releasing again is a harmless no-op.
	n, err = f.seats.Release(ctx, seatIDs, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStoreRejectsUnheldSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 2, time.Now().Add(48*time.Hour))

	_, err := f.rez.Store(ctx, alice, eventID, seatIDs[:1])
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, fmt.Sprintf("Seat %d is not reserved", seatIDs[0]), de.Message)

	_, err = f.rez.Store(ctx, alice, eventID, []uint64{seatIDs[1], 999999})
	de = requireDomainErr(t, err, http.StatusNotFound)
	assert.Equal(t, "Some seats not found", de.Message)

	bob := f.createUser(t, "bob@example.com")
	_, err = f.seats.Block(ctx, seatIDs[:1], eventID, bob)
	require.NoError(t, err)
	_, err = f.rez.Store(ctx, alice, eventID, seatIDs[:1])
	requireDomainErr(t, err, http.StatusForbidden)
}

func TestExpiredReservationAndSweeper(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)
	rez, err := f.rez.Store(ctx, alice, eventID, seatIDs)
	require.NoError(t, err)

	// Force the deadline into the past.
	past := time.Now().UTC().Add(-time.Minute)
	_, err = f.db.Exec("UPDATE reservations SET expires_at = ? WHERE id = ?", past, rez.ID)
	require.NoError(t, err)
	_, err = f.db.Exec("UPDATE seats SET reserved_until = ? WHERE id = ?", past, seatIDs[0])
	require.NoError(t, err)

	_, _, err = f.rez.Confirm(ctx, rez.ID, alice)
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, "Reservation expired", de.Message)

	expired, err := f.sweeper.ExpireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seatIDs[0]))

	got, err := f.rez.Get(ctx, rez.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationExpired, got.Status)

	// A second sweep finds nothing.
	expired, err = f.sweeper.ExpireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// The lapsed hold is reclaimed, so the seat can be blocked again.
	bob := f.createUser(t, "bob@example.com")
	_, err = f.seats.Block(ctx, seatIDs, eventID, bob)
	require.NoError(t, err)
}

func TestBlockReclaimsLapsedHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)

	// Push the hold deadline into the past. No sweeper runs here; the next
	// block must reclaim the seat in place.
	past := time.Now().UTC().Add(-time.Minute)
	_, err = f.db.Exec("UPDATE seats SET reserved_until = ? WHERE id = ?", past, seatIDs[0])
	require.NoError(t, err)

	blocked, err := f.seats.Block(ctx, seatIDs, eventID, bob)
	require.NoError(t, err)
	assert.Equal(t, seatIDs, blocked)

	var reservedBy uint64
	require.NoError(t, f.db.QueryRow("SELECT reserved_by FROM seats WHERE id = ?", seatIDs[0]).Scan(&reservedBy))
	assert.Equal(t, bob, reservedBy)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, seatIDs[0]))
}

func TestCancelPendingReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)
	rez, err := f.rez.Store(ctx, alice, eventID, seatIDs)
	require.NoError(t, err)

	require.NoError(t, f.rez.Cancel(ctx, rez.ID, alice))
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seatIDs[0]))

	err = f.rez.Cancel(ctx, rez.ID, alice)
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, "Only pending reservations can be cancelled", de.Message)
}

func TestTicketTransferAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)
	rez, err := f.rez.Store(ctx, alice, eventID, seatIDs)
	require.NoError(t, err)
	_, tickets, err := f.rez.Confirm(ctx, rez.ID, alice)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	ticketID := tickets[0].ID

	_, err = f.tickets.Transfer(ctx, ticketID, alice, "nobody@example.com")
	de := requireDomainErr(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "User with email 'nobody@example.com' not found", de.Message)

	_, err = f.tickets.Transfer(ctx, ticketID, bob, "bob@example.com")
	requireDomainErr(t, err, http.StatusForbidden)

	transferred, err := f.tickets.Transfer(ctx, ticketID, alice, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.TicketTransferred, transferred.Status)
	assert.Equal(t, model.SeatSold, f.seatStatus(t, seatIDs[0]))

	// Ownership moved: the ticket is now invisible to Alice.
	_, err = f.tickets.Get(ctx, ticketID, alice)
	requireDomainErr(t, err, http.StatusNotFound)
	got, err := f.tickets.Get(ctx, ticketID, bob)
	require.NoError(t, err)
	assert.Equal(t, model.TicketTransferred, got.Status)

	cancelled, err := f.tickets.Cancel(ctx, ticketID, bob)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, cancelled.Status)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seatIDs[0]))

	_, err = f.tickets.Cancel(ctx, ticketID, bob)
	de = requireDomainErr(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Ticket cannot be cancelled", de.Message)
}

func TestTicketCancelWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	// Event starts in two hours, inside the 24 hour cancellation window.
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(2*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)
	rez, err := f.rez.Store(ctx, alice, eventID, seatIDs)
	require.NoError(t, err)
	_, tickets, err := f.rez.Confirm(ctx, rez.ID, alice)
	require.NoError(t, err)
	require.Len(t, tickets, 1)

	_, err = f.tickets.Cancel(ctx, tickets[0].ID, alice)
	de := requireDomainErr(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Tickets can only be cancelled at least 24 hours before the event", de.Message)
}
