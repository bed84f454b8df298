package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/model"
)

func TestVenueCapacitySync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venueSvc := NewVenueService(f.venues, f.seatRepo)

	v := &model.Venue{Name: "Grand Hall", Address: "1 Main St", Capacity: 25}
	require.NoError(t, venueSvc.Create(ctx, v))

	seats, err := f.seatRepo.ListByVenue(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, seats, 25)

	// Generation fills section A row by row: 20 seats in row 1, then 5 in
	// row 2, with the price dropping 10 cents per row.
	byPos := map[string]model.Seat{}
	for _, s := range seats {
		byPos[s.Section+":"+s.RowLabel] = s
		assert.Equal(t, model.SeatAvailable, s.Status)
	}
	assert.Equal(t, uint32(990), byPos["A:1"].PriceCents)
	assert.Equal(t, uint32(980), byPos["A:2"].PriceCents)

	// Shrink deletes unreferenced seats down to the new capacity.
	v.Capacity = 10
	require.NoError(t, venueSvc.Update(ctx, v))
	n, err := f.seatRepo.CountByVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// Growing again backfills the freed grid positions.
	v.Capacity = 30
	require.NoError(t, venueSvc.Update(ctx, v))
	n, err = f.seatRepo.CountByVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}

func TestVenueDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venueSvc := NewVenueService(f.venues, f.seatRepo)
	eventSvc := NewEventService(f.events, f.venues)

	v := &model.Venue{Name: "Small Club", Address: "2 Side St", Capacity: 5}
	require.NoError(t, venueSvc.Create(ctx, v))

	start := time.Now().Add(24 * time.Hour).UTC()
	ev := &model.Event{VenueID: v.ID, Name: "Show", StartsAt: start, EndsAt: start.Add(time.Hour), Status: model.EventPublished}
	require.NoError(t, eventSvc.Create(ctx, ev))

	err := venueSvc.Delete(ctx, v.ID)
	de := requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, "Cannot delete venue with associated events", de.Message)

	require.NoError(t, eventSvc.Delete(ctx, ev.ID))
	require.NoError(t, venueSvc.Delete(ctx, v.ID))

	err = venueSvc.Delete(ctx, v.ID)
	requireDomainErr(t, err, http.StatusNotFound)
}

func TestEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venueSvc := NewVenueService(f.venues, f.seatRepo)
	eventSvc := NewEventService(f.events, f.venues)

	v := &model.Venue{Name: "Arena", Address: "3 Broad St", Capacity: 5}
	require.NoError(t, venueSvc.Create(ctx, v))
	start := time.Now().Add(24 * time.Hour).UTC()

	err := eventSvc.Create(ctx, &model.Event{VenueID: 999999, Name: "X", StartsAt: start, EndsAt: start.Add(time.Hour)})
	de := requireDomainErr(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Venue not found", de.Message)

	err = eventSvc.Create(ctx, &model.Event{VenueID: v.ID, Name: "X", StartsAt: start, EndsAt: start.Add(-time.Hour)})
	de = requireDomainErr(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Event must end after it starts", de.Message)

	first := &model.Event{VenueID: v.ID, Name: "First", StartsAt: start, EndsAt: start.Add(2 * time.Hour), Status: model.EventPublished}
	require.NoError(t, eventSvc.Create(ctx, first))

	overlapping := &model.Event{VenueID: v.ID, Name: "Second", StartsAt: start.Add(time.Hour), EndsAt: start.Add(3 * time.Hour)}
	err = eventSvc.Create(ctx, overlapping)
	de = requireDomainErr(t, err, http.StatusConflict)
	assert.Equal(t, "Event overlaps another event at this venue", de.Message)

	// Back to back is fine, the window is half open.
	adjacent := &model.Event{VenueID: v.ID, Name: "Third", StartsAt: start.Add(2 * time.Hour), EndsAt: start.Add(4 * time.Hour)}
	require.NoError(t, eventSvc.Create(ctx, adjacent))
	assert.Equal(t, model.EventDraft, adjacent.Status)
}

func TestEventDeleteDegradesWithReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventSvc := NewEventService(f.events, f.venues)
	alice := f.createUser(t, "alice@example.com")
	eventID, seatIDs := f.createVenueEvent(t, 1, time.Now().Add(48*time.Hour))

	_, err := f.seats.Block(ctx, seatIDs, eventID, alice)
	require.NoError(t, err)
	_, err = f.rez.Store(ctx, alice, eventID, seatIDs)
	require.NoError(t, err)

	require.NoError(t, eventSvc.Delete(ctx, eventID))
	ev, err := eventSvc.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.EventCancelled, ev.Status)
}
