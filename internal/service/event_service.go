package service

import (
	"context"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

// EventService implements event CRUD. Two invariants hold at every write:
// the window must end after it starts, and no two non-cancelled events at
// the same venue may overlap in time.
type EventService struct {
	events *repository.EventRepo
	venues *repository.VenueRepo
}

// NewEventService wires the event and venue repositories.
func NewEventService(events *repository.EventRepo, venues *repository.VenueRepo) *EventService {
	return &EventService{events: events, venues: venues}
}

// List returns events matching the filter, soonest first.
func (s *EventService) List(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	return s.events.List(ctx, f)
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err == repository.ErrEventNotFound {
		return nil, NotFound("Event not found")
	}
	return e, err
}

// Create stores a new event after validating its venue and window.
func (s *EventService) Create(ctx context.Context, e *model.Event) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	err := s.events.Create(ctx, e)
	if err == repository.ErrEventOverlap {
		return Conflict("Event overlaps another event at this venue")
	}
	return err
}

// Update persists event changes under the same invariants as Create.
func (s *EventService) Update(ctx context.Context, e *model.Event) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}
	err := s.events.Update(ctx, e)
	if err == repository.ErrEventOverlap {
		return Conflict("Event overlaps another event at this venue")
	}
	if err == repository.ErrEventNotFound {
		return NotFound("Event not found")
	}
	return err
}

// Delete removes an event. When reservations reference it the row is kept
// and the event degrades to cancelled instead, preserving the audit chain.
func (s *EventService) Delete(ctx context.Context, id uint64) error {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return NotFound("Event not found")
		}
		return err
	}
	hasReservations, err := s.events.HasReservations(ctx, id)
	if err != nil {
		return err
	}
	if hasReservations {
		e.Status = model.EventCancelled
		return s.events.Update(ctx, e)
	}
	return s.events.Delete(ctx, id)
}

func (s *EventService) validate(ctx context.Context, e *model.Event) error {
	if _, err := s.venues.GetByID(ctx, e.VenueID); err != nil {
		if err == repository.ErrVenueNotFound {
			return Unprocessable("Venue not found")
		}
		return err
	}
	if !e.EndsAt.After(e.StartsAt) {
		return Unprocessable("Event must end after it starts")
	}
	return nil
}
