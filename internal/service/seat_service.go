package service

import (
	"context"
	"time"

	"github.com/seatwise/event-ticketing/internal/metrics"
	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

// SeatService implements seat holds: the block/release pair plus the seat
// listings. A hold is venue-global (one holder per physical seat regardless
// of event) while sold/reserved-for-event checks are event-scoped.
type SeatService struct {
	seats        *repository.SeatRepo
	venues       *repository.VenueRepo
	events       *repository.EventRepo
	reservations *repository.ReservationRepo
	tickets      *repository.TicketRepo
	holdTTL      time.Duration
}

// NewSeatService wires the repositories a hold operation needs. holdTTLMin
// is the hold window in minutes.
func NewSeatService(seats *repository.SeatRepo, venues *repository.VenueRepo, events *repository.EventRepo,
	reservations *repository.ReservationRepo, tickets *repository.TicketRepo, holdTTLMin int) *SeatService {
	return &SeatService{
		seats:        seats,
		venues:       venues,
		events:       events,
		reservations: reservations,
		tickets:      tickets,
		holdTTL:      time.Duration(holdTTLMin) * time.Minute,
	}
}

// Block places a hold on the given seats for the user, all-or-nothing.
// Inside one transaction it locks the seat rows, lazily reclaims lapsed
// holds in place, re-reads, then rejects the whole batch if any seat is
// currently held, already sold for this event, or sits in someone's live
// pending reservation for this event. On success every seat is reserved for
// the user until now+hold window. Returns the blocked seat IDs.
func (s *SeatService) Block(ctx context.Context, seatIDs []uint64, eventID, userID uint64) ([]uint64, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return nil, NotFound("Event not found")
		}
		return nil, err
	}
	now := time.Now().UTC()
	if !now.Before(event.StartsAt) {
		return nil, Unprocessable("Event already started")
	}

	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.seats.LockByIDsTx(ctx, tx, seatIDs); err != nil {
		return nil, err
	}
	if _, err := s.seats.ReclaimExpiredTx(ctx, tx, seatIDs, now); err != nil {
		return nil, err
	}
	// Re-read after reclamation; locks are already held.
	seats, err := s.seats.LockByIDsTx(ctx, tx, seatIDs)
	if err != nil {
		return nil, err
	}

	for _, seat := range seats {
		if seat.Status == model.SeatReserved {
			metrics.SeatBlocks.WithLabelValues("conflict").Inc()
			return nil, Conflict("Seat %d is on hold", seat.ID)
		}
		sold, err := s.tickets.ActiveSoldForEventTx(ctx, tx, seat.ID, eventID)
		if err != nil {
			return nil, err
		}
		if sold {
			metrics.SeatBlocks.WithLabelValues("conflict").Inc()
			return nil, Conflict("Seat %d already sold for this event", seat.ID)
		}
		pending, err := s.reservations.PendingItemExistsTx(ctx, tx, seat.ID, eventID, now)
		if err != nil {
			return nil, err
		}
		if pending {
			metrics.SeatBlocks.WithLabelValues("conflict").Inc()
			return nil, Conflict("Seat %d is reserved for this event", seat.ID)
		}
	}

	blocked := make([]uint64, 0, len(seats))
	for _, seat := range seats {
		blocked = append(blocked, seat.ID)
	}
	if err := s.seats.BlockTx(ctx, tx, blocked, userID, now.Add(s.holdTTL)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	metrics.SeatBlocks.WithLabelValues("ok").Inc()
	return blocked, nil
}

// Release clears holds the user owns on the given seats. Best-effort: seats
// not held by the user are silently skipped and the count of seats actually
// released is returned. Never an error on a no-op.
func (s *SeatService) Release(ctx context.Context, seatIDs []uint64, userID uint64) (int64, error) {
	n, err := s.seats.Release(ctx, seatIDs, userID)
	if err != nil {
		return 0, err
	}
	metrics.SeatsReleased.Add(float64(n))
	return n, nil
}

// ListByVenue returns a venue's seats with their stored venue-global status.
func (s *SeatService) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	if _, err := s.venues.GetByID(ctx, venueID); err != nil {
		if err == repository.ErrVenueNotFound {
			return nil, NotFound("Venue not found")
		}
		return nil, err
	}
	return s.seats.ListByVenue(ctx, venueID)
}

// ListByEvent returns the venue's seats projected onto one event with the
// derived event-scoped status.
func (s *SeatService) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventSeat, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if err == repository.ErrEventNotFound {
			return nil, NotFound("Event not found")
		}
		return nil, err
	}
	return s.seats.ListByEvent(ctx, eventID, time.Now().UTC())
}
