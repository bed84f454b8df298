package service

import (
	"context"
	"time"

	"github.com/seatwise/event-ticketing/internal/metrics"
	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/queue"
	"github.com/seatwise/event-ticketing/internal/repository"
)

// TicketService implements the post-sale ticket lifecycle: listing, viewing,
// transferring to another user and cancelling within the allowed window.
type TicketService struct {
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
	seats        *repository.SeatRepo
	users        *repository.UserRepo
	cancelWindow time.Duration
}

// NewTicketService wires the ticket lifecycle. cancelMinHours is the minimum
// number of hours before event start a cancellation is still allowed.
func NewTicketService(tickets *repository.TicketRepo, reservations *repository.ReservationRepo,
	seats *repository.SeatRepo, users *repository.UserRepo, cancelMinHours int) *TicketService {
	return &TicketService{
		tickets:      tickets,
		reservations: reservations,
		seats:        seats,
		users:        users,
		cancelWindow: time.Duration(cancelMinHours) * time.Hour,
	}
}

// List returns the user's tickets, optionally filtered by status and event.
func (s *TicketService) List(ctx context.Context, userID uint64, f repository.TicketFilter) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID, f)
}

// Get returns a single ticket. Tickets of other users are invisible and
// report not found.
func (s *TicketService) Get(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
	t, ownerID, err := s.tickets.GetDetail(ctx, ticketID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return nil, NotFound("Ticket not found")
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, NotFound("Ticket not found")
	}
	return t, nil
}

// Transfer hands a ticket to the user registered under the given email. The
// caller must own the ticket, the ticket must be active or transferred, and
// the event must not have started. Under the ticket's row lock a brand-new
// confirmed reservation is created for the recipient with one item mirroring
// the original snapshot price (falling back to the seat's current price),
// and the ticket is re-parented onto it with status transferred. The seat
// stays sold; only the ownership chain changes. The old reservation is kept
// for audit.
func (s *TicketService) Transfer(ctx context.Context, ticketID, userID uint64, email string) (*model.Ticket, error) {
	recipient, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, Unprocessable("User with email '%s' not found", email)
		}
		return nil, err
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

	t, ownerID, err := s.tickets.GetDetailForUpdateTx(ctx, tx, ticketID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return nil, NotFound("Ticket not found")
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, Forbidden("You do not own this ticket")
	}
	if t.Status != model.TicketActive && t.Status != model.TicketTransferred {
		return nil, Unprocessable("Ticket is not transferable")
	}
	now := time.Now().UTC()
	if !now.Before(t.Event.StartsAt) {
		return nil, Unprocessable("Event already started")
	}

	price, ok, err := s.tickets.ItemPriceTx(ctx, tx, t.ReservationID, t.SeatID)
	if err != nil {
		return nil, err
	}
	if !ok && t.Seat != nil {
		price = t.Seat.PriceCents
	}

	newRezID, err := s.tickets.CreateHolderReservationTx(ctx, tx, recipient.ID, t.Event.ID, price)
	if err != nil {
		return nil, err
	}
	item := []model.ReservationItem{{ReservationID: newRezID, SeatID: t.SeatID, PriceCents: price}}
	if err := s.reservations.CreateItemsBulkTx(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := s.tickets.ReassignTx(ctx, tx, ticketID, newRezID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	metrics.TicketsTransferred.Inc()

	updated, _, err := s.tickets.GetDetail(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.publishIssued(ctx, updated, recipient.ID)
	return updated, nil
}

// Cancel voids a ticket and releases its seat back to available. Allowed
// only to the owner, on active or transferred tickets, and no later than the
// cancellation window before event start.
func (s *TicketService) Cancel(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
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

	t, ownerID, err := s.tickets.GetDetailForUpdateTx(ctx, tx, ticketID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return nil, NotFound("Ticket not found")
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, Forbidden("You do not own this ticket")
	}
	if t.Status != model.TicketActive && t.Status != model.TicketTransferred {
		return nil, Unprocessable("Ticket cannot be cancelled")
	}
	now := time.Now().UTC()
	if t.Event.StartsAt.Sub(now) < s.cancelWindow {
		return nil, Unprocessable("Tickets can only be cancelled at least %d hours before the event",
			int(s.cancelWindow/time.Hour))
	}

	if err := s.tickets.UpdateStatusTx(ctx, tx, ticketID, model.TicketCancelled); err != nil {
		return nil, err
	}
	// Releasing an already-available seat is idempotent.
	if err := s.seats.ReleaseByIDsTx(ctx, tx, []uint64{t.SeatID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	metrics.TicketsCancelled.Inc()

	updated, _, err := s.tickets.GetDetail(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TicketService) publishIssued(ctx context.Context, t *model.Ticket, userID uint64) {
	ev := queue.TicketIssuedEvent{
		TicketID:   t.ID,
		TicketCode: t.TicketCode,
		SeatID:     t.SeatID,
		UserID:     userID,
		IssuedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if t.Seat != nil {
		ev.Section = t.Seat.Section
		ev.RowLabel = t.Seat.RowLabel
		ev.SeatNumber = t.Seat.SeatNumber
	}
	if t.Event != nil {
		ev.EventID = t.Event.ID
		ev.EventName = t.Event.Name
		ev.StartsAt = t.Event.StartsAt.Format(time.RFC3339)
	}
	_ = queue.PublishTicketIssued(ctx, ev)
}
