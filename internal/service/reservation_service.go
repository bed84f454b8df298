package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/seatwise/event-ticketing/internal/metrics"
	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/queue"
	"github.com/seatwise/event-ticketing/internal/repository"
	"github.com/seatwise/event-ticketing/internal/utils"
)

// ReservationService implements the store/confirm/cancel lifecycle of a
// reservation. Store converts the caller's seat holds into a pending
// reservation with a deadline; confirm settles it into sold seats and
// tickets; cancel releases everything while still pending.
type ReservationService struct {
	reservations *repository.ReservationRepo
	seats        *repository.SeatRepo
	events       *repository.EventRepo
	tickets      *repository.TicketRepo
	users        *repository.UserRepo
	reserveTTL   time.Duration
}

// NewReservationService wires the repositories the reservation lifecycle
// needs. reserveTTLMin is the pending window in minutes.
func NewReservationService(reservations *repository.ReservationRepo, seats *repository.SeatRepo,
	events *repository.EventRepo, tickets *repository.TicketRepo, users *repository.UserRepo,
	reserveTTLMin int) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		seats:        seats,
		events:       events,
		tickets:      tickets,
		users:        users,
		reserveTTL:   time.Duration(reserveTTLMin) * time.Minute,
	}
}

// Store creates a pending reservation from seats the user currently holds.
// Every seat must be reserved by the caller with a live hold, belong to the
// event's venue, and not already sit in one of the caller's pending
// reservations. Item prices snapshot the seat price at this moment.
func (s *ReservationService) Store(ctx context.Context, userID, eventID uint64, seatIDs []uint64) (*model.Reservation, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return nil, NotFound("Event not found")
		}
		return nil, err
	}
	now := time.Now().UTC()
	if event.Status != model.EventPublished {
		return nil, Unprocessable("Event is not published")
	}
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

	seats, err := s.seats.LockByIDsTx(ctx, tx, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, NotFound("Some seats not found")
	}

	venueID := seats[0].VenueID
	for _, seat := range seats {
		if seat.VenueID != venueID {
			return nil, Unprocessable("Selected seats must belong to the same venue")
		}
	}
	if venueID != event.VenueID {
		return nil, Unprocessable("Seats do not belong to the given event")
	}

	dupSeat, dupRez, found, err := s.reservations.DuplicatePendingForUserTx(ctx, tx, seatIDs, userID)
	if err != nil {
		return nil, err
	}
	if found {
		derr := Conflict("Seat %d already exists in your pending reservation", dupSeat)
		derr.ReservationID = dupRez
		return nil, derr
	}

	for _, seat := range seats {
		if seat.Status != model.SeatReserved {
			return nil, Conflict("Seat %d is not reserved", seat.ID)
		}
		if seat.ReservedBy == nil || *seat.ReservedBy != userID {
			return nil, Forbidden("Seat %d reserved by another user", seat.ID)
		}
		if seat.ReservedUntil != nil && now.After(*seat.ReservedUntil) {
			return nil, Conflict("Seat %d hold expired", seat.ID)
		}
	}

	var total uint32
	for _, seat := range seats {
		total += seat.PriceCents
	}

	expires := now.Add(s.reserveTTL)
	rez := &model.Reservation{
		UserID:           userID,
		EventID:          eventID,
		Status:           model.ReservationPending,
		TotalAmountCents: total,
		ExpiresAt:        &expires,
	}
	if err := s.reservations.CreateTx(ctx, tx, rez); err != nil {
		return nil, err
	}
	items := make([]model.ReservationItem, 0, len(seats))
	for _, seat := range seats {
		items = append(items, model.ReservationItem{
			ReservationID: rez.ID,
			SeatID:        seat.ID,
			PriceCents:    seat.PriceCents,
		})
	}
	if err := s.reservations.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	metrics.ReservationsCreated.Inc()

	return s.reservations.GetByIDForUser(ctx, rez.ID, userID)
}

// Confirm settles a pending reservation: under locks on the reservation row
// and then its seats (sorted by ID), it re-validates every hold, flips the
// seats to sold, mints one active ticket per seat and marks the reservation
// confirmed. Idempotent rejection: confirming a settled reservation returns
// Conflict without minting anything.
func (s *ReservationService) Confirm(ctx context.Context, reservationID, userID uint64) (*model.Reservation, []model.Ticket, error) {
	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rez, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, NotFound("Reservation not found")
	}
	if err != nil {
		return nil, nil, err
	}
	if rez.UserID != userID {
		return nil, nil, NotFound("Reservation not found")
	}
	if rez.Status != model.ReservationPending {
		return nil, nil, Conflict("Reservation is not pending")
	}

	event, err := s.events.GetForSeatsTx(ctx, tx, rez.EventID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	if event.Status != model.EventPublished {
		return nil, nil, Unprocessable("Event is not published")
	}
	if !now.Before(event.StartsAt) {
		return nil, nil, Unprocessable("Event already started")
	}
	if rez.ExpiresAt != nil && now.After(*rez.ExpiresAt) {
		return nil, nil, Conflict("Reservation expired")
	}

	items, err := s.reservations.ItemsTx(ctx, tx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	seatIDs := make([]uint64, 0, len(items))
	for _, it := range items {
		seatIDs = append(seatIDs, it.SeatID)
	}
	seats, err := s.seats.LockByIDsTx(ctx, tx, seatIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, seat := range seats {
		if seat.Status != model.SeatReserved {
			return nil, nil, Conflict("Seat %d is not reserved", seat.ID)
		}
		if seat.ReservedBy == nil || *seat.ReservedBy != userID {
			return nil, nil, Forbidden("Seat %d reserved by another user", seat.ID)
		}
		if seat.ReservedUntil != nil && now.After(*seat.ReservedUntil) {
			return nil, nil, Conflict("Seat %d hold expired", seat.ID)
		}
	}

	if err := s.seats.MarkSoldTx(ctx, tx, seatIDs); err != nil {
		return nil, nil, err
	}

	tickets := make([]model.Ticket, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		code, err := s.newUniqueCode(ctx)
		if err != nil {
			return nil, nil, err
		}
		tickets = append(tickets, model.Ticket{
			ReservationID: reservationID,
			SeatID:        seatID,
			TicketCode:    code,
			Status:        model.TicketActive,
		})
	}
	if err := s.tickets.CreateBulkTx(ctx, tx, tickets); err != nil {
		return nil, nil, err
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.ReservationConfirmed); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	metrics.ReservationsConfirmed.Inc()
	metrics.TicketsIssued.Add(float64(len(tickets)))

	full, err := s.reservations.GetByIDForUser(ctx, reservationID, userID)
	if err != nil {
		return nil, nil, err
	}
	// Reload tickets with IDs and publish one event per ticket. Broker
	// failures must not fail the confirmation.
	issued, err := s.tickets.ListByUser(ctx, userID, repository.TicketFilter{EventID: rez.EventID})
	if err == nil {
		byCode := make(map[string]model.Ticket, len(issued))
		for _, t := range issued {
			byCode[t.TicketCode] = t
		}
		for i := range tickets {
			if t, ok := byCode[tickets[i].TicketCode]; ok {
				tickets[i] = t
				s.publishIssued(ctx, t, userID, full.Event)
			}
		}
	}
	return full, tickets, nil
}

// Cancel voids a pending reservation, releasing its seats back to
// available. Settled reservations are rejected.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, userID uint64) error {
	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rez, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound("Reservation not found")
	}
	if err != nil {
		return err
	}
	if rez.UserID != userID {
		return NotFound("Reservation not found")
	}
	if rez.Status != model.ReservationPending {
		return Conflict("Only pending reservations can be cancelled")
	}

	seatIDs, err := s.reservations.SeatIDsTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if err := s.seats.ReleaseByIDsTx(ctx, tx, seatIDs); err != nil {
		return err
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.ReservationCancelled); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns the user's reservations newest first.
func (s *ReservationService) List(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// Get returns a single reservation visible to the user.
func (s *ReservationService) Get(ctx context.Context, reservationID, userID uint64) (*model.Reservation, error) {
	rez, err := s.reservations.GetByIDForUser(ctx, reservationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Reservation not found")
	}
	if err != nil {
		return nil, err
	}
	return rez, nil
}

// newUniqueCode generates a ticket code, regenerating on the (rare)
// collision with an existing one.
func (s *ReservationService) newUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.NewTicketCode()
		if err != nil {
			return "", err
		}
		exists, err := s.tickets.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique ticket code")
}

func (s *ReservationService) publishIssued(ctx context.Context, t model.Ticket, userID uint64, event *model.Event) {
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
	if event != nil {
		ev.EventID = event.ID
		ev.EventName = event.Name
		ev.StartsAt = event.StartsAt.Format(time.RFC3339)
	}
	_ = queue.PublishTicketIssued(ctx, ev)
}
