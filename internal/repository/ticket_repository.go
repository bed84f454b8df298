package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatwise/event-ticketing/internal/model"
)

// TicketRepo provides data access for tickets. Tickets are minted when a
// reservation is confirmed and afterwards live their own lifecycle
// (active, used, cancelled, transferred).
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, reservation_id, seat_id, ticket_code, status, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.ReservationID, &t.SeatID, &t.TicketCode, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateBulkTx mints one ticket per item inside the confirm transaction.
// Codes must be generated by the caller before insertion.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (reservation_id, seat_id, ticket_code, status) VALUES `
	args := make([]any, 0, len(tickets)*4)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, t.ReservationID, t.SeatID, t.TicketCode, t.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ticketDetailQuery joins a ticket to its seat, reservation and event.
const ticketDetailQuery = `SELECT t.id, t.reservation_id, t.seat_id, t.ticket_code, t.status, t.created_at, t.updated_at,
	       ` + `s.id, s.venue_id, s.section, s.row_label, s.seat_number, s.price_cents, s.status,
	       e.id, e.venue_id, e.name, e.description, e.starts_at, e.ends_at, e.status, e.created_at, e.updated_at,
	       r.user_id
	FROM tickets t
	JOIN seats s ON s.id = t.seat_id
	JOIN reservations r ON r.id = t.reservation_id
	JOIN events e ON e.id = r.event_id`

func scanTicketDetail(row interface{ Scan(...any) error }) (model.Ticket, uint64, error) {
	var t model.Ticket
	var s model.Seat
	var e model.Event
	var ownerID uint64
	err := row.Scan(&t.ID, &t.ReservationID, &t.SeatID, &t.TicketCode, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&s.ID, &s.VenueID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.PriceCents, &s.Status,
		&e.ID, &e.VenueID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		&ownerID)
	if err != nil {
		return t, 0, err
	}
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = e.EndsAt.UTC()
	t.Seat = &s
	t.Event = &e
	return t, ownerID, nil
}

// GetDetail loads a ticket with its seat and event, plus the owning user ID
// from the underlying reservation. Returns ErrTicketNotFound when absent.
func (r *TicketRepo) GetDetail(ctx context.Context, id uint64) (*model.Ticket, uint64, error) {
	row := r.db.QueryRowContext(ctx, ticketDetailQuery+` WHERE t.id = ?`, id)
	t, ownerID, err := scanTicketDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrTicketNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return &t, ownerID, nil
}

// GetDetailForUpdateTx is GetDetail under an exclusive lock on the ticket
// row. Transfer and cancel lock the ticket so concurrent settlements of the
// same ticket serialize.
func (r *TicketRepo) GetDetailForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, uint64, error) {
	row := tx.QueryRowContext(ctx, ticketDetailQuery+` WHERE t.id = ? FOR UPDATE`, id)
	t, ownerID, err := scanTicketDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrTicketNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return &t, ownerID, nil
}

// TicketFilter narrows ListByUser results. Zero values mean no filtering.
type TicketFilter struct {
	Status  string
	EventID uint64
}

// ListByUser returns the user's tickets newest first with seat and event
// attached.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64, f TicketFilter) ([]model.Ticket, error) {
	q := ticketDetailQuery + ` WHERE r.user_id = ?`
	args := []any{userID}
	if f.Status != "" {
		q += ` AND t.status = ?`
		args = append(args, f.Status)
	}
	if f.EventID != 0 {
		q += ` AND e.id = ?`
		args = append(args, f.EventID)
	}
	q += ` ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		t, _, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateStatusTx sets a ticket's status inside the caller's transaction.
func (r *TicketRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE tickets SET status = ? WHERE id = ?`, status, id)
	return err
}

// ReassignTx re-parents a ticket onto another reservation and marks it
// transferred. The old reservation keeps its rows for audit.
func (r *TicketRepo) ReassignTx(ctx context.Context, tx *sql.Tx, id, newReservationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tickets SET reservation_id = ?, status = ? WHERE id = ?`,
		newReservationID, model.TicketTransferred, id)
	return err
}

// ItemPriceTx returns the snapshotted item price for a (reservation, seat)
// pair. ok is false when no item exists, in which case callers fall back to
// the seat's current price.
func (r *TicketRepo) ItemPriceTx(ctx context.Context, tx *sql.Tx, reservationID, seatID uint64) (uint32, bool, error) {
	var price uint32
	err := tx.QueryRowContext(ctx,
		`SELECT price_cents FROM reservation_items WHERE reservation_id = ? AND seat_id = ? LIMIT 1`,
		reservationID, seatID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

// ActiveSoldForEventTx reports whether a seat is already sold for an event:
// an active ticket attached to a confirmed reservation for that event.
// Runs inside the caller's transaction so block() sees a consistent answer
// while holding the seat lock.
func (r *TicketRepo) ActiveSoldForEventTx(ctx context.Context, tx *sql.Tx, seatID, eventID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM tickets t
	             JOIN reservations r ON r.id = t.reservation_id
	             WHERE t.seat_id = ? AND t.status = 'active'
	               AND r.event_id = ? AND r.status = 'confirmed'
	           )`
	var exists bool
	err := tx.QueryRowContext(ctx, q, seatID, eventID).Scan(&exists)
	return exists, err
}

// CreateHolderReservationTx inserts a confirmed reservation that anchors a
// transferred ticket under its new owner. Transfer needs the ticket to point
// at a reservation of the recipient; rather than rewriting history on the
// original reservation, a fresh confirmed one is created with no expiry.
func (r *TicketRepo) CreateHolderReservationTx(ctx context.Context, tx *sql.Tx, userID, eventID uint64, amountCents uint32) (uint64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, event_id, status, total_amount_cents, expires_at) VALUES (?, ?, ?, ?, NULL)`,
		userID, eventID, model.ReservationConfirmed, amountCents)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CodeExists reports whether a ticket code is already in use. The service
// regenerates on collision before inserting.
func (r *TicketRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_code = ?)`, code).Scan(&exists)
	return exists, err
}
