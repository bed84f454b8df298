package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/seatwise/event-ticketing/internal/model"
)

// SeatRepo provides data access to the seats table. Seat rows are the single
// shared mutable resource contended by all users: every state transition must
// happen inside a transaction holding an exclusive row lock, which is why the
// mutating methods here are Tx-suffixed and take an open *sql.Tx. Timestamps
// are stored and compared in UTC.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle so callers can begin transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, venue_id, section, row_label, seat_number, price_cents, status, reserved_by, reserved_until, created_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (model.Seat, error) {
	var s model.Seat
	var reservedBy sql.NullInt64
	var reservedUntil sql.NullTime
	err := row.Scan(&s.ID, &s.VenueID, &s.Section, &s.RowLabel, &s.SeatNumber,
		&s.PriceCents, &s.Status, &reservedBy, &reservedUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Seat{}, err
	}
	if reservedBy.Valid {
		v := uint64(reservedBy.Int64)
		s.ReservedBy = &v
	}
	if reservedUntil.Valid {
		t := reservedUntil.Time.UTC()
		s.ReservedUntil = &t
	}
	return s, nil
}

// placeholders returns a comma-joined list of n "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// LockByIDsTx loads the requested seats under exclusive row locks. Rows are
// ordered by id so that overlapping multi-seat operations acquire locks in a
// consistent order. Missing ids are simply absent from the result; callers
// compare lengths when existence matters.
func (r *SeatRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + seatColumns + ` FROM seats WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// ReclaimExpiredTx resets seats whose hold has lapsed back to available in
// place. It touches only the given ids and only rows still marked reserved
// with reserved_until in the past, so it is safe to run at the top of any
// operation that has the rows locked. Returns the number of seats reclaimed.
func (r *SeatRepo) ReclaimExpiredTx(ctx context.Context, tx *sql.Tx, ids []uint64, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `) AND status = ? AND reserved_until < ?`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	args = append(args, model.SeatReserved, now.UTC())
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BlockTx places a hold on all given seats at once: status reserved, owner
// and deadline set. The caller must have validated every seat under lock
// first; the batch is all-or-nothing by virtue of the surrounding
// transaction.
func (r *SeatRepo) BlockTx(ctx context.Context, tx *sql.Tx, ids []uint64, userID uint64, until time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, reserved_by = ?, reserved_until = ?
	      WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{model.SeatReserved, userID, until.UTC()}, idArgs(ids)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// Release clears holds on the given seats, but only those currently reserved
// by the calling user. Seats already released, held by someone else or sold
// are silently skipped; the returned count tells the caller how many rows
// actually changed. A single UPDATE keeps this atomic without an explicit
// transaction.
func (r *SeatRepo) Release(ctx context.Context, ids []uint64, userID uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `) AND status = ? AND reserved_by = ?`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	args = append(args, model.SeatReserved, userID)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseByIDsTx unconditionally returns the given seats to available,
// clearing the hold fields. Used by the sweeper, reservation cancellation and
// ticket cancellation, all of which have already decided the seats must be
// freed. Idempotent: releasing an available seat is a no-op update.
func (r *SeatRepo) ReleaseByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// MarkSoldTx flips the given seats to sold and clears the hold fields. This
// is the irreversible sale transition; only confirm() calls it.
func (r *SeatRepo) MarkSoldTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{model.SeatSold}, idArgs(ids)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ListByVenue retrieves all seats of a venue ordered by section, row and
// number. The stored venue-global status is returned as-is.
func (r *SeatRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats WHERE venue_id = ? ORDER BY section, row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// ListByEvent projects the venue's seats onto one event. The stored status is
// venue-global, so the event-scoped status is computed here and never
// persisted: sold when an active ticket of a confirmed reservation for this
// event exists, reserved when a pending non-expired reservation item for this
// event exists or the seat carries a live global hold, available otherwise.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64, now time.Time) ([]model.EventSeat, error) {
	const q = `SELECT s.id, s.venue_id, s.section, s.row_label, s.seat_number, s.price_cents,
	                  CASE
	                    WHEN EXISTS (
	                      SELECT 1 FROM tickets t
	                      JOIN reservations r ON r.id = t.reservation_id
	                      WHERE t.seat_id = s.id AND t.status = 'active'
	                        AND r.event_id = e.id AND r.status = 'confirmed'
	                    ) THEN 'sold'
	                    WHEN EXISTS (
	                      SELECT 1 FROM reservation_items ri
	                      JOIN reservations r ON r.id = ri.reservation_id
	                      WHERE ri.seat_id = s.id AND r.event_id = e.id
	                        AND r.status = 'pending' AND r.expires_at > ?
	                    ) THEN 'reserved'
	                    WHEN s.status = 'reserved' AND s.reserved_until > ? THEN 'reserved'
	                    ELSE 'available'
	                  END
	           FROM seats s
	           JOIN events e ON e.venue_id = s.venue_id
	           WHERE e.id = ?
	           ORDER BY s.section, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), now.UTC(), eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.EventSeat, 0)
	for rows.Next() {
		var s model.EventSeat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.PriceCents, &s.Status); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (venue_id, section, row_label, seat_number, price_cents, status) VALUES `
	args := make([]any, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.VenueID, s.Section, s.RowLabel, s.SeatNumber, s.PriceCents, model.SeatAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// CountByVenue returns the number of seats a venue currently has.
func (r *SeatRepo) CountByVenue(ctx context.Context, venueID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE venue_id = ?`, venueID).Scan(&n)
	return n, err
}

// ExistingPositions returns the occupied section/row/number slots of a venue
// keyed as "section:row:number". Used when growing a venue's seat set to skip
// positions that already exist.
func (r *SeatRepo) ExistingPositions(ctx context.Context, venueID uint64) (map[string]struct{}, error) {
	const q = `SELECT CONCAT(section, ':', row_label, ':', seat_number) FROM seats WHERE venue_id = ?`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUnreferenced removes up to limit seats of a venue that are not
// referenced by any ticket or reservation item, newest first. Seats with
// history are kept even if that leaves the venue above its target capacity.
// Returns the number of seats deleted.
func (r *SeatRepo) DeleteUnreferenced(ctx context.Context, venueID uint64, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}
	const q = `DELETE FROM seats
	           WHERE venue_id = ?
	             AND NOT EXISTS (SELECT 1 FROM tickets t WHERE t.seat_id = seats.id)
	             AND NOT EXISTS (SELECT 1 FROM reservation_items ri WHERE ri.seat_id = seats.id)
	           ORDER BY id DESC
	           LIMIT ?`
	res, err := r.db.ExecContext(ctx, q, venueID, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
