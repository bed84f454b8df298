package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seatwise/event-ticketing/internal/model"
)

// ReservationRepo provides data access for reservations and their items. A
// reservation groups one or more seats of a single event for a user; items
// snapshot the seat price at reservation time. All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, event_id, status, total_amount_cents, expires_at, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var res model.Reservation
	var expires sql.NullTime
	err := row.Scan(&res.ID, &res.UserID, &res.EventID, &res.Status, &res.TotalAmountCents,
		&expires, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if expires.Valid {
		t := expires.Time.UTC()
		res.ExpiresAt = &t
	}
	return res, nil
}

// CreateTx inserts a pending reservation within the caller's transaction and
// populates the generated ID and timestamps on the given record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, event_id, status, total_amount_cents, expires_at) VALUES (?, ?, ?, ?, ?)`
	var expires any
	if res.ExpiresAt != nil {
		expires = res.ExpiresAt.UTC()
	}
	result, err := tx.ExecContext(ctx, q, res.UserID, res.EventID, res.Status, res.TotalAmountCents, expires)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID)
	full, err := scanReservation(row)
	if err != nil {
		return err
	}
	items := res.Items
	*res = full
	res.Items = items
	return nil
}

// CreateItemsBulkTx inserts the reservation's items in one statement. Each
// item must carry the reservation ID, seat ID and snapshotted price.
func (r *ReservationRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_items (reservation_id, seat_id, price_cents) VALUES `
	args := make([]any, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, it.ReservationID, it.SeatID, it.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUpdateTx loads a reservation under an exclusive row lock. Confirm,
// cancel and the expiry sweeper all take this lock first so only one of them
// can settle a given reservation. Returns sql.ErrNoRows when absent.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SeatIDsTx returns the seat IDs of a reservation's items, ordered by seat
// ID so callers lock seats in a deterministic order.
func (r *ReservationRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM reservation_items WHERE reservation_id = ? ORDER BY seat_id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ItemsTx returns a reservation's items inside the caller's transaction,
// ordered by seat ID so confirm locks and mints in a stable order.
func (r *ReservationRepo) ItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.ReservationItem, error) {
	const q = `SELECT id, reservation_id, seat_id, price_cents, created_at
	           FROM reservation_items WHERE reservation_id = ? ORDER BY seat_id`
	rows, err := tx.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.ReservationItem
	for rows.Next() {
		var it model.ReservationItem
		if err := rows.Scan(&it.ID, &it.ReservationID, &it.SeatID, &it.PriceCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// PendingItemExistsTx reports whether a seat already sits in a live pending
// reservation for the given event. Used to reject double-reserving a seat
// the caller still holds from an earlier pending reservation.
func (r *ReservationRepo) PendingItemExistsTx(ctx context.Context, tx *sql.Tx, seatID, eventID uint64, now time.Time) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM reservation_items ri
	             JOIN reservations r ON r.id = ri.reservation_id
	             WHERE ri.seat_id = ? AND r.event_id = ?
	               AND r.status = 'pending' AND r.expires_at > ?
	           )`
	var exists bool
	err := tx.QueryRowContext(ctx, q, seatID, eventID, now.UTC()).Scan(&exists)
	return exists, err
}

// DuplicatePendingForUserTx reports whether any of the seats already appears
// in one of the user's own pending reservations. Returns the offending seat
// and reservation when found so the error can name them.
func (r *ReservationRepo) DuplicatePendingForUserTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, userID uint64) (seatID, reservationID uint64, found bool, err error) {
	if len(seatIDs) == 0 {
		return 0, 0, false, nil
	}
	q := `SELECT ri.seat_id, ri.reservation_id
	      FROM reservation_items ri
	      JOIN reservations r ON r.id = ri.reservation_id
	      WHERE ri.seat_id IN (` + placeholders(len(seatIDs)) + `)
	        AND r.user_id = ? AND r.status = 'pending'
	      LIMIT 1`
	args := append(idArgs(seatIDs), userID)
	err = tx.QueryRowContext(ctx, q, args...).Scan(&seatID, &reservationID)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return seatID, reservationID, true, nil
}

// UpdateStatusTx moves a reservation to a terminal status inside the
// caller's transaction, clearing the expiry deadline.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, expires_at = NULL WHERE id = ?`, status, id)
	return err
}

// ListByUser returns the user's reservations newest first, each with its
// event and items populated.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		res.Items = []model.ReservationItem{}
		index[res.ID] = len(reservations)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(reservations) == 0 {
		return reservations, nil
	}
	if err := r.attachEvents(ctx, reservations); err != nil {
		return nil, err
	}
	// Load items for all reservations in one query.
	ids := make([]uint64, 0, len(reservations))
	for _, res := range reservations {
		ids = append(ids, res.ID)
	}
	q := `SELECT ri.id, ri.reservation_id, ri.seat_id, ri.price_cents, ri.created_at,
	             ` + seatColumnsPrefixed("s") + `
	      FROM reservation_items ri
	      JOIN seats s ON s.id = ri.seat_id
	      WHERE ri.reservation_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY ri.reservation_id, s.section, s.row_label, s.seat_number`
	irows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		it, seat, err := scanItemWithSeat(irows)
		if err != nil {
			return nil, err
		}
		idx, ok := index[it.ReservationID]
		if !ok {
			continue
		}
		it.Seat = &seat
		reservations[idx].Items = append(reservations[idx].Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// GetByIDForUser returns a single reservation with event and items,
// restricted to the owning user. Returns sql.ErrNoRows when the reservation
// does not exist or belongs to someone else.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? AND user_id = ?`, id, userID)
	res, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	res.Items = []model.ReservationItem{}
	out := []model.Reservation{res}
	if err := r.attachEvents(ctx, out); err != nil {
		return nil, err
	}
	q := `SELECT ri.id, ri.reservation_id, ri.seat_id, ri.price_cents, ri.created_at,
	             ` + seatColumnsPrefixed("s") + `
	      FROM reservation_items ri
	      JOIN seats s ON s.id = ri.seat_id
	      WHERE ri.reservation_id = ?
	      ORDER BY s.section, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, res.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		it, seat, err := scanItemWithSeat(rows)
		if err != nil {
			return nil, err
		}
		it.Seat = &seat
		out[0].Items = append(out[0].Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListExpiredIDs returns IDs of pending reservations whose deadline has
// passed, oldest first. The sweeper settles each one in its own transaction
// so a crash mid-sweep leaves the rest intact.
func (r *ReservationRepo) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM reservations
	           WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < ?
	           ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// attachEvents fills in the Event pointer on each reservation.
func (r *ReservationRepo) attachEvents(ctx context.Context, reservations []model.Reservation) error {
	seen := make(map[uint64][]int)
	ids := make([]uint64, 0)
	for i, res := range reservations {
		if _, ok := seen[res.EventID]; !ok {
			ids = append(ids, res.EventID)
		}
		seen[res.EventID] = append(seen[res.EventID], i)
	}
	if len(ids) == 0 {
		return nil
	}
	q := `SELECT ` + eventColumns + ` FROM events WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return err
		}
		for _, i := range seen[e.ID] {
			ev := e
			reservations[i].Event = &ev
		}
	}
	return rows.Err()
}

func seatColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.venue_id, ` + alias + `.section, ` + alias + `.row_label, ` +
		alias + `.seat_number, ` + alias + `.price_cents, ` + alias + `.status, ` +
		alias + `.reserved_by, ` + alias + `.reserved_until, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanItemWithSeat(rows *sql.Rows) (model.ReservationItem, model.Seat, error) {
	var it model.ReservationItem
	var s model.Seat
	var reservedBy sql.NullInt64
	var reservedUntil sql.NullTime
	err := rows.Scan(&it.ID, &it.ReservationID, &it.SeatID, &it.PriceCents, &it.CreatedAt,
		&s.ID, &s.VenueID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.PriceCents, &s.Status,
		&reservedBy, &reservedUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return it, s, err
	}
	if reservedBy.Valid {
		v := uint64(reservedBy.Int64)
		s.ReservedBy = &v
	}
	if reservedUntil.Valid {
		t := reservedUntil.Time.UTC()
		s.ReservedUntil = &t
	}
	return it, s, nil
}
