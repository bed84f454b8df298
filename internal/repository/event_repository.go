package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatwise/event-ticketing/internal/model"
)

// EventRepo provides CRUD operations for events. Events belong to a venue
// and two events at the same venue may never overlap in time; the overlap
// check lives here so both create and update share it.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, venue_id, name, description, starts_at, ends_at, status, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.VenueID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt,
		&e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = e.EndsAt.UTC()
	return e, nil
}

// overlapExists reports whether another event at the same venue intersects
// the [startsAt, endsAt) window. excludeID ignores the event being updated.
func (r *EventRepo) overlapExists(ctx context.Context, e *model.Event, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM events
	             WHERE venue_id = ? AND id <> ? AND status <> 'cancelled'
	               AND starts_at < ? AND ends_at > ?
	           )`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, e.VenueID, excludeID, e.EndsAt.UTC(), e.StartsAt.UTC()).Scan(&exists)
	return exists, err
}

// Create inserts an event after verifying the venue window is free. Returns
// ErrEventOverlap when another event at the venue intersects the window.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	overlap, err := r.overlapExists(ctx, e, 0)
	if err != nil {
		return err
	}
	if overlap {
		return ErrEventOverlap
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (venue_id, name, description, starts_at, ends_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		e.VenueID, e.Name, e.Description, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

// GetByID returns an event by primary key or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventFilter narrows List results. Zero values mean no filtering.
type EventFilter struct {
	Status   string
	VenueID  uint64
	Upcoming bool
}

// List returns events matching the filter ordered by start time ascending.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.VenueID != 0 {
		q += ` AND venue_id = ?`
		args = append(args, f.VenueID)
	}
	if f.Upcoming {
		q += ` AND starts_at > UTC_TIMESTAMP()`
	}
	q += ` ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Update persists changes to an event, re-checking the overlap invariant
// against all other events at the venue.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	overlap, err := r.overlapExists(ctx, e, e.ID)
	if err != nil {
		return err
	}
	if overlap {
		return ErrEventOverlap
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET name = ?, description = ?, starts_at = ?, ends_at = ?, status = ? WHERE id = ?`,
		e.Name, e.Description, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Status, e.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *updated
	return nil
}

// HasReservations reports whether any reservation references the event.
func (r *EventRepo) HasReservations(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE event_id = ?)`, id).Scan(&exists)
	return exists, err
}

// Delete removes an event. Reservations referencing it block deletion at
// the FK level.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// GetForSeatsTx loads the event a block/reserve operation targets, inside
// the caller's transaction so its start time is read under the same
// snapshot as the locked seats.
func (r *EventRepo) GetForSeatsTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
