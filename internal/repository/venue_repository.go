package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatwise/event-ticketing/internal/model"
)

// VenueRepo provides CRUD operations for venues.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = `id, name, address, capacity, created_at, updated_at`

func scanVenue(row interface{ Scan(...any) error }) (model.Venue, error) {
	var v model.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create inserts a venue and populates the generated ID and timestamps.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO venues (name, address, capacity) VALUES (?, ?, ?)`,
		v.Name, v.Address, v.Capacity)
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
	*v = *created
	return nil
}

// GetByID returns a venue by primary key or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]model.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return venues, nil
}

// Update persists name, address and capacity changes for a venue.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE venues SET name = ?, address = ?, capacity = ? WHERE id = ?`,
		v.Name, v.Address, v.Capacity, v.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update,
		// so confirm existence explicitly.
		if _, err := r.GetByID(ctx, v.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = *updated
	return nil
}

// HasEvents reports whether any event references the venue.
func (r *VenueRepo) HasEvents(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE venue_id = ?)`, id).Scan(&exists)
	return exists, err
}

// Delete removes a venue. Seats cascade at the database level; venues with
// events are protected by the events FK and surface as an error.
func (r *VenueRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVenueNotFound
	}
	return nil
}
