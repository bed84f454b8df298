package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

// seatGridSections is the section layout seats are generated in: sections
// A..K, rows 1..10, numbers 1..20, giving a ceiling of 2200 seats per venue.
var seatGridSections = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"}

const (
	seatGridRows    = 10
	seatGridNumbers = 20
	seatBasePrice   = 1000 // cents, discounted per section and row
)

// VenueService implements venue CRUD with capacity-driven seat
// reconciliation: growing a venue generates seats following the grid
// pattern, shrinking deletes only seats without sale history.
type VenueService struct {
	venues *repository.VenueRepo
	seats  *repository.SeatRepo
}

// NewVenueService wires the venue and seat repositories.
func NewVenueService(venues *repository.VenueRepo, seats *repository.SeatRepo) *VenueService {
	return &VenueService{venues: venues, seats: seats}
}

// List returns all venues ordered by name.
func (s *VenueService) List(ctx context.Context) ([]model.Venue, error) {
	return s.venues.List(ctx)
}

// Get returns one venue.
func (s *VenueService) Get(ctx context.Context, id uint64) (*model.Venue, error) {
	v, err := s.venues.GetByID(ctx, id)
	if err == repository.ErrVenueNotFound {
		return nil, NotFound("Venue not found")
	}
	return v, err
}

// Create stores a venue and generates its initial seat set up to capacity.
func (s *VenueService) Create(ctx context.Context, v *model.Venue) error {
	if err := s.venues.Create(ctx, v); err != nil {
		return err
	}
	return s.syncSeatsToCapacity(ctx, v.ID, int(v.Capacity))
}

// Update persists venue changes and, when capacity changed, reconciles the
// seat set to match.
func (s *VenueService) Update(ctx context.Context, v *model.Venue) error {
	old, err := s.venues.GetByID(ctx, v.ID)
	if err != nil {
		if err == repository.ErrVenueNotFound {
			return NotFound("Venue not found")
		}
		return err
	}
	if err := s.venues.Update(ctx, v); err != nil {
		return err
	}
	if old.Capacity != v.Capacity {
		return s.syncSeatsToCapacity(ctx, v.ID, int(v.Capacity))
	}
	return nil
}

// Delete removes a venue; venues with events are rejected with Conflict.
func (s *VenueService) Delete(ctx context.Context, id uint64) error {
	hasEvents, err := s.venues.HasEvents(ctx, id)
	if err != nil {
		return err
	}
	if hasEvents {
		return Conflict("Cannot delete venue with associated events")
	}
	err = s.venues.Delete(ctx, id)
	if err == repository.ErrVenueNotFound {
		return NotFound("Venue not found")
	}
	return err
}

// syncSeatsToCapacity brings the venue's seat count in line with the target
// capacity. Growth follows the grid pattern skipping positions that already
// exist; shrink deletes newest seats without tickets or reservation items,
// which may leave the venue above target when history protects the rest.
func (s *VenueService) syncSeatsToCapacity(ctx context.Context, venueID uint64, target int) error {
	current, err := s.seats.CountByVenue(ctx, venueID)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}

	if current > target {
		_, err := s.seats.DeleteUnreferenced(ctx, venueID, current-target)
		return err
	}

	existing, err := s.seats.ExistingPositions(ctx, venueID)
	if err != nil {
		return err
	}
	need := target - current
	batch := make([]model.Seat, 0, need)
	for si, section := range seatGridSections {
		for row := 1; row <= seatGridRows; row++ {
			for number := 1; number <= seatGridNumbers; number++ {
				if len(batch) >= need {
					return s.seats.CreateBulk(ctx, batch)
				}
				rowLabel := strconv.Itoa(row)
				key := fmt.Sprintf("%s:%s:%d", section, rowLabel, number)
				if _, ok := existing[key]; ok {
					continue
				}
				price := seatBasePrice - si*10 - row*10
				if price < 0 {
					price = 0
				}
				batch = append(batch, model.Seat{
					VenueID:    venueID,
					Section:    section,
					RowLabel:   rowLabel,
					SeatNumber: uint32(number),
					PriceCents: uint32(price),
				})
			}
		}
	}
	return s.seats.CreateBulk(ctx, batch)
}
