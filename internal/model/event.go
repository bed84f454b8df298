package model

import "time"

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
	EventArchived  = "archived"
)

// Event is a scheduled happening at a venue. Seats are selected for an event
// through venue membership only; there is no event-seat table. EndsAt must be
// after StartsAt and two events at the same venue may not have overlapping
// [StartsAt, EndsAt) windows; both rules are enforced at write time.
type Event struct {
	ID          uint64    `json:"id"`
	VenueID     uint64    `json:"venue_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"start_date"`
	EndsAt      time.Time `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
