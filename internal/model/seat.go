package model

import "time"

// Seat statuses. A seat's stored status is venue-global: a seat reserved for
// one event is unavailable for every other event at the same venue until the
// hold lapses. Event-scoped status (what a given event's seat map shows) is
// derived at query time and never persisted.
const (
	SeatAvailable = "available"
	SeatReserved  = "reserved"
	SeatSold      = "sold"
)

// Seat is a physical seat belonging to a venue. Section, RowLabel and
// SeatNumber identify its position. ReservedBy and ReservedUntil are set
// together while a hold is active; status "reserved" without a future
// ReservedUntil is a transient state reclaimed lazily on the next touch.
type Seat struct {
	ID            uint64     `json:"id"`
	VenueID       uint64     `json:"venue_id"`
	Section       string     `json:"section"`
	RowLabel      string     `json:"row"`
	SeatNumber    uint32     `json:"number"`
	PriceCents    uint32     `json:"price_cents"`
	Status        string     `json:"status"`
	ReservedBy    *uint64    `json:"reserved_by,omitempty"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EventSeat is a seat projected onto one event: Status carries the derived
// event-scoped value (sold / reserved / available for that event) instead of
// the stored venue-global one.
type EventSeat struct {
	ID         uint64 `json:"id"`
	VenueID    uint64 `json:"venue_id"`
	Section    string `json:"section"`
	RowLabel   string `json:"row"`
	SeatNumber uint32 `json:"number"`
	PriceCents uint32 `json:"price_cents"`
	Status     string `json:"status"`
}
