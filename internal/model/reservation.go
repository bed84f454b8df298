package model

import "time"

// Reservation statuses. Confirmed and cancelled are terminal; expired is set
// only by the sweeper when a pending reservation outlives its expiry.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationExpired   = "expired"
)

// Reservation aggregates a user's held seats for one event. It is created
// pending with a 15-minute expiry; ExpiresAt is cleared on confirmation.
type Reservation struct {
	ID               uint64            `json:"id"`
	UserID           uint64            `json:"user_id"`
	EventID          uint64            `json:"event_id"`
	Status           string            `json:"status"`
	TotalAmountCents uint32            `json:"total_amount_cents"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Items            []ReservationItem `json:"items,omitempty"`
	Event            *Event            `json:"event,omitempty"`
}

// ReservationItem snapshots one seat within a reservation. PriceCents is the
// seat price captured at reservation time; later seat price changes do not
// affect it.
type ReservationItem struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"rezervation_id"`
	SeatID        uint64    `json:"seat_id"`
	PriceCents    uint32    `json:"price_cents"`
	CreatedAt     time.Time `json:"created_at"`
	Seat          *Seat     `json:"seat,omitempty"`
}
