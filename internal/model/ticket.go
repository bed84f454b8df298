package model

import "time"

// Ticket statuses.
const (
	TicketActive      = "active"
	TicketCancelled   = "cancelled"
	TicketUsed        = "used"
	TicketTransferred = "transferred"
)

// Ticket is the immutable proof of sale minted when a reservation is
// confirmed: exactly one per seat. Transferring re-parents the ticket to a
// fresh confirmed reservation owned by the recipient; the seat stays sold.
type Ticket struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"rezervation_id"`
	SeatID        uint64    `json:"seat_id"`
	TicketCode    string    `json:"ticket_code"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Seat          *Seat     `json:"seat,omitempty"`
	Event         *Event    `json:"event,omitempty"`
}
