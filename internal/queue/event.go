// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// TicketIssuedEvent is published once per ticket when a reservation is
// confirmed and when a ticket changes hands through a transfer. It carries
// enough for downstream consumers to notify or render the ticket without
// querying the primary database.
type TicketIssuedEvent struct {
	TicketID   uint64 `json:"ticket_id"`
	TicketCode string `json:"ticket_code"`
	SeatID     uint64 `json:"seat_id"`
	Section    string `json:"section"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	EventID    uint64 `json:"event_id"`
	EventName  string `json:"event_name"`
	StartsAt   string `json:"starts_at"`
	UserID     uint64 `json:"user_id"`
	IssuedAt   string `json:"issued_at"`
}
