package model

import "time"

// Venue owns a set of seats. Capacity is the target seat count; changing it
// triggers seat-set reconciliation (generate or delete seats) on update.
type Venue struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Capacity  uint32    `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
