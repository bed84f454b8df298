// Package repository defines data access for the ticketing tables. Sentinel
// errors declared here are shared across repositories so higher layers can
// distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrVenueNotFound is returned when a venue lookup yields no rows.
var ErrVenueNotFound = errors.New("venue not found")

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering with an email that already
// exists. Handlers should translate this into an HTTP 409 response.
var ErrEmailTaken = errors.New("email already registered")

// ErrEventOverlap is returned when an event write would overlap another
// event's [starts_at, ends_at) window at the same venue.
var ErrEventOverlap = errors.New("event overlaps another event at this venue")
