// Package service implements the seat lifecycle business rules on top of the
// repository layer. Every operation validates inside the transaction that
// holds the relevant row locks and returns a typed *Error on any rule
// violation; handlers translate these into HTTP responses.
package service

import (
	"fmt"
	"net/http"
)

// Error is a domain failure with the HTTP status it maps to. The taxonomy is
// small and fixed: not found, conflict (legal-state violation under
// concurrency), forbidden (ownership mismatch) and unprocessable
// (business-rule violation not about concurrency).
type Error struct {
	Status  int
	Message string

	// ReservationID names an existing reservation when the conflict is a
	// duplicate of one the caller already owns, so clients can recover
	// idempotently instead of retrying blind. Zero when not applicable.
	ReservationID uint64
}

func (e *Error) Error() string { return e.Message }

// NotFound builds a 404 domain error.
func NotFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a 409 domain error.
func Conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a 403 domain error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unprocessable builds a 422 domain error.
func Unprocessable(format string, args ...any) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...)}
}
