package utils

import "crypto/rand"

const ticketCodeLen = 10

const ticketCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTicketCode returns a random 10-character uppercase alphanumeric ticket
// code. Uniqueness is enforced by the database; callers regenerate on
// collision.
func NewTicketCode() (string, error) {
	// Bytes at or above 252 (the largest multiple of 36 under 256) are
	// discarded so every alphabet character is equally likely.
	const limit = 252
	out := make([]byte, 0, ticketCodeLen)
	buf := make([]byte, ticketCodeLen)
	for len(out) < ticketCodeLen {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, ticketCodeAlphabet[int(b)%len(ticketCodeAlphabet)])
			if len(out) == ticketCodeLen {
				break
			}
		}
	}
	return string(out), nil
}
