// Package metrics registers the Prometheus counters incremented by the
// service layer. Everything is registered through promauto at init time and
// exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SeatBlocks counts block attempts by outcome ("ok", "conflict",
	// "rejected", "error").
	SeatBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_seat_blocks_total",
		Help: "Seat block attempts by outcome.",
	}, []string{"result"})

	// SeatsReleased counts seats returned to available by an explicit
	// release call.
	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_seats_released_total",
		Help: "Seats explicitly released by their holder.",
	})

	// ReservationsCreated counts pending reservations created.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_reservations_created_total",
		Help: "Pending reservations created.",
	})

	// ReservationsConfirmed counts successful confirmations.
	ReservationsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_reservations_confirmed_total",
		Help: "Reservations confirmed.",
	})

	// ReservationsExpired counts reservations settled by the sweeper.
	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_reservations_expired_total",
		Help: "Pending reservations expired by the sweeper.",
	})

	// TicketsIssued counts tickets minted at confirmation.
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_tickets_issued_total",
		Help: "Tickets minted by confirmed reservations.",
	})

	// TicketsTransferred counts completed ticket transfers.
	TicketsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_tickets_transferred_total",
		Help: "Tickets transferred to another user.",
	})

	// TicketsCancelled counts cancelled tickets.
	TicketsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_tickets_cancelled_total",
		Help: "Tickets cancelled by their holder.",
	})
)
