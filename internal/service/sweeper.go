package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seatwise/event-ticketing/internal/metrics"
	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

const sweepBatchSize = 100

// Sweeper expires pending reservations whose deadline has passed and frees
// their seats. It is the safety net behind the lazy reclamation in Block;
// correctness never depends on it running, only promptness does.
type Sweeper struct {
	reservations *repository.ReservationRepo
	seats        *repository.SeatRepo
}

// NewSweeper wires the sweeper's repositories.
func NewSweeper(reservations *repository.ReservationRepo, seats *repository.SeatRepo) *Sweeper {
	return &Sweeper{reservations: reservations, seats: seats}
}

// ExpireReservations settles every lapsed pending reservation it finds, one
// transaction per reservation so a single failure never blocks the rest.
// The pending-status re-check under the row lock makes the sweep idempotent
// and safe against a concurrent confirm. Returns the number expired.
func (s *Sweeper) ExpireReservations(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	ids, err := s.reservations.ListExpiredIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if err := s.expireOne(ctx, id, now); err != nil {
			log.Printf("sweeper: expire reservation %d: %v", id, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		metrics.ReservationsExpired.Add(float64(expired))
	}
	return expired, nil
}

func (s *Sweeper) expireOne(ctx context.Context, id uint64, now time.Time) error {
	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rez, err := s.reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	// A confirm or cancel may have settled it between listing and locking.
	if rez.Status != model.ReservationPending || rez.ExpiresAt == nil || now.Before(*rez.ExpiresAt) {
		return nil
	}
	seatIDs, err := s.reservations.SeatIDsTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.seats.ReleaseByIDsTx(ctx, tx, seatIDs); err != nil {
		return err
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, id, model.ReservationExpired); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Start schedules the sweep to run every minute and returns the cron
// scheduler so the caller can Stop it on shutdown.
func (s *Sweeper) Start() *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("* * * * *", func() {
		if _, err := s.ExpireReservations(context.Background()); err != nil {
			log.Printf("sweeper: %v", err)
		}
	})
	if err != nil {
		log.Printf("sweeper: schedule failed: %v", err)
	}
	c.Start()
	return c
}
