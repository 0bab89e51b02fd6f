// Package sweeper releases capacity held by expired soft holds.
package sweeper

import (
	"context"
	"errors"
	"time"

	"rentory/internal/clock"
	"rentory/internal/domain"

	"go.uber.org/zap"
)

type HoldLister interface {
	ListExpiredHolds(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// LifecycleController cancels holds through the normal transition path, so
// the sweeper gets the same legality checks and conditional writes as any
// other caller.
type LifecycleController interface {
	UpdateStatus(ctx context.Context, id string, newStatus domain.ReservationStatus) (*domain.Reservation, error)
}

type Sweeper struct {
	holds     HoldLister
	lifecycle LifecycleController
	clk       clock.Clock
	logger    *zap.Logger
	interval  time.Duration
}

func New(holds HoldLister, lifecycle LifecycleController, clk clock.Clock, logger *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		holds:     holds,
		lifecycle: lifecycle,
		clk:       clk,
		logger:    logger,
		interval:  interval,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce cancels every expired hold it finds and returns how many it
// released. Losing a conditional update to a concurrent confirm or cancel is
// expected and skipped; any other failure is reported.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.clk.Now()

	expired, err := s.holds.ListExpiredHolds(ctx, now)
	if err != nil {
		return 0, err
	}

	released := 0
	var failures []error
	for _, hold := range expired {
		_, err := s.lifecycle.UpdateStatus(ctx, hold.ID, domain.StatusCancelled)
		switch {
		case err == nil:
			released++
			s.logger.Info("expired hold cancelled",
				zap.String("reservation_id", hold.ID),
				zap.String("service_id", hold.ServiceID),
				zap.Timep("expired_at", hold.ExpiresAt))
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
			// Someone else transitioned the hold first; their write wins.
			s.logger.Debug("skipping hold transitioned concurrently",
				zap.String("reservation_id", hold.ID), zap.Error(err))
		default:
			s.logger.Error("failed to cancel expired hold",
				zap.String("reservation_id", hold.ID), zap.Error(err))
			failures = append(failures, err)
		}
	}

	if released > 0 {
		s.logger.Info("sweep completed", zap.Int("released", released), zap.Int("scanned", len(expired)))
	}
	return released, errors.Join(failures...)
}
