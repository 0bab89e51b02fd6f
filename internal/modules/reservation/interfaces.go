package reservation

import (
	"context"
	"time"

	"rentory/internal/domain"
	"rentory/internal/repository"
)

// ReservationRepository is the write-side store access the lifecycle
// controller needs.
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	UpdateStatusIf(ctx context.Context, id string, expected, next domain.ReservationStatus, at time.Time) (bool, error)
	List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int64, error)
}

// AvailabilityChecker is the capacity resolver re-invoked at commit time.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, serviceID string, start, end time.Time, quantity int) (*domain.AvailabilityResult, error)
	ExplainShortfall(ctx context.Context, serviceID string, start, end time.Time, quantity int) ([]domain.ConflictDetail, error)
}
