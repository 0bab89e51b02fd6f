package availability

import (
	"context"
	"time"

	"rentory/internal/domain"
)

// ReservationReader is the read-only slice of the reservation store the
// availability computations need.
type ReservationReader interface {
	ListOverlapping(ctx context.Context, serviceID string, start, end time.Time) ([]domain.Reservation, error)
}

// CapacityProvider resolves a service's capacity ceiling. Backed by the
// service catalog.
type CapacityProvider interface {
	GetByServiceID(ctx context.Context, serviceID string) (*domain.ServiceCapacity, error)
}
