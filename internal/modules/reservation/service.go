package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentory/internal/clock"
	"rentory/internal/domain"
	"rentory/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultHoldTTL = 15 * time.Minute

// Service is the reservation lifecycle controller. All writes to the
// reservation store go through it.
type Service struct {
	reservations ReservationRepository
	availability AvailabilityChecker
	clk          clock.Clock
	holdTTL      time.Duration

	// mu guards serviceLocks; each entry serializes check-then-insert for
	// one service so concurrent creates cannot both pass the capacity check.
	mu           sync.Mutex
	serviceLocks map[string]*sync.Mutex
}

func NewService(reservations ReservationRepository, availability AvailabilityChecker, clk clock.Clock, opts ...Option) *Service {
	svc := &Service{
		reservations: reservations,
		availability: availability,
		clk:          clk,
		holdTTL:      defaultHoldTTL,
		serviceLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Option func(*Service)

// WithHoldTTL overrides the default lifetime of soft holds created without an
// explicit expiry.
func WithHoldTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func (s *Service) lockService(serviceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.serviceLocks[serviceID]
	if !ok {
		lock = &sync.Mutex{}
		s.serviceLocks[serviceID] = lock
	}
	return lock
}

// Create re-validates capacity at commit time and inserts the reservation.
// The capacity check and the insert run under a per-service lock, so two
// racing creates for the same service cannot both see the same free capacity.
func (s *Service) Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown reservation type %q", domain.ErrInvalidArgument, req.Type)
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidArgument)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end must be after start", domain.ErrInvalidArgument)
	}

	now := s.clk.Now()

	var expiresAt *time.Time
	if req.Type == domain.TypeSoftHold {
		if req.ExpiresAt != nil {
			if !req.ExpiresAt.After(now) {
				return nil, fmt.Errorf("%w: expires_at must be in the future", domain.ErrInvalidArgument)
			}
			expiresAt = req.ExpiresAt
		} else {
			t := now.Add(s.holdTTL)
			expiresAt = &t
		}
	}

	customerID := req.CustomerID
	status := domain.StatusPending
	switch req.Type {
	case domain.TypeMaintenance, domain.TypeBlocked:
		// Operational blocks have no customer and need no confirmation step.
		customerID = nil
		status = domain.StatusConfirmed
	default:
		if req.ConfirmOnCreate {
			status = domain.StatusConfirmed
		}
	}

	lock := s.lockService(req.ServiceID)
	lock.Lock()
	defer lock.Unlock()

	check, err := s.availability.CheckAvailability(ctx, req.ServiceID, req.StartDate, req.EndDate, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !check.IsAvailable {
		return nil, s.insufficient(ctx, req, check.AvailableQuantity)
	}

	res := &domain.Reservation{
		ID:               uuid.NewString(),
		ServiceID:        req.ServiceID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		QuantityReserved: req.Quantity,
		Type:             req.Type,
		Status:           status,
		ExpiresAt:        expiresAt,
		CustomerID:       customerID,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.reservations.Create(ctx, res); err != nil {
		// Cross-process backstop: the Postgres exclusion constraint rejects
		// overlapping writes that slipped past another instance's lock.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, s.insufficient(ctx, req, 0)
		}
		return nil, err
	}

	return res, nil
}

func (s *Service) insufficient(ctx context.Context, req CreateReservationRequest, available int) error {
	// Shortfall detail is best effort; the failure itself must not depend on it.
	conflicts, err := s.availability.ExplainShortfall(ctx, req.ServiceID, req.StartDate, req.EndDate, req.Quantity)
	if err != nil {
		conflicts = nil
	}
	return &domain.InsufficientInventoryError{
		ServiceID: req.ServiceID,
		Requested: req.Quantity,
		Available: available,
		Conflicts: conflicts,
	}
}

// UpdateStatus applies one legal transition. The write is conditional on the
// status observed here, so two racing updates cannot both land; the loser
// gets ErrConflict.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus domain.ReservationStatus) (*domain.Reservation, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, newStatus)
	}

	cur, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(cur.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, cur.Status, newStatus)
	}

	applied, err := s.reservations.UpdateStatusIf(ctx, id, cur.Status, newStatus, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrConflict
	}

	return s.reservations.GetByID(ctx, id)
}

// Cancel is a convenience wrapper allowed only from Pending or Confirmed.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	cur, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cur.Status != domain.StatusPending && cur.Status != domain.StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot cancel a %s reservation", domain.ErrInvalidTransition, cur.Status)
	}

	applied, err := s.reservations.UpdateStatusIf(ctx, id, cur.Status, domain.StatusCancelled, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrConflict
	}

	return s.reservations.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int64, error) {
	return s.reservations.List(ctx, f)
}
