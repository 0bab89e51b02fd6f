package availability

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"rentory/internal/clock"
	"rentory/internal/domain"
)

// SlotGranularity is the bucket size of availability breakdowns.
const SlotGranularity = 24 * time.Hour

type Service struct {
	reservations ReservationReader
	capacities   CapacityProvider
	clk          clock.Clock
}

func NewService(reservations ReservationReader, capacities CapacityProvider, clk clock.Clock) *Service {
	return &Service{
		reservations: reservations,
		capacities:   capacities,
		clk:          clk,
	}
}

// CheckAvailability reports whether the requested quantity fits between start
// and end. Pure read; results reflect the store at call time.
func (s *Service) CheckAvailability(ctx context.Context, serviceID string, start, end time.Time, quantity int) (*domain.AvailabilityResult, error) {
	if err := validateWindow(serviceID, start, end); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidArgument)
	}

	capacity, err := s.capacities.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reservedQuantity(ctx, serviceID, start, end, s.clk.Now())
	if err != nil {
		return nil, err
	}

	available := capacity.TotalQuantity - reserved
	if available < 0 {
		available = 0
	}

	result := &domain.AvailabilityResult{
		IsAvailable:       available >= quantity,
		AvailableQuantity: available,
		TotalQuantity:     capacity.TotalQuantity,
	}
	if result.IsAvailable {
		result.Message = fmt.Sprintf("%d of %d available", available, capacity.TotalQuantity)
	} else {
		result.Message = fmt.Sprintf("requested %d but only %d of %d available", quantity, available, capacity.TotalQuantity)
	}
	return result, nil
}

// GetAvailabilityBreakdown materializes BreakdownSeq into a slice, one slot
// per day touching [rangeStart, rangeEnd], in chronological order.
func (s *Service) GetAvailabilityBreakdown(ctx context.Context, serviceID string, rangeStart, rangeEnd time.Time) ([]domain.AvailabilitySlot, error) {
	seq, err := s.BreakdownSeq(ctx, serviceID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	slots := make([]domain.AvailabilitySlot, 0)
	for slot := range seq {
		slots = append(slots, slot)
	}
	return slots, nil
}

// BreakdownSeq returns a restartable sequence of per-day slots. All slots are
// derived from a single snapshot of overlapping reservations, so every slot
// agrees with what CheckAvailability would have answered for its sub-interval
// at snapshot time.
func (s *Service) BreakdownSeq(ctx context.Context, serviceID string, rangeStart, rangeEnd time.Time) (iter.Seq[domain.AvailabilitySlot], error) {
	if err := validateWindow(serviceID, rangeStart, rangeEnd); err != nil {
		return nil, err
	}

	capacity, err := s.capacities.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	firstDay := dayStart(rangeStart)
	lastDay := dayStart(rangeEnd)

	reservations, err := s.reservations.ListOverlapping(ctx, serviceID, firstDay, lastDay.Add(SlotGranularity))
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	total := capacity.TotalQuantity

	return func(yield func(domain.AvailabilitySlot) bool) {
		for day := firstDay; !day.After(lastDay); day = day.Add(SlotGranularity) {
			slotEnd := day.Add(SlotGranularity)
			reserved := sumReserved(reservations, day, slotEnd, now)

			available := total - reserved
			if available < 0 {
				available = 0
			}

			slot := domain.AvailabilitySlot{
				SlotStart:         day,
				SlotEnd:           slotEnd,
				TotalQuantity:     total,
				ReservedQuantity:  reserved,
				AvailableQuantity: available,
				IsFullyBooked:     available == 0,
			}
			if !yield(slot) {
				return
			}
		}
	}, nil
}

// ExplainShortfall lists the reservations that keep the requested quantity
// from fitting. Empty when the window is fully available.
func (s *Service) ExplainShortfall(ctx context.Context, serviceID string, start, end time.Time, quantity int) ([]domain.ConflictDetail, error) {
	if err := validateWindow(serviceID, start, end); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidArgument)
	}

	capacity, err := s.capacities.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListOverlapping(ctx, serviceID, start, end)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	counting := make([]domain.Reservation, 0, len(reservations))
	reserved := 0
	for i := range reservations {
		r := reservations[i]
		if !r.Overlaps(start, end) || !r.CountsAgainstCapacity(now) {
			continue
		}
		counting = append(counting, r)
		reserved += r.QuantityReserved
	}

	if capacity.TotalQuantity-reserved >= quantity {
		return []domain.ConflictDetail{}, nil
	}

	sort.Slice(counting, func(i, j int) bool {
		if !counting[i].StartDate.Equal(counting[j].StartDate) {
			return counting[i].StartDate.Before(counting[j].StartDate)
		}
		return counting[i].ID < counting[j].ID
	})

	details := make([]domain.ConflictDetail, 0, len(counting))
	for _, r := range counting {
		details = append(details, domain.ConflictDetail{
			ReservationID:    r.ID,
			Status:           r.Status,
			Type:             r.Type,
			StartDate:        r.StartDate,
			EndDate:          r.EndDate,
			QuantityReserved: r.QuantityReserved,
		})
	}
	return details, nil
}

func (s *Service) reservedQuantity(ctx context.Context, serviceID string, start, end, now time.Time) (int, error) {
	reservations, err := s.reservations.ListOverlapping(ctx, serviceID, start, end)
	if err != nil {
		return 0, err
	}
	return sumReserved(reservations, start, end, now), nil
}

// sumReserved applies the capacity-counting rule over a set of candidate
// reservations for the window [start, end).
func sumReserved(reservations []domain.Reservation, start, end, now time.Time) int {
	total := 0
	for i := range reservations {
		r := &reservations[i]
		if !r.Overlaps(start, end) {
			continue
		}
		if !r.CountsAgainstCapacity(now) {
			continue
		}
		total += r.QuantityReserved
	}
	return total
}

func validateWindow(serviceID string, start, end time.Time) error {
	if serviceID == "" {
		return fmt.Errorf("%w: service id is required", domain.ErrInvalidArgument)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", domain.ErrInvalidArgument)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end must be after start", domain.ErrInvalidArgument)
	}
	return nil
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
