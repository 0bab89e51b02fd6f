package domain

import "time"

type ReservationType string

const (
	TypeBooking     ReservationType = "booking"
	TypeSoftHold    ReservationType = "soft_hold"
	TypeMaintenance ReservationType = "maintenance"
	TypeBlocked     ReservationType = "blocked"
)

func (t ReservationType) Valid() bool {
	switch t {
	case TypeBooking, TypeSoftHold, TypeMaintenance, TypeBlocked:
		return true
	}
	return false
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusInUse     ReservationStatus = "in_use"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInUse, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether the status allows no further transitions.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// transitions is the single source of truth for legal status moves.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusInUse, StatusNoShow, StatusCancelled},
	StatusInUse:     {StatusCompleted},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID               string            `json:"id"`
	ServiceID        string            `json:"service_id"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	QuantityReserved int               `json:"quantity_reserved"`
	Type             ReservationType   `json:"type"`
	Status           ReservationStatus `json:"status"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	CustomerID       *string           `json:"customer_id,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
}

// Overlaps applies the half-open interval intersection test against [start, end).
// Back-to-back intervals that touch at a boundary do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && start.Before(r.EndDate)
}

// CountsAgainstCapacity reports whether the reservation currently consumes
// capacity: it is not cancelled or marked no-show, and if it is a soft hold
// its expiry has not passed.
func (r *Reservation) CountsAgainstCapacity(now time.Time) bool {
	if r.Status == StatusCancelled || r.Status == StatusNoShow {
		return false
	}
	if r.Type == TypeSoftHold {
		if r.ExpiresAt == nil || !now.Before(*r.ExpiresAt) {
			return false
		}
	}
	return true
}
