package domain

import "time"

// AvailabilityResult answers "is quantity Q available between start and end".
type AvailabilityResult struct {
	IsAvailable       bool   `json:"is_available"`
	AvailableQuantity int    `json:"available_quantity"`
	TotalQuantity     int    `json:"total_quantity"`
	Message           string `json:"message,omitempty"`
}

// AvailabilitySlot is one bucket of a per-day availability breakdown. Slots
// are recomputed from reservations on every read and never persisted.
type AvailabilitySlot struct {
	SlotStart         time.Time `json:"slot_start"`
	SlotEnd           time.Time `json:"slot_end"`
	TotalQuantity     int       `json:"total_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	IsFullyBooked     bool      `json:"is_fully_booked"`
}

// ConflictDetail identifies one reservation contributing to a shortfall.
type ConflictDetail struct {
	ReservationID    string            `json:"reservation_id"`
	Status           ReservationStatus `json:"status"`
	Type             ReservationType   `json:"type"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	QuantityReserved int               `json:"quantity_reserved"`
}
