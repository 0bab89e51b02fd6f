package reservation

import (
	"time"

	"rentory/internal/domain"
)

type CreateReservationRequest struct {
	ServiceID  string                 `json:"service_id" binding:"required"`
	StartDate  time.Time              `json:"start_date" binding:"required"`
	EndDate    time.Time              `json:"end_date" binding:"required"`
	Quantity   int                    `json:"quantity" binding:"required"`
	Type       domain.ReservationType `json:"type" binding:"required"`
	CustomerID *string                `json:"customer_id"`
	Notes      string                 `json:"notes"`
	// ExpiresAt applies to soft holds only; defaults to now + the configured
	// hold TTL when omitted.
	ExpiresAt *time.Time `json:"expires_at"`
	// ConfirmOnCreate skips the pending state for trusted operator flows.
	ConfirmOnCreate bool `json:"confirm_on_create"`
}

type UpdateStatusRequest struct {
	Status domain.ReservationStatus `json:"status" binding:"required"`
}

type ListResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
}
