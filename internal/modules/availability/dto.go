package availability

import "rentory/internal/domain"

type BreakdownResponse struct {
	ServiceID string                    `json:"service_id"`
	Slots     []domain.AvailabilitySlot `json:"slots"`
}

type ShortfallResponse struct {
	ServiceID string                  `json:"service_id"`
	Conflicts []domain.ConflictDetail `json:"conflicts"`
}
