package domain

// ServiceCapacity is the capacity ceiling for a reservable service. It is
// owned by the service catalog; the engine only reads it.
type ServiceCapacity struct {
	ServiceID     string `json:"service_id"`
	Name          string `json:"name,omitempty"`
	TotalQuantity int    `json:"total_quantity"`
}
