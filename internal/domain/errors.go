package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict means a conditional update lost against a concurrent writer.
	ErrConflict = errors.New("concurrent update conflict")
)

// InsufficientInventoryError is returned when a commit-time capacity check
// fails. It carries the overlapping reservations that caused the shortfall.
type InsufficientInventoryError struct {
	ServiceID string
	Requested int
	Available int
	Conflicts []ConflictDetail
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for service %s: requested %d, available %d",
		e.ServiceID, e.Requested, e.Available)
}
