package reservation

import (
	"errors"
	"fmt"
	"strings"
)

// Expected outcomes of the reservation protocol. Handlers map these to HTTP
// statuses; none of them leaves partial state behind.
var (
	// ErrSlotContended means a lock on one of the required slots is held
	// by another request. Retryable as-is.
	ErrSlotContended = errors.New("slot is currently being booked, try again")

	// ErrSlotNoLongerAvailable means locks were acquired but a slot
	// changed state between the initial read and the lock. Retry with
	// fresh data.
	ErrSlotNoLongerAvailable = errors.New("slot is no longer available")

	// ErrInsufficientAvailability means no contiguous free run long enough
	// for the service exists. Not retryable without changing the request.
	ErrInsufficientAvailability = errors.New("not enough consecutive free slots for this service")

	// ErrAlreadyCancelled is returned when cancelling a booking that is
	// already in the terminal cancelled state.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrSlotBooked is a maintenance toggle on a slot currently owned by
	// a booking.
	ErrSlotBooked = errors.New("cannot modify a booked slot")

	ErrSlotNotFound    = errors.New("time slot not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// ValidationError carries field-level detail about a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError wraps a failed durable write. The transaction has been
// rolled back; locks are released by the caller's cleanup step.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
