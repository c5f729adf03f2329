package booking

import "errors"

var (
	// ErrNotFound covers a missing company, a missing or inactive service, a service owned by another
	// company and a missing reservation.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration means stored company data (the weekly schedule) cannot be interpreted.
	ErrConfiguration = errors.New("configuration error")
	// ErrSlotUnavailable means the requested start is not a bookable slot or is already taken.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrInvalidTransition means the reservation's current status does not allow the requested one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidInput means a request field is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIdempotencyConflict means the client already used the idempotency key for a different slot.
	ErrIdempotencyConflict = errors.New("idempotency key reused for a different request")
)
