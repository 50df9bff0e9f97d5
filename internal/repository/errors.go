// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the lifecycle engine to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current actor is not authorized to act on a booking owned by someone
// else, while ErrConflict signals that an operation cannot proceed due
// to existing dependent state (e.g. rating a booking twice).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as verifying a payment that is already
// verified. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrBookingNotFound is returned when no bookings row exists for the
// requested identifier.
var ErrBookingNotFound = errors.New("booking not found")

// ErrServiceNotFound is returned when a catalog service does not exist
// or is inactive.
var ErrServiceNotFound = errors.New("service not found")

// ErrProfessionalNotFound is returned when no professional profile
// exists for the requested identifier.
var ErrProfessionalNotFound = errors.New("professional not found")

// ErrSettlementExists is returned when a second settlement insert is
// attempted for the same booking. The unique key on
// settlements.booking_id is the idempotency guard.
var ErrSettlementExists = errors.New("settlement already exists")

// ErrSettlementNotFound is returned when no settlement row exists for
// the requested booking.
var ErrSettlementNotFound = errors.New("settlement not found")
