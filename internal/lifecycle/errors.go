// Package lifecycle implements the booking state machine: it validates
// and applies every transition, enforcing atomicity and authorization.
// Guard failures surface as the typed errors below so transports can
// distinguish "someone else got it" from "you're not allowed".
package lifecycle

import "errors"

// ErrValidation flags malformed input (bad coordinates, missing fields,
// past scheduled times).  Rejected before any state is touched; wrap it
// with the specific reason.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition is returned when a guard fails: the transition is
// not an edge of the lifecycle graph, the actor's role is not allowed,
// or the actor does not own the booking.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrAlreadyAccepted is the specific contended-accept outcome: the
// booking was pending but another professional won the conditional
// write.  Clients resubmit against the next candidate on receiving it.
var ErrAlreadyAccepted = errors.New("booking already accepted")

// ErrVerificationFailed is returned for a wrong completion code or a bad
// gateway signature.  The booking's status is left untouched.
var ErrVerificationFailed = errors.New("verification failed")

// ErrVerificationRequired is returned when completing a gateway booking
// whose payment has not been externally verified yet.  The caller
// retries completion once verification lands.
var ErrVerificationRequired = errors.New("payment verification required")

// ErrSettlementConflict is returned when a settlement commit is
// attempted twice for one booking.
var ErrSettlementConflict = errors.New("settlement already committed")

// ErrAlreadyRated is returned when a completed booking is rated a second
// time.
var ErrAlreadyRated = errors.New("booking already rated")
