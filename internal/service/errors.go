package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the services return wraps exactly one of
// these, so handlers can map a failure to a response with errors.Is
// without knowing the specific rule that fired.
var (
	// ErrNotFound means an identifier did not resolve to an entity.
	ErrNotFound = errors.New("not found")

	// ErrValidation means malformed input or a cross-entity mismatch,
	// such as a driver and vehicle from different fleets.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means an invariant rejected the operation: an active
	// assignment already exists, or the trip is not in a state that
	// permits the requested transition.
	ErrConflict = errors.New("conflict")

	// ErrForbidden means the caller's scope does not cover the
	// resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConstraintViolation means a business rule rejected the
	// operation; the message carries the human-readable reason.
	ErrConstraintViolation = errors.New("constraint violation")
)

// Specific failures, each wrapping its kind.
var (
	ErrInvalidTripID     = fmt.Errorf("%w: trip id is empty", ErrValidation)
	ErrInvalidDriverID   = fmt.Errorf("%w: driver id is empty", ErrValidation)
	ErrInvalidVehicleID  = fmt.Errorf("%w: vehicle id is empty", ErrValidation)
	ErrInvalidFleetID    = fmt.Errorf("%w: fleet id is empty", ErrValidation)
	ErrFleetMismatch     = fmt.Errorf("%w: driver, vehicle and assignment must share a fleet", ErrValidation)
	ErrDriverAssigned    = fmt.Errorf("%w: driver already has an active assignment", ErrConflict)
	ErrVehicleAssigned   = fmt.Errorf("%w: vehicle already has an active assignment", ErrConflict)
	ErrAssignmentEnded   = fmt.Errorf("%w: assignment is not active", ErrConflict)
	ErrTripHasAssignment = fmt.Errorf("%w: trip already has a live assignment", ErrConflict)
	ErrTripNotAssigned   = fmt.Errorf("%w: trip has no live assignment", ErrConflict)
	ErrNoActiveVehicle   = fmt.Errorf("%w: no active vehicle can be resolved for driver", ErrConflict)
	ErrDriverNotAssigned = fmt.Errorf("%w: caller is not the assigned driver", ErrForbidden)
	ErrTripStateConflict = fmt.Errorf("%w: trip is not in a state that permits this transition", ErrConflict)
	ErrDriverBusy        = fmt.Errorf("%w: driver holds a conflicting trip assignment in the same window", ErrConflict)
)

// constraintError wraps an engine rejection reason in the
// ErrConstraintViolation kind.
func constraintError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, reason)
}

// notFoundError wraps a missing-entity description in the ErrNotFound
// kind.
func notFoundError(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}
