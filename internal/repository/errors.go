package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional write loses: the row's
	// current status no longer matches the expected one, or a unique
	// constraint (one ACTIVE assignment per driver/vehicle, one
	// non-terminal assignment per trip) rejects the insert.
	ErrConflict = errors.New("conditional write conflict")
)
