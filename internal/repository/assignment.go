package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// AssignmentRepository defines the persistence operations for roster
// assignments. Create must be backed by unique constraints over
// (driver_id where ACTIVE) and (vehicle_id where ACTIVE); the registry's
// in-process pre-checks are an optimization, the store is the final
// arbiter.
type AssignmentRepository interface {
	// Create persists a new assignment. Returns ErrConflict if the
	// driver or vehicle already has an ACTIVE assignment.
	Create(ctx context.Context, assignment *domain.Assignment) error

	// GetByID retrieves an assignment by ID.
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)

	// End moves an ACTIVE assignment to ENDED with the given end time.
	// Returns ErrConflict if the assignment is not ACTIVE.
	End(ctx context.Context, id string, endTime time.Time) error

	// GetActiveByDriverID retrieves the ACTIVE assignment for a driver.
	// Returns nil if none exists.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error)

	// GetActiveByVehicleID retrieves the ACTIVE assignment for a vehicle.
	// Returns nil if none exists.
	GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.Assignment, error)

	// GetAllByFleet retrieves assignments for a fleet, newest first.
	GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Assignment, error)
}
