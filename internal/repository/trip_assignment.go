package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// TripAssignmentRepository defines the persistence operations for trip
// assignments. Create must be backed by a unique constraint over
// (trip_id where status in ASSIGNED/ACTIVE) so a trip never carries two
// live assignments.
type TripAssignmentRepository interface {
	// Create persists a new trip assignment. Returns ErrConflict if the
	// trip already has a non-terminal assignment.
	Create(ctx context.Context, ta *domain.TripAssignment) error

	// GetByID retrieves a trip assignment by ID.
	GetByID(ctx context.Context, id string) (*domain.TripAssignment, error)

	// GetActiveByTripID retrieves the non-terminal assignment for a
	// trip. Returns nil if none exists.
	GetActiveByTripID(ctx context.Context, tripID string) (*domain.TripAssignment, error)

	// GetActiveByDriverID retrieves the non-terminal assignments held
	// by a driver across trips.
	GetActiveByDriverID(ctx context.Context, driverID string) ([]*domain.TripAssignment, error)

	// UpdateStatus transitions a trip assignment from one status to
	// another, conditionally on the current status matching from.
	// Returns ErrConflict otherwise. unassignedAt is recorded when the
	// target status is terminal.
	UpdateStatus(ctx context.Context, id string, from, to domain.TripAssignmentStatus, unassignedAt time.Time) error
}
