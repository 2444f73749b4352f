package repository

import (
	"context"

	"dispatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAllByFleet retrieves trips for a fleet, newest first.
	GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// UpdateStatus transitions a trip from one status to another. The
	// update is conditional on the current status matching from; if it
	// does not, ErrConflict is returned and nothing changes. This is
	// the authoritative per-trip serialization guard.
	UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error
}
