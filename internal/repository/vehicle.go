package repository

import (
	"context"

	"dispatch/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByRegistration retrieves a vehicle by registration plate.
	GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error)

	// GetAllByFleet retrieves vehicles for a fleet.
	GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Vehicle, error)
}
