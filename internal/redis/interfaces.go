package redis

import (
	"context"

	"dispatch/internal/domain"
)

// LocationStoreInterface defines the interface for driver live-location
// operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// TripCacheInterface defines the interface for short-TTL trip caching
// on the read path.
type TripCacheInterface interface {
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	SetTrip(ctx context.Context, trip *domain.Trip) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ TripCacheInterface     = (*TripCache)(nil)
)
