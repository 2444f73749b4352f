package service

import (
	"context"
	"fmt"

	"dispatch/internal/constraint"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// GeoResolver supplies distance and geocoding lookups to trip creation.
type GeoResolver interface {
	// DistanceBetween returns the distance in meters between two points.
	DistanceBetween(a, b LatLng) float64

	// Geocode resolves a free-text address to coordinates.
	Geocode(ctx context.Context, address string) (LatLng, error)
}

// HaversineResolver measures distance along the great circle and does
// not geocode. It serves deployments without a mapping provider.
type HaversineResolver struct{}

// DistanceBetween returns the great-circle distance in meters.
func (HaversineResolver) DistanceBetween(a, b LatLng) float64 {
	return constraint.HaversineMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Geocode always fails; callers must supply coordinates directly.
func (HaversineResolver) Geocode(ctx context.Context, address string) (LatLng, error) {
	return LatLng{}, fmt.Errorf("%w: no geocoding provider configured", ErrValidation)
}

// Ensure HaversineResolver implements GeoResolver.
var _ GeoResolver = HaversineResolver{}
