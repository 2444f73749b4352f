package repository

import (
	"context"

	"dispatch/internal/domain"
)

// PartnerMappingRepository defines the persistence operations for
// trip-to-partner booking links.
type PartnerMappingRepository interface {
	// Upsert stores or refreshes the mapping for a trip.
	Upsert(ctx context.Context, m *domain.PartnerMapping) error

	// GetByTripID retrieves the mapping for a trip. Returns nil if the
	// trip has no partner booking.
	GetByTripID(ctx context.Context, tripID string) (*domain.PartnerMapping, error)
}
