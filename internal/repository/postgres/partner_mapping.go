package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PartnerMappingRepository is a PostgreSQL implementation of
// repository.PartnerMappingRepository.
type PartnerMappingRepository struct {
	q Querier
}

// NewPartnerMappingRepository creates a new PostgreSQL partner mapping repository.
func NewPartnerMappingRepository(db *sql.DB) *PartnerMappingRepository {
	return &PartnerMappingRepository{q: db}
}

// NewPartnerMappingRepositoryWithTx creates a partner mapping repository using a transaction.
func NewPartnerMappingRepositoryWithTx(tx *sql.Tx) *PartnerMappingRepository {
	return &PartnerMappingRepository{q: tx}
}

// Upsert stores or refreshes the mapping for a trip.
func (r *PartnerMappingRepository) Upsert(ctx context.Context, m *domain.PartnerMapping) error {
	query := `
		INSERT INTO partner_mappings (trip_id, external_booking_id, partner_status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id) DO UPDATE
		SET external_booking_id = EXCLUDED.external_booking_id,
			partner_status = EXCLUDED.partner_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query, m.TripID, m.ExternalBookingID, m.PartnerStatus, m.UpdatedAt)
	return err
}

// GetByTripID retrieves the mapping for a trip. Returns nil if the trip
// has no partner booking.
func (r *PartnerMappingRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PartnerMapping, error) {
	query := `
		SELECT trip_id, external_booking_id, COALESCE(partner_status, ''), updated_at
		FROM partner_mappings WHERE trip_id = $1
	`

	var m domain.PartnerMapping
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&m.TripID,
		&m.ExternalBookingID,
		&m.PartnerStatus,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &m, nil
}

// Ensure PartnerMappingRepository implements repository.PartnerMappingRepository.
var _ repository.PartnerMappingRepository = (*PartnerMappingRepository)(nil)
