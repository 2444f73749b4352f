package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, fleet_id, hub_id, type, origin_city, destination_city,
		pickup_address, pickup_lat, pickup_lng, drop_address, drop_lat, drop_lng,
		scheduled_pickup_time, status, distance_km, billable_distance_km, rate, price,
		vehicle_class_sku, started_at, completed_at, provider, COALESCE(external_booking_id, ''), created_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, fleet_id, hub_id, type, origin_city, destination_city,
			pickup_address, pickup_lat, pickup_lng, drop_address, drop_lat, drop_lng,
			scheduled_pickup_time, status, distance_km, billable_distance_km, rate, price,
			vehicle_class_sku, started_at, completed_at, provider, external_booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NULLIF($23, ''), $24)
	`

	var startedAt, completedAt sql.NullTime
	if !trip.StartedAt.IsZero() {
		startedAt = sql.NullTime{Time: trip.StartedAt, Valid: true}
	}
	if !trip.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: trip.CompletedAt, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.FleetID,
		trip.HubID,
		trip.Type,
		trip.OriginCity,
		trip.DestinationCity,
		trip.PickupAddress,
		trip.PickupLat,
		trip.PickupLng,
		trip.DropAddress,
		trip.DropLat,
		trip.DropLng,
		trip.ScheduledPickupTime,
		trip.Status,
		trip.DistanceKm,
		trip.BillableDistanceKm,
		trip.Rate,
		trip.Price,
		trip.VehicleClassSKU,
		startedAt,
		completedAt,
		trip.Provider,
		trip.ExternalBookingID,
		trip.CreatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAllByFleet retrieves trips for a fleet, newest first.
func (r *TripRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE fleet_id = $1 ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, fleetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTripRows(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $1, distance_km = $2, billable_distance_km = $3, rate = $4, price = $5,
			scheduled_pickup_time = $6, started_at = $7, completed_at = $8, external_booking_id = NULLIF($9, '')
		WHERE id = $10
	`

	var startedAt, completedAt sql.NullTime
	if !trip.StartedAt.IsZero() {
		startedAt = sql.NullTime{Time: trip.StartedAt, Valid: true}
	}
	if !trip.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: trip.CompletedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		trip.DistanceKm,
		trip.BillableDistanceKm,
		trip.Rate,
		trip.Price,
		trip.ScheduledPickupTime,
		startedAt,
		completedAt,
		trip.ExternalBookingID,
		trip.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus transitions a trip from one status to another. The WHERE
// clause on the current status is the authoritative per-trip
// serialization guard: when two transitions race, only one matches.
func (r *TripRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error {
	query := `
		UPDATE trips
		SET status = $1,
			started_at = CASE WHEN $1 = 'STARTED' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $1 IN ('COMPLETED', 'NO_SHOW', 'CANCELLED') THEN NOW() ELSE completed_at END
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.FleetID,
		&trip.HubID,
		&trip.Type,
		&trip.OriginCity,
		&trip.DestinationCity,
		&trip.PickupAddress,
		&trip.PickupLat,
		&trip.PickupLng,
		&trip.DropAddress,
		&trip.DropLat,
		&trip.DropLng,
		&trip.ScheduledPickupTime,
		&trip.Status,
		&trip.DistanceKm,
		&trip.BillableDistanceKm,
		&trip.Rate,
		&trip.Price,
		&trip.VehicleClassSKU,
		&startedAt,
		&completedAt,
		&trip.Provider,
		&trip.ExternalBookingID,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}

	return &trip, nil
}

func scanTripRows(rows *sql.Rows) (*domain.Trip, error) {
	var trip domain.Trip
	var startedAt, completedAt sql.NullTime

	err := rows.Scan(
		&trip.ID,
		&trip.FleetID,
		&trip.HubID,
		&trip.Type,
		&trip.OriginCity,
		&trip.DestinationCity,
		&trip.PickupAddress,
		&trip.PickupLat,
		&trip.PickupLng,
		&trip.DropAddress,
		&trip.DropLat,
		&trip.DropLng,
		&trip.ScheduledPickupTime,
		&trip.Status,
		&trip.DistanceKm,
		&trip.BillableDistanceKm,
		&trip.Rate,
		&trip.Price,
		&trip.VehicleClassSKU,
		&startedAt,
		&completedAt,
		&trip.Provider,
		&trip.ExternalBookingID,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
