package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TripAssignmentRepository is a PostgreSQL implementation of
// repository.TripAssignmentRepository. A partial unique index keeps a
// trip from holding two live assignments:
//
//	CREATE UNIQUE INDEX trip_assignments_live
//	    ON trip_assignments (trip_id) WHERE status IN ('ASSIGNED', 'ACTIVE');
type TripAssignmentRepository struct {
	q Querier
}

// NewTripAssignmentRepository creates a new PostgreSQL trip assignment repository.
func NewTripAssignmentRepository(db *sql.DB) *TripAssignmentRepository {
	return &TripAssignmentRepository{q: db}
}

// NewTripAssignmentRepositoryWithTx creates a trip assignment repository using a transaction.
func NewTripAssignmentRepositoryWithTx(tx *sql.Tx) *TripAssignmentRepository {
	return &TripAssignmentRepository{q: tx}
}

const tripAssignmentColumns = `id, trip_id, driver_id, status, assigned_at, unassigned_at`

// Create persists a new trip assignment. A unique-violation from the
// partial index surfaces as repository.ErrConflict.
func (r *TripAssignmentRepository) Create(ctx context.Context, ta *domain.TripAssignment) error {
	query := `
		INSERT INTO trip_assignments (id, trip_id, driver_id, status, assigned_at, unassigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var unassignedAt sql.NullTime
	if !ta.UnassignedAt.IsZero() {
		unassignedAt = sql.NullTime{Time: ta.UnassignedAt, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ta.ID,
		ta.TripID,
		ta.DriverID,
		ta.Status,
		ta.AssignedAt,
		unassignedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}

	return nil
}

// GetByID retrieves a trip assignment by ID.
func (r *TripAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.TripAssignment, error) {
	query := `SELECT ` + tripAssignmentColumns + ` FROM trip_assignments WHERE id = $1`

	ta, err := scanTripAssignment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ta, nil
}

// GetActiveByTripID retrieves the non-terminal assignment for a trip.
// Returns nil if none exists.
func (r *TripAssignmentRepository) GetActiveByTripID(ctx context.Context, tripID string) (*domain.TripAssignment, error) {
	query := `
		SELECT ` + tripAssignmentColumns + ` FROM trip_assignments
		WHERE trip_id = $1 AND status IN ($2, $3)
		LIMIT 1
	`

	ta, err := scanTripAssignment(r.q.QueryRowContext(ctx, query, tripID,
		domain.TripAssignmentStatusAssigned, domain.TripAssignmentStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return ta, nil
}

// GetActiveByDriverID retrieves the non-terminal assignments held by a
// driver across trips.
func (r *TripAssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) ([]*domain.TripAssignment, error) {
	query := `
		SELECT ` + tripAssignmentColumns + ` FROM trip_assignments
		WHERE driver_id = $1 AND status IN ($2, $3)
	`

	rows, err := r.q.QueryContext(ctx, query, driverID,
		domain.TripAssignmentStatusAssigned, domain.TripAssignmentStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tas []*domain.TripAssignment
	for rows.Next() {
		var ta domain.TripAssignment
		var unassignedAt sql.NullTime

		if err := rows.Scan(
			&ta.ID,
			&ta.TripID,
			&ta.DriverID,
			&ta.Status,
			&ta.AssignedAt,
			&unassignedAt,
		); err != nil {
			return nil, err
		}

		if unassignedAt.Valid {
			ta.UnassignedAt = unassignedAt.Time
		}
		tas = append(tas, &ta)
	}

	return tas, rows.Err()
}

// UpdateStatus transitions a trip assignment conditionally on its
// current status.
func (r *TripAssignmentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripAssignmentStatus, unassignedAt time.Time) error {
	query := `
		UPDATE trip_assignments SET status = $1, unassigned_at = $2
		WHERE id = $3 AND status = $4
	`

	var ended sql.NullTime
	if !unassignedAt.IsZero() {
		ended = sql.NullTime{Time: unassignedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, to, ended, id, from)
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

func scanTripAssignment(row *sql.Row) (*domain.TripAssignment, error) {
	var ta domain.TripAssignment
	var unassignedAt sql.NullTime

	err := row.Scan(
		&ta.ID,
		&ta.TripID,
		&ta.DriverID,
		&ta.Status,
		&ta.AssignedAt,
		&unassignedAt,
	)
	if err != nil {
		return nil, err
	}

	if unassignedAt.Valid {
		ta.UnassignedAt = unassignedAt.Time
	}

	return &ta, nil
}

// Ensure TripAssignmentRepository implements repository.TripAssignmentRepository.
var _ repository.TripAssignmentRepository = (*TripAssignmentRepository)(nil)
