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

// AssignmentRepository is a PostgreSQL implementation of
// repository.AssignmentRepository. Uniqueness of ACTIVE assignments per
// driver and per vehicle is enforced by partial unique indexes:
//
//	CREATE UNIQUE INDEX assignments_active_driver
//	    ON assignments (driver_id) WHERE status = 'ACTIVE';
//	CREATE UNIQUE INDEX assignments_active_vehicle
//	    ON assignments (vehicle_id) WHERE status = 'ACTIVE';
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

// NewAssignmentRepositoryWithTx creates an assignment repository using a transaction.
func NewAssignmentRepositoryWithTx(tx *sql.Tx) *AssignmentRepository {
	return &AssignmentRepository{q: tx}
}

const assignmentColumns = `id, fleet_id, driver_id, vehicle_id, status, start_time, end_time`

// Create persists a new assignment. A unique-violation from the
// partial indexes surfaces as repository.ErrConflict.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	query := `
		INSERT INTO assignments (id, fleet_id, driver_id, vehicle_id, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var endTime sql.NullTime
	if !assignment.EndTime.IsZero() {
		endTime = sql.NullTime{Time: assignment.EndTime, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		assignment.ID,
		assignment.FleetID,
		assignment.DriverID,
		assignment.VehicleID,
		assignment.Status,
		assignment.StartTime,
		endTime,
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

// GetByID retrieves an assignment by ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment, err := scanAssignment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return assignment, nil
}

// End moves an ACTIVE assignment to ENDED. The update is conditional on
// the current status so two concurrent ends cannot both succeed.
func (r *AssignmentRepository) End(ctx context.Context, id string, endTime time.Time) error {
	query := `
		UPDATE assignments SET status = $1, end_time = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.AssignmentStatusEnded,
		endTime,
		id,
		domain.AssignmentStatusActive,
	)
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

// GetActiveByDriverID retrieves the ACTIVE assignment for a driver.
// Returns nil if none exists.
func (r *AssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE driver_id = $1 AND status = $2`

	assignment, err := scanAssignment(r.q.QueryRowContext(ctx, query, driverID, domain.AssignmentStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return assignment, nil
}

// GetActiveByVehicleID retrieves the ACTIVE assignment for a vehicle.
// Returns nil if none exists.
func (r *AssignmentRepository) GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE vehicle_id = $1 AND status = $2`

	assignment, err := scanAssignment(r.q.QueryRowContext(ctx, query, vehicleID, domain.AssignmentStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return assignment, nil
}

// GetAllByFleet retrieves assignments for a fleet, newest first.
func (r *AssignmentRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE fleet_id = $1 ORDER BY start_time DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, fleetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		var endTime sql.NullTime

		if err := rows.Scan(
			&assignment.ID,
			&assignment.FleetID,
			&assignment.DriverID,
			&assignment.VehicleID,
			&assignment.Status,
			&assignment.StartTime,
			&endTime,
		); err != nil {
			return nil, err
		}

		if endTime.Valid {
			assignment.EndTime = endTime.Time
		}
		assignments = append(assignments, &assignment)
	}

	return assignments, rows.Err()
}

func scanAssignment(row *sql.Row) (*domain.Assignment, error) {
	var assignment domain.Assignment
	var endTime sql.NullTime

	err := row.Scan(
		&assignment.ID,
		&assignment.FleetID,
		&assignment.DriverID,
		&assignment.VehicleID,
		&assignment.Status,
		&assignment.StartTime,
		&endTime,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		assignment.EndTime = endTime.Time
	}

	return &assignment, nil
}

// Ensure AssignmentRepository implements repository.AssignmentRepository.
var _ repository.AssignmentRepository = (*AssignmentRepository)(nil)
