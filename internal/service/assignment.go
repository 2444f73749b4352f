package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AssignmentService owns the driver-to-vehicle roster binding. At most
// one ACTIVE assignment may exist per driver and per vehicle; the
// repository's unique constraints are the final arbiter, the lookups
// here are an optimization that produces better error messages.
type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	driverRepo     repository.DriverRepository
	vehicleRepo    repository.VehicleRepository
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		driverRepo:     driverRepo,
		vehicleRepo:    vehicleRepo,
	}
}

// CreateAssignmentRequest contains the parameters for creating a roster
// assignment.
type CreateAssignmentRequest struct {
	FleetID   string
	DriverID  string
	VehicleID string
}

// CreateAssignment binds a driver to a vehicle. Fails if either party
// already has an ACTIVE assignment or the fleet ids disagree.
func (s *AssignmentService) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*domain.Assignment, error) {
	if req.FleetID == "" {
		return nil, ErrInvalidFleetID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("driver", req.DriverID)
		}
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("vehicle", req.VehicleID)
		}
		return nil, err
	}

	if driver.FleetID != req.FleetID || vehicle.FleetID != req.FleetID {
		return nil, ErrFleetMismatch
	}

	// Pre-checks; the insert below can still lose to a concurrent
	// creation, which the unique indexes turn into ErrConflict.
	existing, err := s.assignmentRepo.GetActiveByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDriverAssigned
	}

	existing, err = s.assignmentRepo.GetActiveByVehicleID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVehicleAssigned
	}

	assignment := &domain.Assignment{
		ID:        uuid.New().String(),
		FleetID:   req.FleetID,
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		Status:    domain.AssignmentStatusActive,
		StartTime: time.Now(),
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDriverAssigned
		}
		return nil, err
	}

	return assignment, nil
}

// EndAssignment moves an assignment to ENDED. Only the first end
// succeeds; a second attempt reports a conflict. Ending never cascades
// to in-flight trips: an existing TripAssignment stays put, only new
// dispatch operations will fail to resolve a vehicle.
func (s *AssignmentService) EndAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("assignment", assignmentID)
		}
		return nil, err
	}

	endTime := time.Now()
	if err := s.assignmentRepo.End(ctx, assignmentID, endTime); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAssignmentEnded
		}
		return nil, err
	}

	assignment.Status = domain.AssignmentStatusEnded
	assignment.EndTime = endTime

	return assignment, nil
}

// GetAssignment retrieves a roster assignment by ID.
func (s *AssignmentService) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("assignment", assignmentID)
		}
		return nil, err
	}
	return assignment, nil
}

// FindActiveByDriver resolves the driver's current roster assignment.
// Returns nil if the driver has none.
func (s *AssignmentService) FindActiveByDriver(ctx context.Context, driverID string) (*domain.Assignment, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.assignmentRepo.GetActiveByDriverID(ctx, driverID)
}

// FindActiveByVehicle resolves the vehicle's current roster assignment.
// Returns nil if the vehicle has none.
func (s *AssignmentService) FindActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Assignment, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.assignmentRepo.GetActiveByVehicleID(ctx, vehicleID)
}

// ListByFleet returns the fleet's assignments, newest first.
func (s *AssignmentService) ListByFleet(ctx context.Context, fleetID string) ([]*domain.Assignment, error) {
	if fleetID == "" {
		return nil, ErrInvalidFleetID
	}
	return s.assignmentRepo.GetAllByFleet(ctx, fleetID)
}
