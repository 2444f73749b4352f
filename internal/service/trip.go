package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/constraint"
	"dispatch/internal/domain"
	"dispatch/internal/pricing"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

// resourceWindow is how close two scheduled pickups may sit before a
// driver is considered double-booked.
const resourceWindow = 2 * time.Hour

// TripService owns the trip state machine. No other component mutates
// trip status. Every transition runs its guards in the order identity,
// then resource/state, then constraint engine; the first failing guard
// determines the reported error kind. Status changes are conditional
// writes keyed on the expected "from" status, so concurrent transitions
// on the same trip cannot both succeed.
type TripService struct {
	db             *sql.DB
	tripRepo       repository.TripRepository
	taRepo         repository.TripAssignmentRepository
	assignmentRepo repository.AssignmentRepository
	engine         *constraint.Engine
	pricingEngine  pricing.Engine
	geo            GeoResolver
}

// NewTripService creates a new TripService. db may be nil, in which
// case transitions run against the repositories directly instead of a
// shared transaction; production wiring always passes a database.
func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	taRepo repository.TripAssignmentRepository,
	assignmentRepo repository.AssignmentRepository,
	engine *constraint.Engine,
	pricingEngine pricing.Engine,
	geo GeoResolver,
) *TripService {
	return &TripService{
		db:             db,
		tripRepo:       tripRepo,
		taRepo:         taRepo,
		assignmentRepo: assignmentRepo,
		engine:         engine,
		pricingEngine:  pricingEngine,
		geo:            geo,
	}
}

// txRepos bundles the repositories a transition mutates atomically.
type txRepos struct {
	trips repository.TripRepository
	tas   repository.TripAssignmentRepository
}

// inTx runs fn with transaction-scoped repositories when a database is
// configured, and with the plain repositories otherwise.
func (s *TripService) inTx(ctx context.Context, fn func(r txRepos) error) error {
	if s.db == nil {
		return fn(txRepos{trips: s.tripRepo, tas: s.taRepo})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(txRepos{
		trips: postgres.NewTripRepositoryWithTx(tx),
		tas:   postgres.NewTripAssignmentRepositoryWithTx(tx),
	}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	FleetID             string
	HubID               string
	Type                domain.TripType
	OriginCity          string
	DestinationCity     string
	PickupAddress       string
	PickupLat           float64
	PickupLng           float64
	DropAddress         string
	DropLat             float64
	DropLng             float64
	ScheduledPickupTime time.Time
	DistanceKm          float64
	VehicleClassSKU     string
	Provider            domain.TripProvider
	ExternalBookingID   string
}

// CreateTrip validates the request against the business rules, quotes a
// fare and persists the trip in CREATED state.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.FleetID == "" {
		return nil, ErrInvalidFleetID
	}

	// Populate coordinates from the free-text addresses when the
	// caller did not supply them.
	if req.PickupLat == 0 && req.PickupLng == 0 && req.PickupAddress != "" {
		point, err := s.geo.Geocode(ctx, req.PickupAddress)
		if err != nil {
			return nil, err
		}
		req.PickupLat, req.PickupLng = point.Lat, point.Lng
	}
	if req.DropLat == 0 && req.DropLng == 0 && req.DropAddress != "" {
		point, err := s.geo.Geocode(ctx, req.DropAddress)
		if err != nil {
			return nil, err
		}
		req.DropLat, req.DropLng = point.Lat, point.Lng
	}

	if req.DistanceKm == 0 {
		meters := s.geo.DistanceBetween(
			LatLng{Lat: req.PickupLat, Lng: req.PickupLng},
			LatLng{Lat: req.DropLat, Lng: req.DropLng},
		)
		req.DistanceKm = meters / 1000
	}

	now := time.Now()
	if result := s.engine.ValidateCreate(constraint.CreateInput{
		OriginCity:      req.OriginCity,
		DistanceKm:      req.DistanceKm,
		VehicleClassSKU: req.VehicleClassSKU,
		PickupTime:      req.ScheduledPickupTime,
		Now:             now,
	}); !result.Allowed {
		return nil, constraintError(result.Reason)
	}

	fare := s.pricingEngine.Quote(req.DistanceKm, req.Type, req.ScheduledPickupTime, now, req.VehicleClassSKU)

	provider := req.Provider
	if provider == "" {
		provider = domain.TripProviderInternal
	}

	trip := &domain.Trip{
		ID:                  uuid.New().String(),
		FleetID:             req.FleetID,
		HubID:               req.HubID,
		Type:                req.Type,
		OriginCity:          req.OriginCity,
		DestinationCity:     req.DestinationCity,
		PickupAddress:       req.PickupAddress,
		PickupLat:           req.PickupLat,
		PickupLng:           req.PickupLng,
		DropAddress:         req.DropAddress,
		DropLat:             req.DropLat,
		DropLng:             req.DropLng,
		ScheduledPickupTime: req.ScheduledPickupTime,
		Status:              domain.TripStatusCreated,
		DistanceKm:          req.DistanceKm,
		BillableDistanceKm:  fare.BillableKm,
		Rate:                fare.RatePerKm,
		Price:               fare.TotalFare,
		VehicleClassSKU:     req.VehicleClassSKU,
		Provider:            provider,
		ExternalBookingID:   req.ExternalBookingID,
		CreatedAt:           now,
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// AssignDriver binds a driver to a CREATED trip and moves it to
// DRIVER_ASSIGNED.
func (s *TripService) AssignDriver(ctx context.Context, tripID, driverID string) (*domain.Trip, *domain.TripAssignment, error) {
	if tripID == "" {
		return nil, nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, nil, ErrInvalidDriverID
	}

	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	if trip.Status != domain.TripStatusCreated {
		return nil, nil, ErrTripStateConflict
	}

	if err := s.checkDriverWindow(ctx, driverID, trip); err != nil {
		return nil, nil, err
	}

	ta := &domain.TripAssignment{
		ID:         uuid.New().String(),
		TripID:     tripID,
		DriverID:   driverID,
		Status:     domain.TripAssignmentStatusAssigned,
		AssignedAt: time.Now(),
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.tas.Create(ctx, ta); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripHasAssignment
			}
			return err
		}
		if err := r.trips.UpdateStatus(ctx, tripID, domain.TripStatusCreated, domain.TripStatusDriverAssigned); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	trip.Status = domain.TripStatusDriverAssigned
	return trip, ta, nil
}

// UnassignDriver removes the driver from a DRIVER_ASSIGNED trip. The
// trip returns to CREATED and remains dispatchable; the assignment is
// cancelled. The partner is deliberately not told: the booking itself
// stays alive.
func (s *TripService) UnassignDriver(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, ta, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusDriverAssigned {
		return nil, ErrTripStateConflict
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.tas.UpdateStatus(ctx, ta.ID, ta.Status, domain.TripAssignmentStatusCancelled, time.Now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if err := r.trips.UpdateStatus(ctx, tripID, domain.TripStatusDriverAssigned, domain.TripStatusCreated); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.Status = domain.TripStatusCreated
	return trip, nil
}

// ReassignDriver replaces the current driver on a DRIVER_ASSIGNED trip
// with another, without passing through CREATED.
func (s *TripService) ReassignDriver(ctx context.Context, tripID, newDriverID string) (*domain.Trip, *domain.TripAssignment, error) {
	if newDriverID == "" {
		return nil, nil, ErrInvalidDriverID
	}

	trip, current, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	if trip.Status != domain.TripStatusDriverAssigned {
		return nil, nil, ErrTripStateConflict
	}

	if err := s.checkDriverWindow(ctx, newDriverID, trip); err != nil {
		return nil, nil, err
	}

	next := &domain.TripAssignment{
		ID:         uuid.New().String(),
		TripID:     tripID,
		DriverID:   newDriverID,
		Status:     domain.TripAssignmentStatusAssigned,
		AssignedAt: time.Now(),
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.tas.UpdateStatus(ctx, current.ID, current.Status, domain.TripAssignmentStatusCancelled, time.Now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if err := r.tas.Create(ctx, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripHasAssignment
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return trip, next, nil
}

// Start moves a trip to STARTED. The caller must be the driver holding
// the live assignment, and the start lead-time window must allow it.
func (s *TripService) Start(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, ta, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if ta.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	if trip.Status != domain.TripStatusCreated && trip.Status != domain.TripStatusDriverAssigned {
		return nil, ErrTripStateConflict
	}

	if result := s.engine.ValidateStart(trip, time.Now()); !result.Allowed {
		return nil, constraintError(result.Reason)
	}

	from := trip.Status
	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.trips.UpdateStatus(ctx, tripID, from, domain.TripStatusStarted); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if err := r.tas.UpdateStatus(ctx, ta.ID, ta.Status, domain.TripAssignmentStatusActive, time.Time{}); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.Status = domain.TripStatusStarted
	trip.StartedAt = time.Now()
	return trip, nil
}

// Arrive validates that the driver is at the pickup point inside the
// arrival window. It changes nothing: the trip stays STARTED, the
// result only gates whether an "arrived" event may be mirrored.
func (s *TripService) Arrive(ctx context.Context, tripID, driverID string, lat, lng float64) (*domain.Trip, error) {
	trip, ta, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if ta.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	if trip.Status != domain.TripStatusStarted {
		return nil, ErrTripStateConflict
	}

	if result := s.engine.ValidateArrive(trip, lat, lng, time.Now()); !result.Allowed {
		return nil, constraintError(result.Reason)
	}

	return trip, nil
}

// NoShow moves a STARTED trip to NO_SHOW once enough time has passed
// beyond the scheduled pickup.
func (s *TripService) NoShow(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, ta, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if ta.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	if trip.Status != domain.TripStatusStarted {
		return nil, ErrTripStateConflict
	}

	if result := s.engine.ValidateNoShow(trip, time.Now()); !result.Allowed {
		return nil, constraintError(result.Reason)
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.trips.UpdateStatus(ctx, tripID, domain.TripStatusStarted, domain.TripStatusNoShow); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if err := r.tas.UpdateStatus(ctx, ta.ID, ta.Status, domain.TripAssignmentStatusCancelled, time.Now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.Status = domain.TripStatusNoShow
	trip.CompletedAt = time.Now()
	return trip, nil
}

// Complete moves a STARTED trip to COMPLETED. fare, when non-nil,
// overrides the quoted price with the settled amount.
func (s *TripService) Complete(ctx context.Context, tripID, driverID string, fare *float64) (*domain.Trip, error) {
	trip, ta, err := s.getTripWithLiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if ta.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	if trip.Status != domain.TripStatusStarted {
		return nil, ErrTripStateConflict
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.trips.UpdateStatus(ctx, tripID, domain.TripStatusStarted, domain.TripStatusCompleted); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if err := r.tas.UpdateStatus(ctx, ta.ID, ta.Status, domain.TripAssignmentStatusCompleted, time.Now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}

		trip.Status = domain.TripStatusCompleted
		trip.CompletedAt = time.Now()
		if fare != nil {
			trip.Price = *fare
			return r.trips.Update(ctx, trip)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// Cancel moves any pre-STARTED trip to CANCELLED and cancels its live
// assignment if one exists.
func (s *TripService) Cancel(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusCreated && trip.Status != domain.TripStatusDriverAssigned {
		return nil, ErrTripStateConflict
	}

	ta, err := s.taRepo.GetActiveByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	from := trip.Status
	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.trips.UpdateStatus(ctx, tripID, from, domain.TripStatusCancelled); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTripStateConflict
			}
			return err
		}
		if ta != nil {
			if err := r.tas.UpdateStatus(ctx, ta.ID, ta.Status, domain.TripAssignmentStatusCancelled, time.Now()); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return ErrTripStateConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.Status = domain.TripStatusCancelled
	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.getTrip(ctx, tripID)
}

// GetLiveAssignment retrieves the trip's non-terminal assignment, or
// nil when there is none.
func (s *TripService) GetLiveAssignment(ctx context.Context, tripID string) (*domain.TripAssignment, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.taRepo.GetActiveByTripID(ctx, tripID)
}

// ListByFleet returns the fleet's trips, newest first.
func (s *TripService) ListByFleet(ctx context.Context, fleetID string) ([]*domain.Trip, error) {
	if fleetID == "" {
		return nil, ErrInvalidFleetID
	}
	return s.tripRepo.GetAllByFleet(ctx, fleetID)
}

func (s *TripService) getTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("trip", tripID)
		}
		return nil, err
	}
	return trip, nil
}

func (s *TripService) getTripWithLiveAssignment(ctx context.Context, tripID string) (*domain.Trip, *domain.TripAssignment, error) {
	if tripID == "" {
		return nil, nil, ErrInvalidTripID
	}

	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	ta, err := s.taRepo.GetActiveByTripID(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	if ta == nil {
		return nil, nil, ErrTripNotAssigned
	}

	return trip, ta, nil
}

// checkDriverWindow rejects an assignment when the driver already holds
// a live assignment on another trip whose scheduled pickup falls inside
// the resource window of this one.
func (s *TripService) checkDriverWindow(ctx context.Context, driverID string, trip *domain.Trip) error {
	live, err := s.taRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil {
		return err
	}

	for _, other := range live {
		if other.TripID == trip.ID {
			continue
		}
		otherTrip, err := s.tripRepo.GetByID(ctx, other.TripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return err
		}
		gap := otherTrip.ScheduledPickupTime.Sub(trip.ScheduledPickupTime)
		if gap < 0 {
			gap = -gap
		}
		if gap < resourceWindow {
			return ErrDriverBusy
		}
	}

	return nil
}
