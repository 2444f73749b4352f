package service

import (
	"context"
	"log"

	"dispatch/internal/domain"
	internalredis "dispatch/internal/redis"
)

// Orchestrator sequences every public operation: check the caller's
// scope, commit the internal transition, then mirror it to the partner
// best-effort. Mirror outcomes are logged, never propagated, with one
// exception: assigning a driver requires that a vehicle can be resolved
// from the roster BEFORE anything commits, because an assignment the
// partner cannot dispatch is worse than rejecting upfront.
type Orchestrator struct {
	trips       *TripService
	assignments *AssignmentService
	dispatch    *DispatchService
	scope       ScopeAuthorizer
	locations   internalredis.LocationStoreInterface
	tripCache   internalredis.TripCacheInterface
}

// NewOrchestrator creates an Orchestrator. locations and tripCache may
// be nil when no Redis is configured.
func NewOrchestrator(
	trips *TripService,
	assignments *AssignmentService,
	dispatch *DispatchService,
	scope ScopeAuthorizer,
	locations internalredis.LocationStoreInterface,
	tripCache internalredis.TripCacheInterface,
) *Orchestrator {
	return &Orchestrator{
		trips:       trips,
		assignments: assignments,
		dispatch:    dispatch,
		scope:       scope,
		locations:   locations,
		tripCache:   tripCache,
	}
}

// CreateTrip creates a trip in CREATED state.
func (o *Orchestrator) CreateTrip(ctx context.Context, actor domain.Actor, req CreateTripRequest) (*domain.Trip, error) {
	if err := o.scope.CheckAccess(actor, req.FleetID, req.HubID); err != nil {
		return nil, err
	}
	return o.trips.CreateTrip(ctx, req)
}

// CreateAssignment binds a driver to a vehicle in the roster.
func (o *Orchestrator) CreateAssignment(ctx context.Context, actor domain.Actor, req CreateAssignmentRequest) (*domain.Assignment, error) {
	if err := o.scope.CheckAccess(actor, req.FleetID, ""); err != nil {
		return nil, err
	}
	return o.assignments.CreateAssignment(ctx, req)
}

// EndAssignment ends a roster assignment. In-flight trips keep their
// trip assignments; only future dispatches lose vehicle resolution.
func (o *Orchestrator) EndAssignment(ctx context.Context, actor domain.Actor, assignmentID string) (*domain.Assignment, error) {
	assignment, err := o.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := o.scope.CheckAccess(actor, assignment.FleetID, ""); err != nil {
		return nil, err
	}
	return o.assignments.EndAssignment(ctx, assignmentID)
}

// AssignDriver binds a driver to a trip and mirrors the assignment to
// the partner. The driver must resolve to an active roster vehicle
// before anything commits; the partner mandates vehicle details, so a
// vehicle-less assignment is rejected as a conflict, not mirrored
// half-blind.
func (o *Orchestrator) AssignDriver(ctx context.Context, actor domain.Actor, tripID, driverID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	roster, err := o.assignments.FindActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		return nil, ErrNoActiveVehicle
	}

	trip, _, err = o.trips.AssignDriver(ctx, trip.ID, driverID)
	if err != nil {
		return nil, err
	}

	o.logOutcome("assign", trip.ID, o.dispatch.Assign(ctx, trip, driverID))
	return trip, nil
}

// UnassignDriver removes the driver from a trip. The booking stays
// alive on the partner side: no detach is sent, by business rule.
func (o *Orchestrator) UnassignDriver(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	return o.trips.UnassignDriver(ctx, trip.ID)
}

// ReassignDriver swaps the trip's driver and mirrors the replacement.
// Like AssignDriver, the new driver must resolve to an active vehicle
// first.
func (o *Orchestrator) ReassignDriver(ctx context.Context, actor domain.Actor, tripID, newDriverID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	roster, err := o.assignments.FindActiveByDriver(ctx, newDriverID)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		return nil, ErrNoActiveVehicle
	}

	trip, _, err = o.trips.ReassignDriver(ctx, trip.ID, newDriverID)
	if err != nil {
		return nil, err
	}

	o.logOutcome("reassign", trip.ID, o.dispatch.Reassign(ctx, trip, newDriverID))
	return trip, nil
}

// DetachDriver removes the driver AND withdraws the booking from the
// partner's dispatch view, carrying the withdrawal reason. This is the
// partner-facing sibling of UnassignDriver.
func (o *Orchestrator) DetachDriver(ctx context.Context, actor domain.Actor, tripID, reason string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	trip, err = o.trips.UnassignDriver(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	o.logOutcome("detach", trip.ID, o.dispatch.Detach(ctx, trip, reason))
	return trip, nil
}

// Start moves the trip to STARTED and mirrors trip-start and boarded.
func (o *Orchestrator) Start(ctx context.Context, actor domain.Actor, tripID, driverID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	trip, err = o.trips.Start(ctx, trip.ID, driverID)
	if err != nil {
		return nil, err
	}

	o.logOutcome("trip-start", trip.ID, o.dispatch.TripStart(ctx, trip))
	o.logOutcome("boarded", trip.ID, o.dispatch.Boarded(ctx, trip))
	return trip, nil
}

// Arrive validates the driver's reported position against the pickup
// geofence and arrival window, then mirrors an arrived event. The trip
// status does not change.
func (o *Orchestrator) Arrive(ctx context.Context, actor domain.Actor, tripID, driverID string, lat, lng float64) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	trip, err = o.trips.Arrive(ctx, trip.ID, driverID, lat, lng)
	if err != nil {
		return nil, err
	}

	o.logOutcome("arrived", trip.ID, o.dispatch.Arrived(ctx, trip, lat, lng))
	return trip, nil
}

// NoShow marks the passenger a no-show and mirrors not-boarded.
func (o *Orchestrator) NoShow(ctx context.Context, actor domain.Actor, tripID, driverID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	trip, err = o.trips.NoShow(ctx, trip.ID, driverID)
	if err != nil {
		return nil, err
	}

	o.logOutcome("not-boarded", trip.ID, o.dispatch.NotBoarded(ctx, trip))
	return trip, nil
}

// Complete finishes the trip and mirrors alight. fare, when non-nil,
// overrides the quoted price with the settled amount.
func (o *Orchestrator) Complete(ctx context.Context, actor domain.Actor, tripID, driverID string, fare *float64) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	trip, err = o.trips.Complete(ctx, trip.ID, driverID, fare)
	if err != nil {
		return nil, err
	}

	o.logOutcome("alight", trip.ID, o.dispatch.Alight(ctx, trip))
	return trip, nil
}

// Cancel cancels a pre-STARTED trip. Internal only: withdrawing the
// partner booking is Detach's job.
func (o *Orchestrator) Cancel(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	return o.trips.Cancel(ctx, trip.ID)
}

// UpdateLiveLocation records a driver position and forwards a tracking
// ping to the partner. Both sides are soft: a dropped ping is logged
// and forgotten.
func (o *Orchestrator) UpdateLiveLocation(ctx context.Context, actor domain.Actor, tripID, driverID string, lat, lng float64) error {
	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return err
	}

	if o.locations != nil {
		if err := o.locations.UpdateLocation(ctx, driverID, lat, lng); err != nil {
			log.Printf("live location store failed: driver=%s: %v", driverID, err)
		}
	}

	o.logOutcome("live-location-update", trip.ID, o.dispatch.LiveLocation(ctx, trip, lat, lng))
	return nil
}

// GetTrip retrieves a trip within the actor's scope. Status queries
// tolerate seconds of staleness, so a short-TTL cache sits in front of
// the repository; mutating operations never read through it.
func (o *Orchestrator) GetTrip(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	if o.tripCache != nil {
		if trip, err := o.tripCache.GetTrip(ctx, tripID); err == nil && trip != nil {
			if err := o.scope.CheckAccess(actor, trip.FleetID, trip.HubID); err != nil {
				return nil, err
			}
			return trip, nil
		}
	}

	trip, err := o.tripInScope(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	if o.tripCache != nil {
		_ = o.tripCache.SetTrip(ctx, trip)
	}

	return trip, nil
}

// ListTrips lists a fleet's trips within the actor's scope, filtered to
// the actor's hubs.
func (o *Orchestrator) ListTrips(ctx context.Context, actor domain.Actor, fleetID string) ([]*domain.Trip, error) {
	if err := o.scope.CheckAccess(actor, fleetID, ""); err != nil {
		return nil, err
	}

	trips, err := o.trips.ListByFleet(ctx, fleetID)
	if err != nil {
		return nil, err
	}

	filtered := trips[:0]
	for _, trip := range trips {
		if trip.HubID == "" || actor.CanAccessHub(trip.HubID) {
			filtered = append(filtered, trip)
		}
	}

	return filtered, nil
}

// ListAssignments lists a fleet's roster assignments within the actor's
// scope.
func (o *Orchestrator) ListAssignments(ctx context.Context, actor domain.Actor, fleetID string) ([]*domain.Assignment, error) {
	if err := o.scope.CheckAccess(actor, fleetID, ""); err != nil {
		return nil, err
	}
	return o.assignments.ListByFleet(ctx, fleetID)
}

func (o *Orchestrator) tripInScope(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := o.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := o.scope.CheckAccess(actor, trip.FleetID, trip.HubID); err != nil {
		return nil, err
	}
	return trip, nil
}

func (o *Orchestrator) logOutcome(operation, tripID string, outcome DispatchOutcome) {
	switch {
	case !outcome.Attempted:
		log.Printf("dispatch %s not attempted: trip=%s", operation, tripID)
	case outcome.Succeeded:
		log.Printf("dispatch %s mirrored: trip=%s", operation, tripID)
	default:
		log.Printf("dispatch %s failed, internal state retained: trip=%s: %s", operation, tripID, outcome.ErrorDetail)
	}
}
