package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/constraint"
	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// A failing partner never affects the internal transition: the trip
// commits, the mirror failure is swallowed.
func TestPartnerFailureDoesNotBlockTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	env.client.FailWith = errors.New("partner unreachable")

	trip := env.seedTrip(domain.TripStatusDriverAssigned, time.Now().Add(time.Hour))
	driver := env.seedDriver("fleet-1", "Ravi")
	env.seedTripAssignment(trip, driver.ID, domain.TripAssignmentStatusAssigned)

	updated, err := env.orch.Start(ctx, adminActor(), trip.ID, driver.ID)
	if err != nil {
		t.Fatalf("Start() with failing partner error = %v", err)
	}
	if updated.Status != domain.TripStatusStarted {
		t.Errorf("trip status = %s, want STARTED despite partner failure", updated.Status)
	}
	if env.trips.Status(trip.ID) != domain.TripStatusStarted {
		t.Error("stored trip must be STARTED despite partner failure")
	}
}

// Assigning a driver without an active roster vehicle is rejected
// before anything commits; the partner mandates vehicle details.
func TestAssignDriverRequiresActiveVehicle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	driver := env.seedDriver("fleet-1", "Ravi")

	_, err := env.orch.AssignDriver(ctx, adminActor(), trip.ID, driver.ID)
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("assign without roster vehicle should conflict, got %v", err)
	}

	// Nothing committed, nothing mirrored.
	if env.trips.Status(trip.ID) != domain.TripStatusCreated {
		t.Error("trip must stay CREATED when the pre-check rejects")
	}
	if env.tas.LiveCountForTrip(trip.ID) != 0 {
		t.Error("no trip assignment may exist after a rejected assign")
	}
	if len(env.client.Calls()) != 0 {
		t.Error("no partner call may be made after a rejected assign")
	}
}

// The vehicle pushed to the partner comes from the driver's current
// roster assignment, not from any earlier one.
func TestAssignPushesCurrentRosterVehicle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	v1 := env.seedVehicle("fleet-1", "KA01OLD001")
	v2 := env.seedVehicle("fleet-1", "KA01NEW002")

	first := env.seedRoster(driver, v1)
	if _, err := env.assignSvc.EndAssignment(ctx, first.ID); err != nil {
		t.Fatalf("EndAssignment() error = %v", err)
	}
	env.seedRoster(driver, v2)

	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	if _, err := env.orch.AssignDriver(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver() error = %v", err)
	}

	calls := env.client.Calls()
	if len(calls) != 1 || calls[0].Operation != "assign" {
		t.Fatalf("calls = %+v, want a single assign", calls)
	}
	if calls[0].VehicleRegistration != v2.Registration {
		t.Errorf("pushed vehicle = %s, want current roster vehicle %s", calls[0].VehicleRegistration, v2.Registration)
	}
}

// Unassign keeps the booking alive on the partner side; detach
// withdraws it, carrying the reason.
func TestUnassignSilentDetachNotifies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")

	unassignTrip := env.seedTrip(domain.TripStatusDriverAssigned, time.Now().Add(time.Hour))
	env.seedTripAssignment(unassignTrip, driver.ID, domain.TripAssignmentStatusAssigned)
	if _, err := env.orch.UnassignDriver(ctx, adminActor(), unassignTrip.ID); err != nil {
		t.Fatalf("UnassignDriver() error = %v", err)
	}
	if len(env.client.Calls()) != 0 {
		t.Errorf("unassign must not call the partner, got %+v", env.client.Calls())
	}

	detachTrip := env.seedTrip(domain.TripStatusDriverAssigned, time.Now().Add(time.Hour))
	env.seedTripAssignment(detachTrip, driver.ID, domain.TripAssignmentStatusAssigned)
	if _, err := env.orch.DetachDriver(ctx, adminActor(), detachTrip.ID, "driver unwell"); err != nil {
		t.Fatalf("DetachDriver() error = %v", err)
	}

	calls := env.client.Calls()
	if len(calls) != 1 || calls[0].Operation != "detach" {
		t.Fatalf("calls = %+v, want a single detach", calls)
	}
	if calls[0].Reason != "driver unwell" {
		t.Errorf("detach reason = %q, want %q", calls[0].Reason, "driver unwell")
	}
	if env.trips.Status(detachTrip.ID) != domain.TripStatusCreated {
		t.Error("detached trip should return to CREATED")
	}
}

// Start mirrors both a trip-start and a boarded event: the partner
// models departure as the passenger boarding.
func TestStartMirrorsTripStartAndBoarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusDriverAssigned, time.Now().Add(time.Hour))
	driver := env.seedDriver("fleet-1", "Ravi")
	env.seedTripAssignment(trip, driver.ID, domain.TripAssignmentStatusAssigned)

	if _, err := env.orch.Start(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	calls := env.client.Calls()
	if len(calls) != 2 || calls[0].Operation != "trip-start" || calls[1].Operation != "boarded" {
		t.Errorf("calls = %+v, want trip-start then boarded", calls)
	}
}

func TestNoShowMirrorsNotBoarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusStarted, time.Now().Add(-time.Hour))
	driver := env.seedDriver("fleet-1", "Ravi")
	env.seedTripAssignment(trip, driver.ID, domain.TripAssignmentStatusActive)

	if _, err := env.orch.NoShow(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("NoShow() error = %v", err)
	}
	if env.client.CallCount("not-boarded") != 1 {
		t.Errorf("want exactly one not-boarded call, calls = %+v", env.client.Calls())
	}
}

func TestCompleteMirrorsAlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusStarted, time.Now())
	driver := env.seedDriver("fleet-1", "Ravi")
	env.seedTripAssignment(trip, driver.ID, domain.TripAssignmentStatusActive)

	if _, err := env.orch.Complete(ctx, adminActor(), trip.ID, driver.ID, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if env.client.CallCount("alight") != 1 {
		t.Errorf("want exactly one alight call, calls = %+v", env.client.Calls())
	}
}

// Cancel is internal only: the partner is never told.
func TestCancelDoesNotCallPartner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))

	if _, err := env.orch.Cancel(ctx, adminActor(), trip.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if len(env.client.Calls()) != 0 {
		t.Errorf("cancel must not call the partner, got %+v", env.client.Calls())
	}
}

// The booking id sent to the partner never exceeds 10 characters, even
// though the internal trip id is a UUID.
func TestPartnerBookingIDCompressed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	env.seedRoster(driver, vehicle)

	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	if _, err := env.orch.AssignDriver(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver() error = %v", err)
	}

	calls := env.client.Calls()
	if len(calls) != 1 {
		t.Fatalf("want one call, got %d", len(calls))
	}
	if got := calls[0].BookingID; len(got) == 0 || len(got) > 10 {
		t.Errorf("booking id %q must be 1 to 10 characters", got)
	}

	// A stored partner booking reference wins over the compressed id.
	mapped := env.seedTrip(domain.TripStatusStarted, time.Now())
	mapped.ExternalBookingID = "EXT123"
	env.trips.AddTrip(mapped)
	env.seedTripAssignment(mapped, driver.ID, domain.TripAssignmentStatusActive)
	if _, err := env.orch.Complete(ctx, adminActor(), mapped.ID, driver.ID, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	calls = env.client.Calls()
	last := calls[len(calls)-1]
	if last.BookingID != "EXT123" {
		t.Errorf("booking id = %q, want external reference EXT123", last.BookingID)
	}
}

// A successful mirror refreshes the partner mapping with the partner's
// view of the status.
func TestDispatchRecordsPartnerStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	env.seedRoster(driver, vehicle)

	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	if _, err := env.orch.AssignDriver(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver() error = %v", err)
	}

	mapping, err := env.mappings.GetByTripID(ctx, trip.ID)
	if err != nil || mapping == nil {
		t.Fatalf("mapping missing after assign: %v", err)
	}
	if mapping.PartnerStatus != "ASSIGNED" {
		t.Errorf("partner status = %s, want ASSIGNED", mapping.PartnerStatus)
	}
}

func TestLiveLocationUpdatesStoreAndPartner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusStarted, time.Now())
	driver := env.seedDriver("fleet-1", "Ravi")
	env.seedTripAssignment(trip, driver.ID, domain.TripAssignmentStatusActive)

	if err := env.orch.UpdateLiveLocation(ctx, adminActor(), trip.ID, driver.ID, 12.98, 77.60); err != nil {
		t.Fatalf("UpdateLiveLocation() error = %v", err)
	}
	if env.locations.UpdateCallCount != 1 {
		t.Error("live location should be written to the store")
	}
	if env.client.CallCount("live-location-update") != 1 {
		t.Errorf("want one live-location-update call, calls = %+v", env.client.Calls())
	}

	// A failing store does not fail the operation.
	env2 := newTestEnv(constraint.DefaultConfig())
	env2.locations.UpdateError = errors.New("redis down")
	trip2 := env2.seedTrip(domain.TripStatusStarted, time.Now())
	env2.seedTripAssignment(trip2, driver.ID, domain.TripAssignmentStatusActive)
	if err := env2.orch.UpdateLiveLocation(ctx, adminActor(), trip2.ID, driver.ID, 12.98, 77.60); err != nil {
		t.Errorf("location store failure must not surface, got %v", err)
	}
}
