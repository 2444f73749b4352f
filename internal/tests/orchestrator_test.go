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

func TestScopeFleetIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))

	outsider := domain.Actor{ID: "ops-2", Role: domain.ActorRoleOps, FleetID: "fleet-2"}
	if _, err := env.orch.GetTrip(ctx, outsider, trip.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("foreign fleet ops reading a trip should be forbidden, got %v", err)
	}
	if _, err := env.orch.Cancel(ctx, outsider, trip.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("foreign fleet ops cancelling a trip should be forbidden, got %v", err)
	}

	insider := domain.Actor{ID: "ops-1", Role: domain.ActorRoleOps, FleetID: "fleet-1"}
	if _, err := env.orch.GetTrip(ctx, insider, trip.ID); err != nil {
		t.Errorf("same fleet ops should read the trip, got %v", err)
	}
}

func TestScopeHubRestriction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())

	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	trip.HubID = "hub-north"
	env.trips.AddTrip(trip)

	southOps := domain.Actor{ID: "ops-s", Role: domain.ActorRoleOps, FleetID: "fleet-1", HubIDs: []string{"hub-south"}}
	if _, err := env.orch.GetTrip(ctx, southOps, trip.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("ops scoped to another hub should be forbidden, got %v", err)
	}

	northOps := domain.Actor{ID: "ops-n", Role: domain.ActorRoleOps, FleetID: "fleet-1", HubIDs: []string{"hub-north"}}
	if _, err := env.orch.GetTrip(ctx, northOps, trip.ID); err != nil {
		t.Errorf("ops scoped to the trip's hub should read it, got %v", err)
	}

	// An empty hub list covers the whole fleet.
	fleetOps := domain.Actor{ID: "ops-f", Role: domain.ActorRoleOps, FleetID: "fleet-1"}
	if _, err := env.orch.GetTrip(ctx, fleetOps, trip.ID); err != nil {
		t.Errorf("fleet-wide ops should read any hub's trip, got %v", err)
	}
}

func TestListTripsFiltersByHub(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())

	north := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	north.HubID = "hub-north"
	env.trips.AddTrip(north)

	south := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))
	south.HubID = "hub-south"
	env.trips.AddTrip(south)

	unhubbed := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))

	northOps := domain.Actor{ID: "ops-n", Role: domain.ActorRoleOps, FleetID: "fleet-1", HubIDs: []string{"hub-north"}}
	trips, err := env.orch.ListTrips(ctx, northOps, "fleet-1")
	if err != nil {
		t.Fatalf("ListTrips() error = %v", err)
	}

	ids := make(map[string]bool, len(trips))
	for _, trip := range trips {
		ids[trip.ID] = true
	}
	if !ids[north.ID] {
		t.Error("own-hub trip should be listed")
	}
	if ids[south.ID] {
		t.Error("foreign-hub trip must not be listed")
	}
	if !ids[unhubbed.ID] {
		t.Error("hub-less trip should be listed")
	}
}

func TestGetTripReadsThroughCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))

	// First read misses the cache and populates it.
	if _, err := env.orch.GetTrip(ctx, adminActor(), trip.ID); err != nil {
		t.Fatalf("GetTrip() error = %v", err)
	}
	if env.cache.SetCallCount != 1 {
		t.Error("first read should populate the cache")
	}

	// Second read is served from the cache.
	before := env.trips.Status(trip.ID)
	got, err := env.orch.GetTrip(ctx, adminActor(), trip.ID)
	if err != nil {
		t.Fatalf("GetTrip() error = %v", err)
	}
	if got.Status != before {
		t.Errorf("cached status = %s, want %s", got.Status, before)
	}
	if env.cache.GetCallCount != 2 {
		t.Errorf("cache should be consulted on every read, got %d lookups", env.cache.GetCallCount)
	}
}

func TestEndAssignmentChecksOwnerFleet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	assignment := env.seedRoster(driver, vehicle)

	outsider := domain.Actor{ID: "ops-2", Role: domain.ActorRoleOps, FleetID: "fleet-2"}
	if _, err := env.orch.EndAssignment(ctx, outsider, assignment.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("foreign fleet ops ending an assignment should be forbidden, got %v", err)
	}

	insider := domain.Actor{ID: "ops-1", Role: domain.ActorRoleOps, FleetID: "fleet-1"}
	if _, err := env.orch.EndAssignment(ctx, insider, assignment.ID); err != nil {
		t.Errorf("same fleet ops should end the assignment, got %v", err)
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(time.Hour))

	rogue := domain.Actor{ID: "x", Role: domain.ActorRole("SUPERUSER"), FleetID: "fleet-1"}
	if _, err := env.orch.GetTrip(ctx, rogue, trip.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("unknown role should be denied, got %v", err)
	}
}

// End-to-end: a trip rejected for starting too early succeeds once the
// clock reaches the lead window.
func TestStartLeadWindowEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	env.seedRoster(driver, vehicle)

	trip := env.seedTrip(domain.TripStatusCreated, time.Now().Add(3*time.Hour))
	if _, err := env.orch.AssignDriver(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver() error = %v", err)
	}

	if _, err := env.orch.Start(ctx, adminActor(), trip.ID, driver.ID); !errors.Is(err, service.ErrConstraintViolation) {
		t.Fatalf("start 3h before pickup should be a constraint violation, got %v", err)
	}

	// Pull the pickup an hour closer; the same start now succeeds.
	stored, _ := env.trips.GetByID(ctx, trip.ID)
	stored.ScheduledPickupTime = time.Now().Add(90 * time.Minute)
	env.trips.AddTrip(stored)

	if _, err := env.orch.Start(ctx, adminActor(), trip.ID, driver.ID); err != nil {
		t.Fatalf("start inside the lead window should succeed, got %v", err)
	}
	if env.trips.Status(trip.ID) != domain.TripStatusStarted {
		t.Error("trip should be STARTED")
	}
}
