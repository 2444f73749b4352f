package tests

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/constraint"
	"dispatch/internal/domain"
	"dispatch/internal/pricing"
	"dispatch/internal/service"
)

// testEnv wires the full service stack against in-memory mocks. No
// database: the trip service falls back to direct repository access.
type testEnv struct {
	drivers     *MockDriverRepository
	vehicles    *MockVehicleRepository
	assignments *MockAssignmentRepository
	trips       *MockTripRepository
	tas         *MockTripAssignmentRepository
	mappings    *MockPartnerMappingRepository
	client      *MockPartnerClient
	locations   *MockLocationStore
	cache       *MockTripCache

	tripSvc   *service.TripService
	assignSvc *service.AssignmentService
	orch      *service.Orchestrator
}

func newTestEnv(cfg constraint.Config) *testEnv {
	env := &testEnv{
		drivers:     NewMockDriverRepository(),
		vehicles:    NewMockVehicleRepository(),
		assignments: NewMockAssignmentRepository(),
		trips:       NewMockTripRepository(),
		tas:         NewMockTripAssignmentRepository(),
		mappings:    NewMockPartnerMappingRepository(),
		client:      NewMockPartnerClient(),
		locations:   NewMockLocationStore(),
		cache:       NewMockTripCache(),
	}

	env.tripSvc = service.NewTripService(nil, env.trips, env.tas, env.assignments, constraint.NewEngine(cfg), pricing.NewRateCard(), service.HaversineResolver{})
	env.assignSvc = service.NewAssignmentService(env.assignments, env.drivers, env.vehicles)
	dispatchSvc := service.NewDispatchService(env.client, env.drivers, env.vehicles, env.assignments, env.mappings)
	env.orch = service.NewOrchestrator(env.tripSvc, env.assignSvc, dispatchSvc, service.NewFleetScopeAuthorizer(), env.locations, env.cache)

	return env
}

func adminActor() domain.Actor {
	return domain.Actor{ID: "admin-1", Role: domain.ActorRoleAdmin}
}

func (env *testEnv) seedDriver(fleetID, name string) *domain.Driver {
	driver := &domain.Driver{
		ID:      uuid.New().String(),
		FleetID: fleetID,
		Name:    name,
		Phone:   "+91" + uuid.New().String()[:8],
		Status:  domain.DriverStatusActive,
	}
	env.drivers.AddDriver(driver)
	return driver
}

func (env *testEnv) seedVehicle(fleetID, registration string) *domain.Vehicle {
	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		FleetID:      fleetID,
		Registration: registration,
		Name:         "Test Sedan",
		Status:       domain.VehicleStatusActive,
	}
	env.vehicles.AddVehicle(vehicle)
	return vehicle
}

// seedRoster binds driver and vehicle through the assignment service.
func (env *testEnv) seedRoster(driver *domain.Driver, vehicle *domain.Vehicle) *domain.Assignment {
	assignment, err := env.assignSvc.CreateAssignment(context.Background(), service.CreateAssignmentRequest{
		FleetID:   driver.FleetID,
		DriverID:  driver.ID,
		VehicleID: vehicle.ID,
	})
	if err != nil {
		panic("seedRoster: " + err.Error())
	}
	return assignment
}

// seedTrip plants a trip directly in the repository, bypassing creation
// rules, so transition tests control their starting state.
func (env *testEnv) seedTrip(status domain.TripStatus, pickup time.Time) *domain.Trip {
	trip := &domain.Trip{
		ID:                  uuid.New().String(),
		FleetID:             "fleet-1",
		Type:                domain.TripTypeAirport,
		OriginCity:          "Bangalore",
		DestinationCity:     "Bangalore Airport",
		PickupLat:           12.9716,
		PickupLng:           77.5946,
		DropLat:             13.1986,
		DropLng:             77.7066,
		ScheduledPickupTime: pickup,
		Status:              status,
		DistanceKm:          28,
		Price:               604,
		Provider:            domain.TripProviderInternal,
		CreatedAt:           time.Now(),
	}
	env.trips.AddTrip(trip)
	return trip
}

// seedTripAssignment plants a live trip assignment for the trip.
func (env *testEnv) seedTripAssignment(trip *domain.Trip, driverID string, status domain.TripAssignmentStatus) *domain.TripAssignment {
	ta := &domain.TripAssignment{
		ID:         uuid.New().String(),
		TripID:     trip.ID,
		DriverID:   driverID,
		Status:     status,
		AssignedAt: time.Now(),
	}
	env.tas.AddTripAssignment(ta)
	return ta
}
