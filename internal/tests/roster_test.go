package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dispatch/internal/constraint"
	"dispatch/internal/service"
)

func TestCreateAssignment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")

	assignment, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  driver.ID,
		VehicleID: vehicle.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() error = %v", err)
	}
	if assignment.Status != "ACTIVE" {
		t.Errorf("assignment status = %s, want ACTIVE", assignment.Status)
	}
	if assignment.StartTime.IsZero() {
		t.Error("assignment start time should be set")
	}
}

func TestCreateAssignmentDriverAlreadyAssigned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	v1 := env.seedVehicle("fleet-1", "KA01AB1234")
	v2 := env.seedVehicle("fleet-1", "KA01CD5678")
	env.seedRoster(driver, v1)

	_, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  driver.ID,
		VehicleID: v2.ID,
	})
	if !errors.Is(err, service.ErrConflict) {
		t.Errorf("second assignment for driver should be a conflict, got %v", err)
	}
}

func TestCreateAssignmentVehicleAlreadyAssigned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	d1 := env.seedDriver("fleet-1", "Ravi")
	d2 := env.seedDriver("fleet-1", "Suresh")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	env.seedRoster(d1, vehicle)

	_, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  d2.ID,
		VehicleID: vehicle.ID,
	})
	if !errors.Is(err, service.ErrConflict) {
		t.Errorf("second assignment for vehicle should be a conflict, got %v", err)
	}
}

func TestCreateAssignmentFleetMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-2", "MH01AB1234")

	_, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  driver.ID,
		VehicleID: vehicle.ID,
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("cross-fleet assignment should fail validation, got %v", err)
	}
}

func TestCreateAssignmentUnknownDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")

	_, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  "no-such-driver",
		VehicleID: vehicle.ID,
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("unknown driver should report not found, got %v", err)
	}
}

// Many concurrent attempts to assign the same driver must produce
// exactly one ACTIVE assignment; the store's uniqueness guarantee, not
// an in-process lock, decides the winner.
func TestConcurrentAssignmentsSingleWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")

	const attempts = 20
	vehicles := make([]string, attempts)
	for i := range vehicles {
		vehicles[i] = env.seedVehicle("fleet-1", "KA01AB"+string(rune('A'+i))).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(vehicleID string) {
			defer wg.Done()
			_, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
				FleetID:   "fleet-1",
				DriverID:  driver.ID,
				VehicleID: vehicleID,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, service.ErrConflict) {
				t.Errorf("unexpected error kind: %v", err)
			}
		}(vehicles[i])
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("got %d successful assignments, want exactly 1", successes)
	}
	if active := env.assignments.ActiveCount(); active != 1 {
		t.Errorf("store holds %d ACTIVE assignments, want exactly 1", active)
	}
}

func TestEndAssignment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(constraint.DefaultConfig())
	driver := env.seedDriver("fleet-1", "Ravi")
	vehicle := env.seedVehicle("fleet-1", "KA01AB1234")
	assignment := env.seedRoster(driver, vehicle)

	ended, err := env.assignSvc.EndAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("EndAssignment() error = %v", err)
	}
	if ended.Status != "ENDED" {
		t.Errorf("assignment status = %s, want ENDED", ended.Status)
	}
	if ended.EndTime.IsZero() {
		t.Error("end time should be set")
	}

	// Ending twice is a conflict.
	if _, err := env.assignSvc.EndAssignment(ctx, assignment.ID); !errors.Is(err, service.ErrConflict) {
		t.Errorf("second end should be a conflict, got %v", err)
	}

	// Both parties are free again.
	v2 := env.seedVehicle("fleet-1", "KA01CD5678")
	if _, err := env.assignSvc.CreateAssignment(ctx, service.CreateAssignmentRequest{
		FleetID:   "fleet-1",
		DriverID:  driver.ID,
		VehicleID: v2.ID,
	}); err != nil {
		t.Errorf("driver should be assignable after ending, got %v", err)
	}
}

func TestEndAssignmentNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(constraint.DefaultConfig())
	if _, err := env.assignSvc.EndAssignment(context.Background(), "no-such-id"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("ending an unknown assignment should report not found, got %v", err)
	}
}
