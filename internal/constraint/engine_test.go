package constraint

import (
	"strings"
	"testing"
	"time"

	"dispatch/internal/domain"
)

var pickupTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func testTrip() *domain.Trip {
	return &domain.Trip{
		ID:                  "trip-1",
		PickupLat:           12.9716,
		PickupLng:           77.5946,
		ScheduledPickupTime: pickupTime,
	}
}

func TestValidateCreate(t *testing.T) {
	t.Parallel()

	base := CreateInput{
		OriginCity:      "Bangalore",
		DistanceKm:      42,
		VehicleClassSKU: "SEDAN",
		PickupTime:      pickupTime,
		Now:             pickupTime.Add(-3 * time.Hour),
	}

	tests := []struct {
		name    string
		cfg     Config
		mutate  func(*CreateInput)
		allowed bool
		reason  string
	}{
		{
			name:    "valid input passes",
			cfg:     DefaultConfig(),
			allowed: true,
		},
		{
			name: "origin city not serviceable",
			cfg: func() Config {
				c := DefaultConfig()
				c.AllowedOriginCities = []string{"Mysore"}
				return c
			}(),
			allowed: false,
			reason:  "not serviceable",
		},
		{
			name: "origin city in allowed list",
			cfg: func() Config {
				c := DefaultConfig()
				c.AllowedOriginCities = []string{"Mysore", "Bangalore"}
				return c
			}(),
			allowed: true,
		},
		{
			name: "lead time below minimum",
			cfg:  DefaultConfig(),
			mutate: func(in *CreateInput) {
				in.Now = pickupTime.Add(-29 * time.Minute)
			},
			allowed: false,
			reason:  "at least",
		},
		{
			name: "lead time exactly at minimum passes",
			cfg:  DefaultConfig(),
			mutate: func(in *CreateInput) {
				in.Now = pickupTime.Add(-30 * time.Minute)
			},
			allowed: true,
		},
		{
			name: "distance below minimum",
			cfg:  DefaultConfig(),
			mutate: func(in *CreateInput) {
				in.DistanceKm = 0.5
			},
			allowed: false,
			reason:  "below",
		},
		{
			name: "distance above maximum",
			cfg:  DefaultConfig(),
			mutate: func(in *CreateInput) {
				in.DistanceKm = 1200
			},
			allowed: false,
			reason:  "exceeds",
		},
		{
			name: "vehicle class not available",
			cfg: func() Config {
				c := DefaultConfig()
				c.AvailableVehicleClasses = []string{"SUV"}
				return c
			}(),
			allowed: false,
			reason:  "not available",
		},
		{
			name: "disabled engine passes everything",
			cfg:  Config{Enabled: false},
			mutate: func(in *CreateInput) {
				in.DistanceKm = 0
				in.Now = pickupTime.Add(time.Hour)
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := base
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			result := NewEngine(tt.cfg).ValidateCreate(in)
			if result.Allowed != tt.allowed {
				t.Fatalf("ValidateCreate() allowed = %v, want %v (reason: %s)", result.Allowed, tt.allowed, result.Reason)
			}
			if !tt.allowed && !strings.Contains(result.Reason, tt.reason) {
				t.Errorf("ValidateCreate() reason = %q, want it to contain %q", result.Reason, tt.reason)
			}
		})
	}
}

func TestValidateStart(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultConfig())
	trip := testTrip()

	if result := engine.ValidateStart(trip, pickupTime.Add(-3*time.Hour)); result.Allowed {
		t.Error("start 3h before pickup should be rejected")
	}
	if result := engine.ValidateStart(trip, pickupTime.Add(-2*time.Hour)); !result.Allowed {
		t.Errorf("start exactly at the window edge should pass: %s", result.Reason)
	}
	if result := engine.ValidateStart(trip, pickupTime.Add(-time.Hour)); !result.Allowed {
		t.Errorf("start 1h before pickup should pass: %s", result.Reason)
	}

	disabled := NewEngine(Config{Enabled: false})
	if result := disabled.ValidateStart(trip, pickupTime.Add(-24*time.Hour)); !result.Allowed {
		t.Error("disabled engine should pass any start time")
	}
}

func TestValidateArriveGeofence(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultConfig())
	trip := testTrip()
	now := pickupTime.Add(-10 * time.Minute)

	// About one degree of latitude is 111 km; these offsets place the
	// reported position just inside and just outside the 500 m radius.
	justInside := trip.PickupLat + 499.0/111_000
	justOutside := trip.PickupLat + 501.0/111_000

	if result := engine.ValidateArrive(trip, justInside, trip.PickupLng, now); !result.Allowed {
		t.Errorf("position inside the geofence should pass: %s", result.Reason)
	}
	if result := engine.ValidateArrive(trip, justOutside, trip.PickupLng, now); result.Allowed {
		t.Error("position outside the geofence should be rejected")
	}
	if result := engine.ValidateArrive(trip, trip.PickupLat, trip.PickupLng, now); !result.Allowed {
		t.Errorf("position exactly at pickup should pass: %s", result.Reason)
	}
}

func TestValidateArriveWindow(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultConfig())
	trip := testTrip()

	if result := engine.ValidateArrive(trip, trip.PickupLat, trip.PickupLng, pickupTime.Add(-3*time.Hour)); result.Allowed {
		t.Error("arrival 3h early should be rejected")
	}
	if result := engine.ValidateArrive(trip, trip.PickupLat, trip.PickupLng, pickupTime.Add(90*time.Minute)); !result.Allowed {
		t.Errorf("arrival 90m late should pass: %s", result.Reason)
	}
	if result := engine.ValidateArrive(trip, trip.PickupLat, trip.PickupLng, pickupTime.Add(3*time.Hour)); result.Allowed {
		t.Error("arrival 3h late should be rejected")
	}
}

func TestValidateNoShow(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultConfig())
	trip := testTrip()

	if result := engine.ValidateNoShow(trip, pickupTime.Add(29*time.Minute)); result.Allowed {
		t.Error("no-show below the minimum delay should be rejected")
	}
	if result := engine.ValidateNoShow(trip, pickupTime.Add(30*time.Minute)); !result.Allowed {
		t.Errorf("no-show exactly at the minimum delay should pass: %s", result.Reason)
	}
	if result := engine.ValidateNoShow(trip, pickupTime.Add(time.Hour)); !result.Allowed {
		t.Errorf("no-show past the minimum delay should pass: %s", result.Reason)
	}
}
