package constraint

import (
	"fmt"
	"time"

	"dispatch/internal/domain"
)

// Config holds the business rules the engine evaluates. Enabled turns
// the whole engine on or off: when false, every check passes. The flag
// exists so non-production environments can run automation flows that
// would otherwise trip the timing rules; it is an explicit knob, not an
// implicit environment branch.
type Config struct {
	Enabled bool

	// Creation rules.
	AllowedOriginCities     []string // empty means any
	MinBookingLead          time.Duration
	MinDistanceKm           float64
	MaxDistanceKm           float64
	AvailableVehicleClasses []string // empty means any

	// Transition rules.
	StartLeadWindow time.Duration // start allowed only within this window before pickup
	ArriveWindow    time.Duration // arrive allowed within +/- this window around pickup
	NoShowMinDelay  time.Duration // no-show allowed once this much time has passed since pickup
	GeofenceRadiusM float64       // arrive must be within this many meters of pickup
}

// DefaultConfig returns the production rule set.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MinBookingLead:  30 * time.Minute,
		MinDistanceKm:   1,
		MaxDistanceKm:   1000,
		StartLeadWindow: 2 * time.Hour,
		ArriveWindow:    2 * time.Hour,
		NoShowMinDelay:  30 * time.Minute,
		GeofenceRadiusM: 500,
	}
}

// Result is the outcome of a rule evaluation.
type Result struct {
	Allowed bool
	Reason  string
}

func allowed() Result {
	return Result{Allowed: true}
}

func rejected(format string, args ...any) Result {
	return Result{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Engine evaluates business rules against explicit inputs. It holds no
// clock and performs no IO; callers pass "now" and the reported
// location so every check is deterministic.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given rule configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// CreateInput carries the fields checked at trip creation.
type CreateInput struct {
	OriginCity      string
	DistanceKm      float64
	VehicleClassSKU string
	PickupTime      time.Time
	Now             time.Time
}

// ValidateCreate checks the trip-creation rules.
func (e *Engine) ValidateCreate(in CreateInput) Result {
	if !e.cfg.Enabled {
		return allowed()
	}

	if len(e.cfg.AllowedOriginCities) > 0 && !contains(e.cfg.AllowedOriginCities, in.OriginCity) {
		return rejected("origin city %q is not serviceable", in.OriginCity)
	}

	if lead := in.PickupTime.Sub(in.Now); lead < e.cfg.MinBookingLead {
		return rejected("pickup must be at least %s from booking time", e.cfg.MinBookingLead)
	}

	if e.cfg.MinDistanceKm > 0 && in.DistanceKm < e.cfg.MinDistanceKm {
		return rejected("trip distance %.1f km is below the %.1f km minimum", in.DistanceKm, e.cfg.MinDistanceKm)
	}

	if e.cfg.MaxDistanceKm > 0 && in.DistanceKm > e.cfg.MaxDistanceKm {
		return rejected("trip distance %.1f km exceeds the %.1f km maximum", in.DistanceKm, e.cfg.MaxDistanceKm)
	}

	if len(e.cfg.AvailableVehicleClasses) > 0 && in.VehicleClassSKU != "" &&
		!contains(e.cfg.AvailableVehicleClasses, in.VehicleClassSKU) {
		return rejected("vehicle class %q is not available", in.VehicleClassSKU)
	}

	return allowed()
}

// ValidateStart checks that "now" falls inside the start lead window:
// a trip may be started only once pickup is at most StartLeadWindow
// away, and never after it has been missed by more than the window.
func (e *Engine) ValidateStart(trip *domain.Trip, now time.Time) Result {
	if !e.cfg.Enabled {
		return allowed()
	}

	until := trip.ScheduledPickupTime.Sub(now)
	if until > e.cfg.StartLeadWindow {
		return rejected("trip can only be started within %s of scheduled pickup", e.cfg.StartLeadWindow)
	}

	return allowed()
}

// ValidateArrive checks the geofence around the pickup point and the
// arrival time window straddling pickup. A reported position strictly
// farther than the configured radius is rejected.
func (e *Engine) ValidateArrive(trip *domain.Trip, lat, lng float64, now time.Time) Result {
	if !e.cfg.Enabled {
		return allowed()
	}

	distM := HaversineMeters(lat, lng, trip.PickupLat, trip.PickupLng)
	if distM > e.cfg.GeofenceRadiusM {
		return rejected("reported position is %.0f m from pickup, outside the %.0f m geofence", distM, e.cfg.GeofenceRadiusM)
	}

	gap := now.Sub(trip.ScheduledPickupTime)
	if gap < 0 {
		gap = -gap
	}
	if gap > e.cfg.ArriveWindow {
		return rejected("arrival can only be reported within %s of scheduled pickup", e.cfg.ArriveWindow)
	}

	return allowed()
}

// ValidateNoShow checks the minimum elapsed time past scheduled pickup.
// The threshold is inclusive: exactly NoShowMinDelay after pickup is
// allowed.
func (e *Engine) ValidateNoShow(trip *domain.Trip, now time.Time) Result {
	if !e.cfg.Enabled {
		return allowed()
	}

	if elapsed := now.Sub(trip.ScheduledPickupTime); elapsed < e.cfg.NoShowMinDelay {
		return rejected("no-show can only be reported %s after scheduled pickup", e.cfg.NoShowMinDelay)
	}

	return allowed()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
