package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusCreated        TripStatus = "CREATED"
	TripStatusDriverAssigned TripStatus = "DRIVER_ASSIGNED"
	TripStatusStarted        TripStatus = "STARTED"
	TripStatusNoShow         TripStatus = "NO_SHOW"
	TripStatusCompleted      TripStatus = "COMPLETED"
	TripStatusCancelled      TripStatus = "CANCELLED"
)

// IsTerminal reports whether the status permits no further transitions.
func (s TripStatus) IsTerminal() bool {
	switch s {
	case TripStatusNoShow, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// TripType represents the category of a trip.
type TripType string

const (
	TripTypeAirport   TripType = "AIRPORT"
	TripTypeInterCity TripType = "INTER_CITY"
	TripTypeRental    TripType = "RENTAL"
)

// TripProvider identifies where a trip originated.
type TripProvider string

const (
	// TripProviderInternal marks trips booked through our own channels.
	TripProviderInternal TripProvider = "INTERNAL"
)

// Trip represents a single ride to be fulfilled. Trips are never
// deleted; terminal states are retained for audit and analytics.
type Trip struct {
	ID                  string
	FleetID             string
	HubID               string
	Type                TripType
	OriginCity          string
	DestinationCity     string
	PickupAddress       string
	PickupLat           float64
	PickupLng           float64
	DropAddress         string
	DropLat             float64
	DropLng             float64
	ScheduledPickupTime time.Time
	Status              TripStatus
	DistanceKm          float64
	BillableDistanceKm  float64
	Rate                float64
	Price               float64
	VehicleClassSKU     string
	StartedAt           time.Time
	CompletedAt         time.Time
	Provider            TripProvider
	ExternalBookingID   string // set when the trip maps to a partner booking
	CreatedAt           time.Time
}
