package domain

// VehicleStatus represents the current status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "ACTIVE"
	VehicleStatusInactive VehicleStatus = "INACTIVE"
)

// Vehicle represents a physical vehicle in a fleet.
type Vehicle struct {
	ID           string
	FleetID      string
	Registration string
	Name         string
	Color        string
	ClassSKU     string
	Status       VehicleStatus
}
