package domain

import "time"

// AssignmentStatus represents the status of a roster assignment.
type AssignmentStatus string

const (
	AssignmentStatusActive AssignmentStatus = "ACTIVE"
	AssignmentStatusEnded  AssignmentStatus = "ENDED"
)

// Assignment binds one driver to one vehicle within a fleet for an
// open-ended duration. At most one ACTIVE assignment may exist per
// driver and per vehicle; the storage layer's partial unique indexes
// are the final arbiter of that rule.
type Assignment struct {
	ID        string
	FleetID   string
	DriverID  string
	VehicleID string
	Status    AssignmentStatus
	StartTime time.Time
	EndTime   time.Time // zero while ACTIVE
}
