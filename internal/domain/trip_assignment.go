package domain

import "time"

// TripAssignmentStatus represents the status of a trip assignment.
type TripAssignmentStatus string

const (
	TripAssignmentStatusAssigned  TripAssignmentStatus = "ASSIGNED"
	TripAssignmentStatusActive    TripAssignmentStatus = "ACTIVE"
	TripAssignmentStatusCompleted TripAssignmentStatus = "COMPLETED"
	TripAssignmentStatusCancelled TripAssignmentStatus = "CANCELLED"
)

// IsTerminal reports whether the assignment can no longer change.
func (s TripAssignmentStatus) IsTerminal() bool {
	return s == TripAssignmentStatusCompleted || s == TripAssignmentStatusCancelled
}

// TripAssignment binds one driver to one specific trip. A trip has at
// most one non-terminal assignment at a time. The vehicle the trip uses
// is derived from the driver's ACTIVE roster Assignment, never stored
// here.
type TripAssignment struct {
	ID           string
	TripID       string
	DriverID     string
	Status       TripAssignmentStatus
	AssignedAt   time.Time
	UnassignedAt time.Time
}
