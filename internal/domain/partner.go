package domain

import "time"

// PartnerMapping links a trip to its booking on an external aggregator
// partner, together with the partner's last-known status string. It is
// written by dispatch synchronization and read only to decide whether
// partner calls apply to a trip.
type PartnerMapping struct {
	TripID            string
	ExternalBookingID string
	PartnerStatus     string
	UpdatedAt         time.Time
}
