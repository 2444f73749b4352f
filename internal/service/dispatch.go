package service

import (
	"context"
	"errors"
	"log"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/partner"
	"dispatch/internal/repository"
)

// DispatchOutcome reports a best-effort mirror attempt. It is never an
// error: partner failures do not propagate to callers, they are logged
// and reflected here so the orchestrator can audit them.
type DispatchOutcome struct {
	Attempted   bool
	Succeeded   bool
	ErrorDetail string
}

func outcomeOK() DispatchOutcome {
	return DispatchOutcome{Attempted: true, Succeeded: true}
}

func outcomeSkipped() DispatchOutcome {
	return DispatchOutcome{}
}

// DispatchService mirrors internal assignment and lifecycle facts to
// the external aggregator partner. Internal state is always the source
// of truth; nothing this service does can fail a committed transition.
// It does not deduplicate re-sent events; at-least-once semantics are
// the transport boundary's concern.
type DispatchService struct {
	client         partner.Client
	driverRepo     repository.DriverRepository
	vehicleRepo    repository.VehicleRepository
	assignmentRepo repository.AssignmentRepository
	mappingRepo    repository.PartnerMappingRepository
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	client partner.Client,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	assignmentRepo repository.AssignmentRepository,
	mappingRepo repository.PartnerMappingRepository,
) *DispatchService {
	return &DispatchService{
		client:         client,
		driverRepo:     driverRepo,
		vehicleRepo:    vehicleRepo,
		assignmentRepo: assignmentRepo,
		mappingRepo:    mappingRepo,
	}
}

// BookingID resolves the identifier the partner knows this trip by:
// the stored mapping first, then the trip's own external reference,
// otherwise the compressed internal id.
func (s *DispatchService) BookingID(ctx context.Context, trip *domain.Trip) string {
	if s.mappingRepo != nil {
		if m, err := s.mappingRepo.GetByTripID(ctx, trip.ID); err == nil && m != nil {
			return m.ExternalBookingID
		}
	}
	if trip.ExternalBookingID != "" {
		return partner.ExternalID(trip.ExternalBookingID)
	}
	return partner.ExternalID(trip.ID)
}

// Assign pushes the driver and the driver's current roster vehicle to
// the partner. The roster, not the trip payload, is authoritative for
// which vehicle the trip uses.
func (s *DispatchService) Assign(ctx context.Context, trip *domain.Trip, driverID string) DispatchOutcome {
	return s.pushAssignment(ctx, "assign", trip, driverID, s.client.Assign)
}

// Reassign replaces the partner's view of the booking's driver.
func (s *DispatchService) Reassign(ctx context.Context, trip *domain.Trip, driverID string) DispatchOutcome {
	return s.pushAssignment(ctx, "reassign", trip, driverID, s.client.Reassign)
}

// Detach tells the partner the booking itself is withdrawn. It is not
// the same as unassigning a driver, which the partner never hears
// about.
func (s *DispatchService) Detach(ctx context.Context, trip *domain.Trip, reason string) DispatchOutcome {
	bookingID := s.BookingID(ctx, trip)
	outcome := s.try(ctx, "detach", trip.ID, bookingID, func() error {
		return s.client.Detach(ctx, partner.EventPayload{
			BookingID: bookingID,
			Timestamp: time.Now(),
			Reason:    reason,
		})
	})
	if outcome.Succeeded {
		s.recordStatus(ctx, trip, bookingID, "DETACHED")
	}
	return outcome
}

// TripStart mirrors a start transition.
func (s *DispatchService) TripStart(ctx context.Context, trip *domain.Trip) DispatchOutcome {
	return s.pushEvent(ctx, "trip-start", trip, "STARTED", s.client.TripStart, 0, 0)
}

// Arrived mirrors a validated arrival at the pickup point.
func (s *DispatchService) Arrived(ctx context.Context, trip *domain.Trip, lat, lng float64) DispatchOutcome {
	return s.pushEvent(ctx, "arrived", trip, "ARRIVED", s.client.Arrived, lat, lng)
}

// Boarded mirrors the passenger boarding.
func (s *DispatchService) Boarded(ctx context.Context, trip *domain.Trip) DispatchOutcome {
	return s.pushEvent(ctx, "boarded", trip, "BOARDED", s.client.Boarded, 0, 0)
}

// Alight mirrors trip completion.
func (s *DispatchService) Alight(ctx context.Context, trip *domain.Trip) DispatchOutcome {
	return s.pushEvent(ctx, "alight", trip, "COMPLETED", s.client.Alight, 0, 0)
}

// NotBoarded mirrors a passenger no-show.
func (s *DispatchService) NotBoarded(ctx context.Context, trip *domain.Trip) DispatchOutcome {
	return s.pushEvent(ctx, "not-boarded", trip, "NOT_BOARDED", s.client.NotBoarded, 0, 0)
}

// LiveLocation pushes a tracking ping. Failures are dropped silently
// beyond the returned outcome; pings are the softest event there is.
func (s *DispatchService) LiveLocation(ctx context.Context, trip *domain.Trip, lat, lng float64) DispatchOutcome {
	bookingID := s.BookingID(ctx, trip)
	return s.try(ctx, "live-location-update", trip.ID, bookingID, func() error {
		return s.client.UpdateLocation(ctx, partner.EventPayload{
			BookingID: bookingID,
			Timestamp: time.Now(),
			Lat:       lat,
			Lng:       lng,
		})
	})
}

func (s *DispatchService) pushAssignment(ctx context.Context, operation string, trip *domain.Trip, driverID string, call func(context.Context, partner.AssignPayload) error) DispatchOutcome {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		log.Printf("dispatch %s skipped: trip=%s driver=%s: %v", operation, trip.ID, driverID, err)
		return outcomeSkipped()
	}

	roster, err := s.assignmentRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil || roster == nil {
		log.Printf("dispatch %s skipped: trip=%s driver=%s has no active vehicle", operation, trip.ID, driverID)
		return outcomeSkipped()
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, roster.VehicleID)
	if err != nil {
		log.Printf("dispatch %s skipped: trip=%s vehicle=%s: %v", operation, trip.ID, roster.VehicleID, err)
		return outcomeSkipped()
	}

	bookingID := s.BookingID(ctx, trip)
	outcome := s.try(ctx, operation, trip.ID, bookingID, func() error {
		return call(ctx, partner.AssignPayload{
			BookingID:           bookingID,
			DriverID:            partner.ExternalID(driver.ID),
			DriverName:          driver.Name,
			DriverPhone:         driver.Phone,
			DriverPhotoURL:      driver.PhotoURL,
			VehicleID:           partner.ExternalID(vehicle.ID),
			VehicleRegistration: vehicle.Registration,
			VehicleName:         vehicle.Name,
			VehicleColor:        vehicle.Color,
		})
	})
	if outcome.Succeeded {
		s.recordStatus(ctx, trip, bookingID, "ASSIGNED")
	}
	return outcome
}

func (s *DispatchService) pushEvent(ctx context.Context, operation string, trip *domain.Trip, partnerStatus string, call func(context.Context, partner.EventPayload) error, lat, lng float64) DispatchOutcome {
	bookingID := s.BookingID(ctx, trip)
	outcome := s.try(ctx, operation, trip.ID, bookingID, func() error {
		return call(ctx, partner.EventPayload{
			BookingID: bookingID,
			Timestamp: time.Now(),
			Lat:       lat,
			Lng:       lng,
		})
	})
	if outcome.Succeeded {
		s.recordStatus(ctx, trip, bookingID, partnerStatus)
	}
	return outcome
}

// try runs the partner call and converts any failure into an outcome.
// Errors never escape this method.
func (s *DispatchService) try(ctx context.Context, operation, tripID, bookingID string, call func() error) DispatchOutcome {
	err := call()
	if err == nil {
		return outcomeOK()
	}

	var statusErr *partner.StatusError
	if errors.As(err, &statusErr) {
		log.Printf("dispatch %s failed: trip=%s booking=%s status=%d", operation, tripID, bookingID, statusErr.StatusCode)
	} else {
		log.Printf("dispatch %s failed: trip=%s booking=%s: %v", operation, tripID, bookingID, err)
	}

	return DispatchOutcome{Attempted: true, Succeeded: false, ErrorDetail: err.Error()}
}

// recordStatus refreshes the trip's partner mapping after a successful
// push. Mapping write failures are logged, not surfaced.
func (s *DispatchService) recordStatus(ctx context.Context, trip *domain.Trip, bookingID, partnerStatus string) {
	if s.mappingRepo == nil {
		return
	}
	err := s.mappingRepo.Upsert(ctx, &domain.PartnerMapping{
		TripID:            trip.ID,
		ExternalBookingID: bookingID,
		PartnerStatus:     partnerStatus,
		UpdatedAt:         time.Now(),
	})
	if err != nil {
		log.Printf("dispatch mapping update failed: trip=%s booking=%s: %v", trip.ID, bookingID, err)
	}
}
