package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/middleware"
	"dispatch/internal/service"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	orchestrator *service.Orchestrator
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(orchestrator *service.Orchestrator) *TripHandler {
	return &TripHandler{orchestrator: orchestrator}
}

// CreateTripRequest is the HTTP request body for creating a trip.
type CreateTripRequest struct {
	FleetID             string  `json:"fleet_id"`
	HubID               string  `json:"hub_id"`
	Type                string  `json:"type"`
	OriginCity          string  `json:"origin_city"`
	DestinationCity     string  `json:"destination_city"`
	PickupAddress       string  `json:"pickup_address"`
	PickupLat           float64 `json:"pickup_lat"`
	PickupLng           float64 `json:"pickup_lng"`
	DropAddress         string  `json:"drop_address"`
	DropLat             float64 `json:"drop_lat"`
	DropLng             float64 `json:"drop_lng"`
	ScheduledPickupTime string  `json:"scheduled_pickup_time"`
	DistanceKm          float64 `json:"distance_km"`
	VehicleClassSKU     string  `json:"vehicle_class_sku"`
	Provider            string  `json:"provider"`
	ExternalBookingID   string  `json:"external_booking_id"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID              string  `json:"trip_id"`
	FleetID             string  `json:"fleet_id"`
	HubID               string  `json:"hub_id,omitempty"`
	Type                string  `json:"type"`
	Status              string  `json:"status"`
	OriginCity          string  `json:"origin_city"`
	DestinationCity     string  `json:"destination_city"`
	PickupAddress       string  `json:"pickup_address,omitempty"`
	PickupLat           float64 `json:"pickup_lat"`
	PickupLng           float64 `json:"pickup_lng"`
	DropAddress         string  `json:"drop_address,omitempty"`
	DropLat             float64 `json:"drop_lat"`
	DropLng             float64 `json:"drop_lng"`
	ScheduledPickupTime string  `json:"scheduled_pickup_time"`
	DistanceKm          float64 `json:"distance_km"`
	BillableDistanceKm  float64 `json:"billable_distance_km"`
	Rate                float64 `json:"rate"`
	Price               float64 `json:"price"`
	VehicleClassSKU     string  `json:"vehicle_class_sku,omitempty"`
	StartedAt           string  `json:"started_at,omitempty"`
	CompletedAt         string  `json:"completed_at,omitempty"`
	Provider            string  `json:"provider"`
	ExternalBookingID   string  `json:"external_booking_id,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	resp := TripResponse{
		TripID:              trip.ID,
		FleetID:             trip.FleetID,
		HubID:               trip.HubID,
		Type:                string(trip.Type),
		Status:              string(trip.Status),
		OriginCity:          trip.OriginCity,
		DestinationCity:     trip.DestinationCity,
		PickupAddress:       trip.PickupAddress,
		PickupLat:           trip.PickupLat,
		PickupLng:           trip.PickupLng,
		DropAddress:         trip.DropAddress,
		DropLat:             trip.DropLat,
		DropLng:             trip.DropLng,
		ScheduledPickupTime: trip.ScheduledPickupTime.Format(timeFormat),
		DistanceKm:          trip.DistanceKm,
		BillableDistanceKm:  trip.BillableDistanceKm,
		Rate:                trip.Rate,
		Price:               trip.Price,
		VehicleClassSKU:     trip.VehicleClassSKU,
		Provider:            string(trip.Provider),
		ExternalBookingID:   trip.ExternalBookingID,
	}

	if !trip.StartedAt.IsZero() {
		resp.StartedAt = trip.StartedAt.Format(timeFormat)
	}
	if !trip.CompletedAt.IsZero() {
		resp.CompletedAt = trip.CompletedAt.Format(timeFormat)
	}

	return resp
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	pickupTime, err := time.Parse(timeFormat, req.ScheduledPickupTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid scheduled_pickup_time"})
		return
	}

	trip, err := h.orchestrator.CreateTrip(c.Request.Context(), middleware.ActorFromContext(c), service.CreateTripRequest{
		FleetID:             req.FleetID,
		HubID:               req.HubID,
		Type:                domain.TripType(req.Type),
		OriginCity:          req.OriginCity,
		DestinationCity:     req.DestinationCity,
		PickupAddress:       req.PickupAddress,
		PickupLat:           req.PickupLat,
		PickupLng:           req.PickupLng,
		DropAddress:         req.DropAddress,
		DropLat:             req.DropLat,
		DropLng:             req.DropLng,
		ScheduledPickupTime: pickupTime,
		DistanceKm:          req.DistanceKm,
		VehicleClassSKU:     req.VehicleClassSKU,
		Provider:            domain.TripProvider(req.Provider),
		ExternalBookingID:   req.ExternalBookingID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// DriverRequest is the HTTP request body for driver-scoped transitions.
type DriverRequest struct {
	DriverID string `json:"driver_id"`
}

// AssignDriver handles POST /v1/trips/:id/assign
func (h *TripHandler) AssignDriver(c *gin.Context) {
	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.AssignDriver(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// UnassignDriver handles POST /v1/trips/:id/unassign
func (h *TripHandler) UnassignDriver(c *gin.Context) {
	trip, err := h.orchestrator.UnassignDriver(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ReassignDriver handles POST /v1/trips/:id/reassign
func (h *TripHandler) ReassignDriver(c *gin.Context) {
	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.ReassignDriver(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// DetachRequest is the HTTP request body for withdrawing a booking
// from the partner.
type DetachRequest struct {
	Reason string `json:"reason"`
}

// DetachDriver handles POST /v1/trips/:id/detach
func (h *TripHandler) DetachDriver(c *gin.Context) {
	var req DetachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.DetachDriver(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Start handles POST /v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.Start(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// PositionRequest is the HTTP request body for position-bearing events.
type PositionRequest struct {
	DriverID string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Arrive handles POST /v1/trips/:id/arrive
func (h *TripHandler) Arrive(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.Arrive(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID, req.Lat, req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// NoShow handles POST /v1/trips/:id/no-show
func (h *TripHandler) NoShow(c *gin.Context) {
	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.NoShow(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteRequest is the HTTP request body for completing a trip.
type CompleteRequest struct {
	DriverID string   `json:"driver_id"`
	Fare     *float64 `json:"fare"`
}

// Complete handles POST /v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.orchestrator.Complete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID, req.Fare)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	trip, err := h.orchestrator.Cancel(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// UpdateLocation handles POST /v1/trips/:id/location
func (h *TripHandler) UpdateLocation(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.orchestrator.UpdateLiveLocation(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.DriverID, req.Lat, req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.orchestrator.GetTrip(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.orchestrator.ListTrips(c.Request.Context(), middleware.ActorFromContext(c), c.Query("fleet_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	c.JSON(http.StatusOK, response)
}
