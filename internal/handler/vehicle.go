package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// VehicleHandler handles HTTP requests for vehicles.
type VehicleHandler struct {
	vehicleRepo repository.VehicleRepository
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleRepo repository.VehicleRepository) *VehicleHandler {
	return &VehicleHandler{vehicleRepo: vehicleRepo}
}

// RegisterVehicleRequest is the HTTP request body for vehicle registration.
type RegisterVehicleRequest struct {
	FleetID      string `json:"fleet_id"`
	Registration string `json:"registration"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	ClassSKU     string `json:"class_sku"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID           string `json:"id"`
	FleetID      string `json:"fleet_id"`
	Registration string `json:"registration"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	ClassSKU     string `json:"class_sku,omitempty"`
	Status       string `json:"status"`
}

// Register handles POST /v1/vehicles/register
func (h *VehicleHandler) Register(c *gin.Context) {
	var req RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.FleetID == "" || req.Registration == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "fleet_id, registration and name are required"})
		return
	}

	existing, err := h.vehicleRepo.GetByRegistration(c.Request.Context(), req.Registration)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "registration already exists"})
		return
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		FleetID:      req.FleetID,
		Registration: req.Registration,
		Name:         req.Name,
		Color:        req.Color,
		ClassSKU:     req.ClassSKU,
		Status:       domain.VehicleStatusActive,
	}

	if err := h.vehicleRepo.Create(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, VehicleResponse{
		ID:           vehicle.ID,
		FleetID:      vehicle.FleetID,
		Registration: vehicle.Registration,
		Name:         vehicle.Name,
		Color:        vehicle.Color,
		ClassSKU:     vehicle.ClassSKU,
		Status:       string(vehicle.Status),
	})
}

// GetAll handles GET /v1/vehicles
func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.vehicleRepo.GetAllByFleet(c.Request.Context(), c.Query("fleet_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, VehicleResponse{
			ID:           v.ID,
			FleetID:      v.FleetID,
			Registration: v.Registration,
			Name:         v.Name,
			Color:        v.Color,
			ClassSKU:     v.ClassSKU,
			Status:       string(v.Status),
		})
	}

	c.JSON(http.StatusOK, response)
}
