package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/middleware"
	"dispatch/internal/service"
)

// AssignmentHandler handles HTTP requests for roster assignments.
type AssignmentHandler struct {
	orchestrator *service.Orchestrator
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(orchestrator *service.Orchestrator) *AssignmentHandler {
	return &AssignmentHandler{orchestrator: orchestrator}
}

// CreateAssignmentRequest is the HTTP request body for creating a
// roster assignment.
type CreateAssignmentRequest struct {
	FleetID   string `json:"fleet_id"`
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

// AssignmentResponse is the HTTP response for assignment operations.
type AssignmentResponse struct {
	ID        string `json:"id"`
	FleetID   string `json:"fleet_id"`
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

func toAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:        a.ID,
		FleetID:   a.FleetID,
		DriverID:  a.DriverID,
		VehicleID: a.VehicleID,
		Status:    string(a.Status),
		StartTime: a.StartTime.Format(timeFormat),
	}
	if !a.EndTime.IsZero() {
		resp.EndTime = a.EndTime.Format(timeFormat)
	}
	return resp
}

// Create handles POST /v1/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	assignment, err := h.orchestrator.CreateAssignment(c.Request.Context(), middleware.ActorFromContext(c), service.CreateAssignmentRequest{
		FleetID:   req.FleetID,
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toAssignmentResponse(assignment))
}

// End handles POST /v1/assignments/:id/end
func (h *AssignmentHandler) End(c *gin.Context) {
	assignment, err := h.orchestrator.EndAssignment(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAssignmentResponse(assignment))
}

// GetAll handles GET /v1/assignments
func (h *AssignmentHandler) GetAll(c *gin.Context) {
	assignments, err := h.orchestrator.ListAssignments(c.Request.Context(), middleware.ActorFromContext(c), c.Query("fleet_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		response = append(response, toAssignmentResponse(a))
	}

	c.JSON(http.StatusOK, response)
}
