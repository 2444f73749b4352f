package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AssignPayload carries the driver and vehicle details the partner
// requires when a booking is dispatched.
type AssignPayload struct {
	BookingID           string `json:"booking_id"`
	DriverID            string `json:"driver_id"`
	DriverName          string `json:"driver_name"`
	DriverPhone         string `json:"driver_phone"`
	DriverPhotoURL      string `json:"driver_photo_url,omitempty"`
	VehicleID           string `json:"vehicle_id"`
	VehicleRegistration string `json:"vehicle_registration"`
	VehicleName         string `json:"vehicle_name,omitempty"`
	VehicleColor        string `json:"vehicle_color,omitempty"`
}

// EventPayload carries a lifecycle event for an existing booking.
type EventPayload struct {
	BookingID string    `json:"booking_id"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat,omitempty"`
	Lng       float64   `json:"lng,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Client is the transport dispatch synchronization speaks to the
// aggregator partner. Implementations are swappable per partner. Every
// method returns a plain error; converting failures to an outcome flag
// is the caller's job.
type Client interface {
	Assign(ctx context.Context, p AssignPayload) error
	Reassign(ctx context.Context, p AssignPayload) error
	Detach(ctx context.Context, p EventPayload) error
	TripStart(ctx context.Context, p EventPayload) error
	Arrived(ctx context.Context, p EventPayload) error
	Boarded(ctx context.Context, p EventPayload) error
	Alight(ctx context.Context, p EventPayload) error
	NotBoarded(ctx context.Context, p EventPayload) error
	UpdateLocation(ctx context.Context, p EventPayload) error
}

// StatusError reports a non-2xx partner response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("partner %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a partner client against the given base URL.
// timeout bounds every call so a slow partner cannot stall the caller.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Assign pushes driver and vehicle details for a booking.
func (c *HTTPClient) Assign(ctx context.Context, p AssignPayload) error {
	return c.post(ctx, "assign", "/v1/bookings/"+p.BookingID+"/assign", p)
}

// Reassign replaces the driver and vehicle details for a booking.
func (c *HTTPClient) Reassign(ctx context.Context, p AssignPayload) error {
	return c.post(ctx, "reassign", "/v1/bookings/"+p.BookingID+"/reassign", p)
}

// Detach withdraws the booking itself; the reason travels with it.
func (c *HTTPClient) Detach(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "detach", "/v1/bookings/"+p.BookingID+"/detach", p)
}

// TripStart reports that the trip is underway.
func (c *HTTPClient) TripStart(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "trip-start", "/v1/bookings/"+p.BookingID+"/start", p)
}

// Arrived reports the driver at the pickup point.
func (c *HTTPClient) Arrived(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "arrived", "/v1/bookings/"+p.BookingID+"/arrived", p)
}

// Boarded reports the passenger on board.
func (c *HTTPClient) Boarded(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "boarded", "/v1/bookings/"+p.BookingID+"/boarded", p)
}

// Alight reports the passenger dropped off.
func (c *HTTPClient) Alight(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "alight", "/v1/bookings/"+p.BookingID+"/alight", p)
}

// NotBoarded reports a passenger no-show.
func (c *HTTPClient) NotBoarded(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "not-boarded", "/v1/bookings/"+p.BookingID+"/not-boarded", p)
}

// UpdateLocation pushes a live position for the booking's vehicle.
func (c *HTTPClient) UpdateLocation(ctx context.Context, p EventPayload) error {
	return c.post(ctx, "live-location-update", "/v1/bookings/"+p.BookingID+"/location", p)
}

func (c *HTTPClient) post(ctx context.Context, operation, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("partner %s call: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep a short body excerpt for the log line.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	return nil
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
