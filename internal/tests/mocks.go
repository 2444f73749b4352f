package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/partner"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError  error
	GetByIDError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return driver, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, driver := range m.drivers {
		if driver.Phone == phone {
			return driver, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Driver
	for _, driver := range m.drivers {
		if fleetID == "" || driver.FleetID == fleetID {
			out = append(out, driver)
		}
	}
	return out, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return vehicle, nil
}

func (m *MockVehicleRepository) GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, vehicle := range m.vehicles {
		if vehicle.Registration == registration {
			return vehicle, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockVehicleRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Vehicle
	for _, vehicle := range m.vehicles {
		if fleetID == "" || vehicle.FleetID == fleetID {
			out = append(out, vehicle)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK ASSIGNMENT REPOSITORY
// ──────────────────────────────────────────────

// MockAssignmentRepository is a mock implementation of
// AssignmentRepository. Create enforces the one-ACTIVE-per-driver and
// one-ACTIVE-per-vehicle rules under a single mutex, the same way the
// real store's partial unique indexes do, so concurrency tests exercise
// genuine contention.
type MockAssignmentRepository struct {
	mu          sync.Mutex
	assignments map[string]*domain.Assignment

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockAssignmentRepository creates a new mock assignment repository.
func NewMockAssignmentRepository() *MockAssignmentRepository {
	return &MockAssignmentRepository{
		assignments: make(map[string]*domain.Assignment),
	}
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments {
		if existing.Status != domain.AssignmentStatusActive {
			continue
		}
		if existing.DriverID == assignment.DriverID || existing.VehicleID == assignment.VehicleID {
			return repository.ErrConflict
		}
	}
	copied := *assignment
	m.assignments[assignment.ID] = &copied
	return nil
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignment, ok := m.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *assignment
	return &copied, nil
}

func (m *MockAssignmentRepository) End(ctx context.Context, id string, endTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignment, ok := m.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if assignment.Status != domain.AssignmentStatusActive {
		return repository.ErrConflict
	}
	assignment.Status = domain.AssignmentStatusEnded
	assignment.EndTime = endTime
	return nil
}

func (m *MockAssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, assignment := range m.assignments {
		if assignment.DriverID == driverID && assignment.Status == domain.AssignmentStatusActive {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockAssignmentRepository) GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, assignment := range m.assignments {
		if assignment.VehicleID == vehicleID && assignment.Status == domain.AssignmentStatusActive {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockAssignmentRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Assignment
	for _, assignment := range m.assignments {
		if assignment.FleetID == fleetID {
			copied := *assignment
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ActiveCount returns how many ACTIVE assignments the store holds.
func (m *MockAssignmentRepository) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, assignment := range m.assignments {
		if assignment.Status == domain.AssignmentStatusActive {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
// UpdateStatus is conditional on the expected current status, matching
// the real store's compare-and-set semantics.
type MockTripRepository struct {
	mu    sync.Mutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trip
	m.trips[trip.ID] = &copied
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trip
	m.trips[trip.ID] = &copied
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *trip
	return &copied, nil
}

func (m *MockTripRepository) GetAllByFleet(ctx context.Context, fleetID string) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Trip
	for _, trip := range m.trips {
		if trip.FleetID == fleetID {
			copied := *trip
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *trip
	m.trips[trip.ID] = &copied
	return nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	if trip.Status != from {
		return repository.ErrConflict
	}
	trip.Status = to
	now := time.Now()
	if to == domain.TripStatusStarted {
		trip.StartedAt = now
	}
	if to.IsTerminal() {
		trip.CompletedAt = now
	}
	return nil
}

// Status returns the stored status of a trip.
func (m *MockTripRepository) Status(id string) domain.TripStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return ""
	}
	return trip.Status
}

// ──────────────────────────────────────────────
// MOCK TRIP ASSIGNMENT REPOSITORY
// ──────────────────────────────────────────────

// MockTripAssignmentRepository is a mock implementation of
// TripAssignmentRepository. Create rejects a second live assignment for
// the same trip under the mutex, mirroring the real store's partial
// unique index.
type MockTripAssignmentRepository struct {
	mu  sync.Mutex
	tas map[string]*domain.TripAssignment

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTripAssignmentRepository creates a new mock trip assignment
// repository.
func NewMockTripAssignmentRepository() *MockTripAssignmentRepository {
	return &MockTripAssignmentRepository{
		tas: make(map[string]*domain.TripAssignment),
	}
}

// AddTripAssignment adds a trip assignment to the mock repository.
func (m *MockTripAssignmentRepository) AddTripAssignment(ta *domain.TripAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ta
	m.tas[ta.ID] = &copied
}

func (m *MockTripAssignmentRepository) Create(ctx context.Context, ta *domain.TripAssignment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tas {
		if existing.TripID == ta.TripID && !existing.Status.IsTerminal() {
			return repository.ErrConflict
		}
	}
	copied := *ta
	m.tas[ta.ID] = &copied
	return nil
}

func (m *MockTripAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.TripAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ta, ok := m.tas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ta
	return &copied, nil
}

func (m *MockTripAssignmentRepository) GetActiveByTripID(ctx context.Context, tripID string) (*domain.TripAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ta := range m.tas {
		if ta.TripID == tripID && !ta.Status.IsTerminal() {
			copied := *ta
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockTripAssignmentRepository) GetActiveByDriverID(ctx context.Context, driverID string) ([]*domain.TripAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TripAssignment
	for _, ta := range m.tas {
		if ta.DriverID == driverID && !ta.Status.IsTerminal() {
			copied := *ta
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockTripAssignmentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripAssignmentStatus, unassignedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ta, ok := m.tas[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ta.Status != from {
		return repository.ErrConflict
	}
	ta.Status = to
	if to.IsTerminal() {
		ta.UnassignedAt = unassignedAt
	}
	return nil
}

// LiveCountForTrip returns how many non-terminal assignments the trip
// holds.
func (m *MockTripAssignmentRepository) LiveCountForTrip(tripID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, ta := range m.tas {
		if ta.TripID == tripID && !ta.Status.IsTerminal() {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK PARTNER MAPPING REPOSITORY
// ──────────────────────────────────────────────

// MockPartnerMappingRepository is a mock implementation of
// PartnerMappingRepository.
type MockPartnerMappingRepository struct {
	mu       sync.Mutex
	mappings map[string]*domain.PartnerMapping
}

// NewMockPartnerMappingRepository creates a new mock partner mapping
// repository.
func NewMockPartnerMappingRepository() *MockPartnerMappingRepository {
	return &MockPartnerMappingRepository{
		mappings: make(map[string]*domain.PartnerMapping),
	}
}

func (m *MockPartnerMappingRepository) Upsert(ctx context.Context, mapping *domain.PartnerMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *mapping
	m.mappings[mapping.TripID] = &copied
	return nil
}

func (m *MockPartnerMappingRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PartnerMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.mappings[tripID]
	if !ok {
		return nil, nil
	}
	copied := *mapping
	return &copied, nil
}

// ──────────────────────────────────────────────
// MOCK PARTNER CLIENT
// ──────────────────────────────────────────────

// PartnerCall records one call made to the mock partner client.
type PartnerCall struct {
	Operation           string
	BookingID           string
	Reason              string
	Lat                 float64
	Lng                 float64
	VehicleRegistration string
}

// MockPartnerClient is a mock implementation of partner.Client. Set
// FailWith to make every call return that error.
type MockPartnerClient struct {
	mu    sync.Mutex
	calls []PartnerCall

	// Error injection
	FailWith error
}

// NewMockPartnerClient creates a new mock partner client.
func NewMockPartnerClient() *MockPartnerClient {
	return &MockPartnerClient{}
}

// Calls returns a copy of the recorded calls in order.
func (m *MockPartnerClient) Calls() []PartnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PartnerCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many calls of the given operation were made.
func (m *MockPartnerClient) CallCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if call.Operation == operation {
			count++
		}
	}
	return count
}

func (m *MockPartnerClient) record(call PartnerCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.calls = append(m.calls, call)
	return nil
}

func (m *MockPartnerClient) Assign(ctx context.Context, p partner.AssignPayload) error {
	return m.record(PartnerCall{Operation: "assign", BookingID: p.BookingID, VehicleRegistration: p.VehicleRegistration})
}

func (m *MockPartnerClient) Reassign(ctx context.Context, p partner.AssignPayload) error {
	return m.record(PartnerCall{Operation: "reassign", BookingID: p.BookingID, VehicleRegistration: p.VehicleRegistration})
}

func (m *MockPartnerClient) Detach(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "detach", BookingID: p.BookingID, Reason: p.Reason})
}

func (m *MockPartnerClient) TripStart(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "trip-start", BookingID: p.BookingID})
}

func (m *MockPartnerClient) Arrived(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "arrived", BookingID: p.BookingID, Lat: p.Lat, Lng: p.Lng})
}

func (m *MockPartnerClient) Boarded(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "boarded", BookingID: p.BookingID})
}

func (m *MockPartnerClient) Alight(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "alight", BookingID: p.BookingID})
}

func (m *MockPartnerClient) NotBoarded(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "not-boarded", BookingID: p.BookingID})
}

func (m *MockPartnerClient) UpdateLocation(ctx context.Context, p partner.EventPayload) error {
	return m.record(PartnerCall{Operation: "live-location-update", BookingID: p.BookingID, Lat: p.Lat, Lng: p.Lng})
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[string]redis.DriverLocation

	// Counters for verification
	UpdateCallCount int32

	// Error injection
	UpdateError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.DriverLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []redis.DriverLocation
	for _, loc := range m.locations {
		out = append(out, loc)
	}
	return out, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP CACHE
// ──────────────────────────────────────────────

// MockTripCache is a mock implementation of TripCacheInterface.
type MockTripCache struct {
	mu    sync.Mutex
	trips map[string]*domain.Trip

	// Counters for verification
	GetCallCount int32
	SetCallCount int32
}

// NewMockTripCache creates a new mock trip cache.
func NewMockTripCache() *MockTripCache {
	return &MockTripCache{
		trips: make(map[string]*domain.Trip),
	}
}

func (m *MockTripCache) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return nil, nil
	}
	copied := *trip
	return &copied, nil
}

func (m *MockTripCache) SetTrip(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trip
	m.trips[trip.ID] = &copied
	return nil
}

// Interface conformance checks.
var (
	_ repository.DriverRepository         = (*MockDriverRepository)(nil)
	_ repository.VehicleRepository        = (*MockVehicleRepository)(nil)
	_ repository.AssignmentRepository     = (*MockAssignmentRepository)(nil)
	_ repository.TripRepository           = (*MockTripRepository)(nil)
	_ repository.TripAssignmentRepository = (*MockTripAssignmentRepository)(nil)
	_ repository.PartnerMappingRepository = (*MockPartnerMappingRepository)(nil)
	_ partner.Client                      = (*MockPartnerClient)(nil)
	_ redis.LocationStoreInterface        = (*MockLocationStore)(nil)
	_ redis.TripCacheInterface            = (*MockTripCache)(nil)
)
