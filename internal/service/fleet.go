package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatch/internal/domain"
	"github.com/fleetops/dispatch/internal/repo"
)

// ClientService implements business logic for Client operations.
type ClientService struct {
	clients repo.ClientRepo
}

// NewClientService constructs a ClientService backed by the provided repo.
func NewClientService(clients repo.ClientRepo) *ClientService {
	return &ClientService{clients: clients}
}

// Create validates and persists a new client. A missing tier defaults to
// standard. Returns domain.ErrValidation if input violates business rules.
func (s *ClientService) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	if strings.TrimSpace(client.Name) == "" {
		return domain.Client{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if client.Tier == "" {
		client.Tier = domain.TierStandard
	}
	if !client.Tier.Valid() {
		return domain.Client{}, fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, client.Tier)
	}
	if client.CompletedTrips < 0 {
		return domain.Client{}, fmt.Errorf("%w: completed_trips must not be negative", domain.ErrValidation)
	}
	result, err := s.clients.Create(ctx, client)
	if err != nil {
		return domain.Client{}, fmt.Errorf("service.ClientService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single client by ID.
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	result, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return domain.Client{}, fmt.Errorf("service.ClientService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all clients ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ClientService.List: %w", err)
	}
	if clients == nil {
		return []domain.Client{}, nil
	}
	return clients, nil
}

// DriverService implements business logic for Driver operations.
type DriverService struct {
	drivers repo.DriverRepo
	now     func() time.Time
}

// NewDriverService constructs a DriverService backed by the provided repo.
func NewDriverService(drivers repo.DriverRepo) *DriverService {
	return &DriverService{drivers: drivers, now: time.Now}
}

// Create validates and persists a new driver. New drivers start available.
// Returns domain.ErrValidation if input violates business rules.
func (s *DriverService) Create(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	if strings.TrimSpace(driver.Name) == "" {
		return domain.Driver{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !driver.LicenseClass.Valid() {
		return domain.Driver{}, fmt.Errorf("%w: unknown license class %q", domain.ErrValidation, driver.LicenseClass)
	}
	if !driver.LicenseValid(s.now()) {
		return domain.Driver{}, fmt.Errorf("%w: license number malformed or license expired", domain.ErrValidation)
	}
	if driver.YearsExperience < 0 {
		return domain.Driver{}, fmt.Errorf("%w: years_experience must not be negative", domain.ErrValidation)
	}
	driver.Available = true
	result, err := s.drivers.Create(ctx, driver)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single driver by ID.
func (s *DriverService) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	result, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all drivers ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
func (s *DriverService) List(ctx context.Context) ([]domain.Driver, error) {
	drivers, err := s.drivers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.DriverService.List: %w", err)
	}
	if drivers == nil {
		return []domain.Driver{}, nil
	}
	return drivers, nil
}

// VehicleService implements business logic for Vehicle operations.
type VehicleService struct {
	vehicles repo.VehicleRepo
}

// NewVehicleService constructs a VehicleService backed by the provided repo.
func NewVehicleService(vehicles repo.VehicleRepo) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// Create validates and persists a new vehicle. New vehicles start available.
// The spec attached must match the category: cargo categories carry a cargo
// spec, passenger categories a passenger spec, never both.
// Returns domain.ErrValidation if input violates business rules.
func (s *VehicleService) Create(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error) {
	if !vehicle.PlateValid() {
		return domain.Vehicle{}, fmt.Errorf("%w: plate %q must match AAA000", domain.ErrValidation, vehicle.Plate)
	}
	if !vehicle.Category.Valid() {
		return domain.Vehicle{}, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, vehicle.Category)
	}
	if vehicle.Year < 1950 {
		return domain.Vehicle{}, fmt.Errorf("%w: year %d is not plausible", domain.ErrValidation, vehicle.Year)
	}
	if vehicle.OdometerKm < 0 {
		return domain.Vehicle{}, fmt.Errorf("%w: odometer_km must not be negative", domain.ErrValidation)
	}
	if vehicle.Cargo != nil && vehicle.Passenger != nil {
		return domain.Vehicle{}, fmt.Errorf("%w: a vehicle carries one spec, not both", domain.ErrValidation)
	}
	if vehicle.Category.IsCargo() && vehicle.Passenger != nil {
		return domain.Vehicle{}, fmt.Errorf("%w: category %s takes a cargo spec", domain.ErrValidation, vehicle.Category)
	}
	if !vehicle.Category.IsCargo() && vehicle.Cargo != nil {
		return domain.Vehicle{}, fmt.Errorf("%w: category %s takes a passenger spec", domain.ErrValidation, vehicle.Category)
	}
	vehicle.Available = true
	result, err := s.vehicles.Create(ctx, vehicle)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single vehicle by ID.
func (s *VehicleService) GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error) {
	result, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all vehicles ordered by plate.
// Always returns a non-nil slice so callers can safely range over it.
func (s *VehicleService) List(ctx context.Context) ([]domain.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.VehicleService.List: %w", err)
	}
	if vehicles == nil {
		return []domain.Vehicle{}, nil
	}
	return vehicles, nil
}
