package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dispatch/internal/domain"
	"github.com/fleetops/dispatch/internal/service"
)

func TestClientService_Create(t *testing.T) {
	var received domain.Client
	svc := service.NewClientService(&mockClientRepo{
		create: func(_ context.Context, client domain.Client) (domain.Client, error) {
			received = client
			client.ID = uuid.New()
			return client, nil
		},
	})

	got, err := svc.Create(context.Background(), domain.Client{Name: "Café Britt"})

	require.NoError(t, err)
	assert.Equal(t, domain.TierStandard, received.Tier, "missing tier defaults to standard")
	assert.NotEqual(t, uuid.UUID{}, got.ID)
}

func TestClientService_Create_Validation(t *testing.T) {
	svc := service.NewClientService(&mockClientRepo{})

	tests := []struct {
		name   string
		client domain.Client
	}{
		{"empty name", domain.Client{Name: "  "}},
		{"unknown tier", domain.Client{Name: "x", Tier: "platinum"}},
		{"negative trips", domain.Client{Name: "x", CompletedTrips: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.client)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestClientService_List_NeverNil(t *testing.T) {
	svc := service.NewClientService(&mockClientRepo{
		list: func(_ context.Context) ([]domain.Client, error) {
			return nil, nil
		},
	})

	got, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDriverService_Create(t *testing.T) {
	var received domain.Driver
	svc := service.NewDriverService(&mockDriverRepo{
		create: func(_ context.Context, driver domain.Driver) (domain.Driver, error) {
			received = driver
			return driver, nil
		},
	})

	input := domain.Driver{
		Name:          "Ana Rojas",
		LicenseNumber: "CR20240001",
		LicenseClass:  domain.LicenseC2,
		LicenseExpiry: time.Now().AddDate(3, 0, 0),
		Available:     false, // caller input is ignored
	}

	_, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, received.Available, "new drivers always start available")
}

func TestDriverService_Create_Validation(t *testing.T) {
	svc := service.NewDriverService(&mockDriverRepo{})
	future := time.Now().AddDate(1, 0, 0)

	tests := []struct {
		name   string
		driver domain.Driver
	}{
		{"empty name", domain.Driver{LicenseNumber: "CR12345678", LicenseClass: domain.LicenseB1, LicenseExpiry: future}},
		{"unknown class", domain.Driver{Name: "x", LicenseNumber: "CR12345678", LicenseClass: "Z9", LicenseExpiry: future}},
		{"malformed number", domain.Driver{Name: "x", LicenseNumber: "abc", LicenseClass: domain.LicenseB1, LicenseExpiry: future}},
		{"expired license", domain.Driver{Name: "x", LicenseNumber: "CR12345678", LicenseClass: domain.LicenseB1, LicenseExpiry: time.Now().AddDate(0, 0, -1)}},
		{"negative experience", domain.Driver{Name: "x", LicenseNumber: "CR12345678", LicenseClass: domain.LicenseB1, LicenseExpiry: future, YearsExperience: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.driver)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestVehicleService_Create(t *testing.T) {
	var received domain.Vehicle
	svc := service.NewVehicleService(&mockVehicleRepo{
		create: func(_ context.Context, vehicle domain.Vehicle) (domain.Vehicle, error) {
			received = vehicle
			return vehicle, nil
		},
	})

	input := domain.Vehicle{
		Plate:           "TRK042",
		Category:        domain.CategoryTruck,
		Year:            2021,
		OdometerKm:      90000,
		LastInspection:  time.Now().AddDate(0, -1, 0),
		InsuranceExpiry: time.Now().AddDate(1, 0, 0),
		Cargo:           &domain.CargoSpec{MaxPayloadTons: 12, Axles: 3},
	}

	_, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, received.Available, "new vehicles always start available")
}

func TestVehicleService_Create_Validation(t *testing.T) {
	svc := service.NewVehicleService(&mockVehicleRepo{})
	cargo := &domain.CargoSpec{MaxPayloadTons: 2, Axles: 2}
	seats := &domain.PassengerSpec{Seats: 4, Comfort: domain.ComfortStandard}

	tests := []struct {
		name    string
		vehicle domain.Vehicle
	}{
		{"bad plate", domain.Vehicle{Plate: "12ABC3", Category: domain.CategoryCar, Year: 2020}},
		{"unknown category", domain.Vehicle{Plate: "ABC123", Category: "tractor", Year: 2020}},
		{"implausible year", domain.Vehicle{Plate: "ABC123", Category: domain.CategoryCar, Year: 1940}},
		{"negative odometer", domain.Vehicle{Plate: "ABC123", Category: domain.CategoryCar, Year: 2020, OdometerKm: -1}},
		{"both specs", domain.Vehicle{Plate: "ABC123", Category: domain.CategoryVan, Year: 2020, Cargo: cargo, Passenger: seats}},
		{"cargo category with passenger spec", domain.Vehicle{Plate: "ABC123", Category: domain.CategoryTruck, Year: 2020, Passenger: seats}},
		{"passenger category with cargo spec", domain.Vehicle{Plate: "ABC123", Category: domain.CategoryBus, Year: 2020, Cargo: cargo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.vehicle)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
