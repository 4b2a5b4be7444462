package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dispatch/internal/domain"
	"github.com/fleetops/dispatch/internal/repo"
	"github.com/fleetops/dispatch/internal/service"
)

// ---- mock repos ------------------------------------------------------------

// mockTripRepo is a hand-written test double for repo.TripRepo.
type mockTripRepo struct {
	create     func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listPaged  func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	save       func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	transition func(ctx context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) Save(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.save(ctx, trip)
}
func (m *mockTripRepo) Transition(ctx context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error) {
	return m.transition(ctx, trip, from)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockClientRepo is a hand-written test double for repo.ClientRepo.
// Counter and tier calls are recorded so tests can assert when the trip
// lifecycle touches the client record.
type mockClientRepo struct {
	create         func(ctx context.Context, client domain.Client) (domain.Client, error)
	getByID        func(ctx context.Context, id uuid.UUID) (domain.Client, error)
	list           func(ctx context.Context) ([]domain.Client, error)
	incrementTrips func(ctx context.Context, id uuid.UUID) (domain.Client, error)
	updateTier     func(ctx context.Context, id uuid.UUID, tier domain.Tier) error

	incrementCalls []uuid.UUID
	tierUpdates    []domain.Tier
}

func (m *mockClientRepo) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	return m.create(ctx, client)
}
func (m *mockClientRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	return m.getByID(ctx, id)
}
func (m *mockClientRepo) List(ctx context.Context) ([]domain.Client, error) {
	return m.list(ctx)
}
func (m *mockClientRepo) IncrementTrips(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	m.incrementCalls = append(m.incrementCalls, id)
	if m.incrementTrips != nil {
		return m.incrementTrips(ctx, id)
	}
	return domain.Client{ID: id}, nil
}
func (m *mockClientRepo) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error {
	m.tierUpdates = append(m.tierUpdates, tier)
	if m.updateTier != nil {
		return m.updateTier(ctx, id, tier)
	}
	return nil
}

var _ repo.ClientRepo = (*mockClientRepo)(nil)

// mockDriverRepo is a hand-written test double for repo.DriverRepo.
// setAvailability records every call so tests can assert acquire/release order.
type mockDriverRepo struct {
	create          func(ctx context.Context, driver domain.Driver) (domain.Driver, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Driver, error)
	list            func(ctx context.Context) ([]domain.Driver, error)
	setAvailability func(ctx context.Context, id uuid.UUID, available bool) (bool, error)
	incrementTrips  func(ctx context.Context, id uuid.UUID) error

	availabilityCalls []bool
}

func (m *mockDriverRepo) Create(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	return m.create(ctx, driver)
}
func (m *mockDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, id)
}
func (m *mockDriverRepo) List(ctx context.Context) ([]domain.Driver, error) {
	return m.list(ctx)
}
func (m *mockDriverRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	m.availabilityCalls = append(m.availabilityCalls, available)
	if m.setAvailability != nil {
		return m.setAvailability(ctx, id, available)
	}
	return true, nil
}
func (m *mockDriverRepo) IncrementTrips(ctx context.Context, id uuid.UUID) error {
	if m.incrementTrips != nil {
		return m.incrementTrips(ctx, id)
	}
	return nil
}

var _ repo.DriverRepo = (*mockDriverRepo)(nil)

// mockVehicleRepo is a hand-written test double for repo.VehicleRepo.
type mockVehicleRepo struct {
	create          func(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Vehicle, error)
	list            func(ctx context.Context) ([]domain.Vehicle, error)
	setAvailability func(ctx context.Context, id uuid.UUID, available bool) (bool, error)
	addOdometer     func(ctx context.Context, id uuid.UUID, km float64) error

	availabilityCalls []bool
	odometerAdds      []float64
}

func (m *mockVehicleRepo) Create(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error) {
	return m.create(ctx, vehicle)
}
func (m *mockVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error) {
	return m.getByID(ctx, id)
}
func (m *mockVehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	return m.list(ctx)
}
func (m *mockVehicleRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	m.availabilityCalls = append(m.availabilityCalls, available)
	if m.setAvailability != nil {
		return m.setAvailability(ctx, id, available)
	}
	return true, nil
}
func (m *mockVehicleRepo) AddOdometer(ctx context.Context, id uuid.UUID, km float64) error {
	m.odometerAdds = append(m.odometerAdds, km)
	if m.addOdometer != nil {
		return m.addOdometer(ctx, id, km)
	}
	return nil
}

var _ repo.VehicleRepo = (*mockVehicleRepo)(nil)

// ---- helpers ---------------------------------------------------------------

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTripService(trips *mockTripRepo, clients *mockClientRepo, drivers *mockDriverRepo, vehicles *mockVehicleRepo) *service.TripService {
	if trips == nil {
		trips = &mockTripRepo{}
	}
	if clients == nil {
		clients = &mockClientRepo{}
	}
	if drivers == nil {
		drivers = &mockDriverRepo{}
	}
	if vehicles == nil {
		vehicles = &mockVehicleRepo{}
	}
	return service.NewTripService(trips, clients, drivers, vehicles, testLogger)
}

func validTripInput(clientID uuid.UUID) domain.Trip {
	return domain.Trip{
		Origin:      "San José",
		Destination: "Limón",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		DistanceKm:  160,
		ClientID:    clientID,
	}
}

func availableDriver(id uuid.UUID) domain.Driver {
	return domain.Driver{
		ID:            id,
		Name:          "Marco Solano",
		LicenseNumber: "CR12345678",
		LicenseClass:  domain.LicenseB3,
		LicenseExpiry: time.Now().AddDate(2, 0, 0),
		Available:     true,
	}
}

func availableVehicle(id uuid.UUID) domain.Vehicle {
	return domain.Vehicle{
		ID:              id,
		Plate:           "SJO123",
		Category:        domain.CategoryVan,
		Year:            time.Now().Year() - 2,
		OdometerKm:      52000,
		Available:       true,
		LastInspection:  time.Now().AddDate(0, -2, 0),
		InsuranceExpiry: time.Now().AddDate(1, 0, 0),
		Cargo:           &domain.CargoSpec{MaxPayloadTons: 1.5, Axles: 2},
	}
}

// ---- Schedule --------------------------------------------------------------

func TestTripService_Schedule_OK(t *testing.T) {
	clientID := uuid.New()
	var created domain.Trip

	svc := newTripService(
		&mockTripRepo{
			create: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				created = trip
				trip.ID = uuid.New()
				return trip, nil
			},
		},
		&mockClientRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Client, error) {
				return domain.Client{ID: id, Tier: domain.TierStandard}, nil
			},
		},
		nil, nil,
	)

	got, err := svc.Schedule(context.Background(), validTripInput(clientID))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
	assert.Equal(t, "standard", created.FareStrategy)
	assert.Equal(t, 160, created.EstimatedMinutes, "estimate derived from distance")
}

func TestTripService_Schedule_FrequentClientGetsFrequentStrategy(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			create: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		&mockClientRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Client, error) {
				return domain.Client{ID: id, Tier: domain.TierCorporate, CompletedTrips: 25}, nil
			},
		},
		nil, nil,
	)

	got, err := svc.Schedule(context.Background(), validTripInput(uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, "frequent", got.FareStrategy)
}

func TestTripService_Schedule_NightFlagFromDepartureHour(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			create: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		&mockClientRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Client, error) {
				return domain.Client{ID: id}, nil
			},
		},
		nil, nil,
	)

	input := validTripInput(uuid.New())
	tomorrow := time.Now().Add(24 * time.Hour)
	input.ScheduledAt = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
		23, 0, 0, 0, time.UTC)

	got, err := svc.Schedule(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, got.Night)
}

func TestTripService_Schedule_Validation(t *testing.T) {
	svc := newTripService(nil, nil, nil, nil)

	tests := []struct {
		name   string
		mutate func(*domain.Trip)
	}{
		{"empty origin", func(tr *domain.Trip) { tr.Origin = "  " }},
		{"origin too short", func(tr *domain.Trip) { tr.Origin = "SJ" }},
		{"origin too long", func(tr *domain.Trip) { tr.Origin = strings.Repeat("x", 101) }},
		{"empty destination", func(tr *domain.Trip) { tr.Destination = "" }},
		{"same endpoints", func(tr *domain.Trip) { tr.Destination = tr.Origin }},
		{"zero distance", func(tr *domain.Trip) { tr.DistanceKm = 0 }},
		{"negative distance", func(tr *domain.Trip) { tr.DistanceKm = -10 }},
		{"over max distance", func(tr *domain.Trip) { tr.DistanceKm = 2001 }},
		{"departure in the past", func(tr *domain.Trip) { tr.ScheduledAt = time.Now().Add(-time.Hour) }},
		{"negative additional cost", func(tr *domain.Trip) { tr.AdditionalCost = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validTripInput(uuid.New())
			tt.mutate(&input)
			_, err := svc.Schedule(context.Background(), input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTripService_Schedule_ClientNotFound(t *testing.T) {
	svc := newTripService(
		nil,
		&mockClientRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Client, error) {
				return domain.Client{}, domain.ErrNotFound
			},
		},
		nil, nil,
	)

	_, err := svc.Schedule(context.Background(), validTripInput(uuid.New()))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Confirm ---------------------------------------------------------------

func TestTripService_Confirm_OK(t *testing.T) {
	id := uuid.New()
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			transition: func(_ context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error) {
				assert.Equal(t, domain.StatusScheduled, from)
				return trip, true, nil
			},
		},
		nil, nil, nil,
	)

	got, err := svc.Confirm(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestTripService_Confirm_WrongStatus(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusCompleted}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Confirm(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTripService_Confirm_LostRace(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			transition: func(_ context.Context, _ domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return domain.Trip{}, false, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Confirm(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ---- AssignResources -------------------------------------------------------

func TestTripService_AssignResources_OK(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	drivers := &mockDriverRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Driver, error) {
			return availableDriver(id), nil
		},
	}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusConfirmed}, nil
			},
			save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		nil, drivers, vehicles,
	)

	got, err := svc.AssignResources(context.Background(), tripID, driverID, vehicleID)

	require.NoError(t, err)
	require.NotNil(t, got.DriverID)
	require.NotNil(t, got.VehicleID)
	assert.Equal(t, driverID, *got.DriverID)
	assert.Equal(t, vehicleID, *got.VehicleID)
	assert.Empty(t, drivers.availabilityCalls, "assignment must not touch driver availability")
	assert.Empty(t, vehicles.availabilityCalls, "assignment must not touch vehicle availability")
}

func TestTripService_AssignResources_IncompatibleLicense(t *testing.T) {
	drivers := &mockDriverRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Driver, error) {
			d := availableDriver(id)
			d.LicenseClass = domain.LicenseA1 // motorcycles only
			return d, nil
		},
	}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil // a van
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
		},
		nil, drivers, vehicles,
	)

	_, err := svc.AssignResources(context.Background(), uuid.New(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEligibility)
	assert.Empty(t, drivers.availabilityCalls, "a failed check must not alter availability")
	assert.Empty(t, vehicles.availabilityCalls, "a failed check must not alter availability")
}

func TestTripService_AssignResources_DriverUnavailable(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
		},
		nil,
		&mockDriverRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Driver, error) {
				d := availableDriver(id)
				d.Available = false
				return d, nil
			},
		},
		&mockVehicleRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
				return availableVehicle(id), nil
			},
		},
	)

	_, err := svc.AssignResources(context.Background(), uuid.New(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
}

func TestTripService_AssignResources_AfterStartRejected(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusInProgress}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.AssignResources(context.Background(), uuid.New(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ---- Start -----------------------------------------------------------------

func assignedTrip(tripID, driverID, vehicleID uuid.UUID, status domain.Status) domain.Trip {
	return domain.Trip{
		ID:        tripID,
		Status:    status,
		DriverID:  &driverID,
		VehicleID: &vehicleID,
	}
}

func TestTripService_Start_OK(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	clients := &mockClientRepo{}
	drivers := &mockDriverRepo{}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return assignedTrip(id, driverID, vehicleID, domain.StatusConfirmed), nil
			},
			transition: func(_ context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error) {
				assert.Equal(t, domain.StatusConfirmed, from)
				return trip, true, nil
			},
		},
		clients, drivers, vehicles,
	)

	got, err := svc.Start(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, 52000.0, got.StartOdometerKm, "start odometer copied from the vehicle")
	assert.Equal(t, []bool{false}, drivers.availabilityCalls, "driver acquired")
	assert.Equal(t, []bool{false}, vehicles.availabilityCalls, "vehicle acquired")
	assert.Len(t, clients.incrementCalls, 1, "client trip counter bumped on start")
}

func TestTripService_Start_FifthTripPromotesClient(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	clients := &mockClientRepo{
		incrementTrips: func(_ context.Context, id uuid.UUID) (domain.Client, error) {
			return domain.Client{ID: id, Tier: domain.TierStandard, CompletedTrips: 5}, nil
		},
	}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return assignedTrip(id, driverID, vehicleID, domain.StatusScheduled), nil
			},
			transition: func(_ context.Context, trip domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return trip, true, nil
			},
		},
		clients, &mockDriverRepo{}, vehicles,
	)

	_, err := svc.Start(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierFrequent}, clients.tierUpdates,
		"fifth trip promotes the client")
}

func TestTripService_Start_NoResources(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusConfirmed}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Start(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingResource)
}

func TestTripService_Start_VehicleLostRace_ReleasesDriver(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	drivers := &mockDriverRepo{}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
		setAvailability: func(_ context.Context, _ uuid.UUID, _ bool) (bool, error) {
			return false, nil // another trip grabbed the vehicle first
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return assignedTrip(id, driverID, vehicleID, domain.StatusConfirmed), nil
			},
		},
		nil, drivers, vehicles,
	)

	_, err := svc.Start(context.Background(), tripID)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
	assert.Equal(t, []bool{false, true}, drivers.availabilityCalls,
		"driver acquired then released after the vehicle swap was lost")
}

func TestTripService_Start_DriverLostRace(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return assignedTrip(id, driverID, vehicleID, domain.StatusScheduled), nil
			},
		},
		nil,
		&mockDriverRepo{
			setAvailability: func(_ context.Context, _ uuid.UUID, _ bool) (bool, error) {
				return false, nil
			},
		},
		vehicles,
	)

	_, err := svc.Start(context.Background(), tripID)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
	assert.Empty(t, vehicles.availabilityCalls, "vehicle untouched when the driver swap is lost")
}

// ---- Complete --------------------------------------------------------------

func TestTripService_Complete_OK(t *testing.T) {
	tripID, driverID, vehicleID, clientID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	clients := &mockClientRepo{}
	drivers := &mockDriverRepo{}
	vehicles := &mockVehicleRepo{}
	var driverIncrements int

	trip := assignedTrip(tripID, driverID, vehicleID, domain.StatusInProgress)
	trip.ClientID = clientID
	trip.StartOdometerKm = 52000
	drivers.incrementTrips = func(_ context.Context, id uuid.UUID) error {
		driverIncrements++
		assert.Equal(t, driverID, id)
		return nil
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return trip, nil
			},
			transition: func(_ context.Context, tr domain.Trip, from domain.Status) (domain.Trip, bool, error) {
				assert.Equal(t, domain.StatusInProgress, from)
				return tr, true, nil
			},
		},
		clients, drivers, vehicles,
	)

	got, err := svc.Complete(context.Background(), tripID, 52160)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, 52160.0, got.EndOdometerKm)
	assert.Equal(t, []float64{160}, vehicles.odometerAdds, "odometer advanced by the distance driven")
	assert.Equal(t, []bool{true}, vehicles.availabilityCalls, "vehicle released")
	assert.Equal(t, []bool{true}, drivers.availabilityCalls, "driver released")
	assert.Equal(t, 1, driverIncrements, "driver lifetime counter bumped")
	assert.Empty(t, clients.incrementCalls, "client counter was already bumped at start")
}

func TestTripService_Complete_DefaultsEndOdometerToDistance(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	vehicles := &mockVehicleRepo{}

	trip := assignedTrip(tripID, driverID, vehicleID, domain.StatusInProgress)
	trip.DistanceKm = 160
	trip.StartOdometerKm = 52000

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return trip, nil
			},
			transition: func(_ context.Context, tr domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return tr, true, nil
			},
		},
		nil, nil, vehicles,
	)

	got, err := svc.Complete(context.Background(), tripID, 0)

	require.NoError(t, err)
	assert.Equal(t, 52160.0, got.EndOdometerKm, "end reading derived from start + distance")
	assert.Equal(t, []float64{160}, vehicles.odometerAdds, "odometer advances by the trip distance")
}

func TestTripService_Complete_OdometerRunsBackwards(t *testing.T) {
	trip := assignedTrip(uuid.New(), uuid.New(), uuid.New(), domain.StatusInProgress)
	trip.StartOdometerKm = 52000

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return trip, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Complete(context.Background(), trip.ID, 51000)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Complete_NotInProgress(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Complete(context.Background(), uuid.New(), 100)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTripService_Complete_OdometerFailureDoesNotUndoCompletion(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	trip := assignedTrip(tripID, driverID, vehicleID, domain.StatusInProgress)
	trip.StartOdometerKm = 100

	vehicles := &mockVehicleRepo{
		addOdometer: func(_ context.Context, _ uuid.UUID, _ float64) error {
			return errors.New("connection reset")
		},
	}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return trip, nil
			},
			transition: func(_ context.Context, tr domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return tr, true, nil
			},
		},
		nil, nil, vehicles,
	)

	got, err := svc.Complete(context.Background(), tripID, 150)

	require.NoError(t, err, "completion stands even when the odometer write fails")
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, []bool{true}, vehicles.availabilityCalls, "vehicle still released")
}

// ---- Cancel ----------------------------------------------------------------

func TestTripService_Cancel_ScheduledTrip(t *testing.T) {
	drivers := &mockDriverRepo{}
	vehicles := &mockVehicleRepo{}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			transition: func(_ context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error) {
				assert.Equal(t, domain.StatusScheduled, from)
				return trip, true, nil
			},
		},
		nil, drivers, vehicles,
	)

	got, err := svc.Cancel(context.Background(), uuid.New(), "client no-show")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Contains(t, got.Notes, "CANCELLED: client no-show")
	assert.Empty(t, drivers.availabilityCalls, "nothing to release before start")
	assert.Empty(t, vehicles.availabilityCalls, "nothing to release before start")
}

func TestTripService_Cancel_InProgressReleasesResources(t *testing.T) {
	tripID, driverID, vehicleID := uuid.New(), uuid.New(), uuid.New()
	drivers := &mockDriverRepo{}
	vehicles := &mockVehicleRepo{}

	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return assignedTrip(id, driverID, vehicleID, domain.StatusInProgress), nil
			},
			transition: func(_ context.Context, trip domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return trip, true, nil
			},
		},
		nil, drivers, vehicles,
	)

	got, err := svc.Cancel(context.Background(), tripID, "breakdown on route")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, []bool{true}, drivers.availabilityCalls)
	assert.Equal(t, []bool{true}, vehicles.availabilityCalls)
}

func TestTripService_Cancel_BlankReasonGetsDefault(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			transition: func(_ context.Context, trip domain.Trip, _ domain.Status) (domain.Trip, bool, error) {
				return trip, true, nil
			},
		},
		nil, nil, nil,
	)

	got, err := svc.Cancel(context.Background(), uuid.New(), "   ")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Contains(t, got.Notes, "CANCELLED: no reason given")
}

func TestTripService_Cancel_TerminalTrip(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusCompleted}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.Cancel(context.Background(), uuid.New(), "too late")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ---- ComputeFare -----------------------------------------------------------

// fareFixture wires a trip, its client, and a vehicle whose base rate is
// exactly the car category rate, so expected totals match the worked examples.
func fareFixture(trip domain.Trip, client domain.Client) (*service.TripService, *mockTripRepo) {
	vehicleID := uuid.New()
	trip.VehicleID = &vehicleID

	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return trip, nil
		},
		save: func(_ context.Context, tr domain.Trip) (domain.Trip, error) {
			return tr, nil
		},
	}
	svc := service.NewTripService(
		trips,
		&mockClientRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Client, error) {
				client.ID = id
				return client, nil
			},
		},
		&mockDriverRepo{},
		&mockVehicleRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
				return domain.Vehicle{ID: id, Category: domain.CategoryCar, Year: time.Now().Year()}, nil
			},
		},
		testLogger,
	)
	return svc, trips
}

func TestTripService_ComputeFare_Standard(t *testing.T) {
	trip := domain.Trip{
		ID:           uuid.New(),
		Status:       domain.StatusConfirmed,
		DistanceKm:   30,
		FareStrategy: "standard",
		ClientID:     uuid.New(),
	}
	svc, _ := fareFixture(trip, domain.Client{})

	got, err := svc.ComputeFare(context.Background(), trip.ID)

	require.NoError(t, err)
	assert.Equal(t, 750000.0, got.TotalFare)
}

func TestTripService_ComputeFare_UrgentNightSurcharges(t *testing.T) {
	// 25,000 × 30 km = 750,000 base, +10,000 additional,
	// ×1.25 urgent ×1.20 night = 1,140,000.
	trip := domain.Trip{
		ID:             uuid.New(),
		Status:         domain.StatusConfirmed,
		DistanceKm:     30,
		FareStrategy:   "standard",
		ClientID:       uuid.New(),
		AdditionalCost: 10000,
		Urgent:         true,
		Night:          true,
	}
	svc, _ := fareFixture(trip, domain.Client{})

	got, err := svc.ComputeFare(context.Background(), trip.ID)

	require.NoError(t, err)
	assert.Equal(t, 1140000.0, got.TotalFare)
}

func TestTripService_ComputeFare_Idempotent(t *testing.T) {
	trip := domain.Trip{
		ID:           uuid.New(),
		Status:       domain.StatusConfirmed,
		DistanceKm:   30,
		FareStrategy: "standard",
		ClientID:     uuid.New(),
	}
	svc, _ := fareFixture(trip, domain.Client{})

	first, err := svc.ComputeFare(context.Background(), trip.ID)
	require.NoError(t, err)
	second, err := svc.ComputeFare(context.Background(), trip.ID)
	require.NoError(t, err)

	assert.Equal(t, first.TotalFare, second.TotalFare)
}

func TestTripService_ComputeFare_NoVehicle(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.ComputeFare(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrComputation, "unpriceable trip is a computation error")
}

func TestTripService_ComputeFare_CancelledTrip(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusCancelled}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.ComputeFare(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrComputation)
}

func TestTripService_FareBreakdown(t *testing.T) {
	trip := domain.Trip{
		ID:             uuid.New(),
		Status:         domain.StatusConfirmed,
		DistanceKm:     30,
		FareStrategy:   "standard",
		ClientID:       uuid.New(),
		AdditionalCost: 10000,
		Urgent:         true,
	}
	svc, _ := fareFixture(trip, domain.Client{})

	out, err := svc.FareBreakdown(context.Background(), trip.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "STANDARD FARE")
	assert.Contains(t, out, "additional cost: $10000")
	assert.Contains(t, out, "urgency surcharge")
	assert.True(t, strings.Contains(out, "FINAL: $950000"),
		"(750,000+10,000)×1.25 = 950,000; got:\n%s", out)
}

// ---- Rating, notes, pricing ------------------------------------------------

func TestTripService_SetRating(t *testing.T) {
	completed := domain.Trip{ID: uuid.New(), Status: domain.StatusCompleted}
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
				return completed, nil
			},
			save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		nil, nil, nil,
	)

	got, err := svc.SetRating(context.Background(), completed.ID, 4.5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Rating)

	_, err = svc.SetRating(context.Background(), completed.ID, 5.5)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SetRating(context.Background(), completed.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_SetRating_NotCompleted(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusInProgress}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.SetRating(context.Background(), uuid.New(), 4)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTripService_AddNote(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		nil, nil, nil,
	)

	got, err := svc.AddNote(context.Background(), uuid.New(), "toll receipt attached")
	require.NoError(t, err)
	assert.Contains(t, got.Notes, "toll receipt attached")

	_, err = svc.AddNote(context.Background(), uuid.New(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_UpdatePricing(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusScheduled}, nil
			},
			save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
				return trip, nil
			},
		},
		nil, nil, nil,
	)

	got, err := svc.UpdatePricing(context.Background(), uuid.New(), 25000, true)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, got.AdditionalCost)
	assert.True(t, got.Urgent)

	_, err = svc.UpdatePricing(context.Background(), uuid.New(), -1, false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_UpdatePricing_TerminalTrip(t *testing.T) {
	svc := newTripService(
		&mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				return domain.Trip{ID: id, Status: domain.StatusCompleted}, nil
			},
		},
		nil, nil, nil,
	)

	_, err := svc.UpdatePricing(context.Background(), uuid.New(), 1000, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
