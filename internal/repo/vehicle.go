package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/dispatch/internal/domain"
)

// VehicleRepo defines the persistence operations for Vehicles.
type VehicleRepo interface {
	// Create inserts a new vehicle and returns the persisted record.
	Create(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error)

	// GetByID retrieves a vehicle by its UUID primary key.
	// Returns domain.ErrNotFound if no vehicle with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error)

	// List returns all vehicles ordered by plate.
	List(ctx context.Context) ([]domain.Vehicle, error)

	// SetAvailability flips the availability flag with a compare-and-swap:
	// the update only applies if the flag currently holds the opposite value.
	// Returns false when the swap was lost.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error)

	// AddOdometer adds the given distance to the vehicle's odometer.
	AddOdometer(ctx context.Context, id uuid.UUID, km float64) error
}

// pgVehicleRepo is the Postgres implementation of VehicleRepo.
// Cargo and passenger specs live in nullable columns on the vehicles table;
// which set is populated follows from the category.
type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

const vehicleColumns = `id, plate, category, year, odometer_km, available,
	       last_inspection, insurance_expiry,
	       max_payload_tons, axles, crane, refrigeration, cargo_security,
	       seats, comfort, air_conditioning, entertainment, wifi, accessible, fuel_type,
	       created_at, updated_at`

func (r *pgVehicleRepo) Create(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error) {
	const q = `
		INSERT INTO vehicles (plate, category, year, odometer_km, available,
		                      last_inspection, insurance_expiry,
		                      max_payload_tons, axles, crane, refrigeration, cargo_security,
		                      seats, comfort, air_conditioning, entertainment, wifi,
		                      accessible, fuel_type)
		VALUES (@plate, @category, @year, @odometer_km, @available,
		        @last_inspection, @insurance_expiry,
		        @max_payload_tons, @axles, @crane, @refrigeration, @cargo_security,
		        @seats, @comfort, @air_conditioning, @entertainment, @wifi,
		        @accessible, @fuel_type)
		RETURNING ` + vehicleColumns

	args := pgx.NamedArgs{
		"plate":            vehicle.Plate,
		"category":         string(vehicle.Category),
		"year":             vehicle.Year,
		"odometer_km":      vehicle.OdometerKm,
		"available":        vehicle.Available,
		"last_inspection":  vehicle.LastInspection,
		"insurance_expiry": vehicle.InsuranceExpiry,
		"max_payload_tons": nil, "axles": nil, "crane": nil,
		"refrigeration": nil, "cargo_security": nil,
		"seats": nil, "comfort": nil, "air_conditioning": nil,
		"entertainment": nil, "wifi": nil, "accessible": nil, "fuel_type": nil,
	}
	if c := vehicle.Cargo; c != nil {
		args["max_payload_tons"] = c.MaxPayloadTons
		args["axles"] = c.Axles
		args["crane"] = c.Crane
		args["refrigeration"] = c.Refrigeration
		args["cargo_security"] = c.CargoSecurity
	}
	if p := vehicle.Passenger; p != nil {
		args["seats"] = p.Seats
		args["comfort"] = string(p.Comfort)
		args["air_conditioning"] = p.AirConditioning
		args["entertainment"] = p.Entertainment
		args["wifi"] = p.WiFi
		args["accessible"] = p.Accessible
		args["fuel_type"] = p.FuelType
	}

	result, err := scanVehicle(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id`

	result, err := scanVehicle(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.VehicleRepo.List: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VehicleRepo.List: scan: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VehicleRepo.List: rows: %w", err)
	}

	return vehicles, nil
}

// SetAvailability is the per-vehicle mutual exclusion primitive; see
// DriverRepo.SetAvailability.
func (r *pgVehicleRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	const q = `
		UPDATE vehicles
		SET available  = @available,
		    updated_at = now()
		WHERE id = @id AND available = NOT @available`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "available": available})
	if err != nil {
		return false, fmt.Errorf("repo.VehicleRepo.SetAvailability: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgVehicleRepo) AddOdometer(ctx context.Context, id uuid.UUID, km float64) error {
	const q = `
		UPDATE vehicles
		SET odometer_km = odometer_km + @km,
		    updated_at  = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "km": km})
	if err != nil {
		return fmt.Errorf("repo.VehicleRepo.AddOdometer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.VehicleRepo.AddOdometer: %w", domain.ErrNotFound)
	}
	return nil
}

// scanVehicle maps a single database row into a domain.Vehicle, rebuilding
// the cargo or passenger spec from the nullable columns.
func scanVehicle(s scanner) (domain.Vehicle, error) {
	var (
		v          domain.Vehicle
		id         pgtype.UUID
		category   string
		inspection pgtype.Date
		insurance  pgtype.Date

		payload  pgtype.Float8
		axles    pgtype.Int4
		crane    pgtype.Bool
		refrig   pgtype.Bool
		security pgtype.Bool

		seats      pgtype.Int4
		comfort    pgtype.Text
		ac         pgtype.Bool
		entertain  pgtype.Bool
		wifi       pgtype.Bool
		accessible pgtype.Bool
		fuelType   pgtype.Text
	)

	err := s.Scan(&id, &v.Plate, &category, &v.Year, &v.OdometerKm, &v.Available,
		&inspection, &insurance,
		&payload, &axles, &crane, &refrig, &security,
		&seats, &comfort, &ac, &entertain, &wifi, &accessible, &fuelType,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vehicle{}, domain.ErrNotFound
		}
		return domain.Vehicle{}, err
	}

	v.ID = uuid.UUID(id.Bytes)
	v.Category = domain.Category(category)
	v.LastInspection = inspection.Time
	v.InsuranceExpiry = insurance.Time

	if payload.Valid {
		v.Cargo = &domain.CargoSpec{
			MaxPayloadTons: payload.Float64,
			Axles:          int(axles.Int32),
			Crane:          crane.Bool,
			Refrigeration:  refrig.Bool,
			CargoSecurity:  security.Bool,
		}
	}
	if seats.Valid {
		v.Passenger = &domain.PassengerSpec{
			Seats:           int(seats.Int32),
			Comfort:         domain.ComfortLevel(comfort.String),
			AirConditioning: ac.Bool,
			Entertainment:   entertain.Bool,
			WiFi:            wifi.Bool,
			Accessible:      accessible.Bool,
			FuelType:        fuelType.String,
		}
	}

	return v, nil
}
