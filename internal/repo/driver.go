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

// DriverRepo defines the persistence operations for Drivers.
type DriverRepo interface {
	// Create inserts a new driver and returns the persisted record.
	Create(ctx context.Context, driver domain.Driver) (domain.Driver, error)

	// GetByID retrieves a driver by its UUID primary key.
	// Returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)

	// List returns all drivers ordered by name.
	List(ctx context.Context) ([]domain.Driver, error)

	// SetAvailability flips the availability flag with a compare-and-swap:
	// the update only applies if the flag currently holds the opposite value.
	// Returns false when the swap was lost (the driver was already in the
	// requested state), which callers treat as a concurrent-commit signal.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error)

	// IncrementTrips adds one to the driver's lifetime trip counter.
	IncrementTrips(ctx context.Context, id uuid.UUID) error
}

// pgDriverRepo is the Postgres implementation of DriverRepo.
type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

func (r *pgDriverRepo) Create(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	const q = `
		INSERT INTO drivers (name, license_number, license_class, license_expiry,
		                     years_experience, available, completed_trips)
		VALUES (@name, @license_number, @license_class, @license_expiry,
		        @years_experience, @available, @completed_trips)
		RETURNING id, name, license_number, license_class, license_expiry,
		          years_experience, available, completed_trips, created_at, updated_at`

	args := pgx.NamedArgs{
		"name":             driver.Name,
		"license_number":   driver.LicenseNumber,
		"license_class":    string(driver.LicenseClass),
		"license_expiry":   driver.LicenseExpiry,
		"years_experience": driver.YearsExperience,
		"available":        driver.Available,
		"completed_trips":  driver.CompletedTrips,
	}

	result, err := scanDriver(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	const q = `
		SELECT id, name, license_number, license_class, license_expiry,
		       years_experience, available, completed_trips, created_at, updated_at
		FROM drivers
		WHERE id = @id`

	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) List(ctx context.Context) ([]domain.Driver, error) {
	const q = `
		SELECT id, name, license_number, license_class, license_expiry,
		       years_experience, available, completed_trips, created_at, updated_at
		FROM drivers
		ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.List: %w", err)
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DriverRepo.List: scan: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.List: rows: %w", err)
	}

	return drivers, nil
}

// SetAvailability is the per-driver mutual exclusion primitive: the WHERE
// clause makes the flip atomic, so two concurrent attempts to commit the same
// driver cannot both succeed.
func (r *pgDriverRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	const q = `
		UPDATE drivers
		SET available  = @available,
		    updated_at = now()
		WHERE id = @id AND available = NOT @available`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "available": available})
	if err != nil {
		return false, fmt.Errorf("repo.DriverRepo.SetAvailability: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgDriverRepo) IncrementTrips(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE drivers
		SET completed_trips = completed_trips + 1,
		    updated_at      = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.IncrementTrips: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DriverRepo.IncrementTrips: %w", domain.ErrNotFound)
	}
	return nil
}

// scanDriver maps a single database row into a domain.Driver.
func scanDriver(s scanner) (domain.Driver, error) {
	var (
		d      domain.Driver
		id     pgtype.UUID
		class  string
		expiry pgtype.Date
	)

	err := s.Scan(&id, &d.Name, &d.LicenseNumber, &class, &expiry,
		&d.YearsExperience, &d.Available, &d.CompletedTrips, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, domain.ErrNotFound
		}
		return domain.Driver{}, err
	}

	d.ID = uuid.UUID(id.Bytes)
	d.LicenseClass = domain.LicenseClass(class)
	d.LicenseExpiry = expiry.Time
	return d, nil
}
