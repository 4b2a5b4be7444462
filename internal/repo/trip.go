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

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns one page of trips ordered by scheduled_at descending,
	// along with the total row count for pagination metadata.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Save overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Save(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Transition saves the trip like Save, but only if the stored status still
	// equals from — a compare-and-swap so two concurrent transitions on the
	// same trip cannot both succeed. The bool reports whether the swap won.
	Transition(ctx context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, origin, destination, scheduled_at, distance_km, estimated_minutes,
	       status, client_id, driver_id, vehicle_id, fare_strategy,
	       total_fare, additional_cost, urgent, night,
	       started_at, ended_at, start_odometer_km, end_odometer_km,
	       rating, notes, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (origin, destination, scheduled_at, distance_km,
		                   estimated_minutes, status, client_id, fare_strategy,
		                   total_fare, additional_cost, urgent, night, notes)
		VALUES (@origin, @destination, @scheduled_at, @distance_km,
		        @estimated_minutes, @status, @client_id, @fare_strategy,
		        @total_fare, @additional_cost, @urgent, @night, @notes)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"origin":            trip.Origin,
		"destination":       trip.Destination,
		"scheduled_at":      trip.ScheduledAt,
		"distance_km":       trip.DistanceKm,
		"estimated_minutes": trip.EstimatedMinutes,
		"status":            string(trip.Status),
		"client_id":         trip.ClientID,
		"fare_strategy":     trip.FareStrategy,
		"total_fare":        trip.TotalFare,
		"additional_cost":   trip.AdditionalCost,
		"urgent":            trip.Urgent,
		"night":             trip.Night,
		"notes":             trip.Notes,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `SELECT count(*) FROM trips`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		ORDER BY scheduled_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}

	return trips, total, nil
}

// tripUpdateSet is shared by Save and Transition: every field the lifecycle
// may legally change after creation.
const tripUpdateSet = `
		SET status            = @status,
		    driver_id         = @driver_id,
		    vehicle_id        = @vehicle_id,
		    fare_strategy     = @fare_strategy,
		    total_fare        = @total_fare,
		    additional_cost   = @additional_cost,
		    urgent            = @urgent,
		    started_at        = @started_at,
		    ended_at          = @ended_at,
		    start_odometer_km = @start_odometer_km,
		    end_odometer_km   = @end_odometer_km,
		    rating            = @rating,
		    notes             = @notes,
		    updated_at        = now()`

func tripUpdateArgs(trip domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                trip.ID,
		"status":            string(trip.Status),
		"driver_id":         trip.DriverID,
		"vehicle_id":        trip.VehicleID,
		"fare_strategy":     trip.FareStrategy,
		"total_fare":        trip.TotalFare,
		"additional_cost":   trip.AdditionalCost,
		"urgent":            trip.Urgent,
		"started_at":        trip.StartedAt,
		"ended_at":          trip.EndedAt,
		"start_odometer_km": trip.StartOdometerKm,
		"end_odometer_km":   trip.EndOdometerKm,
		"rating":            trip.Rating,
		"notes":             trip.Notes,
	}
}

func (r *pgTripRepo) Save(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `UPDATE trips` + tripUpdateSet + `
		WHERE id = @id
		RETURNING ` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, tripUpdateArgs(trip)))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Save: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Transition(ctx context.Context, trip domain.Trip, from domain.Status) (domain.Trip, bool, error) {
	const q = `UPDATE trips` + tripUpdateSet + `
		WHERE id = @id AND status = @from_status
		RETURNING ` + tripColumns

	args := tripUpdateArgs(trip)
	args["from_status"] = string(from)

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if errors.Is(err, domain.ErrNotFound) {
		// Either the trip is gone or another transition won the race; the
		// caller distinguishes by re-reading.
		return domain.Trip{}, false, nil
	}
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("repo.TripRepo.Transition: %w", err)
	}
	return result, true, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable resource/timestamp conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		status    string
		clientID  pgtype.UUID
		driverID  pgtype.UUID
		vehicleID pgtype.UUID
		startedAt pgtype.Timestamptz
		endedAt   pgtype.Timestamptz
	)

	err := s.Scan(&id, &t.Origin, &t.Destination, &t.ScheduledAt, &t.DistanceKm,
		&t.EstimatedMinutes, &status, &clientID, &driverID, &vehicleID,
		&t.FareStrategy, &t.TotalFare, &t.AdditionalCost, &t.Urgent, &t.Night,
		&startedAt, &endedAt, &t.StartOdometerKm, &t.EndOdometerKm,
		&t.Rating, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Status = domain.Status(status)
	t.ClientID = uuid.UUID(clientID.Bytes)
	if driverID.Valid {
		d := uuid.UUID(driverID.Bytes)
		t.DriverID = &d
	}
	if vehicleID.Valid {
		v := uuid.UUID(vehicleID.Bytes)
		t.VehicleID = &v
	}
	if startedAt.Valid {
		ts := startedAt.Time
		t.StartedAt = &ts
	}
	if endedAt.Valid {
		ts := endedAt.Time
		t.EndedAt = &ts
	}

	return t, nil
}
