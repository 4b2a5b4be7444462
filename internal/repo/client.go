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

// ClientRepo defines the persistence operations for Clients.
type ClientRepo interface {
	// Create inserts a new client and returns the persisted record.
	Create(ctx context.Context, client domain.Client) (domain.Client, error)

	// GetByID retrieves a client by its UUID primary key.
	// Returns domain.ErrNotFound if no client with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error)

	// List returns all clients ordered by name.
	List(ctx context.Context) ([]domain.Client, error)

	// IncrementTrips adds one to the client's completed-trip counter and
	// returns the updated record, so the caller can re-evaluate the tier.
	IncrementTrips(ctx context.Context, id uuid.UUID) (domain.Client, error)

	// UpdateTier overwrites the client's tier (used for auto-promotion).
	UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error
}

// pgClientRepo is the Postgres implementation of ClientRepo.
type pgClientRepo struct {
	db db
}

// NewClientRepo constructs a ClientRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewClientRepo(db db) ClientRepo {
	return &pgClientRepo{db: db}
}

func (r *pgClientRepo) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	const q = `
		INSERT INTO clients (name, tier, completed_trips)
		VALUES (@name, @tier, @completed_trips)
		RETURNING id, name, tier, completed_trips, created_at, updated_at`

	args := pgx.NamedArgs{
		"name":            client.Name,
		"tier":            string(client.Tier),
		"completed_trips": client.CompletedTrips,
	}

	result, err := scanClient(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	const q = `
		SELECT id, name, tier, completed_trips, created_at, updated_at
		FROM clients
		WHERE id = @id`

	result, err := scanClient(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) List(ctx context.Context) ([]domain.Client, error) {
	const q = `
		SELECT id, name, tier, completed_trips, created_at, updated_at
		FROM clients
		ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ClientRepo.List: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ClientRepo.List: scan: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ClientRepo.List: rows: %w", err)
	}

	return clients, nil
}

func (r *pgClientRepo) IncrementTrips(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	const q = `
		UPDATE clients
		SET completed_trips = completed_trips + 1,
		    updated_at      = now()
		WHERE id = @id
		RETURNING id, name, tier, completed_trips, created_at, updated_at`

	result, err := scanClient(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.IncrementTrips: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error {
	const q = `
		UPDATE clients
		SET tier       = @tier,
		    updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "tier": string(tier)})
	if err != nil {
		return fmt.Errorf("repo.ClientRepo.UpdateTier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ClientRepo.UpdateTier: %w", domain.ErrNotFound)
	}
	return nil
}

// scanClient maps a single database row into a domain.Client.
func scanClient(s scanner) (domain.Client, error) {
	var (
		c    domain.Client
		id   pgtype.UUID
		tier string
	)

	err := s.Scan(&id, &c.Name, &tier, &c.CompletedTrips, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, domain.ErrNotFound
		}
		return domain.Client{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.Tier = domain.Tier(tier)
	return c, nil
}
