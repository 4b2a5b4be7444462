// Package service contains the business logic for the dispatch API.
// Services validate inputs, enforce the trip state machine and resource
// rules, and orchestrate repo calls. No SQL lives here — services depend on
// repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fleetops/dispatch/internal/domain"
	"github.com/fleetops/dispatch/internal/eligibility"
	"github.com/fleetops/dispatch/internal/fare"
	"github.com/fleetops/dispatch/internal/repo"
)

// TripService implements the trip lifecycle. It holds all four repos because
// lifecycle operations cut across resources: starting a trip acquires a driver
// and a vehicle, completing one updates odometers and trip counters.
type TripService struct {
	trips    repo.TripRepo
	clients  repo.ClientRepo
	drivers  repo.DriverRepo
	vehicles repo.VehicleRepo
	log      *slog.Logger

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, clients repo.ClientRepo, drivers repo.DriverRepo, vehicles repo.VehicleRepo, log *slog.Logger) *TripService {
	return &TripService{
		trips:    trips,
		clients:  clients,
		drivers:  drivers,
		vehicles: vehicles,
		log:      log,
		now:      time.Now,
	}
}

// Schedule validates and persists a new trip in the scheduled status.
// The fare strategy is fixed at scheduling time from the client's standing,
// and the night flag is derived from the scheduled departure hour.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// client does not exist.
func (s *TripService) Schedule(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip, s.now()); err != nil {
		return domain.Trip{}, err
	}

	client, err := s.clients.GetByID(ctx, trip.ClientID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Schedule: client: %w", err)
	}

	trip.Status = domain.StatusScheduled
	trip.FareStrategy = fare.ForClient(client).Name()
	trip.Night = domain.IsNightTime(trip.ScheduledAt)
	if trip.EstimatedMinutes <= 0 {
		trip.EstimatedMinutes = domain.EstimateMinutes(trip.DistanceKm)
	}

	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Schedule: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of trips with the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Confirm moves a scheduled trip to confirmed.
// Returns domain.ErrInvalidTransition if the state machine forbids it or a
// concurrent transition won.
func (s *TripService) Confirm(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Confirm: %w", err)
	}
	if !domain.CanTransition(trip.Status, domain.StatusConfirmed) {
		return domain.Trip{}, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, trip.Status, domain.StatusConfirmed)
	}

	from := trip.Status
	trip.Status = domain.StatusConfirmed
	updated, ok, err := s.trips.Transition(ctx, trip, from)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Confirm: %w", err)
	}
	if !ok {
		return domain.Trip{}, fmt.Errorf("%w: trip %s changed concurrently", domain.ErrInvalidTransition, id)
	}
	return updated, nil
}

// AssignResources records which driver and vehicle will serve the trip.
// Assignment is a pure bookkeeping step: it verifies availability and
// eligibility but does not acquire either resource — availability flags only
// flip when the trip starts, so an assigned-but-not-started trip blocks nobody.
// Returns domain.ErrInvalidTransition if the trip already started or ended,
// domain.ErrResourceUnavailable if either resource is held by another trip,
// and domain.ErrEligibility if the pairing violates license or document rules.
func (s *TripService) AssignResources(ctx context.Context, tripID, driverID, vehicleID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AssignResources: %w", err)
	}
	if trip.Status != domain.StatusScheduled && trip.Status != domain.StatusConfirmed {
		return domain.Trip{}, fmt.Errorf("%w: cannot assign resources in status %s", domain.ErrInvalidTransition, trip.Status)
	}

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AssignResources: driver: %w", err)
	}
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AssignResources: vehicle: %w", err)
	}

	if !driver.Available {
		return domain.Trip{}, fmt.Errorf("%w: driver %s", domain.ErrResourceUnavailable, driverID)
	}
	if !vehicle.Available {
		return domain.Trip{}, fmt.Errorf("%w: vehicle %s", domain.ErrResourceUnavailable, vehicleID)
	}

	now := s.now()
	if err := eligibility.CheckDriver(driver, vehicle.Category, now); err != nil {
		return domain.Trip{}, err
	}
	if err := eligibility.CheckVehicle(vehicle, now); err != nil {
		return domain.Trip{}, err
	}

	trip.DriverID = &driverID
	trip.VehicleID = &vehicleID
	updated, err := s.trips.Save(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AssignResources: %w", err)
	}
	return updated, nil
}

// Start moves the trip to in_progress and acquires its resources. The driver
// is acquired first, then the vehicle; if the vehicle acquisition loses its
// compare-and-swap the driver is released again so a half-acquired pair never
// leaks. The trip records the departure time and the vehicle's odometer, and
// the client's trip counter is bumped (with tier promotion when earned).
// Returns domain.ErrMissingResource if no driver/vehicle is assigned,
// domain.ErrResourceUnavailable if either acquisition loses the race, and
// domain.ErrInvalidTransition if the state machine forbids starting.
func (s *TripService) Start(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}
	if !domain.CanTransition(trip.Status, domain.StatusInProgress) {
		return domain.Trip{}, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, trip.Status, domain.StatusInProgress)
	}
	if !trip.HasResources() {
		return domain.Trip{}, fmt.Errorf("%w: trip %s has no driver or vehicle assigned", domain.ErrMissingResource, id)
	}

	vehicle, err := s.vehicles.GetByID(ctx, *trip.VehicleID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: vehicle: %w", err)
	}

	ok, err := s.drivers.SetAvailability(ctx, *trip.DriverID, false)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}
	if !ok {
		return domain.Trip{}, fmt.Errorf("%w: driver %s", domain.ErrResourceUnavailable, *trip.DriverID)
	}

	ok, err = s.vehicles.SetAvailability(ctx, *trip.VehicleID, false)
	if err != nil || !ok {
		s.releaseDriver(ctx, *trip.DriverID)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
		}
		return domain.Trip{}, fmt.Errorf("%w: vehicle %s", domain.ErrResourceUnavailable, *trip.VehicleID)
	}

	now := s.now()
	from := trip.Status
	trip.Status = domain.StatusInProgress
	trip.StartedAt = &now
	trip.StartOdometerKm = vehicle.OdometerKm

	updated, won, err := s.trips.Transition(ctx, trip, from)
	if err != nil || !won {
		s.releaseDriver(ctx, *trip.DriverID)
		s.releaseVehicle(ctx, *trip.VehicleID)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
		}
		return domain.Trip{}, fmt.Errorf("%w: trip %s changed concurrently", domain.ErrInvalidTransition, id)
	}

	s.bumpClientTrips(ctx, updated)
	return updated, nil
}

// bumpClientTrips increments the client's completed-trip counter and promotes
// the tier when the new count earns one. Best effort: a failure here must not
// undo a started trip, so errors are logged and swallowed.
func (s *TripService) bumpClientTrips(ctx context.Context, trip domain.Trip) {
	client, err := s.clients.IncrementTrips(ctx, trip.ClientID)
	if err != nil {
		s.log.Error("start: client counter update failed",
			"trip_id", trip.ID, "client_id", trip.ClientID, "error", err)
		return
	}
	if promoted := client.PromotedTier(); promoted != client.Tier {
		if err := s.clients.UpdateTier(ctx, client.ID, promoted); err != nil {
			s.log.Error("start: tier promotion failed",
				"client_id", client.ID, "tier", promoted, "error", err)
			return
		}
		s.log.Info("client promoted", "client_id", client.ID, "tier", promoted,
			"completed_trips", client.CompletedTrips)
	}
}

// Complete ends an in-progress trip: it records the arrival time and the end
// odometer reading, then releases both resources and advances the odometer and
// the driver's trip counter. The end reading defaults to the start reading
// plus the trip distance, so callers normally pass 0 and the vehicle odometer
// advances by exactly the distance driven; a positive endOdometerKm overrides
// the default when the dashboard reading is known. The post-transition updates
// are best effort — a failed counter write is logged but does not undo the
// completion.
// Returns domain.ErrValidation if an explicit endOdometerKm runs backwards and
// domain.ErrInvalidTransition if the trip is not in progress.
func (s *TripService) Complete(ctx context.Context, id uuid.UUID, endOdometerKm float64) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}
	if !domain.CanTransition(trip.Status, domain.StatusCompleted) {
		return domain.Trip{}, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, trip.Status, domain.StatusCompleted)
	}
	if endOdometerKm <= 0 {
		endOdometerKm = trip.StartOdometerKm + trip.DistanceKm
	}
	if endOdometerKm < trip.StartOdometerKm {
		return domain.Trip{}, fmt.Errorf("%w: end odometer %.1f is below start odometer %.1f",
			domain.ErrValidation, endOdometerKm, trip.StartOdometerKm)
	}

	now := s.now()
	from := trip.Status
	trip.Status = domain.StatusCompleted
	trip.EndedAt = &now
	trip.EndOdometerKm = endOdometerKm

	updated, won, err := s.trips.Transition(ctx, trip, from)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}
	if !won {
		return domain.Trip{}, fmt.Errorf("%w: trip %s changed concurrently", domain.ErrInvalidTransition, id)
	}

	s.settleCompletion(ctx, updated)
	return updated, nil
}

// settleCompletion runs the bookkeeping that follows a committed completion:
// advance the vehicle odometer, release both resources, and bump the driver's
// trip counter. Each step is independent; failures are logged and the rest
// still run.
func (s *TripService) settleCompletion(ctx context.Context, trip domain.Trip) {
	if trip.VehicleID != nil {
		if km := trip.EndOdometerKm - trip.StartOdometerKm; km > 0 {
			if err := s.vehicles.AddOdometer(ctx, *trip.VehicleID, km); err != nil {
				s.log.Error("completion: odometer update failed",
					"trip_id", trip.ID, "vehicle_id", *trip.VehicleID, "error", err)
			}
		}
		s.releaseVehicle(ctx, *trip.VehicleID)
	}
	if trip.DriverID != nil {
		s.releaseDriver(ctx, *trip.DriverID)
		if err := s.drivers.IncrementTrips(ctx, *trip.DriverID); err != nil {
			s.log.Error("completion: driver counter update failed",
				"trip_id", trip.ID, "driver_id", *trip.DriverID, "error", err)
		}
	}
}

// Cancel aborts a non-terminal trip, stamping the reason into the notes log.
// A blank reason is stamped as "no reason given" rather than rejected.
// Resources are released only when the trip had already started; before that
// they were never acquired.
// Returns domain.ErrInvalidTransition for terminal trips or lost races.
func (s *TripService) Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Trip, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	if !domain.CanTransition(trip.Status, domain.StatusCancelled) {
		return domain.Trip{}, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, trip.Status, domain.StatusCancelled)
	}

	wasInProgress := trip.Status == domain.StatusInProgress
	from := trip.Status
	trip.Status = domain.StatusCancelled
	trip.AppendNote(s.now(), "CANCELLED: "+reason)

	updated, won, err := s.trips.Transition(ctx, trip, from)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	if !won {
		return domain.Trip{}, fmt.Errorf("%w: trip %s changed concurrently", domain.ErrInvalidTransition, id)
	}

	if wasInProgress {
		if updated.DriverID != nil {
			s.releaseDriver(ctx, *updated.DriverID)
		}
		if updated.VehicleID != nil {
			s.releaseVehicle(ctx, *updated.VehicleID)
		}
	}
	return updated, nil
}

// AddNote appends a timestamped entry to the trip's notes log. Notes stay
// writable on terminal trips.
// Returns domain.ErrValidation if the text is empty or whitespace.
func (s *TripService) AddNote(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Trip{}, fmt.Errorf("%w: note text is required", domain.ErrValidation)
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AddNote: %w", err)
	}

	trip.AppendNote(s.now(), text)
	updated, err := s.trips.Save(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AddNote: %w", err)
	}
	return updated, nil
}

// ComputeFare prices the trip with its stored strategy and persists the total.
// The computation is deterministic, so recomputing an already-priced trip
// yields the same amount.
// Returns domain.ErrComputation when the trip cannot be priced: cancelled, or
// no vehicle assigned (there is no rate to price against).
func (s *TripService) ComputeFare(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, client, vehicle, err := s.fareInputs(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}

	strategy := fare.ByName(trip.FareStrategy)
	base := strategy.Calculate(s.now(), trip.DistanceKm, client, vehicle)
	trip.TotalFare = fare.Finalize(base, trip.AdditionalCost, trip.Urgent, trip.Night)

	updated, err := s.trips.Save(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.ComputeFare: %w", err)
	}
	return updated, nil
}

// FareBreakdown renders the line-by-line pricing of the trip, including the
// trip-level adjustments applied after the strategy amount. It does not
// persist anything.
func (s *TripService) FareBreakdown(ctx context.Context, id uuid.UUID) (string, error) {
	trip, client, vehicle, err := s.fareInputs(ctx, id)
	if err != nil {
		return "", err
	}

	now := s.now()
	strategy := fare.ByName(trip.FareStrategy)
	base := strategy.Calculate(now, trip.DistanceKm, client, vehicle)

	var b strings.Builder
	b.WriteString(strategy.Explain(now, trip.DistanceKm, client, vehicle))
	if trip.AdditionalCost > 0 {
		fmt.Fprintf(&b, "\nadditional cost: $%.0f", trip.AdditionalCost)
	}
	if trip.Urgent {
		fmt.Fprintf(&b, "\nurgency surcharge: ×%.2f", fare.UrgentMultiplier)
	}
	if trip.Night {
		fmt.Fprintf(&b, "\nnight surcharge: ×%.2f", fare.NightMultiplier)
	}
	fmt.Fprintf(&b, "\nFINAL: $%.0f", fare.Finalize(base, trip.AdditionalCost, trip.Urgent, trip.Night))
	return b.String(), nil
}

// fareInputs loads everything pricing needs and enforces its preconditions.
func (s *TripService) fareInputs(ctx context.Context, id uuid.UUID) (domain.Trip, domain.Client, domain.Vehicle, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, domain.Client{}, domain.Vehicle{}, fmt.Errorf("service.TripService.ComputeFare: %w", err)
	}
	if trip.Status == domain.StatusCancelled {
		return domain.Trip{}, domain.Client{}, domain.Vehicle{}, fmt.Errorf("%w: cannot price a cancelled trip", domain.ErrComputation)
	}
	if trip.VehicleID == nil {
		return domain.Trip{}, domain.Client{}, domain.Vehicle{}, fmt.Errorf("%w: trip %s has no vehicle assigned", domain.ErrComputation, id)
	}

	client, err := s.clients.GetByID(ctx, trip.ClientID)
	if err != nil {
		return domain.Trip{}, domain.Client{}, domain.Vehicle{}, fmt.Errorf("service.TripService.ComputeFare: client: %w", err)
	}
	vehicle, err := s.vehicles.GetByID(ctx, *trip.VehicleID)
	if err != nil {
		return domain.Trip{}, domain.Client{}, domain.Vehicle{}, fmt.Errorf("service.TripService.ComputeFare: vehicle: %w", err)
	}
	return trip, client, vehicle, nil
}

// SetRating records the client's rating for a completed trip.
// Returns domain.ErrValidation for an out-of-range rating and
// domain.ErrInvalidTransition when the trip has not completed.
func (s *TripService) SetRating(ctx context.Context, id uuid.UUID, rating float64) (domain.Trip, error) {
	if rating < 0 || rating > 5 {
		return domain.Trip{}, fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetRating: %w", err)
	}
	if trip.Status != domain.StatusCompleted {
		return domain.Trip{}, fmt.Errorf("%w: only completed trips can be rated", domain.ErrInvalidTransition)
	}

	trip.Rating = rating
	updated, err := s.trips.Save(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetRating: %w", err)
	}
	return updated, nil
}

// UpdatePricing adjusts the trip's additional cost and urgency flag ahead of
// fare computation. Terminal trips are immutable.
// Returns domain.ErrValidation for a negative additional cost and
// domain.ErrInvalidTransition for terminal trips.
func (s *TripService) UpdatePricing(ctx context.Context, id uuid.UUID, additionalCost float64, urgent bool) (domain.Trip, error) {
	if additionalCost < 0 {
		return domain.Trip{}, fmt.Errorf("%w: additional_cost must not be negative", domain.ErrValidation)
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdatePricing: %w", err)
	}
	if trip.Status.Terminal() {
		return domain.Trip{}, fmt.Errorf("%w: trip %s is %s", domain.ErrInvalidTransition, id, trip.Status)
	}

	trip.AdditionalCost = additionalCost
	trip.Urgent = urgent
	updated, err := s.trips.Save(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdatePricing: %w", err)
	}
	return updated, nil
}

// releaseDriver flips a driver back to available. Losing the swap means the
// driver was already released, which is fine; a hard error is only logged
// because release runs during cleanup paths that must not fail the operation.
func (s *TripService) releaseDriver(ctx context.Context, id uuid.UUID) {
	if _, err := s.drivers.SetAvailability(ctx, id, true); err != nil {
		s.log.Error("driver release failed", "driver_id", id, "error", err)
	}
}

// releaseVehicle is the vehicle counterpart of releaseDriver.
func (s *TripService) releaseVehicle(ctx context.Context, id uuid.UUID) {
	if _, err := s.vehicles.SetAvailability(ctx, id, true); err != nil {
		s.log.Error("vehicle release failed", "vehicle_id", id, "error", err)
	}
}

// validateTrip enforces the scheduling rules:
//   - Origin and destination must be 3–100 characters and distinct.
//   - Distance must be positive and within the operator's maximum.
//   - The departure must lie in the future.
func validateTrip(trip domain.Trip, now time.Time) error {
	if err := validatePlace("origin", trip.Origin); err != nil {
		return err
	}
	if err := validatePlace("destination", trip.Destination); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(trip.Origin), strings.TrimSpace(trip.Destination)) {
		return fmt.Errorf("%w: origin and destination must differ", domain.ErrValidation)
	}
	if trip.DistanceKm <= 0 {
		return fmt.Errorf("%w: distance_km must be positive", domain.ErrValidation)
	}
	if trip.DistanceKm > domain.MaxDistanceKm {
		return fmt.Errorf("%w: distance_km exceeds the %.0f km maximum", domain.ErrValidation, domain.MaxDistanceKm)
	}
	if !trip.ScheduledAt.After(now) {
		return fmt.Errorf("%w: scheduled_at must be in the future", domain.ErrValidation)
	}
	if trip.AdditionalCost < 0 {
		return fmt.Errorf("%w: additional_cost must not be negative", domain.ErrValidation)
	}
	return nil
}

func validatePlace(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	if n := utf8.RuneCountInString(trimmed); n < 3 || n > 100 {
		return fmt.Errorf("%w: %s must be 3-100 characters", domain.ErrValidation, field)
	}
	return nil
}
