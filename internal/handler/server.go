// Package handler implements the HTTP layer of the dispatch API.
// All handlers are methods on Server; they decode requests, call the service
// layer through narrow interfaces, and translate domain errors to HTTP status
// codes. Methods are split into resource-specific files (trip.go, client.go,
// etc.) but all share the same Server struct.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/dispatch/internal/domain"
	"github.com/fleetops/dispatch/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Schedule(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Confirm(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	AssignResources(ctx context.Context, tripID, driverID, vehicleID uuid.UUID) (domain.Trip, error)
	Start(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Complete(ctx context.Context, id uuid.UUID, endOdometerKm float64) (domain.Trip, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Trip, error)
	AddNote(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error)
	ComputeFare(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	FareBreakdown(ctx context.Context, id uuid.UUID) (string, error)
	SetRating(ctx context.Context, id uuid.UUID, rating float64) (domain.Trip, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, additionalCost float64, urgent bool) (domain.Trip, error)
}

// ClientServicer defines the business operations the client handlers depend on.
type ClientServicer interface {
	Create(ctx context.Context, client domain.Client) (domain.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// DriverServicer defines the business operations the driver handlers depend on.
type DriverServicer interface {
	Create(ctx context.Context, driver domain.Driver) (domain.Driver, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)
	List(ctx context.Context) ([]domain.Driver, error)
}

// VehicleServicer defines the business operations the vehicle handlers depend on.
type VehicleServicer interface {
	Create(ctx context.Context, vehicle domain.Vehicle) (domain.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error)
	List(ctx context.Context) ([]domain.Vehicle, error)
}

// Server holds the service dependencies for all API endpoints.
type Server struct {
	trips    TripServicer
	clients  ClientServicer
	drivers  DriverServicer
	vehicles VehicleServicer

	// now is swapped in tests to pin the clock for derived response fields.
	now func() time.Time
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, clients ClientServicer, drivers DriverServicer, vehicles VehicleServicer) *Server {
	return &Server{
		trips:    trips,
		clients:  clients,
		drivers:  drivers,
		vehicles: vehicles,
		now:      time.Now,
	}
}

// Routes registers every endpoint on a fresh chi router and returns it.
// Mount the result under "/" in main.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	r.Route("/clients", func(r chi.Router) {
		r.Post("/", s.CreateClient)
		r.Get("/", s.ListClients)
		r.Get("/{id}", s.GetClient)
	})

	r.Route("/drivers", func(r chi.Router) {
		r.Post("/", s.CreateDriver)
		r.Get("/", s.ListDrivers)
		r.Get("/{id}", s.GetDriver)
	})

	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", s.CreateVehicle)
		r.Get("/", s.ListVehicles)
		r.Get("/{id}", s.GetVehicle)
	})

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.ScheduleTrip)
		r.Get("/", s.ListTrips)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Post("/confirm", s.ConfirmTrip)
			r.Post("/assign", s.AssignTripResources)
			r.Post("/start", s.StartTrip)
			r.Post("/complete", s.CompleteTrip)
			r.Post("/cancel", s.CancelTrip)
			r.Post("/notes", s.AddTripNote)
			r.Post("/fare", s.ComputeTripFare)
			r.Get("/fare", s.GetTripFareBreakdown)
			r.Post("/rating", s.RateTrip)
			r.Put("/pricing", s.UpdateTripPricing)
		})
	})

	return r
}

// pathID parses the {id} URL parameter as a UUID. On failure it writes a 422
// response and reports false.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "id must be a valid UUID")
		return uuid.UUID{}, false
	}
	return id, true
}
