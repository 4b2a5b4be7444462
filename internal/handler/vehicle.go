package handler

import (
	"encoding/json"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/fleetops/dispatch/internal/domain"
)

// CreateVehicleRequest is the body for POST /vehicles. Exactly one of Cargo or
// Passenger should be present, matching the category; the service rejects
// mismatches. Inspection and insurance dates are calendar dates (YYYY-MM-DD).
type CreateVehicleRequest struct {
	Plate           string                `json:"plate"`
	Category        domain.Category       `json:"category"`
	Year            int                   `json:"year"`
	OdometerKm      float64               `json:"odometer_km,omitempty"`
	LastInspection  openapi_types.Date    `json:"last_inspection"`
	InsuranceExpiry openapi_types.Date    `json:"insurance_expiry"`
	Cargo           *domain.CargoSpec     `json:"cargo,omitempty"`
	Passenger       *domain.PassengerSpec `json:"passenger,omitempty"`
}

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	vehicle := domain.Vehicle{
		Plate:           req.Plate,
		Category:        req.Category,
		Year:            req.Year,
		OdometerKm:      req.OdometerKm,
		LastInspection:  req.LastInspection.Time,
		InsuranceExpiry: req.InsuranceExpiry.Time,
		Cargo:           req.Cargo,
		Passenger:       req.Passenger,
	}

	created, err := s.vehicles.Create(r.Context(), vehicle)
	if err != nil {
		respondError(w, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListVehicles handles GET /vehicles.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicles.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": vehicles})
}

// GetVehicle handles GET /vehicles/{id}.
func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	vehicle, err := s.vehicles.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}
