package handler

import (
	"encoding/json"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/fleetops/dispatch/internal/domain"
)

// CreateDriverRequest is the body for POST /drivers. License expiry is a
// calendar date (YYYY-MM-DD), not a timestamp.
type CreateDriverRequest struct {
	Name            string              `json:"name"`
	LicenseNumber   string              `json:"license_number"`
	LicenseClass    domain.LicenseClass `json:"license_class"`
	LicenseExpiry   openapi_types.Date  `json:"license_expiry"`
	YearsExperience int                 `json:"years_experience,omitempty"`
}

// CreateDriver handles POST /drivers.
func (s *Server) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req CreateDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	driver := domain.Driver{
		Name:            req.Name,
		LicenseNumber:   req.LicenseNumber,
		LicenseClass:    req.LicenseClass,
		LicenseExpiry:   req.LicenseExpiry.Time,
		YearsExperience: req.YearsExperience,
	}

	created, err := s.drivers.Create(r.Context(), driver)
	if err != nil {
		respondError(w, err, "driver not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListDrivers handles GET /drivers.
func (s *Server) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.drivers.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": drivers})
}

// GetDriver handles GET /drivers/{id}.
func (s *Server) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	driver, err := s.drivers.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "driver not found")
		return
	}
	writeJSON(w, http.StatusOK, driver)
}
