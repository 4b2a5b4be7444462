package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fleetops/dispatch/internal/domain"
)

// CreateClientRequest is the body for POST /clients.
type CreateClientRequest struct {
	Name           string      `json:"name"`
	Tier           domain.Tier `json:"tier,omitempty"`
	CompletedTrips int         `json:"completed_trips,omitempty"`
}

// CreateClient handles POST /clients.
func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	client := domain.Client{
		Name:           req.Name,
		Tier:           req.Tier,
		CompletedTrips: req.CompletedTrips,
	}

	created, err := s.clients.Create(r.Context(), client)
	if err != nil {
		respondError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListClients handles GET /clients.
func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clients.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": clients})
}

// GetClient handles GET /clients/{id}.
func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	client, err := s.clients.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}
