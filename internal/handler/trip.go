package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatch/internal/domain"
)

// ScheduleTripRequest is the body for POST /trips.
type ScheduleTripRequest struct {
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	DistanceKm       float64   `json:"distance_km"`
	EstimatedMinutes int       `json:"estimated_minutes,omitempty"`
	ClientID         uuid.UUID `json:"client_id"`
	Urgent           bool      `json:"urgent,omitempty"`
	AdditionalCost   float64   `json:"additional_cost,omitempty"`
}

// TripResponse is a domain.Trip enriched with fields derived from the clock,
// which the stored record cannot carry.
type TripResponse struct {
	domain.Trip
	Overdue               bool  `json:"overdue"`
	ActualDurationMinutes int64 `json:"actual_duration_minutes"`
}

// ListTripsResponse is the body for GET /trips.
type ListTripsResponse struct {
	Data       []TripResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination echoes the effective paging values alongside the total count.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// FareBreakdownResponse is the body for GET /trips/{id}/fare.
type FareBreakdownResponse struct {
	Breakdown string `json:"breakdown"`
}

func (s *Server) tripBody(t domain.Trip) TripResponse {
	now := s.now()
	return TripResponse{
		Trip:                  t,
		Overdue:               t.IsOverdue(now),
		ActualDurationMinutes: t.ActualDurationMinutes(now),
	}
}

// ScheduleTrip handles POST /trips.
func (s *Server) ScheduleTrip(w http.ResponseWriter, r *http.Request) {
	var req ScheduleTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip := domain.Trip{
		Origin:           req.Origin,
		Destination:      req.Destination,
		ScheduledAt:      req.ScheduledAt,
		DistanceKm:       req.DistanceKm,
		EstimatedMinutes: req.EstimatedMinutes,
		ClientID:         req.ClientID,
		Urgent:           req.Urgent,
		AdditionalCost:   req.AdditionalCost,
	}

	created, err := s.trips.Schedule(r.Context(), trip)
	if err != nil {
		respondError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusCreated, s.tripBody(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))
	trips, total, err := s.trips.List(r.Context(), params)
	if err != nil {
		respondError(w, err, "")
		return
	}

	data := make([]TripResponse, len(trips))
	for i, t := range trips {
		data[i] = s.tripBody(t)
	}
	writeJSON(w, http.StatusOK, ListTripsResponse{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// ConfirmTrip handles POST /trips/{id}/confirm.
func (s *Server) ConfirmTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.Confirm(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// AssignTripResources handles POST /trips/{id}/assign.
func (s *Server) AssignTripResources(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		DriverID  uuid.UUID `json:"driver_id"`
		VehicleID uuid.UUID `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}
	if req.DriverID == (uuid.UUID{}) || req.VehicleID == (uuid.UUID{}) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "driver_id and vehicle_id are required")
		return
	}

	trip, err := s.trips.AssignResources(r.Context(), id, req.DriverID, req.VehicleID)
	if err != nil {
		respondError(w, err, "trip, driver, or vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// StartTrip handles POST /trips/{id}/start.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.Start(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// CompleteTrip handles POST /trips/{id}/complete.
// end_odometer_km is optional; when omitted the service derives the end
// reading from the start reading plus the trip distance.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		EndOdometerKm float64 `json:"end_odometer_km"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip, err := s.trips.Complete(r.Context(), id, req.EndOdometerKm)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// CancelTrip handles POST /trips/{id}/cancel.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip, err := s.trips.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// AddTripNote handles POST /trips/{id}/notes.
func (s *Server) AddTripNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip, err := s.trips.AddNote(r.Context(), id, req.Text)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// ComputeTripFare handles POST /trips/{id}/fare.
func (s *Server) ComputeTripFare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.ComputeFare(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// GetTripFareBreakdown handles GET /trips/{id}/fare.
func (s *Server) GetTripFareBreakdown(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	breakdown, err := s.trips.FareBreakdown(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, FareBreakdownResponse{Breakdown: breakdown})
}

// RateTrip handles POST /trips/{id}/rating.
func (s *Server) RateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating float64 `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip, err := s.trips.SetRating(r.Context(), id, req.Rating)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// UpdateTripPricing handles PUT /trips/{id}/pricing.
func (s *Server) UpdateTripPricing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		AdditionalCost float64 `json:"additional_cost"`
		Urgent         bool    `json:"urgent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request body is malformed")
		return
	}

	trip, err := s.trips.UpdatePricing(r.Context(), id, req.AdditionalCost, req.Urgent)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripBody(trip))
}

// queryInt parses an integer query parameter, returning nil when absent or
// malformed so pagination falls back to its defaults.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
