// Package domain contains the core data types for the fleet dispatch service.
// This package holds the trip state machine, the vehicle rate model, and the
// resource/client records. It has no persistence or transport concerns and is
// imported by every other internal package (eligibility, fare, repo, service,
// handler).
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a trip's position in its lifecycle.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions represents the trip state flow as code. Completed and
// cancelled are terminal.
var allowedTransitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Trip parameters fixed by the business.
const (
	// MaxDistanceKm is the longest trip the operator will schedule.
	MaxDistanceKm = 2000.0
	// OverdueGrace is how far past the scheduled time a non-terminal trip may
	// run before it counts as overdue.
	OverdueGrace = 15 * time.Minute
	// noteTimeLayout stamps entries in the trip notes log.
	noteTimeLayout = "02/01/2006 15:04"
)

// Trip is the aggregate at the centre of the system: a scheduled transport job
// with origin, destination, assigned resources, and a computed fare.
//
// A trip references its client, driver, and vehicle by ID; the service layer
// looks the records up when an operation needs them. Once completed, a trip is
// immutable except for appended notes and the rating.
type Trip struct {
	ID               uuid.UUID  `json:"id"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	ScheduledAt      time.Time  `json:"scheduled_at"`
	DistanceKm       float64    `json:"distance_km"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Status           Status     `json:"status"`
	ClientID         uuid.UUID  `json:"client_id"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	VehicleID        *uuid.UUID `json:"vehicle_id,omitempty"`
	FareStrategy     string     `json:"fare_strategy"`
	TotalFare        float64    `json:"total_fare"`
	AdditionalCost   float64    `json:"additional_cost"`
	Urgent           bool       `json:"urgent"`
	Night            bool       `json:"night"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	StartOdometerKm  float64    `json:"start_odometer_km"`
	EndOdometerKm    float64    `json:"end_odometer_km"`
	Rating           float64    `json:"rating"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsNightTime reports whether t falls in the night window (22:00–06:00).
func IsNightTime(t time.Time) bool {
	h := t.Hour()
	return h >= 22 || h < 6
}

// EstimateMinutes derives a trip duration from distance at roughly one
// kilometre per minute.
func EstimateMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm))
}

// HasResources reports whether both a driver and a vehicle are assigned.
func (t Trip) HasResources() bool {
	return t.DriverID != nil && t.VehicleID != nil
}

// AppendNote adds a timestamped entry to the notes log. Empty or
// whitespace-only text is a no-op.
func (t *Trip) AppendNote(now time.Time, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	entry := now.Format(noteTimeLayout) + ": " + trimmed
	if t.Notes == "" {
		t.Notes = entry
		return
	}
	t.Notes += "\n" + entry
}

// IsOverdue reports whether now is past the scheduled time plus the grace
// period while the trip is still in a non-terminal status.
func (t Trip) IsOverdue(now time.Time) bool {
	if t.Status.Terminal() {
		return false
	}
	return now.After(t.ScheduledAt.Add(OverdueGrace))
}

// ActualDurationMinutes returns the minutes between the actual start and the
// actual end, or now for a trip still in progress. Returns -1 before start.
func (t Trip) ActualDurationMinutes(now time.Time) int64 {
	if t.StartedAt == nil {
		return -1
	}
	end := now
	if t.EndedAt != nil {
		end = *t.EndedAt
	}
	return int64(end.Sub(*t.StartedAt) / time.Minute)
}

// MinutesUntilScheduled returns the minutes from now until the scheduled
// time; negative once the scheduled time has passed.
func (t Trip) MinutesUntilScheduled(now time.Time) int64 {
	return int64(t.ScheduledAt.Sub(now) / time.Minute)
}

// Summary renders a one-line description for logs and listings.
func (t Trip) Summary() string {
	fare := "pending"
	if t.TotalFare > 0 {
		fare = fmt.Sprintf("$%.0f", t.TotalFare)
	}
	return fmt.Sprintf("%s: %s → %s | %.1f km | %s | %s",
		t.ID, t.Origin, t.Destination, t.DistanceKm, t.Status, fare)
}
