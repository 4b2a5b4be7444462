package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// LicenseClass is the class printed on a driver's license. It determines which
// vehicle categories the driver may operate (see the eligibility package).
type LicenseClass string

const (
	LicenseA1 LicenseClass = "A1" // motorcycles up to 125cc
	LicenseA2 LicenseClass = "A2" // motorcycles, unrestricted
	LicenseB1 LicenseClass = "B1" // private cars and pickups
	LicenseB2 LicenseClass = "B2" // rigid trucks and buses
	LicenseB3 LicenseClass = "B3" // articulated vehicles
	LicenseC1 LicenseClass = "C1" // individual public service
	LicenseC2 LicenseClass = "C2" // collective public service
	LicenseC3 LicenseClass = "C3" // mass public service
)

// Valid reports whether lc is one of the known license classes.
func (lc LicenseClass) Valid() bool {
	switch lc {
	case LicenseA1, LicenseA2, LicenseB1, LicenseB2, LicenseB3, LicenseC1, LicenseC2, LicenseC3:
		return true
	}
	return false
}

// licenseNumberPattern is the accepted license identifier format.
var licenseNumberPattern = regexp.MustCompile(`^[A-Z0-9]{8,15}$`)

// Driver is a resource that can be committed to at most one active trip.
// Available is true iff the driver is not currently held by a trip.
type Driver struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	LicenseNumber   string       `json:"license_number"`
	LicenseClass    LicenseClass `json:"license_class"`
	LicenseExpiry   time.Time    `json:"license_expiry"`
	YearsExperience int          `json:"years_experience"`
	Available       bool         `json:"available"`
	CompletedTrips  int          `json:"completed_trips"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// LicenseValid reports whether the license identifier is well formed and the
// license has not expired as of now.
func (d Driver) LicenseValid(now time.Time) bool {
	return licenseNumberPattern.MatchString(d.LicenseNumber) &&
		d.LicenseExpiry.After(now)
}
