package domain

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the regulatory category of a vehicle. Each category carries a
// per-kilometre base rate and a passenger capacity; categories with zero
// capacity (or that do not carry passengers) are cargo categories.
type Category string

const (
	CategoryMotorcycle Category = "motorcycle"
	CategoryCar        Category = "car"
	CategoryPickup     Category = "pickup"
	CategoryTaxi       Category = "taxi"
	CategoryVan        Category = "van"
	CategoryTruck      Category = "truck"
	CategoryBus        Category = "bus"
)

// categoryInfo holds the static attributes of a category.
type categoryInfo struct {
	baseRate          float64
	passengerCapacity int
	carriesPassengers bool
}

var categories = map[Category]categoryInfo{
	CategoryMotorcycle: {15000, 2, true},
	CategoryCar:        {25000, 5, true},
	CategoryPickup:     {35000, 7, false},
	CategoryTaxi:       {20000, 4, true},
	CategoryVan:        {45000, 0, false},
	CategoryTruck:      {80000, 0, false},
	CategoryBus:        {60000, 40, true},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// BaseRate returns the category's base rate per kilometre.
func (c Category) BaseRate() float64 {
	return categories[c].baseRate
}

// CarriesPassengers reports whether the category transports people.
func (c Category) CarriesPassengers() bool {
	return categories[c].carriesPassengers
}

// IsCargo reports whether the category is a cargo category.
func (c Category) IsCargo() bool {
	info := categories[c]
	return !info.carriesPassengers || info.passengerCapacity == 0
}

// ComfortLevel grades a passenger vehicle's cabin.
type ComfortLevel string

const (
	ComfortBasic    ComfortLevel = "basic"
	ComfortStandard ComfortLevel = "standard"
	ComfortPremium  ComfortLevel = "premium"
	ComfortLuxury   ComfortLevel = "luxury"
)

// CargoSpec holds the attributes specific to cargo vehicles.
type CargoSpec struct {
	MaxPayloadTons float64 `json:"max_payload_tons"`
	Axles          int     `json:"axles"`
	Crane          bool    `json:"crane"`
	Refrigeration  bool    `json:"refrigeration"`
	CargoSecurity  bool    `json:"cargo_security"`
}

// PassengerSpec holds the attributes specific to passenger vehicles.
type PassengerSpec struct {
	Seats           int          `json:"seats"`
	Comfort         ComfortLevel `json:"comfort"`
	AirConditioning bool         `json:"air_conditioning"`
	Entertainment   bool         `json:"entertainment"`
	WiFi            bool         `json:"wifi"`
	Accessible      bool         `json:"accessible"`
	FuelType        string       `json:"fuel_type"`
}

// EcoFuel reports whether the vehicle runs on an ecological fuel.
func (p PassengerSpec) EcoFuel() bool {
	switch strings.ToLower(p.FuelType) {
	case "electric", "hybrid":
		return true
	}
	return false
}

// platePattern is the accepted registration plate format.
var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)

// Vehicle is a resource that can be committed to at most one active trip.
// Exactly one of Cargo or Passenger is set, matching the category.
// Available is true iff the vehicle is not currently held by a trip.
type Vehicle struct {
	ID              uuid.UUID      `json:"id"`
	Plate           string         `json:"plate"`
	Category        Category       `json:"category"`
	Year            int            `json:"year"`
	OdometerKm      float64        `json:"odometer_km"`
	Available       bool           `json:"available"`
	LastInspection  time.Time      `json:"last_inspection"`
	InsuranceExpiry time.Time      `json:"insurance_expiry"`
	Cargo           *CargoSpec     `json:"cargo,omitempty"`
	Passenger       *PassengerSpec `json:"passenger,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PlateValid reports whether the registration plate is well formed.
func (v Vehicle) PlateValid() bool {
	return platePattern.MatchString(v.Plate)
}

// Age returns the vehicle's age in years as of now.
func (v Vehicle) Age(now time.Time) int {
	return now.Year() - v.Year
}

// DocsValid reports whether the vehicle's paperwork permits operation:
// insurance not expired and last inspection within one year.
func (v Vehicle) DocsValid(now time.Time) bool {
	if v.InsuranceExpiry.Before(now) {
		return false
	}
	if v.LastInspection.Before(now.AddDate(-1, 0, 0)) {
		return false
	}
	return true
}

// BaseRate computes the per-kilometre rate this vehicle charges:
// category base rate scaled by a load factor (payload tons for cargo, seats
// for passenger vehicles) and the efficiency factor. Rounded to 2 decimals.
func (v Vehicle) BaseRate(now time.Time) float64 {
	rate := v.Category.BaseRate()

	var capacity float64
	switch {
	case v.Cargo != nil:
		capacity = v.Cargo.MaxPayloadTons
	case v.Passenger != nil:
		capacity = float64(v.Passenger.Seats)
	}
	loadFactor := 1.0 + (capacity/10.0)*0.1

	return math.Round(rate*loadFactor*v.EfficiencyFactor(now)*100) / 100
}

// EfficiencyFactor is built additively from equipment bonuses minus an age
// penalty. Cargo vehicles clamp to [0.8, 1.2], passenger vehicles to
// [0.8, 1.3]. Vehicles with no spec attached rate a neutral 1.0.
func (v Vehicle) EfficiencyFactor(now time.Time) float64 {
	switch {
	case v.Cargo != nil:
		return v.cargoEfficiency(now)
	case v.Passenger != nil:
		return v.passengerEfficiency(now)
	}
	return 1.0
}

func (v Vehicle) cargoEfficiency(now time.Time) float64 {
	spec := v.Cargo
	factor := 1.0

	if spec.Crane {
		factor += 0.10
	}
	if spec.Refrigeration {
		factor += 0.15
	}
	if spec.CargoSecurity {
		factor += 0.05
	}
	if spec.Axles > 2 {
		factor += float64(spec.Axles-2) * 0.05
	}

	switch age := v.Age(now); {
	case age > 10:
		factor -= 0.10
	case age > 5:
		factor -= 0.05
	}

	return clamp(factor, 0.8, 1.2)
}

func (v Vehicle) passengerEfficiency(now time.Time) float64 {
	spec := v.Passenger
	factor := 1.0

	switch spec.Comfort {
	case ComfortLuxury:
		factor += 0.25
	case ComfortPremium:
		factor += 0.15
	case ComfortStandard:
		factor += 0.05
	}

	if spec.AirConditioning {
		factor += 0.05
	}
	if spec.Entertainment {
		factor += 0.05
	}
	if spec.WiFi {
		factor += 0.03
	}
	if spec.Accessible {
		factor += 0.08
	}
	if spec.EcoFuel() {
		factor += 0.10
	}

	switch age := v.Age(now); {
	case age > 8:
		factor -= 0.15
	case age > 4:
		factor -= 0.08
	}

	return clamp(factor, 0.8, 1.3)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
