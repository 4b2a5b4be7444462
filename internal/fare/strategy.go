// Package fare implements the pluggable pricing policies that turn
// (distance, client, vehicle) into a monetary amount.
//
// Both strategies share the same base computation — vehicle base rate ×
// distance × distance factor — and differ in what they apply on top of it:
// the standard strategy adds a flat surcharge, the frequent strategy applies
// stacked client discounts. Each strategy enforces its own price floor and
// rounds the result to the nearest 100 currency units.
//
// Urgency and night surcharges are not a strategy concern; the trip service
// applies them after the strategy amount (see service.TripService.ComputeFare).
package fare

import (
	"math"
	"time"

	"github.com/fleetops/dispatch/internal/domain"
)

// Strategy names as stored on trips.
const (
	StandardName = "standard"
	FrequentName = "frequent"
)

// Strategy is a pricing policy. Calculate returns the fare amount; Explain
// renders a human-readable breakdown of the same computation for audit and
// billing output.
type Strategy interface {
	Name() string
	Calculate(now time.Time, distanceKm float64, client domain.Client, vehicle domain.Vehicle) float64
	Explain(now time.Time, distanceKm float64, client domain.Client, vehicle domain.Vehicle) string
}

// ForClient picks the strategy a client is entitled to: frequent pricing for
// any client with a non-standard tier or enough completed trips, standard
// pricing otherwise.
func ForClient(c domain.Client) Strategy {
	if c.IsFrequent() {
		return NewFrequent()
	}
	return NewStandard()
}

// ByName resolves a stored strategy name back to a Strategy. Unknown names
// fall back to the standard strategy.
func ByName(name string) Strategy {
	if name == FrequentName {
		return NewFrequent()
	}
	return NewStandard()
}

// DistanceFactor returns the step-discount multiplier for a trip distance.
// Longer trips earn a lower per-kilometre multiplier; boundaries are strict
// greater-than comparisons, so e.g. exactly 50 km takes no discount.
func DistanceFactor(distanceKm float64) float64 {
	switch {
	case distanceKm <= 0:
		return 1.0
	case distanceKm > 500:
		return 0.85
	case distanceKm > 200:
		return 0.92
	case distanceKm > 50:
		return 0.97
	default:
		return 1.0
	}
}

// Trip-level surcharge multipliers. Urgency is applied before the night
// surcharge, so the two compound.
const (
	UrgentMultiplier = 1.25
	NightMultiplier  = 1.20
)

// Finalize turns a strategy amount into the total fare for a trip: add the
// trip's additional cost, apply the urgency and night multipliers in that
// order, and round to the nearest 100 currency units.
func Finalize(amount, additionalCost float64, urgent, night bool) float64 {
	total := amount + additionalCost
	if urgent {
		total *= UrgentMultiplier
	}
	if night {
		total *= NightMultiplier
	}
	return roundToHundred(total)
}

// roundToHundred rounds an amount to the nearest 100 currency units.
func roundToHundred(amount float64) float64 {
	return math.Round(amount/100.0) * 100.0
}
