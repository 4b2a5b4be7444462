package fare

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fleetops/dispatch/internal/domain"
)

// Standard is the regular pricing policy: base computation plus an optional
// flat surcharge, floored at a minimum fare.
type Standard struct {
	// Surcharge is an optional flat percentage (0.0–1.0) added on top of the
	// base computation.
	Surcharge float64
	// MinFare is the floor the strategy will not price below.
	MinFare float64
}

// NewStandard returns the standard strategy with default parameters:
// no surcharge, 15,000 minimum fare.
func NewStandard() *Standard {
	return &Standard{Surcharge: 0, MinFare: 15000}
}

// Name implements Strategy.
func (s *Standard) Name() string { return StandardName }

// Calculate implements Strategy:
//
//	amount = vehicle base rate × distance × distance factor
//
// plus the configured surcharge, floored at MinFare, rounded to the nearest
// 100 currency units. A non-positive distance prices at the floor.
func (s *Standard) Calculate(now time.Time, distanceKm float64, _ domain.Client, vehicle domain.Vehicle) float64 {
	if distanceKm <= 0 {
		return s.MinFare
	}

	amount := vehicle.BaseRate(now) * distanceKm * DistanceFactor(distanceKm)
	if s.Surcharge > 0 {
		amount += amount * s.Surcharge
	}
	amount = math.Max(amount, s.MinFare)

	return roundToHundred(amount)
}

// Explain implements Strategy: a line-per-step breakdown of Calculate.
func (s *Standard) Explain(now time.Time, distanceKm float64, _ domain.Client, vehicle domain.Vehicle) string {
	var b strings.Builder
	b.WriteString("STANDARD FARE\n")

	rate := vehicle.BaseRate(now)
	factor := DistanceFactor(distanceKm)
	subtotal := rate * distanceKm * factor

	fmt.Fprintf(&b, "vehicle base rate: $%.2f/km\n", rate)
	fmt.Fprintf(&b, "distance: %.1f km\n", distanceKm)
	fmt.Fprintf(&b, "distance factor: %.3f\n", factor)
	fmt.Fprintf(&b, "subtotal: $%.0f\n", subtotal)

	if s.Surcharge > 0 {
		fmt.Fprintf(&b, "surcharge (%.1f%%): $%.0f\n", s.Surcharge*100, subtotal*s.Surcharge)
		subtotal += subtotal * s.Surcharge
	}
	if subtotal < s.MinFare {
		fmt.Fprintf(&b, "minimum fare applied: $%.0f\n", s.MinFare)
		subtotal = s.MinFare
	}

	fmt.Fprintf(&b, "TOTAL: $%.0f", roundToHundred(subtotal))
	return b.String()
}
