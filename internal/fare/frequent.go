package fare

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fleetops/dispatch/internal/domain"
)

// Frequent is the loyalty pricing policy: the standard base computation with
// stacked client discounts, floored at a lower minimum fare.
type Frequent struct {
	// VolumeDiscount is the extra discount granted once a client's completed
	// trips reach VolumeThreshold.
	VolumeDiscount float64
	// VolumeThreshold is the completed-trip count that unlocks VolumeDiscount.
	VolumeThreshold int
	// MinFare is the floor the strategy will not price below.
	MinFare float64
}

// Extra discount for VIP clients past 50 trips, and the overall discount cap.
const (
	vipExtraDiscount = 0.05
	vipExtraTrips    = 50
	maxTotalDiscount = 0.60
)

// NewFrequent returns the frequent-client strategy with default parameters:
// 5% volume discount from 20 trips, 12,000 minimum fare.
func NewFrequent() *Frequent {
	return &Frequent{VolumeDiscount: 0.05, VolumeThreshold: 20, MinFare: 12000}
}

// Name implements Strategy.
func (f *Frequent) Name() string { return FrequentName }

// totalDiscount stacks the tier discount, the volume discount, and the VIP
// bonus, capped at 60%.
func (f *Frequent) totalDiscount(client domain.Client) float64 {
	discount := client.Tier.Discount()
	if client.CompletedTrips >= f.VolumeThreshold {
		discount += f.VolumeDiscount
	}
	if client.Tier == domain.TierVIP && client.CompletedTrips > vipExtraTrips {
		discount += vipExtraDiscount
	}
	return math.Min(discount, maxTotalDiscount)
}

// Calculate implements Strategy: the standard base computation multiplied by
// (1 − total discount), floored at MinFare, rounded to the nearest 100
// currency units. A non-positive distance prices at the floor.
func (f *Frequent) Calculate(now time.Time, distanceKm float64, client domain.Client, vehicle domain.Vehicle) float64 {
	if distanceKm <= 0 {
		return f.MinFare
	}

	amount := vehicle.BaseRate(now) * distanceKm * DistanceFactor(distanceKm)
	if d := f.totalDiscount(client); d > 0 {
		amount *= 1.0 - d
	}
	amount = math.Max(amount, f.MinFare)

	return roundToHundred(amount)
}

// Explain implements Strategy: a line-per-step breakdown of Calculate,
// itemizing each discount that applied.
func (f *Frequent) Explain(now time.Time, distanceKm float64, client domain.Client, vehicle domain.Vehicle) string {
	var b strings.Builder
	b.WriteString("FREQUENT-CLIENT FARE\n")

	rate := vehicle.BaseRate(now)
	factor := DistanceFactor(distanceKm)
	subtotal := rate * distanceKm * factor

	fmt.Fprintf(&b, "vehicle base rate: $%.2f/km\n", rate)
	fmt.Fprintf(&b, "distance: %.1f km\n", distanceKm)
	fmt.Fprintf(&b, "distance factor: %.3f\n", factor)
	fmt.Fprintf(&b, "subtotal: $%.0f\n", subtotal)

	if d := f.totalDiscount(client); d > 0 {
		if td := client.Tier.Discount(); td > 0 {
			fmt.Fprintf(&b, "tier discount (%s): %.1f%%\n", client.Tier, td*100)
		}
		if client.CompletedTrips >= f.VolumeThreshold {
			fmt.Fprintf(&b, "volume discount (%d trips): %.1f%%\n", client.CompletedTrips, f.VolumeDiscount*100)
		}
		if client.Tier == domain.TierVIP && client.CompletedTrips > vipExtraTrips {
			fmt.Fprintf(&b, "vip bonus: %.1f%%\n", vipExtraDiscount*100)
		}
		fmt.Fprintf(&b, "total discount: %.1f%% = $%.0f\n", d*100, subtotal*d)
		subtotal *= 1.0 - d
	}
	if subtotal < f.MinFare {
		fmt.Fprintf(&b, "minimum fare applied: $%.0f\n", f.MinFare)
		subtotal = f.MinFare
	}

	fmt.Fprintf(&b, "TOTAL: $%.0f", roundToHundred(subtotal))
	return b.String()
}
