package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier classifies a client for discount purposes. Tiers are ordered: a client
// is only ever promoted, never demoted.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierFrequent  Tier = "frequent"
	TierCorporate Tier = "corporate"
	TierVIP       Tier = "vip"
)

// Promotion thresholds on the completed-trip counter.
const (
	tripsForFrequent  = 5
	tripsForCorporate = 20
	tripsForVIP       = 50
)

// tierRank orders tiers for the never-demote rule.
var tierRank = map[Tier]int{
	TierStandard:  0,
	TierFrequent:  1,
	TierCorporate: 2,
	TierVIP:       3,
}

// Discount returns the tier's discount fraction (0.0–1.0).
func (t Tier) Discount() float64 {
	switch t {
	case TierFrequent:
		return 0.15
	case TierCorporate:
		return 0.20
	case TierVIP:
		return 0.25
	default:
		return 0.0
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// TierFor returns the tier a client with the given completed-trip count
// qualifies for.
func TierFor(completedTrips int) Tier {
	switch {
	case completedTrips >= tripsForVIP:
		return TierVIP
	case completedTrips >= tripsForCorporate:
		return TierCorporate
	case completedTrips >= tripsForFrequent:
		return TierFrequent
	default:
		return TierStandard
	}
}

// Client is the tier-holding party that requests trips.
type Client struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Tier           Tier      `json:"tier"`
	CompletedTrips int       `json:"completed_trips"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PromotedTier returns the tier the client should hold after its trip counter
// changed. Promotion only — a tier already above the earned one is kept.
func (c Client) PromotedTier() Tier {
	earned := TierFor(c.CompletedTrips)
	if tierRank[earned] > tierRank[c.Tier] {
		return earned
	}
	return c.Tier
}

// IsFrequent reports whether the client qualifies for the frequent-client fare
// strategy: any non-standard tier, or enough completed trips to be promoted.
func (c Client) IsFrequent() bool {
	return c.Tier != TierStandard || c.CompletedTrips >= tripsForFrequent
}
