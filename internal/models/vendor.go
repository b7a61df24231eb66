// internal/models/vendor.go
package models

import "time"

// VendorTier is the paid listing tier; it drives the default search ordering.
type VendorTier string

const (
	TierElite    VendorTier = "elite"
	TierFeatured VendorTier = "featured"
	TierPremium  VendorTier = "premium"
	TierFree     VendorTier = "free"
)

// TierRank maps listing tiers to their sort precedence (higher sorts first).
func TierRank(t VendorTier) int {
	switch t {
	case TierElite:
		return 4
	case TierFeatured:
		return 3
	case TierPremium:
		return 2
	default:
		return 1
	}
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VendorCandidate is an immutable vendor snapshot eligible for one scoring pass.
// Optional fields are pointers; scoring applies a documented neutral fallback
// when they are nil rather than treating the zero value as data.
type VendorCandidate struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Category         string       `json:"category"`
	PriceTier        int          `json:"priceTier"` // ordinal, 1 (budget) .. 4 (luxury)
	Tier             VendorTier   `json:"tier"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	AvgRating        *float64     `json:"avgRating,omitempty"` // 0-5
	ReviewCount      int          `json:"reviewCount"`
	InteractionCount int          `json:"interactionCount"`
	Badges           []string     `json:"badges,omitempty"`
	AvailableOnDate  *bool        `json:"availableOnDate,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`

	// Distance is populated by the filter stage when a radius search ran,
	// rounded to one decimal place. Nil when no requester location was given
	// or the vendor has no coordinates.
	Distance *float64 `json:"distance,omitempty"`
}

// HasMandatoryFields reports whether the candidate can be scored at all.
// Candidates failing this are skipped and counted, never a batch failure.
func (v *VendorCandidate) HasMandatoryFields() bool {
	return v.ID != "" && v.Category != ""
}
