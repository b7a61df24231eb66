// internal/models/preferences.go
package models

import "time"

// PreferenceProfile holds one couple's stored wedding preferences. Profiles are
// created when a couple first sets preferences and superseded, never deleted.
type PreferenceProfile struct {
	CoupleID            string       `json:"coupleId"`
	TargetPriceTier     int          `json:"targetPriceTier"` // same ordinal domain as VendorCandidate.PriceTier
	StyleTags           []string     `json:"styleTags"`       // ordered by stated preference
	PreferredCategories []string     `json:"preferredCategories"`
	WeddingDate         *time.Time   `json:"weddingDate,omitempty"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}
