// internal/workers/discovery/recommend-vendors/models.go
package recommendvendors

import "wedding-vendor-workers/internal/models"

type Input struct {
	CoupleID     string   `json:"coupleId"`
	Categories   []string `json:"categories,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	ForceRefresh bool     `json:"forceRefresh,omitempty"`

	// Profile and Pool, when present, bypass the database fetches.
	Profile *models.PreferenceProfile `json:"profile,omitempty"`
	Pool    []models.VendorCandidate  `json:"pool,omitempty"`
}

// RecommendedVendor pairs a match result with the vendor record for display.
type RecommendedVendor struct {
	Match  models.MatchResult      `json:"match"`
	Vendor *models.VendorCandidate `json:"vendor,omitempty"`
}

type Output struct {
	Results  []RecommendedVendor `json:"results"`
	CacheHit bool                `json:"cacheHit"`
	Skipped  int                 `json:"skipped,omitempty"`
	Message  string              `json:"message,omitempty"`
}
