// internal/workers/discovery/search-vendors/models.go
package searchvendors

import "wedding-vendor-workers/internal/models"

type Input struct {
	Criteria models.SearchCriteria `json:"criteria"`
	SortBy   models.SortKey        `json:"sortBy"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`

	// Pool, when present, is scored as-is instead of fetching from the
	// database. Inline pools are expected to carry their own availability.
	Pool []models.VendorCandidate `json:"pool,omitempty"`
}

type Output struct {
	Vendors    []models.VendorCandidate `json:"vendors"`
	Relevance  map[string]float64       `json:"relevance,omitempty"`
	Pagination models.Pagination        `json:"pagination"`
}
