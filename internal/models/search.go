// internal/models/search.go
package models

import "time"

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortDefault   SortKey = "default" // tier rank, then rating desc
	SortRating    SortKey = "rating"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortDistance  SortKey = "distance"
	SortNewest    SortKey = "newest"
)

// ValidSortKeys enumerates the accepted sort options.
var ValidSortKeys = map[SortKey]bool{
	SortDefault:   true,
	SortRating:    true,
	SortPriceLow:  true,
	SortPriceHigh: true,
	SortDistance:  true,
	SortNewest:    true,
}

// SearchCriteria narrows a vendor pool. All fields are optional except that a
// radius requires requester coordinates; that combination is validated up front.
type SearchCriteria struct {
	Query       string       `json:"query,omitempty"`
	Categories  []string     `json:"categories,omitempty"` // union semantics
	PriceMin    *int         `json:"priceMin,omitempty"`   // inclusive tier bounds
	PriceMax    *int         `json:"priceMax,omitempty"`
	MinRating   *float64     `json:"minRating,omitempty"` // inclusive
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	RadiusMiles *float64     `json:"radiusMiles,omitempty"`
	TargetDate  *time.Time   `json:"targetDate,omitempty"` // excludes confirmed-booking conflicts
}

// Pagination is the page metadata attached to search responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// NewPagination computes page metadata for a result set of size total.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}
