// internal/workers/discovery/parse-search-criteria/models.go
package parsesearchcriteria

import "wedding-vendor-workers/internal/models"

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	Criteria models.SearchCriteria `json:"criteria"`
	SortBy   models.SortKey        `json:"sortBy"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`
}
