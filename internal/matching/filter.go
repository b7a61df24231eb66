// internal/matching/filter.go
package matching

import (
	"errors"
	"strings"

	"wedding-vendor-workers/internal/models"
)

var (
	ErrRadiusWithoutCoordinates = errors.New("radius filter requires requester coordinates")
)

// FilterResult is the output of the filter stage: the surviving candidates,
// with Distance populated when a radius search ran, plus the free-text
// relevance weight per vendor when a query was given. Ordering is unspecified;
// callers sort as they need.
type FilterResult struct {
	Candidates []models.VendorCandidate
	Relevance  map[string]float64
}

// Filter narrows a vendor pool by the given criteria. It is a pure
// predicate/transform: no side effects, and empty criteria return the pool
// unchanged. A radius without requester coordinates fails fast rather than
// being silently ignored.
func Filter(pool []models.VendorCandidate, criteria models.SearchCriteria, unit DistanceUnit) (*FilterResult, error) {
	if criteria.RadiusMiles != nil && criteria.Coordinates == nil {
		return nil, ErrRadiusWithoutCoordinates
	}

	result := &FilterResult{Candidates: make([]models.VendorCandidate, 0, len(pool))}

	query := strings.TrimSpace(criteria.Query)
	if query != "" {
		result.Relevance = make(map[string]float64)
	}

	categories := make(map[string]bool, len(criteria.Categories))
	for _, c := range criteria.Categories {
		categories[strings.ToLower(c)] = true
	}

	for _, candidate := range pool {
		if query != "" {
			weight := textRelevance(query, candidate.Name+" "+candidate.Description)
			if weight <= 0 {
				continue
			}
			result.Relevance[candidate.ID] = weight
		}

		if len(categories) > 0 && !categories[strings.ToLower(candidate.Category)] {
			continue
		}
		if criteria.PriceMin != nil && candidate.PriceTier < *criteria.PriceMin {
			continue
		}
		if criteria.PriceMax != nil && candidate.PriceTier > *criteria.PriceMax {
			continue
		}
		if criteria.MinRating != nil {
			if candidate.AvgRating == nil || *candidate.AvgRating < *criteria.MinRating {
				continue
			}
		}

		if criteria.RadiusMiles != nil {
			if candidate.Coordinates == nil {
				continue
			}
			d := RoundDistance(Haversine(*criteria.Coordinates, *candidate.Coordinates, unit))
			if d > *criteria.RadiusMiles {
				continue
			}
			candidate.Distance = &d
		} else if criteria.Coordinates != nil && candidate.Coordinates != nil {
			// No radius constraint, but a requester location still lets us
			// attach a distance for display and distance sorting.
			d := RoundDistance(Haversine(*criteria.Coordinates, *candidate.Coordinates, unit))
			candidate.Distance = &d
		}

		// A confirmed booking on the exact target date excludes the vendor.
		if criteria.TargetDate != nil && candidate.AvailableOnDate != nil && !*candidate.AvailableOnDate {
			continue
		}

		result.Candidates = append(result.Candidates, candidate)
	}

	return result, nil
}

// textRelevance scores searchable text against a free-text query: any matched
// word counts, an exact phrase hit dominates, and adjacent word pairs add a
// proximity bonus. Zero means no match at all.
func textRelevance(query, text string) float64 {
	text = strings.ToLower(text)
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}

	var weight float64
	for _, w := range words {
		if strings.Contains(text, w) {
			weight += 1.0
		}
	}
	if weight == 0 {
		return 0
	}

	if len(words) > 1 && strings.Contains(text, strings.Join(words, " ")) {
		weight += float64(len(words))
	} else {
		for i := 0; i+1 < len(words); i++ {
			if strings.Contains(text, words[i]+" "+words[i+1]) {
				weight += 0.5
			}
		}
	}

	return weight
}
