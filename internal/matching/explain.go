// internal/matching/explain.go
package matching

import (
	"fmt"
	"sort"
	"strings"

	"wedding-vendor-workers/internal/models"
)

const (
	maxHighlights = 3
	maxConcerns   = 2
)

var contributorLabels = map[string]string{
	"budget":       "budget fit",
	"style":        "style match",
	"location":     "location",
	"rating":       "guest ratings",
	"availability": "date availability",
	"popularity":   "popularity with couples",
}

// contributorOrder fixes tie-breaking so explanations are deterministic.
var contributorOrder = []string{"budget", "style", "location", "rating", "availability", "popularity"}

// explain builds the human-readable reason, highlights and concerns for one
// scored candidate. Output is deterministic for identical inputs.
func (r *Ranker) explain(c models.VendorCandidate, p models.PreferenceProfile, sub models.SubScores) (string, []string, []string) {
	w := r.cfg.Weights
	contributions := map[string]float64{
		"budget":       float64(sub.Budget) * w.Budget,
		"style":        float64(sub.Style) * w.Style,
		"location":     float64(sub.Location) * w.Location,
		"rating":       float64(sub.Rating) * w.Rating,
		"availability": float64(sub.Availability) * w.Availability,
		"popularity":   float64(sub.Popularity) * w.Popularity,
	}

	names := make([]string, len(contributorOrder))
	copy(names, contributorOrder)
	sort.SliceStable(names, func(i, j int) bool {
		return contributions[names[i]] > contributions[names[j]]
	})

	explanation := fmt.Sprintf("Recommended mainly for its %s and %s.",
		contributorLabels[names[0]], contributorLabels[names[1]])

	return explanation, r.highlights(c, p, sub), r.concerns(c, p, sub)
}

func (r *Ranker) highlights(c models.VendorCandidate, p models.PreferenceProfile, sub models.SubScores) []string {
	var out []string
	add := func(s string) {
		if len(out) < maxHighlights {
			out = append(out, s)
		}
	}

	if sub.Budget == 100 {
		add("Price tier matches your budget")
	}
	if matched := matchedStyleTags(c, p); len(matched) > 0 && sub.Style >= r.cfg.NeutralMidpoint {
		add("Styles you love: " + strings.Join(matched, ", "))
	}
	if c.AvgRating != nil && c.ReviewCount > 0 && sub.Rating >= 90 {
		add(fmt.Sprintf("Rated %.1f by %d couples", *c.AvgRating, c.ReviewCount))
	}
	if c.Distance != nil && *c.Distance <= 10 {
		add(fmt.Sprintf("Only %.1f %s away", *c.Distance, r.cfg.DistanceUnit))
	}
	if sub.Availability == 100 {
		add("Available on your wedding date")
	}
	if sub.Popularity >= 70 {
		add("Popular with couples on the platform")
	}

	return out
}

func (r *Ranker) concerns(c models.VendorCandidate, p models.PreferenceProfile, sub models.SubScores) []string {
	var out []string
	add := func(s string) {
		if len(out) < maxConcerns {
			out = append(out, s)
		}
	}

	if c.ReviewCount == 0 {
		add("No reviews yet")
	}
	if c.PriceTier >= 1 && p.TargetPriceTier >= 1 && c.PriceTier != p.TargetPriceTier {
		add("Outside your preferred budget tier")
	}
	if sub.Availability == 0 {
		add("Already booked on your wedding date")
	}
	if c.Distance != nil && sub.Location < 40 {
		add("Farther away than most couples prefer")
	}

	return out
}
