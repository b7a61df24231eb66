// internal/matching/score.go
package matching

import (
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"

	"github.com/panjf2000/ants/v2"
)

// Ranker scores vendor candidates against a preference profile. Scoring is a
// pure function of (candidate, profile, evaluation time); the Ranker itself
// only carries immutable configuration and the worker pool used to evaluate
// large pools concurrently.
type Ranker struct {
	cfg    ScoringConfig
	pool   *ants.Pool
	logger logger.Logger
}

// RankOutcome is the result of ranking one candidate pool. Skipped counts
// candidates missing mandatory fields; they never abort the batch.
type RankOutcome struct {
	Results []models.MatchResult `json:"results"`
	Skipped int                  `json:"skipped"`
}

func NewRanker(cfg ScoringConfig, log logger.Logger) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	size := cfg.PoolSize
	if size < 1 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Ranker{cfg: cfg, pool: pool, logger: log}, nil
}

// Release frees the scoring worker pool.
func (r *Ranker) Release() {
	r.pool.Release()
}

// Score evaluates a single candidate. Repeated calls with the same inputs and
// evaluation time return identical results.
func (r *Ranker) Score(candidate models.VendorCandidate, profile models.PreferenceProfile, now time.Time) models.MatchResult {
	budget, budgetFB := r.budgetScore(candidate, profile)
	style, styleFB := r.styleScore(candidate, profile)
	location, locationFB := r.locationScore(candidate, profile)
	rating, ratingFB := r.ratingScore(candidate)
	availability, availabilityFB := r.availabilityScore(candidate, profile)
	popularity := r.popularityScore(candidate)

	sub := models.SubScores{
		Budget:       budget,
		Style:        style,
		Location:     location,
		Rating:       rating,
		Availability: availability,
		Popularity:   popularity,
	}

	w := r.cfg.Weights
	composite := float64(budget)*w.Budget +
		float64(style)*w.Style +
		float64(location)*w.Location +
		float64(rating)*w.Rating +
		float64(availability)*w.Availability +
		float64(popularity)*w.Popularity

	score := int(math.Round(composite))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	fallbacks := 0
	for _, fb := range []bool{budgetFB, styleFB, locationFB, ratingFB, availabilityFB} {
		if fb {
			fallbacks++
		}
	}

	explanation, highlights, concerns := r.explain(candidate, profile, sub)

	return models.MatchResult{
		VendorID:    candidate.ID,
		Score:       score,
		SubScores:   sub,
		Confidence:  confidenceFromFallbacks(fallbacks),
		Explanation: explanation,
		Highlights:  highlights,
		Concerns:    concerns,
		ExpiresAt:   now.Add(r.cfg.CacheTTL),
	}
}

// Rank scores every candidate concurrently, then sorts and truncates. The only
// synchronization point is the join before the final sort.
func (r *Ranker) Rank(pool []models.VendorCandidate, profile models.PreferenceProfile, now time.Time, limit int) RankOutcome {
	start := time.Now()

	type item struct {
		result   models.MatchResult
		distance *float64
		ok       bool
	}

	items := make([]item, len(pool))
	var wg sync.WaitGroup

	skipped := 0
	for i := range pool {
		candidate := pool[i]
		if !candidate.HasMandatoryFields() {
			skipped++
			continue
		}

		idx := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			items[idx] = item{
				result:   r.Score(candidate, profile, now),
				distance: r.distanceTo(candidate, profile),
				ok:       true,
			}
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool exhausted or released; score inline rather than drop.
			task()
		}
	}
	wg.Wait()

	scored := make([]item, 0, len(items))
	for _, it := range items {
		if it.ok {
			scored = append(scored, it)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		ca, cb := models.ConfidenceRank(a.result.Confidence), models.ConfidenceRank(b.result.Confidence)
		if ca != cb {
			return ca > cb
		}
		if a.result.SubScores.Rating != b.result.SubScores.Rating {
			return a.result.SubScores.Rating > b.result.SubScores.Rating
		}
		switch {
		case a.distance != nil && b.distance != nil && *a.distance != *b.distance:
			return *a.distance < *b.distance
		case a.distance != nil && b.distance == nil:
			return true
		case a.distance == nil && b.distance != nil:
			return false
		}
		return a.result.VendorID < b.result.VendorID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]models.MatchResult, len(scored))
	for i, it := range scored {
		results[i] = it.result
	}

	r.logger.Info("ranking completed", map[string]interface{}{
		"inputCount":  len(pool),
		"outputCount": len(results),
		"skipped":     skipped,
		"durationMs":  time.Since(start).Milliseconds(),
	})

	return RankOutcome{Results: results, Skipped: skipped}
}

func confidenceFromFallbacks(fallbacks int) models.ConfidenceLevel {
	switch {
	case fallbacks <= 1:
		return models.ConfidenceHigh
	case fallbacks <= 3:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// budgetScore compares price tiers: exact match is 100, each tier of
// difference subtracts the configured penalty, floored at zero.
func (r *Ranker) budgetScore(c models.VendorCandidate, p models.PreferenceProfile) (int, bool) {
	if c.PriceTier < 1 || p.TargetPriceTier < 1 {
		return r.cfg.NeutralMidpoint, true
	}
	diff := c.PriceTier - p.TargetPriceTier
	if diff < 0 {
		diff = -diff
	}
	score := 100 - diff*r.cfg.TierPenalty
	if score < 0 {
		score = 0
	}
	return score, false
}

// styleScore is the fraction of the couple's style tags the vendor declares.
// Vendors with no declared tags get the neutral midpoint so under-profiled
// listings are not unfairly punished.
func (r *Ranker) styleScore(c models.VendorCandidate, p models.PreferenceProfile) (int, bool) {
	if len(p.StyleTags) == 0 || len(c.Badges) == 0 {
		return r.cfg.NeutralMidpoint, true
	}
	matched := matchedStyleTags(c, p)
	return int(math.Round(100 * float64(len(matched)) / float64(len(p.StyleTags)))), false
}

// locationScore decays linearly from 100 at zero distance to 0 at the
// configured maximum useful radius.
func (r *Ranker) locationScore(c models.VendorCandidate, p models.PreferenceProfile) (int, bool) {
	d := r.distanceTo(c, p)
	if d == nil {
		return r.cfg.NeutralMidpoint, true
	}
	score := int(math.Round(100 * (1 - *d/r.cfg.MaxUsefulRadius)))
	if score < 0 {
		score = 0
	}
	return score, false
}

func (r *Ranker) distanceTo(c models.VendorCandidate, p models.PreferenceProfile) *float64 {
	if c.Distance != nil {
		return c.Distance
	}
	if c.Coordinates == nil || p.Coordinates == nil {
		return nil
	}
	d := RoundDistance(Haversine(*p.Coordinates, *c.Coordinates, r.cfg.DistanceUnit))
	return &d
}

// ratingScore scales the 0-5 rating domain to 0-100. Zero reviews means no
// data, not a bad vendor, so the neutral midpoint applies.
func (r *Ranker) ratingScore(c models.VendorCandidate) (int, bool) {
	if c.AvgRating == nil || c.ReviewCount == 0 {
		return r.cfg.NeutralMidpoint, true
	}
	score := int(math.Round(*c.AvgRating * 20))
	if score > 100 {
		score = 100
	} else if score < 0 {
		score = 0
	}
	return score, false
}

func (r *Ranker) availabilityScore(c models.VendorCandidate, p models.PreferenceProfile) (int, bool) {
	if p.WeddingDate == nil || c.AvailableOnDate == nil {
		return r.cfg.NeutralMidpoint, true
	}
	if *c.AvailableOnDate {
		return 100, false
	}
	return 0, false
}

// popularityScore is a saturating log transform of the interaction count so a
// handful of early adopters cannot dominate a larger comparison set. A zero
// count is real data and is never treated as a fallback.
func (r *Ranker) popularityScore(c models.VendorCandidate) int {
	n := c.InteractionCount
	if n < 0 {
		n = 0
	}
	score := int(math.Round(100 * math.Log1p(float64(n)) / math.Log1p(float64(r.cfg.PopularitySaturation))))
	if score > 100 {
		score = 100
	}
	return score
}

func matchedStyleTags(c models.VendorCandidate, p models.PreferenceProfile) []string {
	badges := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		badges[strings.ToLower(b)] = true
	}
	var matched []string
	for _, tag := range p.StyleTags {
		if badges[strings.ToLower(tag)] {
			matched = append(matched, tag)
		}
	}
	return matched
}
