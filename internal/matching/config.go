// internal/matching/config.go
package matching

import (
	"fmt"
	"math"
	"time"
)

// Weights are the sub-score coefficients. They must sum to 1.0.
type Weights struct {
	Budget       float64 `mapstructure:"budget"`
	Style        float64 `mapstructure:"style"`
	Location     float64 `mapstructure:"location"`
	Rating       float64 `mapstructure:"rating"`
	Availability float64 `mapstructure:"availability"`
	Popularity   float64 `mapstructure:"popularity"`
}

// Sum returns the total of all coefficients.
func (w Weights) Sum() float64 {
	return w.Budget + w.Style + w.Location + w.Rating + w.Availability + w.Popularity
}

// ScoringConfig is the immutable tuning surface of the ranking stage. It is
// constructed once (from application config or test fixtures) and passed into
// NewRanker; nothing in the engine reads process-wide state.
type ScoringConfig struct {
	Weights Weights `mapstructure:"weights"`

	// NeutralMidpoint is the sub-score used when a data field needed for
	// scoring is absent.
	NeutralMidpoint int `mapstructure:"neutral_midpoint"`

	// TierPenalty is subtracted from the budget sub-score per tier of
	// difference between candidate and target price tier.
	TierPenalty int `mapstructure:"tier_penalty"`

	// MaxUsefulRadius is the distance at which the location sub-score
	// decays to zero, in DistanceUnit units.
	MaxUsefulRadius float64 `mapstructure:"max_useful_radius"`

	// PopularitySaturation is the interaction count at which the popularity
	// sub-score saturates near 100.
	PopularitySaturation int `mapstructure:"popularity_saturation"`

	DistanceUnit DistanceUnit  `mapstructure:"distance_unit"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`

	// PoolSize bounds the concurrent scoring workers. Zero means one worker
	// per logical CPU, capped by the pool implementation.
	PoolSize int `mapstructure:"pool_size"`
}

// DefaultScoringConfig returns the tuning the platform ships with.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			Budget:       0.25,
			Style:        0.20,
			Location:     0.20,
			Rating:       0.20,
			Availability: 0.10,
			Popularity:   0.05,
		},
		NeutralMidpoint:      50,
		TierPenalty:          25,
		MaxUsefulRadius:      50,
		PopularitySaturation: 200,
		DistanceUnit:         Miles,
		CacheTTL:             30 * 24 * time.Hour,
	}
}

// Validate rejects configurations that would produce out-of-range scores.
func (c ScoringConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", c.Weights.Sum())
	}
	if c.NeutralMidpoint < 0 || c.NeutralMidpoint > 100 {
		return fmt.Errorf("neutral midpoint must be in [0,100], got %d", c.NeutralMidpoint)
	}
	if c.TierPenalty < 0 {
		return fmt.Errorf("tier penalty must be non-negative, got %d", c.TierPenalty)
	}
	if c.MaxUsefulRadius <= 0 {
		return fmt.Errorf("max useful radius must be positive, got %v", c.MaxUsefulRadius)
	}
	if c.PopularitySaturation <= 0 {
		return fmt.Errorf("popularity saturation must be positive, got %d", c.PopularitySaturation)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.CacheTTL)
	}
	return nil
}
