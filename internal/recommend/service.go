// internal/recommend/service.go
package recommend

import (
	"context"
	"sort"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/metrics"
	"wedding-vendor-workers/internal/matching"
	"wedding-vendor-workers/internal/models"
)

// CacheStore is the persistence contract for scored recommendations.
// Implemented by storage.RecommendationRepository.
type CacheStore interface {
	ReadUnexpired(ctx context.Context, coupleID string, now time.Time) ([]models.CacheEntry, error)
	UpsertPreservingInterest(ctx context.Context, entries []models.CacheEntry) error
}

// Service decides between serving cached recommendations and computing fresh
// ones. Cache failures are never fatal: a failed read is a miss, a failed
// write is logged and the freshly computed results are returned anyway.
type Service struct {
	ranker *matching.Ranker
	cache  CacheStore
	logger logger.Logger
}

// Outcome is one answered recommendation request.
type Outcome struct {
	Results  []models.MatchResult `json:"results"`
	CacheHit bool                 `json:"cacheHit"`
	Skipped  int                  `json:"skipped"`
}

func NewService(ranker *matching.Ranker, cache CacheStore, log logger.Logger) *Service {
	return &Service{ranker: ranker, cache: cache, logger: log}
}

// GetOrCompute serves unexpired cached entries unless forceRefresh is set,
// otherwise ranks the pool and persists one entry per (couple, vendor) with
// interest flags preserved.
func (s *Service) GetOrCompute(ctx context.Context, coupleID string, pool []models.VendorCandidate,
	profile models.PreferenceProfile, now time.Time, forceRefresh bool, limit int) (*Outcome, error) {

	if !forceRefresh {
		entries, err := s.cache.ReadUnexpired(ctx, coupleID, now)
		if err != nil {
			metrics.RecommendationCacheReads.WithLabelValues("error").Inc()
			s.logger.Warn("recommendation cache read failed, recomputing", map[string]interface{}{
				"coupleId": coupleID,
				"error":    err,
			})
		} else if len(entries) > 0 {
			metrics.RecommendationCacheReads.WithLabelValues("hit").Inc()
			return &Outcome{Results: cachedResults(entries, limit), CacheHit: true}, nil
		} else {
			metrics.RecommendationCacheReads.WithLabelValues("miss").Inc()
		}
	}

	outcome := s.ranker.Rank(pool, profile, now, limit)
	if outcome.Skipped > 0 {
		metrics.CandidatesSkipped.Add(float64(outcome.Skipped))
	}

	entries := make([]models.CacheEntry, len(outcome.Results))
	for i, res := range outcome.Results {
		entries[i] = models.CacheEntry{
			CoupleID:    coupleID,
			VendorID:    res.VendorID,
			Score:       res.Score,
			SubScores:   res.SubScores,
			Confidence:  res.Confidence,
			Explanation: res.Explanation,
			Highlights:  res.Highlights,
			Concerns:    res.Concerns,
			ExpiresAt:   res.ExpiresAt,
		}
	}
	if err := s.cache.UpsertPreservingInterest(ctx, entries); err != nil {
		s.logger.Warn("recommendation cache write failed", map[string]interface{}{
			"coupleId": coupleID,
			"entries":  len(entries),
			"error":    err,
		})
	}

	return &Outcome{Results: outcome.Results, Skipped: outcome.Skipped}, nil
}

// cachedResults re-sorts cached entries (score desc, confidence desc, vendor
// id as the stable final tiebreak) and truncates to the requested limit.
func cachedResults(entries []models.CacheEntry, limit int) []models.MatchResult {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		ci, cj := models.ConfidenceRank(entries[i].Confidence), models.ConfidenceRank(entries[j].Confidence)
		if ci != cj {
			return ci > cj
		}
		return entries[i].VendorID < entries[j].VendorID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	results := make([]models.MatchResult, len(entries))
	for i, e := range entries {
		results[i] = e.Result()
	}
	return results
}
