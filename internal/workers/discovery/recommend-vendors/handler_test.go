// internal/workers/discovery/recommend-vendors/handler_test.go
package recommendvendors

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/matching"
	"wedding-vendor-workers/internal/models"
	"wedding-vendor-workers/internal/recommend"
	"wedding-vendor-workers/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubCache struct {
	entries []models.CacheEntry
	readErr error
	written []models.CacheEntry
}

func (s *stubCache) ReadUnexpired(context.Context, string, time.Time) ([]models.CacheEntry, error) {
	return s.entries, s.readErr
}

func (s *stubCache) UpsertPreservingInterest(_ context.Context, entries []models.CacheEntry) error {
	s.written = entries
	return nil
}

func newTestHandler(t *testing.T, cache *stubCache, profiles *storage.ProfileRepository,
	vendors *storage.VendorRepository) *Handler {

	cfg := matching.DefaultScoringConfig()
	cfg.PoolSize = 2
	ranker, err := matching.NewRanker(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(ranker.Release)

	svc := recommend.NewService(ranker, cache, logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: 15 * time.Second, DefaultLimit: 10},
		profiles, vendors, svc, logger.NewTestLogger(t))
}

func inlineProfile() *models.PreferenceProfile {
	return &models.PreferenceProfile{
		CoupleID:        "couple-1",
		TargetPriceTier: 2,
		StyleTags:       []string{"rustic"},
	}
}

func inlinePool() []models.VendorCandidate {
	rating := 4.8
	return []models.VendorCandidate{
		{ID: "v1", Name: "Rustic Barn", Category: "venue", PriceTier: 2,
			AvgRating: &rating, ReviewCount: 120, Badges: []string{"rustic"}},
		{ID: "v2", Name: "City Lights", Category: "photographer", PriceTier: 4},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_RequiresCoupleID(t *testing.T) {
	h := newTestHandler(t, &stubCache{}, nil, nil)

	out, err := h.Execute(context.Background(), &Input{})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrMissingCoupleID)
}

func TestExecute_ComputesFreshRecommendations(t *testing.T) {
	cache := &stubCache{}
	h := newTestHandler(t, cache, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1",
		Profile:  inlineProfile(),
		Pool:     inlinePool(),
	})
	require.NoError(t, err)

	assert.False(t, out.CacheHit)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "v1", out.Results[0].Match.VendorID)
	require.NotNil(t, out.Results[0].Vendor)
	assert.Equal(t, "Rustic Barn", out.Results[0].Vendor.Name)
	assert.Len(t, cache.written, 2)
}

func TestExecute_ServesCachedResults(t *testing.T) {
	cache := &stubCache{
		entries: []models.CacheEntry{
			{CoupleID: "couple-1", VendorID: "v1", Score: 90,
				Confidence: models.ConfidenceHigh, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	h := newTestHandler(t, cache, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1",
		Profile:  inlineProfile(),
		Pool:     inlinePool(),
	})
	require.NoError(t, err)

	assert.True(t, out.CacheHit)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "v1", out.Results[0].Match.VendorID)
	assert.Nil(t, cache.written)
}

func TestExecute_ForceRefreshBypassesCache(t *testing.T) {
	cache := &stubCache{
		entries: []models.CacheEntry{
			{CoupleID: "couple-1", VendorID: "stale", Score: 99,
				Confidence: models.ConfidenceHigh, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	h := newTestHandler(t, cache, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		CoupleID:     "couple-1",
		ForceRefresh: true,
		Profile:      inlineProfile(),
		Pool:         inlinePool(),
	})
	require.NoError(t, err)

	assert.False(t, out.CacheHit)
	require.Len(t, out.Results, 2)
	assert.NotEqual(t, "stale", out.Results[0].Match.VendorID)
}

func TestExecute_LimitDefaultsFromConfig(t *testing.T) {
	cache := &stubCache{}
	h := newTestHandler(t, cache, nil, nil)
	h.config.DefaultLimit = 1

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1",
		Profile:  inlineProfile(),
		Pool:     inlinePool(),
	})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
}

// ==========================
// Missing Profile Tests
// ==========================

func TestExecute_NoProfileReturnsMessageNotError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM couple_preferences")).
		WithArgs("couple-new").
		WillReturnError(sql.ErrNoRows)

	profiles := storage.NewProfileRepository(db, nil, 0, logger.NewTestLogger(t))
	h := newTestHandler(t, &stubCache{}, profiles, nil)

	out, err := h.Execute(context.Background(), &Input{CoupleID: "couple-new"})
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	assert.Equal(t, "Set your wedding preferences to get vendor recommendations.", out.Message)
	assert.False(t, out.CacheHit)
}

// ==========================
// Annotation Tests
// ==========================

func TestAnnotate_FetchesVendorsMissingFromPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM vendors WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "category", "price_tier", "tier",
			"latitude", "longitude", "avg_rating", "review_count", "interaction_count",
			"badges", "created_at",
		}).AddRow("v9", "Archived Vendor", "", "venue", 2, "free",
			nil, nil, nil, 0, 0, nil, time.Now().UTC()))

	vendors := storage.NewVendorRepository(db, logger.NewTestLogger(t))
	h := newTestHandler(t, &stubCache{}, nil, vendors)

	results := []models.MatchResult{{VendorID: "v9", Score: 80}}
	annotated, err := h.annotate(context.Background(), results, inlinePool())
	require.NoError(t, err)

	require.Len(t, annotated, 1)
	require.NotNil(t, annotated[0].Vendor)
	assert.Equal(t, "Archived Vendor", annotated[0].Vendor.Name)
}
