// internal/storage/recommendations_test.go
package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var recommendationColumns = []string{
	"couple_id", "vendor_id", "score",
	"budget_score", "style_score", "location_score", "rating_score",
	"availability_score", "popularity_score",
	"confidence", "explanation", "highlights", "concerns",
	"expires_at", "interested", "viewed_at",
}

func TestReadUnexpired(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	now := time.Now().UTC()
	expires := now.Add(24 * time.Hour)
	viewed := now.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM vendor_recommendations")).
		WithArgs("couple-1", now).
		WillReturnRows(sqlmock.NewRows(recommendationColumns).
			AddRow("couple-1", "v1", 92,
				100, 80, 90, 96, 100, 60,
				"high", "Recommended mainly for its budget fit and guest ratings.",
				[]byte(`["Price tier matches your budget"]`), []byte(`null`),
				expires, true, viewed).
			AddRow("couple-1", "v2", 75,
				50, 50, 50, 50, 50, 40,
				"low", "Recommended mainly for its budget fit and style match.",
				[]byte(`null`), []byte(`["No reviews yet"]`),
				expires, nil, nil))

	entries, err := repo.ReadUnexpired(context.Background(), "couple-1", now)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "v1", first.VendorID)
	assert.Equal(t, 92, first.Score)
	assert.Equal(t, models.ConfidenceHigh, first.Confidence)
	assert.Equal(t, []string{"Price tier matches your budget"}, first.Highlights)
	require.NotNil(t, first.Interested)
	assert.True(t, *first.Interested)
	require.NotNil(t, first.ViewedAt)

	second := entries[1]
	assert.Nil(t, second.Interested)
	assert.Nil(t, second.ViewedAt)
	assert.Equal(t, []string{"No reviews yet"}, second.Concerns)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadUnexpired_NoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM vendor_recommendations")).
		WithArgs("couple-1", now).
		WillReturnRows(sqlmock.NewRows(recommendationColumns))

	entries, err := repo.ReadUnexpired(context.Background(), "couple-1", now)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpsertPreservingInterest(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	expires := time.Now().UTC().Add(30 * 24 * time.Hour)
	entries := []models.CacheEntry{
		{
			CoupleID: "couple-1", VendorID: "v1", Score: 92,
			SubScores:  models.SubScores{Budget: 100, Style: 80, Location: 90, Rating: 96, Availability: 100, Popularity: 60},
			Confidence: models.ConfidenceHigh,
			ExpiresAt:  expires,
		},
		{
			CoupleID: "couple-1", VendorID: "v2", Score: 48,
			SubScores:  models.SubScores{Budget: 50, Style: 50, Location: 50, Rating: 50, Availability: 50},
			Confidence: models.ConfidenceLow,
			ExpiresAt:  expires,
		},
	}

	mock.ExpectBegin()
	// The conflict clause replaces score fields only; interested and
	// viewed_at never appear in the update list.
	prep := mock.ExpectPrepare(regexp.QuoteMeta("ON CONFLICT (couple_id, vendor_id) DO UPDATE SET"))
	prep.ExpectExec().
		WithArgs("couple-1", "v1", 92, 100, 80, 90, 96, 100, 60,
			"high", "", []byte(`null`), []byte(`null`), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("couple-1", "v2", 48, 50, 50, 50, 50, 50, 0,
			"low", "", []byte(`null`), []byte(`null`), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpsertPreservingInterest(context.Background(), entries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPreservingInterest_EmptyBatchIsNoOp(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	require.NoError(t, repo.UpsertPreservingInterest(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPreservingInterest_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	entries := []models.CacheEntry{{CoupleID: "couple-1", VendorID: "v1"}}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("ON CONFLICT (couple_id, vendor_id) DO UPDATE SET"))
	prep.ExpectExec().WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.UpsertPreservingInterest(context.Background(), entries)
	assert.Error(t, err)
}

func TestRecordInterest(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	now := time.Now().UTC()
	// New rows are inserted already expired so an interest-only row can
	// never serve as a cached score.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vendor_recommendations (couple_id, vendor_id, interested, viewed_at, expires_at)")).
		WithArgs("couple-1", "v1", true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordInterest(context.Background(), "couple-1", "v1", true, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInterest_PropagatesError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecommendationRepository(db, logger.NewTestLogger(t))

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vendor_recommendations")).
		WithArgs("couple-1", "v1", false, now).
		WillReturnError(sql.ErrConnDone)

	err := repo.RecordInterest(context.Background(), "couple-1", "v1", false, now)
	assert.Error(t, err)
}
