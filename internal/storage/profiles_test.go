// internal/storage/profiles_test.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

var profileColumns = []string{
	"couple_id", "target_price_tier", "style_tags", "preferred_categories",
	"wedding_date", "latitude", "longitude", "updated_at",
}

func TestGetPreferenceProfile_CacheHitSkipsDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rdb := setupMiniredis(t)

	profile := models.PreferenceProfile{
		CoupleID:        "couple-1",
		TargetPriceTier: 2,
		StyleTags:       []string{"rustic"},
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, mr.Set("couple:preferences:couple-1", string(data)))

	repo := NewProfileRepository(db, rdb, 10*time.Minute, logger.NewTestLogger(t))
	got, err := repo.GetPreferenceProfile(context.Background(), "couple-1")
	require.NoError(t, err)
	assert.Equal(t, profile.CoupleID, got.CoupleID)
	assert.Equal(t, profile.StyleTags, got.StyleTags)

	// No query expectations were set; any database access would fail here.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPreferenceProfile_MissReadsThroughAndCaches(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, rdb := setupMiniredis(t)

	updated := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM couple_preferences")).
		WithArgs("couple-1").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("couple-1", 3, []byte(`["boho","garden"]`), []byte(`["venue","florist"]`),
				time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), 40.7128, -74.0060, updated))

	repo := NewProfileRepository(db, rdb, 10*time.Minute, logger.NewTestLogger(t))
	got, err := repo.GetPreferenceProfile(context.Background(), "couple-1")
	require.NoError(t, err)

	assert.Equal(t, 3, got.TargetPriceTier)
	assert.Equal(t, []string{"boho", "garden"}, got.StyleTags)
	assert.Equal(t, []string{"venue", "florist"}, got.PreferredCategories)
	require.NotNil(t, got.WeddingDate)
	require.NotNil(t, got.Coordinates)
	assert.Equal(t, 40.7128, got.Coordinates.Latitude)

	// The fetched profile is now cached for subsequent calls.
	assert.True(t, mr.Exists("couple:preferences:couple-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPreferenceProfile_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM couple_preferences")).
		WithArgs("couple-404").
		WillReturnError(sql.ErrNoRows)

	// A nil redis client degrades to plain database reads.
	repo := NewProfileRepository(db, nil, 0, logger.NewTestLogger(t))
	got, err := repo.GetPreferenceProfile(context.Background(), "couple-404")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetPreferenceProfile_NullOptionalColumns(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM couple_preferences")).
		WithArgs("couple-2").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("couple-2", 1, []byte(`[]`), []byte(`[]`), nil, nil, nil, time.Now().UTC()))

	repo := NewProfileRepository(db, nil, 0, logger.NewTestLogger(t))
	got, err := repo.GetPreferenceProfile(context.Background(), "couple-2")
	require.NoError(t, err)
	assert.Nil(t, got.WeddingDate)
	assert.Nil(t, got.Coordinates)
}

func TestInvalidateProfile(t *testing.T) {
	db, _ := setupMockDB(t)
	mr, rdb := setupMiniredis(t)
	require.NoError(t, mr.Set("couple:preferences:couple-1", "{}"))

	repo := NewProfileRepository(db, rdb, 10*time.Minute, logger.NewTestLogger(t))
	repo.InvalidateProfile(context.Background(), "couple-1")

	assert.False(t, mr.Exists("couple:preferences:couple-1"))
}
