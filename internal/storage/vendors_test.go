// internal/storage/vendors_test.go
package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"wedding-vendor-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendorColumnNames = []string{
	"id", "name", "description", "category", "price_tier", "tier",
	"latitude", "longitude", "avg_rating", "review_count", "interaction_count",
	"badges", "created_at",
}

func TestFetchPool_AllActiveVendors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	created := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM vendors WHERE active = true")).
		WillReturnRows(sqlmock.NewRows(vendorColumnNames).
			AddRow("v1", "Rustic Barn", "barn venue", "venue", 2, "featured",
				40.7128, -74.0060, 4.8, 120, 300, []byte(`["rustic","outdoor"]`), created).
			AddRow("v2", "City Lights", "urban photos", "photographer", 3, "free",
				nil, nil, nil, 0, 5, nil, created))

	pool, err := repo.FetchPool(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, pool, 2)

	first := pool[0]
	assert.Equal(t, "v1", first.ID)
	require.NotNil(t, first.Coordinates)
	require.NotNil(t, first.AvgRating)
	assert.Equal(t, 4.8, *first.AvgRating)
	assert.Equal(t, []string{"rustic", "outdoor"}, first.Badges)

	second := pool[1]
	assert.Nil(t, second.Coordinates)
	assert.Nil(t, second.AvgRating)
	assert.Nil(t, second.Badges)
}

func TestFetchPool_CategoryRestriction(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("AND category = ANY($1)")).
		WithArgs(pq.Array([]string{"venue", "florist"})).
		WillReturnRows(sqlmock.NewRows(vendorColumnNames))

	pool, err := repo.FetchPool(context.Background(), []string{"venue", "florist"})
	require.NoError(t, err)
	assert.Empty(t, pool)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchByIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM vendors WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{"v1"})).
		WillReturnRows(sqlmock.NewRows(vendorColumnNames).
			AddRow("v1", "Rustic Barn", "barn venue", "venue", 2, "featured",
				nil, nil, nil, 0, 0, nil, time.Now().UTC()))

	vendors, err := repo.FetchByIDs(context.Background(), []string{"v1"})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "v1", vendors[0].ID)
}

func TestFetchByIDs_EmptyInput(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	vendors, err := repo.FetchByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vendors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictingVendorIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'confirmed' AND event_date = $1")).
		WithArgs("2026-09-12", pq.Array([]string{"v1", "v2", "v3"})).
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}).AddRow("v2"))

	conflicts, err := repo.ConflictingVendorIDs(context.Background(), []string{"v1", "v2", "v3"}, date)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"v2": true}, conflicts)
}

func TestConflictingVendorIDs_EmptyInput(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVendorRepository(db, logger.NewTestLogger(t))

	conflicts, err := repo.ConflictingVendorIDs(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
