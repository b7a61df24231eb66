// internal/workers/discovery/record-vendor-interest/handler_test.go
package recordvendorinterest

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := storage.NewRecommendationRepository(db, logger.NewTestLogger(t))
	h := NewHandler(&Config{Timeout: 5 * time.Second}, repo, logger.NewTestLogger(t))
	return h, mock
}

func TestExecute_RecordsInterest(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vendor_recommendations (couple_id, vendor_id, interested, viewed_at, expires_at)")).
		WithArgs("couple-1", "v1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1", VendorID: "v1", Interested: true,
	})
	require.NoError(t, err)

	assert.True(t, out.Acknowledged)
	assert.False(t, out.ViewedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RecordsDisinterest(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vendor_recommendations")).
		WithArgs("couple-1", "v1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1", VendorID: "v1", Interested: false,
	})
	require.NoError(t, err)
	assert.True(t, out.Acknowledged)
}

func TestExecute_RequiresBothIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"missing coupleId", Input{VendorID: "v1"}},
		{"missing vendorId", Input{CoupleID: "couple-1"}},
		{"missing both", Input{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			out, err := h.Execute(context.Background(), &tt.input)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrMissingIdentifiers)
		})
	}
}

func TestExecute_PropagatesStorageError(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vendor_recommendations")).
		WillReturnError(sql.ErrConnDone)

	out, err := h.Execute(context.Background(), &Input{
		CoupleID: "couple-1", VendorID: "v1", Interested: true,
	})
	assert.Nil(t, out)
	assert.Error(t, err)
}
