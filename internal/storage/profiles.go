// internal/storage/profiles.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrProfileNotFound is returned when a couple has not set preferences yet.
var ErrProfileNotFound = errors.New("preference profile not found")

// ProfileRepository reads preference profiles with a Redis read-through cache
// in front of Postgres. Profiles change rarely, so a short TTL is enough to
// keep repeated recommendation calls off the database.
type ProfileRepository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewProfileRepository(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, redis: rdb, cacheTTL: cacheTTL, logger: log}
}

func profileCacheKey(coupleID string) string {
	return "couple:preferences:" + coupleID
}

// GetPreferenceProfile returns the couple's profile or ErrProfileNotFound.
func (r *ProfileRepository) GetPreferenceProfile(ctx context.Context, coupleID string) (*models.PreferenceProfile, error) {
	cacheKey := profileCacheKey(coupleID)
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var profile models.PreferenceProfile
			if err := json.Unmarshal([]byte(val), &profile); err == nil {
				return &profile, nil
			}
		}
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT couple_id, target_price_tier, style_tags, preferred_categories,
		       wedding_date, latitude, longitude, updated_at
		FROM couple_preferences WHERE couple_id = $1`, coupleID)

	var (
		profile     models.PreferenceProfile
		styleTags   []byte
		categories  []byte
		weddingDate sql.NullTime
		lat, lng    sql.NullFloat64
	)
	err := row.Scan(&profile.CoupleID, &profile.TargetPriceTier, &styleTags, &categories,
		&weddingDate, &lat, &lng, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch preference profile: %w", err)
	}

	if err := json.Unmarshal(styleTags, &profile.StyleTags); err != nil {
		profile.StyleTags = []string{}
	}
	if err := json.Unmarshal(categories, &profile.PreferredCategories); err != nil {
		profile.PreferredCategories = []string{}
	}
	if weddingDate.Valid {
		d := weddingDate.Time
		profile.WeddingDate = &d
	}
	if lat.Valid && lng.Valid {
		profile.Coordinates = &models.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
	}

	if r.redis != nil {
		if data, err := json.Marshal(profile); err == nil {
			r.redis.Set(ctx, cacheKey, data, r.cacheTTL)
		}
	}

	return &profile, nil
}

// InvalidateProfile drops the cached copy after a couple updates preferences.
func (r *ProfileRepository) InvalidateProfile(ctx context.Context, coupleID string) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, profileCacheKey(coupleID)).Err(); err != nil {
		r.logger.Warn("profile cache invalidation failed", map[string]interface{}{
			"coupleId": coupleID,
			"error":    err,
		})
	}
}
