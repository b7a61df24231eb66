// internal/storage/recommendations.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"
)

// RecommendationRepository persists scored recommendations keyed by
// (couple_id, vendor_id). The TTL and conflict-key policy live here and
// nowhere else: every write is an upsert that replaces score fields while
// preserving the couple's recorded interest.
type RecommendationRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecommendationRepository(db *sql.DB, log logger.Logger) *RecommendationRepository {
	return &RecommendationRepository{db: db, logger: log}
}

// ReadUnexpired returns all cache entries for the couple whose expiry is
// still in the future, best score first.
func (r *RecommendationRepository) ReadUnexpired(ctx context.Context, coupleID string, now time.Time) ([]models.CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT couple_id, vendor_id, score,
		       budget_score, style_score, location_score, rating_score,
		       availability_score, popularity_score,
		       confidence, explanation, highlights, concerns,
		       expires_at, interested, viewed_at
		FROM vendor_recommendations
		WHERE couple_id = $1 AND expires_at > $2
		ORDER BY score DESC`, coupleID, now)
	if err != nil {
		return nil, fmt.Errorf("read recommendations: %w", err)
	}
	defer rows.Close()

	var out []models.CacheEntry
	for rows.Next() {
		var (
			e          models.CacheEntry
			highlights []byte
			concerns   []byte
			interested sql.NullBool
			viewedAt   sql.NullTime
		)
		err := rows.Scan(&e.CoupleID, &e.VendorID, &e.Score,
			&e.SubScores.Budget, &e.SubScores.Style, &e.SubScores.Location, &e.SubScores.Rating,
			&e.SubScores.Availability, &e.SubScores.Popularity,
			&e.Confidence, &e.Explanation, &highlights, &concerns,
			&e.ExpiresAt, &interested, &viewedAt)
		if err != nil {
			return nil, err
		}

		if len(highlights) > 0 {
			if err := json.Unmarshal(highlights, &e.Highlights); err != nil {
				e.Highlights = nil
			}
		}
		if len(concerns) > 0 {
			if err := json.Unmarshal(concerns, &e.Concerns); err != nil {
				e.Concerns = nil
			}
		}
		if interested.Valid {
			v := interested.Bool
			e.Interested = &v
		}
		if viewedAt.Valid {
			t := viewedAt.Time
			e.ViewedAt = &t
		}

		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertPreservingInterest writes one row per entry. On conflict the score
// fields and expiry are replaced; interested and viewed_at are left alone so
// recomputation never erases couple feedback.
func (r *RecommendationRepository) UpsertPreservingInterest(ctx context.Context, entries []models.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vendor_recommendations (
			couple_id, vendor_id, score,
			budget_score, style_score, location_score, rating_score,
			availability_score, popularity_score,
			confidence, explanation, highlights, concerns, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (couple_id, vendor_id) DO UPDATE SET
			score = EXCLUDED.score,
			budget_score = EXCLUDED.budget_score,
			style_score = EXCLUDED.style_score,
			location_score = EXCLUDED.location_score,
			rating_score = EXCLUDED.rating_score,
			availability_score = EXCLUDED.availability_score,
			popularity_score = EXCLUDED.popularity_score,
			confidence = EXCLUDED.confidence,
			explanation = EXCLUDED.explanation,
			highlights = EXCLUDED.highlights,
			concerns = EXCLUDED.concerns,
			expires_at = EXCLUDED.expires_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		highlights, _ := json.Marshal(e.Highlights)
		concerns, _ := json.Marshal(e.Concerns)
		_, err := stmt.ExecContext(ctx,
			e.CoupleID, e.VendorID, e.Score,
			e.SubScores.Budget, e.SubScores.Style, e.SubScores.Location, e.SubScores.Rating,
			e.SubScores.Availability, e.SubScores.Popularity,
			string(e.Confidence), e.Explanation, highlights, concerns, e.ExpiresAt)
		if err != nil {
			return fmt.Errorf("upsert recommendation %s/%s: %w", e.CoupleID, e.VendorID, err)
		}
	}

	return tx.Commit()
}

// RecordInterest updates only the interested flag and viewed_at timestamp.
// A row is created if none exists yet; it is inserted already expired so an
// interest-only row can never serve as a cached score.
func (r *RecommendationRepository) RecordInterest(ctx context.Context, coupleID, vendorID string, interested bool, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vendor_recommendations (couple_id, vendor_id, interested, viewed_at, expires_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (couple_id, vendor_id) DO UPDATE SET
			interested = EXCLUDED.interested,
			viewed_at = EXCLUDED.viewed_at`,
		coupleID, vendorID, interested, now)
	if err != nil {
		return fmt.Errorf("record interest %s/%s: %w", coupleID, vendorID, err)
	}
	return nil
}
