// internal/storage/vendors.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/models"

	"github.com/lib/pq"
)

const vendorColumns = `
	id, name, description, category, price_tier, tier,
	latitude, longitude, avg_rating, review_count, interaction_count,
	badges, created_at`

// VendorRepository fetches vendor candidate snapshots and booking conflicts.
// The engine itself never touches the database; it scores whatever pool this
// repository hands it.
type VendorRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewVendorRepository(db *sql.DB, log logger.Logger) *VendorRepository {
	return &VendorRepository{db: db, logger: log}
}

// FetchPool returns active vendors, optionally restricted to the given
// categories (union semantics).
func (r *VendorRepository) FetchPool(ctx context.Context, categories []string) ([]models.VendorCandidate, error) {
	query := `SELECT` + vendorColumns + ` FROM vendors WHERE active = true`
	args := []interface{}{}
	if len(categories) > 0 {
		query += ` AND category = ANY($1)`
		args = append(args, pq.Array(categories))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch vendor pool: %w", err)
	}
	defer rows.Close()

	return r.scanCandidates(rows)
}

// FetchByIDs returns the vendors with the given identifiers, used to annotate
// cached recommendations with full vendor records.
func (r *VendorRepository) FetchByIDs(ctx context.Context, ids []string) ([]models.VendorCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT`+vendorColumns+` FROM vendors WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch vendors by id: %w", err)
	}
	defer rows.Close()

	return r.scanCandidates(rows)
}

// ConflictingVendorIDs reports which of the given vendors hold a confirmed
// booking exactly on the target date.
func (r *VendorRepository) ConflictingVendorIDs(ctx context.Context, vendorIDs []string, date time.Time) (map[string]bool, error) {
	if len(vendorIDs) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT vendor_id FROM bookings
		WHERE status = 'confirmed' AND event_date = $1 AND vendor_id = ANY($2)`,
		date.Format("2006-01-02"), pq.Array(vendorIDs))
	if err != nil {
		return nil, fmt.Errorf("conflict lookup: %w", err)
	}
	defer rows.Close()

	conflicts := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		conflicts[id] = true
	}
	return conflicts, rows.Err()
}

func (r *VendorRepository) scanCandidates(rows *sql.Rows) ([]models.VendorCandidate, error) {
	var out []models.VendorCandidate
	for rows.Next() {
		var (
			v        models.VendorCandidate
			lat, lng sql.NullFloat64
			rating   sql.NullFloat64
			badges   []byte
		)
		err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Category, &v.PriceTier, &v.Tier,
			&lat, &lng, &rating, &v.ReviewCount, &v.InteractionCount, &badges, &v.CreatedAt)
		if err != nil {
			return nil, err
		}

		if lat.Valid && lng.Valid {
			v.Coordinates = &models.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		if rating.Valid {
			v.AvgRating = &rating.Float64
		}
		if len(badges) > 0 {
			if err := json.Unmarshal(badges, &v.Badges); err != nil {
				v.Badges = nil
			}
		}

		out = append(out, v)
	}
	return out, rows.Err()
}
