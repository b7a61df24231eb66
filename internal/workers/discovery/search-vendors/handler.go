// internal/workers/discovery/search-vendors/handler.go
package searchvendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	cmnerrors "wedding-vendor-workers/internal/common/errors"
	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/metrics"
	"wedding-vendor-workers/internal/matching"
	"wedding-vendor-workers/internal/models"
	"wedding-vendor-workers/internal/storage"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "search-vendors"

var (
	ErrSearchFailed = errors.New("SEARCH_FAILED")
)

type Handler struct {
	config  *Config
	vendors *storage.VendorRepository
	logger  logger.Logger
	errs    *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, vendors *storage.VendorRepository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		vendors: vendors,
		logger:  log,
		errs:    cmnerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"requestId":   uuid.NewString(),
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, cmnerrors.NewParseError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, matching.ErrRadiusWithoutCoordinates) {
			h.failJob(client, job, cmnerrors.NewInvalidSearchCriteriaError(err.Error()))
			return
		}
		h.failJob(client, job, cmnerrors.NewSearchFailedError(err.Error()))
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	pool := input.Pool
	if pool == nil {
		fetched, err := h.vendors.FetchPool(ctx, input.Criteria.Categories)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
		}
		pool = fetched

		if input.Criteria.TargetDate != nil {
			if err := h.markAvailability(ctx, pool, *input.Criteria.TargetDate); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
			}
		}
	}

	filtered, err := matching.Filter(pool, input.Criteria, h.config.DistanceUnit)
	if err != nil {
		return nil, err
	}

	sortVendors(filtered.Candidates, input.SortBy)

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 20
	}

	total := len(filtered.Candidates)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	h.logger.Info("search completed", map[string]interface{}{
		"poolSize":   len(pool),
		"matched":    total,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Output{
		Vendors:    filtered.Candidates[offset:end],
		Relevance:  filtered.Relevance,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

func (h *Handler) markAvailability(ctx context.Context, pool []models.VendorCandidate, date time.Time) error {
	ids := make([]string, len(pool))
	for i, v := range pool {
		ids[i] = v.ID
	}

	conflicts, err := h.vendors.ConflictingVendorIDs(ctx, ids, date)
	if err != nil {
		return err
	}

	for i := range pool {
		available := !conflicts[pool[i].ID]
		pool[i].AvailableOnDate = &available
	}
	return nil
}

// sortVendors applies the requested ordering. The default order is a business
// rule: paid listing tier first (elite > featured > premium > free), then
// rating descending. Vendor ID is the stable final tiebreak everywhere.
func sortVendors(vendors []models.VendorCandidate, key models.SortKey) {
	less := func(a, b *models.VendorCandidate) bool {
		switch key {
		case models.SortRating:
			ra, rb := ratingOf(a), ratingOf(b)
			if ra != rb {
				return ra > rb
			}
		case models.SortPriceLow:
			if a.PriceTier != b.PriceTier {
				return a.PriceTier < b.PriceTier
			}
		case models.SortPriceHigh:
			if a.PriceTier != b.PriceTier {
				return a.PriceTier > b.PriceTier
			}
		case models.SortDistance:
			switch {
			case a.Distance != nil && b.Distance != nil && *a.Distance != *b.Distance:
				return *a.Distance < *b.Distance
			case a.Distance != nil && b.Distance == nil:
				return true
			case a.Distance == nil && b.Distance != nil:
				return false
			}
		case models.SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			ta, tb := models.TierRank(a.Tier), models.TierRank(b.Tier)
			if ta != tb {
				return ta > tb
			}
			ra, rb := ratingOf(a), ratingOf(b)
			if ra != rb {
				return ra > rb
			}
		}
		return a.ID < b.ID
	}

	sort.SliceStable(vendors, func(i, j int) bool {
		return less(&vendors[i], &vendors[j])
	})
}

func ratingOf(v *models.VendorCandidate) float64 {
	if v.AvgRating == nil {
		return -1
	}
	return *v.AvgRating
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cmnerrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errs.HandleJobError(context.Background(), client, job, stdErr)
}

// Execute exposes the core logic for tests and direct callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
