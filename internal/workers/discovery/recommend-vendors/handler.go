// internal/workers/discovery/recommend-vendors/handler.go
package recommendvendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cmnerrors "wedding-vendor-workers/internal/common/errors"
	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/metrics"
	"wedding-vendor-workers/internal/models"
	"wedding-vendor-workers/internal/recommend"
	"wedding-vendor-workers/internal/storage"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "recommend-vendors"

var (
	ErrRecommendationFailed = errors.New("RECOMMENDATION_FAILED")
	ErrMissingCoupleID      = errors.New("coupleId is required")
)

const noProfileMessage = "Set your wedding preferences to get vendor recommendations."

type Handler struct {
	config   *Config
	profiles *storage.ProfileRepository
	vendors  *storage.VendorRepository
	service  *recommend.Service
	logger   logger.Logger
	errs     *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, profiles *storage.ProfileRepository, vendors *storage.VendorRepository,
	service *recommend.Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: profiles,
		vendors:  vendors,
		service:  service,
		logger:   log,
		errs:     cmnerrors.NewErrorHandler(log),
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
		stdErr := cmnerrors.NewRecommendationFailedError(err.Error())
		if errors.Is(err, ErrMissingCoupleID) {
			stdErr.Retryable = false
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CoupleID == "" {
		return nil, ErrMissingCoupleID
	}

	profile := input.Profile
	if profile == nil {
		fetched, err := h.profiles.GetPreferenceProfile(ctx, input.CoupleID)
		if errors.Is(err, storage.ErrProfileNotFound) {
			// Recommendations cannot run without preferences; this is a
			// message to the couple, not a workflow failure.
			return &Output{Results: []RecommendedVendor{}, Message: noProfileMessage}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
		}
		profile = fetched
	}

	pool := input.Pool
	if pool == nil {
		categories := input.Categories
		if len(categories) == 0 {
			categories = profile.PreferredCategories
		}

		fetched, err := h.vendors.FetchPool(ctx, categories)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
		}
		pool = fetched

		if profile.WeddingDate != nil {
			if err := h.markAvailability(ctx, pool, *profile.WeddingDate); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
			}
		}
	}

	limit := input.Limit
	if limit < 1 {
		limit = h.config.DefaultLimit
	}

	outcome, err := h.service.GetOrCompute(ctx, input.CoupleID, pool, *profile,
		time.Now().UTC(), input.ForceRefresh, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
	}

	results, err := h.annotate(ctx, outcome.Results, pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
	}

	return &Output{
		Results:  results,
		CacheHit: outcome.CacheHit,
		Skipped:  outcome.Skipped,
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

// annotate attaches full vendor records to match results. Cached results may
// reference vendors outside the current pool; those are fetched by id.
func (h *Handler) annotate(ctx context.Context, results []models.MatchResult, pool []models.VendorCandidate) ([]RecommendedVendor, error) {
	byID := make(map[string]*models.VendorCandidate, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
	}

	var missing []string
	for _, res := range results {
		if _, ok := byID[res.VendorID]; !ok {
			missing = append(missing, res.VendorID)
		}
	}
	if len(missing) > 0 && h.vendors != nil {
		fetched, err := h.vendors.FetchByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i := range fetched {
			byID[fetched[i].ID] = &fetched[i]
		}
	}

	out := make([]RecommendedVendor, len(results))
	for i, res := range results {
		out[i] = RecommendedVendor{Match: res, Vendor: byID[res.VendorID]}
	}
	return out, nil
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
