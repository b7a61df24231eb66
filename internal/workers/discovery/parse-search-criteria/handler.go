// internal/workers/discovery/parse-search-criteria/handler.go
package parsesearchcriteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cmnerrors "wedding-vendor-workers/internal/common/errors"
	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/metrics"
	"wedding-vendor-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "parse-search-criteria"

var (
	ErrInvalidCriteria = errors.New("INVALID_SEARCH_CRITERIA")
)

var validCategories = map[string]bool{
	"venue": true, "photographer": true, "videographer": true, "caterer": true,
	"florist": true, "dj": true, "band": true, "planner": true,
	"baker": true, "decorator": true, "transportation": true, "beauty": true,
}

const (
	minPriceTier = 1
	maxPriceTier = 4
	maxLimit     = 100
)

type Handler struct {
	config *Config
	logger logger.Logger
	errs   *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: log,
		errs:   cmnerrors.NewErrorHandler(log),
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
		h.failJob(client, job, cmnerrors.NewInvalidSearchCriteriaError(err.Error()))
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.RawFilters == nil {
		input.RawFilters = make(map[string]interface{})
	}

	out := &Output{
		SortBy: models.SortDefault,
		Page:   1,
		Limit:  20,
	}

	if queryRaw, ok := input.RawFilters["query"]; ok {
		if s, ok := queryRaw.(string); ok {
			out.Criteria.Query = strings.TrimSpace(s)
		}
	}

	if categoriesRaw, ok := input.RawFilters["categories"]; ok {
		out.Criteria.Categories = parseStringArray(categoriesRaw)
		for _, cat := range out.Criteria.Categories {
			if !validCategories[strings.ToLower(cat)] {
				return nil, fmt.Errorf("%w: unknown category '%s'", ErrInvalidCriteria, cat)
			}
		}
	}

	if minRaw, ok := input.RawFilters["priceMin"]; ok {
		if v, err := parseInt(minRaw); err == nil {
			if v < minPriceTier || v > maxPriceTier {
				return nil, fmt.Errorf("%w: priceMin %d outside tier range %d-%d",
					ErrInvalidCriteria, v, minPriceTier, maxPriceTier)
			}
			out.Criteria.PriceMin = &v
		}
	}
	if maxRaw, ok := input.RawFilters["priceMax"]; ok {
		if v, err := parseInt(maxRaw); err == nil {
			if v < minPriceTier || v > maxPriceTier {
				return nil, fmt.Errorf("%w: priceMax %d outside tier range %d-%d",
					ErrInvalidCriteria, v, minPriceTier, maxPriceTier)
			}
			out.Criteria.PriceMax = &v
		}
	}
	if out.Criteria.PriceMin != nil && out.Criteria.PriceMax != nil &&
		*out.Criteria.PriceMin > *out.Criteria.PriceMax {
		return nil, fmt.Errorf("%w: priceMin (%d) > priceMax (%d)",
			ErrInvalidCriteria, *out.Criteria.PriceMin, *out.Criteria.PriceMax)
	}

	if ratingRaw, ok := input.RawFilters["minRating"]; ok {
		if v, err := parseFloat(ratingRaw); err == nil {
			if v < 0 || v > 5 {
				return nil, fmt.Errorf("%w: minRating %v outside 0-5", ErrInvalidCriteria, v)
			}
			out.Criteria.MinRating = &v
		}
	}

	if locRaw, ok := input.RawFilters["location"]; ok {
		if locMap, ok := locRaw.(map[string]interface{}); ok {
			lat, latErr := parseFloat(locMap["latitude"])
			lng, lngErr := parseFloat(locMap["longitude"])
			if latErr != nil || lngErr != nil {
				return nil, fmt.Errorf("%w: location requires numeric latitude and longitude", ErrInvalidCriteria)
			}
			if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
				return nil, fmt.Errorf("%w: location out of range", ErrInvalidCriteria)
			}
			out.Criteria.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lng}
		}
	}

	if radiusRaw, ok := input.RawFilters["radius"]; ok {
		v, err := parseFloat(radiusRaw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: radius must be a positive number", ErrInvalidCriteria)
		}
		// A radius without coordinates is a configuration error, rejected
		// before any computation rather than silently ignored.
		if out.Criteria.Coordinates == nil {
			return nil, fmt.Errorf("%w: radius requires a location", ErrInvalidCriteria)
		}
		out.Criteria.RadiusMiles = &v
	}

	if dateRaw, ok := input.RawFilters["date"]; ok {
		if s, ok := dateRaw.(string); ok && s != "" {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got '%s'", ErrInvalidCriteria, s)
			}
			out.Criteria.TargetDate = &d
		}
	}

	if sortRaw, ok := input.RawFilters["sortBy"]; ok {
		if s, ok := sortRaw.(string); ok && s != "" {
			key := models.SortKey(strings.TrimSpace(s))
			if !models.ValidSortKeys[key] {
				return nil, fmt.Errorf("%w: invalid sortBy '%s'", ErrInvalidCriteria, s)
			}
			out.SortBy = key
		}
	}

	if pageRaw, ok := input.RawFilters["page"]; ok {
		if v, err := parseInt(pageRaw); err == nil && v >= 1 {
			out.Page = v
		}
	}
	if limitRaw, ok := input.RawFilters["limit"]; ok {
		if v, err := parseInt(limitRaw); err == nil && v >= 1 {
			if v > maxLimit {
				v = maxLimit
			}
			out.Limit = v
		}
	}

	return out, nil
}

func parseStringArray(raw interface{}) []string {
	var out []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func parseInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		i, err := v.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("not an integer: %v", raw)
}

func parseFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return 0, fmt.Errorf("not a number: %v", raw)
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
