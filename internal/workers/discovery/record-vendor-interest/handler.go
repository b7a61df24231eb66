// internal/workers/discovery/record-vendor-interest/handler.go
package recordvendorinterest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	cmnerrors "wedding-vendor-workers/internal/common/errors"
	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/metrics"
	"wedding-vendor-workers/internal/storage"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "record-vendor-interest"

var (
	ErrMissingIdentifiers = errors.New("coupleId and vendorId are required")
)

type Handler struct {
	config          *Config
	recommendations *storage.RecommendationRepository
	logger          logger.Logger
	errs            *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, recommendations *storage.RecommendationRepository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:          config,
		recommendations: recommendations,
		logger:          log,
		errs:            cmnerrors.NewErrorHandler(log),
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
		stdErr := cmnerrors.NewInterestUpdateFailedError(err.Error())
		if errors.Is(err, ErrMissingIdentifiers) {
			stdErr.Retryable = false
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// execute updates only the interest flag and viewed timestamp; it never
// touches score fields and never triggers a fresh ranking pass.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CoupleID == "" || input.VendorID == "" {
		return nil, ErrMissingIdentifiers
	}

	now := time.Now().UTC()
	if err := h.recommendations.RecordInterest(ctx, input.CoupleID, input.VendorID, input.Interested, now); err != nil {
		return nil, err
	}

	h.logger.Info("interest recorded", map[string]interface{}{
		"coupleId":   input.CoupleID,
		"vendorId":   input.VendorID,
		"interested": input.Interested,
	})

	return &Output{Acknowledged: true, ViewedAt: now}, nil
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
