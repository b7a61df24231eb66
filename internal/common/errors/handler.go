// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the minimal logging surface the error handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler routes job failures to the workflow engine. Retryable errors
// fail the job with decremented retries so Zeebe re-activates it; everything
// else is thrown as a BPMN error for the process model to catch.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError reports a failed job back to Zeebe.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *StandardError) {
	bpmnErr := stdErr.ToBPMNError()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"jobType":      job.Type,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"details":      stdErr.Details,
		"retryable":    stdErr.Retryable,
		"workflowKey":  job.ProcessInstanceKey,
	})

	if stdErr.Retryable && job.Retries > 1 {
		h.failWithRetries(ctx, client, job, bpmnErr)
		return
	}
	h.throwBPMNError(ctx, client, job, bpmnErr)
}

func (h *ErrorHandler) failWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(job.Retries - 1).
		ErrorMessage(bpmnErr.Message)

	if vars := bpmnErr.ToErrorVariables(); len(vars) > 0 {
		if data, err := json.Marshal(vars); err == nil {
			if cmdWithVars, err := cmd.VariablesFromString(string(data)); err == nil {
				if _, err := cmdWithVars.Send(ctx); err != nil {
					h.logger.Error("failed to send fail job command", map[string]interface{}{
						"error": err,
					})
				}
				return
			}
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(ctx)
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
