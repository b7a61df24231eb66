// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeParseError            ErrorCode = "PARSE_ERROR"
	ErrCodeInvalidSearchCriteria ErrorCode = "INVALID_SEARCH_CRITERIA"
	ErrCodeProfileNotFound       ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeSearchFailed          ErrorCode = "SEARCH_FAILED"
	ErrCodeRecommendationFailed  ErrorCode = "RECOMMENDATION_FAILED"
	ErrCodeInterestUpdateFailed  ErrorCode = "INTEREST_UPDATE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewParseError creates a non-retryable error for job variables that cannot
// be unmarshaled. Retrying will never fix malformed input.
func NewParseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse job variables",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSearchCriteriaError creates a non-retryable input validation error.
// Raised before any computation, e.g. a radius filter without coordinates.
func NewInvalidSearchCriteriaError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSearchCriteria,
		Message:   "Search criteria failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable error for couples that have
// not set preferences yet. Recommendations cannot run without a profile.
func NewProfileNotFoundError(coupleID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "No preference profile exists for this couple",
		Details:   coupleID,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable error for search-stage failures,
// typically a vendor pool fetch that hit the database at a bad moment.
func NewSearchFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Vendor search failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecommendationFailedError creates an error for ranking-stage failures.
// Individual malformed candidates never produce this; they are skipped and
// counted instead.
func NewRecommendationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecommendationFailed,
		Message:   "Recommendation stage failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInterestUpdateFailedError creates a retryable error for feedback writes.
func NewInterestUpdateFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInterestUpdateFailed,
		Message:   "Failed to record vendor interest",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ToBPMNError converts a StandardError into its workflow-engine form.
func (e *StandardError) ToBPMNError() *BPMNError {
	return &BPMNError{
		Code:      string(e.Code),
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	}
}
