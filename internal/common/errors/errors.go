// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeAnonymizationFailed ErrorCode = "ANONYMIZATION_FAILED"
	ErrCodeMappingStoreFailed  ErrorCode = "MAPPING_STORE_FAILED"
	ErrCodeMappingNotFound     ErrorCode = "MAPPING_NOT_FOUND"
	ErrCodeRestoreFailed       ErrorCode = "RESTORE_FAILED"

	ErrCodeTemplateNotFound   ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateLoadFailed ErrorCode = "TEMPLATE_LOAD_FAILED"
	ErrCodeTemplateMalformed  ErrorCode = "TEMPLATE_MALFORMED"
	ErrCodeRenderFailed       ErrorCode = "RENDER_FAILED"

	ErrCodeEnrichmentUnavailable ErrorCode = "ENRICHMENT_UNAVAILABLE"
	ErrCodeStatsIndexFailed      ErrorCode = "STATS_INDEX_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError reports job variables that cannot be processed.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewAnonymizationFailedError(err error) *StandardError {
	return newError(ErrCodeAnonymizationFailed, "Content could not be anonymized", err.Error(), false)
}

// NewMappingStoreFailedError is retryable: the vault is usually back within seconds.
func NewMappingStoreFailedError(err error) *StandardError {
	return newError(ErrCodeMappingStoreFailed, "Mapping vault unavailable", err.Error(), true)
}

// NewMappingNotFoundError means the mapping expired or was already consumed.
func NewMappingNotFoundError(ref string) *StandardError {
	return newError(ErrCodeMappingNotFound, "Mapping not found or expired", fmt.Sprintf("mappingRef: %s", ref), false)
}

func NewRestoreFailedError(err error) *StandardError {
	return newError(ErrCodeRestoreFailed, "Content could not be restored", err.Error(), false)
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "Template not found", fmt.Sprintf("templateId: %s", templateID), false)
}

// NewTemplateLoadFailedError creates a retryable storage error.
func NewTemplateLoadFailedError(templateID string, err error) *StandardError {
	return newError(ErrCodeTemplateLoadFailed, "Template storage error",
		fmt.Sprintf("templateId: %s, error: %s", templateID, err.Error()), true)
}

func NewTemplateMalformedError(templateID string, err error) *StandardError {
	return newError(ErrCodeTemplateMalformed, "Template markers are not balanced",
		fmt.Sprintf("templateId: %s, error: %s", templateID, err.Error()), false)
}

func NewRenderFailedError(err error) *StandardError {
	return newError(ErrCodeRenderFailed, "Document rendering failed", err.Error(), false)
}

// NewEnrichmentUnavailableError is only used when the fallback itself cannot be
// produced; generator failures degrade to the fallback instead.
func NewEnrichmentUnavailableError(err error) *StandardError {
	return newError(ErrCodeEnrichmentUnavailable, "Enrichment unavailable", err.Error(), true)
}

func NewStatsIndexFailedError(err error) *StandardError {
	return newError(ErrCodeStatsIndexFailed, "Entity statistics could not be indexed", err.Error(), true)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodeAnonymizationFailed:   "ANONYMIZATION_FAILED",
	ErrCodeMappingStoreFailed:    "MAPPING_STORE_FAILED",
	ErrCodeMappingNotFound:       "MAPPING_NOT_FOUND",
	ErrCodeRestoreFailed:         "RESTORE_FAILED",
	ErrCodeTemplateNotFound:      "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateLoadFailed:    "TEMPLATE_LOAD_FAILED",
	ErrCodeTemplateMalformed:     "TEMPLATE_MALFORMED",
	ErrCodeRenderFailed:          "RENDER_FAILED",
	ErrCodeEnrichmentUnavailable: "ENRICHMENT_UNAVAILABLE",
	ErrCodeStatsIndexFailed:      "STATS_INDEX_FAILED",
}

// GetRetryCount returns the recommended retry count for code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMappingStoreFailed,
		ErrCodeTemplateLoadFailed,
		ErrCodeStatsIndexFailed:
		return 3

	case ErrCodeEnrichmentUnavailable:
		return 1

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MAPPING") ||
		strings.Contains(codeStr, "ANONYMIZATION") ||
		strings.Contains(codeStr, "RESTORE"):
		return "PRIVACY"
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "RENDER"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "ENRICHMENT"):
		return "AI"
	case strings.Contains(codeStr, "STATS"):
		return "REPORTING"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
