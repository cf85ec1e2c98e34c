// Package errors provides standardized error handling for the chat response pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationRejected ErrorCode = "VALIDATION_REJECTED"
	ErrCodeQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeTenantNotFound     ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeTenantInactive     ErrorCode = "TENANT_INACTIVE"

	ErrCodeContextStoreUnavailable ErrorCode = "CONTEXT_STORE_UNAVAILABLE"
	ErrCodeHistoryQueryFailed      ErrorCode = "HISTORY_QUERY_FAILED"
	ErrCodeKnowledgeQueryFailed    ErrorCode = "KNOWLEDGE_QUERY_FAILED"

	ErrCodeAICapabilityFailure ErrorCode = "AI_CAPABILITY_FAILURE"
	ErrCodeAITimeout           ErrorCode = "AI_TIMEOUT"

	ErrCodeCounterStoreFailed ErrorCode = "COUNTER_STORE_FAILED"
	ErrCodeConversationSave   ErrorCode = "CONVERSATION_SAVE_FAILED"
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

// NewValidationRejectedError creates a non-retryable validation error.
// Validation rejections surface to the user as canned replies, never as
// pipeline failures.
func NewValidationRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationRejected,
		Message:   "Message rejected by validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuotaExceededError creates a non-retryable quota error.
func NewQuotaExceededError(tenantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuotaExceeded,
		Message:   "Daily AI request quota exhausted",
		Details:   fmt.Sprintf("tenantId: %s", tenantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTenantNotFoundError creates a non-retryable tenant lookup error.
func NewTenantNotFoundError(tenantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTenantNotFound,
		Message:   "Tenant not found",
		Details:   fmt.Sprintf("tenantId: %s", tenantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTenantInactiveError creates a non-retryable error for disabled tenants.
func NewTenantInactiveError(tenantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTenantInactive,
		Message:   "Tenant is not active",
		Details:   fmt.Sprintf("tenantId: %s", tenantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContextStoreUnavailableError creates a retryable store error. The
// pipeline degrades to empty context instead of failing the request.
func NewContextStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextStoreUnavailable,
		Message:   "Context store unavailable",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAICapabilityFailureError creates an AI completion error. Never retried
// within a request: at most one AI attempt per message.
func NewAICapabilityFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAICapabilityFailure,
		Message:   "AI completion failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAITimeoutError creates an AI timeout error, handled identically to an
// AI capability failure.
func NewAITimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAITimeout,
		Message:   "AI completion timed out",
		Details:   "call exceeded configured timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCounterStoreFailedError creates a counter store error. Treated as
// denial by the usage gate.
func NewCounterStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCounterStoreFailed,
		Message:   "Usage counter store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConversationSaveError creates a retryable persistence error.
func NewConversationSaveError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversationSave,
		Message:   "Conversation persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a generic retryable external service error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
