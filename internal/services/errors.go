// file: internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// Error kinds
const (
	ErrTypeValidation   = "VALIDATION_ERROR"
	ErrTypeNotFound     = "NOT_FOUND"
	ErrTypeInvalidState = "INVALID_STATE"
	ErrTypeForbidden    = "FORBIDDEN"
	ErrTypeUnauthorized = "UNAUTHORIZED"
	ErrTypeConflict     = "CONFLICT"
	ErrTypeRateLimited  = "RATE_LIMITED"
	ErrTypeInternal     = "INTERNAL_ERROR"
)

// Error codes refining a kind
const (
	CodeInvalidCampaign     = "INVALID_CAMPAIGN"
	CodeAlreadyReviewed     = "ALREADY_REVIEWED"
	CodeInvalidReviewAction = "INVALID_REVIEW_ACTION"
	CodeTaskNotSubmitted    = "TASK_NOT_SUBMITTED"
	CodeTaskAlreadyApproved = "TASK_ALREADY_APPROVED"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeRoleNotPermitted    = "ROLE_NOT_PERMITTED"
	CodeNotOwner            = "NOT_OWNER"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAuthRequired        = "AUTH_REQUIRED"
)

// ===============================
// ERROR TYPES
// ===============================

// ServiceError represents a structured service error
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// WithDetail attaches a key/value to the error details
func (e *ServiceError) WithDetail(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error. Field failures reported by
// the validator are copied into the details.
func NewValidationError(message string, cause error) *ServiceError {
	err := &ServiceError{
		Type:       ErrTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}

	var fields validation.Errors
	if errors.As(cause, &fields) {
		err.WithDetail("fields", []validation.FieldError(fields))
	}
	return err
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInvalidStateError creates an error for an operation the entity's
// current state does not allow
func NewInvalidStateError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInvalidState,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusConflict,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeUnauthorized,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeForbidden,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusForbidden,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeConflict,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusConflict,
	}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError(message string, retryAfter time.Duration) *ServiceError {
	err := &ServiceError{
		Type:       ErrTypeRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
	return err.WithDetail("retry_after_seconds", int64(retryAfter.Seconds()))
}

// NewInternalError creates an internal server error. The cause is kept for
// logging and never rendered.
func NewInternalError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ===============================
// ERROR UTILITIES
// ===============================

// GetServiceError extracts a ServiceError from an error chain, or wraps it
// as an opaque internal error
func GetServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return NewInternalError("internal server error", err)
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Type == errorType
	}
	return false
}

// HasCode checks if an error carries a specific code
func HasCode(err error, code string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, ErrTypeValidation)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrTypeNotFound)
}

// IsInvalidStateError checks if an error is an invalid state error
func IsInvalidStateError(err error) bool {
	return IsErrorType(err, ErrTypeInvalidState)
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return IsErrorType(err, ErrTypeForbidden)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return IsErrorType(err, ErrTypeUnauthorized)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return IsErrorType(err, ErrTypeConflict)
}

// IsRateLimitedError checks if an error is a rate limit error
func IsRateLimitedError(err error) bool {
	return IsErrorType(err, ErrTypeRateLimited)
}

// ===============================
// COMMON ERROR PATTERNS
// ===============================

// EntityNotFoundError creates a standard entity not found error
func EntityNotFoundError(entityType string, id interface{}) *ServiceError {
	return NewNotFoundError(fmt.Sprintf("%s not found", entityType)).
		WithDetail("resource", entityType).
		WithDetail("id", id)
}

// InvalidInputError creates a standard invalid input error
func InvalidInputError(field, reason string) *ServiceError {
	return NewValidationError(fmt.Sprintf("Invalid input for field '%s': %s", field, reason), nil).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// storeError translates a repository error. Service errors pass through,
// ErrNotFound becomes NOT_FOUND for entity, ErrOutOfRange becomes a
// validation error, anything else is logged and reported as an opaque
// internal error.
func storeError(logger *zap.Logger, err error, op, entity string, id int64) error {
	var serviceErr *ServiceError
	switch {
	case errors.As(err, &serviceErr):
		return serviceErr
	case errors.Is(err, repositories.ErrNotFound):
		return EntityNotFoundError(entity, id)
	case errors.Is(err, repositories.ErrOutOfRange):
		return NewValidationError("value would exceed the supported range", err).
			WithDetail("resource", entity).
			WithDetail("id", id)
	default:
		logger.Error("Store operation failed",
			zap.String("operation", op),
			zap.String("entity", entity),
			zap.Int64("id", id),
			zap.Error(err),
		)
		return NewInternalError(fmt.Sprintf("failed to %s", op), err)
	}
}
