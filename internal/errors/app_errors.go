package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryData          ErrorCategory = "DATA"
	ErrorCategoryNotFound      ErrorCategory = "NOT_FOUND"

	// Retryable
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
	ErrorCategoryStorage   ErrorCategory = "STORAGE"

	ErrorCategoryInternal ErrorCategory = "INTERNAL"
)

// AppError represents a categorized error with context
type AppError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// NewAppError creates a new categorized error
func NewAppError(category ErrorCategory, component, operation, message string) *AppError {
	return &AppError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps an existing error with categorized context
func WrapError(err error, category ErrorCategory, component, operation string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithMessage replaces the generic message of a wrapped error
func (e *AppError) WithMessage(message string) *AppError {
	e.Message = message
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryRateLimit, ErrorCategoryStorage:
		return true
	default:
		return false
	}
}

// Categorize maps any error to an AppError. Simulation errors keep their
// typed category; other errors are classified by message.
func Categorize(err error, component, operation string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, grid.ErrInvalidConfig):
		return WrapError(err, ErrorCategoryConfiguration, component, operation).WithMessage("invalid grid configuration")
	case stderrors.Is(err, grid.ErrNoData):
		return WrapError(err, ErrorCategoryData, component, operation).WithMessage("not enough price data")
	case stderrors.Is(err, grid.ErrInvalidData):
		return WrapError(err, ErrorCategoryData, component, operation).WithMessage("invalid price data")
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "context deadline exceeded") {
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dns") || strings.Contains(errMsg, "dial") {
		return NewNetworkError(component, operation, err)
	}

	if strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests") {
		return WrapError(err, ErrorCategoryRateLimit, component, operation)
	}

	if strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no such file") {
		return WrapError(err, ErrorCategoryNotFound, component, operation)
	}

	if strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "must be") {
		return WrapError(err, ErrorCategoryValidation, component, operation)
	}

	return WrapError(err, ErrorCategoryInternal, component, operation)
}

// Common error constructors
func NewValidationError(component, operation, message string) *AppError {
	return NewAppError(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *AppError {
	return NewAppError(ErrorCategoryConfiguration, component, operation, message)
}

func NewDataError(component, operation string, err error) *AppError {
	return WrapError(err, ErrorCategoryData, component, operation)
}

func NewNetworkError(component, operation string, err error) *AppError {
	return WrapError(err, ErrorCategoryNetwork, component, operation)
}

func NewStorageError(component, operation string, err error) *AppError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}

// HTTPStatus maps an error category to the status code returned by the API
func (e *AppError) HTTPStatus() int {
	switch e.Category {
	case ErrorCategoryConfiguration, ErrorCategoryValidation:
		return http.StatusBadRequest
	case ErrorCategoryData:
		return http.StatusUnprocessableEntity
	case ErrorCategoryNotFound:
		return http.StatusNotFound
	case ErrorCategoryRateLimit:
		return http.StatusTooManyRequests
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error category to the process exit code used by the CLI
func (e *AppError) ExitCode() int {
	switch e.Category {
	case ErrorCategoryConfiguration, ErrorCategoryValidation:
		return 2
	case ErrorCategoryData, ErrorCategoryNotFound:
		return 3
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryRateLimit, ErrorCategoryStorage:
		return 4
	default:
		return 1
	}
}
