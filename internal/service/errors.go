// Package service provides the task lifecycle services.
package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrPersistenceTimeout indicates a store call did not finish within the
	// configured write timeout. API layer should map this to HTTP 503.
	ErrPersistenceTimeout = errors.New("persistence operation timed out")

	// ErrBatchTooLarge indicates a batch request exceeded the configured maximum.
	ErrBatchTooLarge = fmt.Errorf("%w: batch exceeds maximum size", domain.ErrValidation)

	// ErrEmptyUpdate indicates a field update that would change nothing.
	ErrEmptyUpdate = fmt.Errorf("%w: no fields to update", domain.ErrValidation)
)

// TaskServiceError wraps unexpected failures with the operation that hit them.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
