// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrIllegalTransition is the sentinel matched by every IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrForbiddenField is the sentinel matched by every ForbiddenFieldError.
	ErrForbiddenField = errors.New("forbidden field")

	// ErrInvalidStatus is the sentinel matched by every InvalidStatusError.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrConcurrentModification is returned when a conditional status write
	// lost the race against another writer. Callers may retry with freshly
	// read state; the core never retries on its own.
	ErrConcurrentModification = errors.New("task was modified concurrently")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// IllegalTransitionError reports a requested edge that is not in the
// transition table.
type IllegalTransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface.
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %q to %q", e.From, e.To)
}

// Is lets errors.Is match ErrIllegalTransition.
func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// NewIllegalTransitionError creates an IllegalTransitionError for the given pair.
func NewIllegalTransitionError(from, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}

// ForbiddenFieldError reports an attempt to write a field through a path
// that must never touch it.
type ForbiddenFieldError struct {
	Field string
}

// Error implements the error interface.
func (e *ForbiddenFieldError) Error() string {
	return fmt.Sprintf("field %q cannot be set through this operation", e.Field)
}

// Is lets errors.Is match ErrForbiddenField.
func (e *ForbiddenFieldError) Is(target error) bool {
	return target == ErrForbiddenField
}

// InvalidStatusError reports a status token outside the known set.
// Reaching one means upstream validation or stored data is broken.
type InvalidStatusError struct {
	Value string
}

// Error implements the error interface.
func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid task status %q", e.Value)
}

// Is lets errors.Is match ErrInvalidStatus.
func (e *InvalidStatusError) Is(target error) bool {
	return target == ErrInvalidStatus
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError. If err is nil, ErrValidation is wrapped.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}
