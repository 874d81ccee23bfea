// Package errors defines the error taxonomy shared by the catalog
// subsystem: validation, not-found, persistence, cache and
// event-dispatch failures, plus the structured Result envelope the
// application service returns to callers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes application errors.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeInternal      ErrorType = "INTERNAL"
	ErrorTypeCache         ErrorType = "CACHE"
	ErrorTypeEventDispatch ErrorType = "EVENT_DISPATCH"
)

// AppError is the custom error type for the catalog subsystem.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error.
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewValidationWrap creates a validation error preserving the cause.
func NewValidationWrap(err error, message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message, Err: err}
}

// NewNotFound creates a not-found error.
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewConflict creates a conflict error.
func NewConflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewInternal creates an internal error wrapping the underlying cause.
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewCache creates a cache-layer error. Cache errors are soft faults:
// callers log them and fall through to the source of truth.
func NewCache(message string, err error) error {
	return &AppError{Type: ErrorTypeCache, Message: message, Err: err}
}

// NewEventDispatch creates a post-commit event-dispatch error. The
// persistence write already took effect when this error is raised.
func NewEventDispatch(message string, err error) error {
	return &AppError{Type: ErrorTypeEventDispatch, Message: message, Err: err}
}

// Wrap wraps an error with additional context, preserving the type of
// an existing AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the error type of err, or ErrorTypeInternal for
// untyped errors. Nil input returns an empty type.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsCache checks if an error is a cache error.
func IsCache(err error) bool {
	return TypeOf(err) == ErrorTypeCache
}

// IsEventDispatch checks if an error is a post-commit dispatch error.
func IsEventDispatch(err error) bool {
	return TypeOf(err) == ErrorTypeEventDispatch
}
