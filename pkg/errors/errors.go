package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors so the HTTP layer can map them to
// status codes without inspecting messages.
type ErrorType string

const (
	ValidationError   ErrorType = "validation"
	NotFoundError     ErrorType = "not_found"
	UnauthorizedError ErrorType = "unauthorized"
	ForbiddenError    ErrorType = "forbidden"
	ConflictError     ErrorType = "conflict"
	InternalError     ErrorType = "internal"
)

// AppError is the error type returned by services and handlers.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with optional details.
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{Type: ValidationError, Message: message, Details: details}
}

// NewNotFoundError creates a not-found error with optional details.
func NewNotFoundError(message string, details map[string]interface{}) *AppError {
	return &AppError{Type: NotFoundError, Message: message, Details: details}
}

// NewUnauthorizedError creates an unauthorized error with optional details.
func NewUnauthorizedError(message string, details map[string]interface{}) *AppError {
	return &AppError{Type: UnauthorizedError, Message: message, Details: details}
}

// NewForbiddenError creates a forbidden error with optional details.
func NewForbiddenError(message string, details map[string]interface{}) *AppError {
	return &AppError{Type: ForbiddenError, Message: message, Details: details}
}

// NewConflictError creates a conflict error with optional details.
func NewConflictError(message string, details map[string]interface{}) *AppError {
	return &AppError{Type: ConflictError, Message: message, Details: details}
}

// NewInternalError wraps an underlying failure as an internal error.
func NewInternalError(message string, cause error, details map[string]interface{}) *AppError {
	return &AppError{Type: InternalError, Message: message, Cause: cause, Details: details}
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// AsAppError extracts an AppError from err, or nil if there is none.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// New creates a plain error. Re-exported so callers don't need a second
// errors import for trivial cases.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
