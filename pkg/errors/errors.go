package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates a non-retryable error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeConfiguration indicates a missing credential or setting
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeTransient indicates an external service stayed overloaded after retries
	ErrorTypeTransient ErrorType = "TRANSIENT"

	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"
	ErrorTypeParseFailure      ErrorType = "PARSE_FAILURE"
	ErrorTypeSchemaMismatch    ErrorType = "SCHEMA_MISMATCH"

	ErrorTypeLocationPermissionDenied ErrorType = "LOCATION_PERMISSION_DENIED"
	ErrorTypeLocationUnavailable      ErrorType = "LOCATION_UNAVAILABLE"
	ErrorTypeLocationTimeout          ErrorType = "LOCATION_TIMEOUT"
	ErrorTypeLocationNotFound         ErrorType = "LOCATION_NOT_FOUND"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail returns the message followed by the wrapped cause, without the type prefix.
func (e *AppError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewTransientError creates an error for a retryable failure that outlived its retries
func NewTransientError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransient,
		Message: message,
		Err:     err,
	}
}

// NewResponseError creates an error describing a model response that did not conform.
func NewResponseError(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// Message returns a user-facing description of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail()
	}
	return err.Error()
}
