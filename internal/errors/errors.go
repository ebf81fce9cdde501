// Package errors defines the application error taxonomy and the HTTP
// error handler shared across transport and services.
package errors

import (
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	// ErrTypeDataUnavailable marks a raw series fetch that returned
	// nothing for the requested symbol and range. Fatal; the pipeline
	// aborts before feature engineering.
	ErrTypeDataUnavailable ErrorType = "DATA_UNAVAILABLE"

	// ErrTypeInsufficientData marks a training segment with no valid
	// target values. Fatal; reported in the result summary instead of
	// raised past the orchestrator.
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"

	// ErrTypeModelFit marks a forecaster that failed to converge or
	// errored internally. No partial model output is used downstream.
	ErrTypeModelFit ErrorType = "MODEL_FIT"

	// ErrTypeNumericDomain marks a numeric transform applied outside
	// its domain, e.g. log of a non-positive price. Normally filtered
	// by the feature builder rather than escalated.
	ErrTypeNumericDomain ErrorType = "NUMERIC_DOMAIN"

	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the pipeline taxonomy

// NewDataUnavailableError reports an empty fetch result.
func NewDataUnavailableError(symbol string) *AppError {
	return NewAppError(ErrTypeDataUnavailable,
		fmt.Sprintf("no price data available for %s", symbol), nil)
}

// NewInsufficientDataError reports an unusable training segment.
func NewInsufficientDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, cause)
}

// NewModelFitError reports a forecaster failure.
func NewModelFitError(model string, cause error) *AppError {
	return NewAppError(ErrTypeModelFit,
		fmt.Sprintf("%s model failed to fit", model), cause)
}

// NewValidationError reports an invalid request or configuration value.
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// IsType reports whether err carries the given application error type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == t
}
