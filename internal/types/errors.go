// Package types holds the error vocabulary shared by every gridheat component.
package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

const (
	// Fatal before any computation starts.
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	// Recovered locally by the boundary fallback; never reaches main.
	ErrCodeBoundaryUnavailable ErrorCode = "boundary_source_unavailable"
	ErrCodeBoundaryParse       ErrorCode = "boundary_parse_failed"

	ErrCodeGeometryInvalid ErrorCode = "geometry_invalid"
	ErrCodeValueSource     ErrorCode = "value_source_invalid"
	ErrCodeRenderSink      ErrorCode = "render_sink_failure"
	ErrCodeInternal        ErrorCode = "internal_unexpected_error"
)

// Recoverable reports whether errors with this code are absorbed by a
// component instead of terminating the run.
func (c ErrorCode) Recoverable() bool {
	return c == ErrCodeBoundaryUnavailable || c == ErrCodeBoundaryParse
}

// AppError is the standard error type used across packages.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{Code: e.Code, Message: e.Message, Err: e.Err, Details: merged}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}
