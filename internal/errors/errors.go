// Package errors defines the structured error taxonomy shared by the client pipelines.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrPortNotFound       ErrorCode = "PORT_NOT_FOUND"       // 503
	ErrExtractionFailed   ErrorCode = "EXTRACTION_FAILED"    // 502
	ErrProviderCallFailed ErrorCode = "PROVIDER_CALL_FAILED" // 502, never leaves the generation pipeline
	ErrRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"  // 429, never leaves the generation pipeline
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"      // 400
	ErrInternal           ErrorCode = "INTERNAL"             // 500
)

// DocpostError represents a structured error with code, status, and details.
type DocpostError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *DocpostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DocpostError) Unwrap() error {
	return e.Cause
}

// Remedy returns a user-facing hint for errors the CLI shows to people.
func (e *DocpostError) Remedy() string {
	switch e.Code {
	case ErrPortNotFound, ErrExtractionFailed:
		return "Check that the docpost server is running (docpost-server) and reachable on localhost."
	case ErrRateLimitExceeded:
		return "Wait for the hourly window to reset and try again."
	default:
		return ""
	}
}

// NewPortNotFound creates an error listing every discovery strategy that was tried.
func NewPortNotFound(attempted []string) *DocpostError {
	return &DocpostError{
		Code:    ErrPortNotFound,
		Status:  503,
		Message: fmt.Sprintf("could not find server on any port; tried: %s", strings.Join(attempted, ", ")),
		Details: map[string]any{"attempted": attempted},
	}
}

// NewExtractionFailed creates an error for an exhausted extraction ladder.
func NewExtractionFailed(fileName string, cause error) *DocpostError {
	return &DocpostError{
		Code:    ErrExtractionFailed,
		Status:  502,
		Message: fmt.Sprintf("failed to extract text from %s: all methods failed", fileName),
		Details: map[string]any{"file_name": fileName},
		Cause:   cause,
	}
}

// NewProviderCallFailed creates an error for a structural or network failure of one provider.
func NewProviderCallFailed(provider string, cause error) *DocpostError {
	msg := "provider call failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &DocpostError{
		Code:    ErrProviderCallFailed,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", provider, msg),
		Details: map[string]any{"provider": provider},
		Cause:   cause,
	}
}

// NewRateLimitExceeded creates an error for a rejected call within the current window.
func NewRateLimitExceeded(limit int) *DocpostError {
	return &DocpostError{
		Code:    ErrRateLimitExceeded,
		Status:  429,
		Message: fmt.Sprintf("API rate limit exceeded (%d calls per hour); try again later", limit),
		Details: map[string]any{"limit": limit},
	}
}

// NewInvalidRequest creates a 400 error for invalid input.
func NewInvalidRequest(msg string) *DocpostError {
	return &DocpostError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *DocpostError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DocpostError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a DocpostError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DocpostError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// As extracts the first DocpostError in err's chain.
func As(err error) (*DocpostError, bool) {
	var dErr *DocpostError
	if stderrors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
