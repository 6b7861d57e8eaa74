// Package errors provides standardized domain errors with codes for the book table.
//
// Usage:
//
//	// In the controller - return typed errors
//	if !isArray(payload.Books) {
//	    return errors.MalformedPayload("books is not an array")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrMalformedPayload) {
//	    ...
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeUnknownSortKey:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeMalformedPayload  Code = "MALFORMED_PAYLOAD"
	CodeUnknownSortKey    Code = "UNKNOWN_SORT_KEY"
	CodeNotLoaded         Code = "NOT_LOADED"
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeUnknownSortKey:
		return http.StatusBadRequest
	case CodeMalformedPayload:
		return http.StatusUnprocessableEntity
	case CodeNotLoaded, CodeSourceUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrMalformedPayload  = &Error{Code: CodeMalformedPayload, Message: "malformed payload"}
	ErrUnknownSortKey    = &Error{Code: CodeUnknownSortKey, Message: "unknown sort key"}
	ErrNotLoaded         = &Error{Code: CodeNotLoaded, Message: "no books loaded"}
	ErrSourceUnavailable = &Error{Code: CodeSourceUnavailable, Message: "book source unavailable"}
	ErrRateLimited       = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// MalformedPayload creates a malformed payload error.
func MalformedPayload(msg string) *Error {
	return &Error{Code: CodeMalformedPayload, Message: msg}
}

// UnknownSortKey creates an unknown sort key error naming the rejected key.
func UnknownSortKey(key string) *Error {
	return &Error{
		Code:    CodeUnknownSortKey,
		Message: fmt.Sprintf("unknown sort key %q", key),
		Details: map[string]string{"key": key},
	}
}

// NotLoaded creates a not loaded error.
func NotLoaded(msg string) *Error {
	return &Error{Code: CodeNotLoaded, Message: msg}
}

// SourceUnavailable creates a source unavailable error.
func SourceUnavailable(msg string) *Error {
	return &Error{Code: CodeSourceUnavailable, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
