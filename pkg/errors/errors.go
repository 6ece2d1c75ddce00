// Package errors defines the coded error taxonomy shared by the tile pipeline,
// the view extractor, the CLI and the HTTP server.
//
// Every failure that reaches a caller is a single *Error (possibly wrapped in
// a richer type such as tile.FetchError) whose Code says what went wrong:
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "zoom level %d out of range", zoom)
//	if errors.Is(err, errors.ErrCodeInvalidParameter) {
//	    // reject the request
//	}
//
// Is walks the whole cause chain, so a retry-exhausted error still reports the
// classification of the last failed attempt:
//
//	errors.Is(err, errors.ErrCodeRetryExhausted) // true
//	errors.Is(err, errors.ErrCodeDecode)         // true if the last attempt failed to decode
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"

	// Per-attempt tile failures, retried by the fetcher
	ErrCodeTransport Code = "TRANSPORT_FAILURE"
	ErrCodeBodyRead  Code = "BODY_READ_FAILURE"
	ErrCodeDecode    Code = "DECODE_FAILURE"

	// Terminal failures
	ErrCodeRetryExhausted    Code = "RETRY_EXHAUSTED"
	ErrCodeDimensionMismatch Code = "DIMENSION_MISMATCH"
	ErrCodeIncomplete        Code = "INCOMPLETE_PANORAMA"
	ErrCodeEmptyResult       Code = "EMPTY_RESULT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Retryable reports whether err is a per-attempt failure the fetcher may retry.
func Retryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeTransport, ErrCodeBodyRead, ErrCodeDecode:
		return true
	}
	return false
}
