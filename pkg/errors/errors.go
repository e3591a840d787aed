package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors shared by every endpoint.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrServiceUnavailable = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Allocation errors.
var (
	ErrTermNotFound       = New("TERM_NOT_FOUND", http.StatusNotFound, "term not found")
	ErrSchoolNotFound     = New("SCHOOL_NOT_FOUND", http.StatusNotFound, "school not found")
	ErrRunNotFound        = New("RUN_NOT_FOUND", http.StatusNotFound, "allocation run not found")
	ErrNoAllocationResult = New("NO_ALLOCATION_RESULT", http.StatusNotFound, "no allocation result recorded for term")
	ErrRunInProgress      = New("RUN_IN_PROGRESS", http.StatusConflict, "an allocation run is already in progress for this term")
	ErrUnknownMode        = New("UNKNOWN_SELECTION_MODE", http.StatusBadRequest, "unknown selection mode")
	ErrUnsupportedFormat  = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
	ErrAsyncRunsDisabled  = New("ASYNC_RUNS_DISABLED", http.StatusServiceUnavailable, "asynchronous allocation runs are not enabled")
	ErrAllocationDisabled = New("ECA_DISABLED", http.StatusServiceUnavailable, "ECA allocation is disabled")
)

// Internal wraps err as a 500 with a caller-facing message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Unavailable wraps err as a 503, used when a backing dependency fails.
func Unavailable(err error, message string) *Error {
	return Wrap(err, ErrServiceUnavailable.Code, ErrServiceUnavailable.Status, message)
}

// Invalid wraps a binding or validation failure as a 400.
func Invalid(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	var e *Error
	if target == nil || !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
