// Package apperrors provides the error taxonomy shared by the planner, the
// providers and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies the class of a failure.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeSearchTimeout       Code = "SEARCH_TIMEOUT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAuditSinkFailure    Code = "AUDIT_SINK_FAILURE"
	CodeTelemetryFailure    Code = "TELEMETRY_FAILURE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is a structured application error.
type Error struct {
	Code      Code                   `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithMetadata returns a copy of e with key set in its metadata.
func (e *Error) WithMetadata(key string, value interface{}) *Error {
	cp := *e
	cp.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// ─── Constructors ─────────────────────────────────────────────────────────────

// NewInvalidInput reports a request rejected before any provider call.
func NewInvalidInput(details string) *Error {
	return &Error{
		Code:      CodeInvalidInput,
		Message:   "Invalid search input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputf is NewInvalidInput with formatting.
func NewInvalidInputf(format string, args ...interface{}) *Error {
	return NewInvalidInput(fmt.Sprintf(format, args...))
}

// NewProviderUnavailable reports a candidate source that failed or returned
// nothing usable for the given leg ("outbound", "return", "makkah", ...).
func NewProviderUnavailable(leg string, err error) *Error {
	details := "leg: " + leg
	if err != nil {
		details = fmt.Sprintf("leg: %s, error: %s", leg, err.Error())
	}
	return &Error{
		Code:      CodeProviderUnavailable,
		Message:   "Travel data source unavailable",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"leg": leg},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewSearchTimeout reports an exceeded per-search deadline.
func NewSearchTimeout(limit time.Duration, err error) *Error {
	return &Error{
		Code:      CodeSearchTimeout,
		Message:   "Search deadline exceeded",
		Details:   fmt.Sprintf("limit: %s", limit),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func NewNotFound(what, id string) *Error {
	return &Error{
		Code:      CodeNotFound,
		Message:   what + " not found",
		Details:   "id: " + id,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuditSinkFailure(err error) *Error {
	return &Error{
		Code:      CodeAuditSinkFailure,
		Message:   "Audit record could not be written",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func NewTelemetryFailure(err error) *Error {
	return &Error{
		Code:      CodeTelemetryFailure,
		Message:   "Error report could not be delivered",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Normalize converts any error into an *Error, wrapping unknown errors as
// CodeInternal without leaking their text into Message.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{
		Code:      CodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}
