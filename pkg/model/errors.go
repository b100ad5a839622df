package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the machine-readable classification of a terminal failure.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "configuration"
	KindAuthentication ErrorKind = "authentication"
	KindAccessDenied   ErrorKind = "access_denied"
	KindRateLimit      ErrorKind = "rate_limit"
	KindAPI            ErrorKind = "api"
	KindNetwork        ErrorKind = "network"
	KindValidation     ErrorKind = "validation"
	KindTool           ErrorKind = "tool"
	KindInternal       ErrorKind = "internal"
)

// Error is the single typed failure surfaced by the orchestration layer.
// Every terminal failure carries a kind, a human-readable message and, when
// available, the partial usage/tool-call accounting accumulated before the
// failure so callers keep observability even on error paths.
type Error struct {
	Kind       ErrorKind
	Message    string
	Status     int           // remote HTTP status, when applicable
	RetryAfter time.Duration // populated for rate-limit failures
	Details    any           // original remote error body or denial details
	Err        error         // wrapped cause

	// Partial accounting attached by the orchestration loop.
	Usage           *Usage
	ToolCallDetails []ToolCallDetail
}

// NewError builds an Error with the given kind and formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around a cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by kind so callers can compare against sentinel kinds
// with errors.Is(err, &Error{Kind: KindRateLimit}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && (other.Message == "" || other.Message == e.Message)
}

// KindOf extracts the ErrorKind from err, or KindInternal when err is not a
// typed Error.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// AsError returns the typed Error inside err when present.
func AsError(err error) (*Error, bool) {
	var typed *Error
	ok := errors.As(err, &typed)
	return typed, ok
}
