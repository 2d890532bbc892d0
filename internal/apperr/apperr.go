// Package apperr defines the error taxonomy shared by all services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary handling.
type Kind int

const (
	// KindInternal is an unexpected storage or programming failure.
	KindInternal Kind = iota
	// KindValidation is missing or out-of-range caller input.
	KindValidation
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindForbidden means the caller does not own the referenced entity.
	KindForbidden
	// KindConflict is a state-machine violation (book unavailable,
	// active borrow exists, already returned, already paid, ...).
	KindConflict
)

// Error carries a Kind plus a human-readable message safe to return to
// the caller. Internal causes are wrapped and never serialized.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The message shown to callers is
// generic; the cause is kept for logging.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the caller-safe message from err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
