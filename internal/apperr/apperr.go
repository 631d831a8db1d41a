// Package apperr defines the error kinds shared across the service so that
// the HTTP layer can map failures to status codes without inspecting
// component internals.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it.
type Kind int

const (
	// KindInternal is the default for errors with no specific classification.
	KindInternal Kind = iota
	// KindNotFound marks a missing item or resource.
	KindNotFound
	// KindValidation marks rejected input (comment length, malformed emoji).
	KindValidation
	// KindUnauthorized marks requests lacking an acting user where one is required.
	KindUnauthorized
	// KindForbidden marks an acting user who is not allowed to perform the operation.
	KindForbidden
	// KindSourceUnavailable marks a content source that failed during fan-out.
	// It is recovered locally and never surfaced to API callers.
	KindSourceUnavailable
	// KindNotificationDelivery marks a failed notification hand-off.
	// Always recovered locally.
	KindNotificationDelivery
)

// Error carries a kind and a human-readable message, optionally wrapping a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message. Returns nil if err is nil.
func Wrap(kind Kind, msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind of err, or KindInternal if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
