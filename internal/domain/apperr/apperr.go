package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error into the failure taxonomy shared by
// every service and by the inter-service clients.
type Kind string

const (
	// KindNotFound means a referenced entity id does not resolve.
	KindNotFound Kind = "not_found"
	// KindConflict means a transition was attempted from an incompatible
	// status, or a uniqueness constraint was violated.
	KindConflict Kind = "conflict"
	// KindBadRequest means the payload failed schema or invariant validation.
	KindBadRequest Kind = "bad_request"
	// KindUnauthorized means no authenticated principal was supplied.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden means the principal lacks a required role.
	KindForbidden Kind = "forbidden"
	// KindDependencyFailure means a downstream call failed after the local
	// write committed. The local entity keeps its new status; the caller is
	// expected to retry the downstream step.
	KindDependencyFailure Kind = "dependency_failure"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Error is the typed application error carried across service boundaries.
// Reason is a stable machine-readable key suitable for localization; Message
// is a human-readable default.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Reason, e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Reason, e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error while keeping kind and reason.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// NotFound builds a KindNotFound error.
func NotFound(reason, format string, args ...any) *Error {
	return newError(KindNotFound, reason, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(reason, format string, args ...any) *Error {
	return newError(KindConflict, reason, format, args...)
}

// BadRequest builds a KindBadRequest error.
func BadRequest(reason, format string, args ...any) *Error {
	return newError(KindBadRequest, reason, format, args...)
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(reason, format string, args ...any) *Error {
	return newError(KindUnauthorized, reason, format, args...)
}

// Forbidden builds a KindForbidden error.
func Forbidden(reason, format string, args ...any) *Error {
	return newError(KindForbidden, reason, format, args...)
}

// DependencyFailure builds a KindDependencyFailure error wrapping the
// downstream cause.
func DependencyFailure(reason string, cause error, format string, args ...any) *Error {
	e := newError(KindDependencyFailure, reason, format, args...)
	e.cause = cause
	return e
}

// Internal builds a KindInternal error wrapping the cause.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Reason: "internalError", Message: "internal error", cause: cause}
}

// FromParts rebuilds an Error from its wire representation, used by clients
// decoding a remote error envelope.
func FromParts(kind Kind, reason, message string) *Error {
	if kind == "" {
		kind = KindInternal
	}
	if reason == "" {
		reason = "internalError"
	}
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func newError(kind Kind, reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from any error, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf extracts the stable reason key from any error, empty when the
// error is not an application error.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsReason reports whether err carries the given reason key. Orchestrators
// use this to whitelist already-done Conflict responses from idempotent
// retries.
func IsReason(err error, reason string) bool {
	return ReasonOf(err) == reason
}
