// Package errors defines the error taxonomy shared by every handler in the
// event-processing core: a small closed set of kinds, not types, so the
// Dispatcher and RetryService can switch on behavior without a growing list
// of sentinel errors.
package errors

import "errors"

// Kind is one of the six error categories the core distinguishes when
// deciding whether to retry, surface, or crash.
type Kind int

const (
	// KindValidation: payload does not match the expected schema. Reject, no retry.
	KindValidation Kind = iota
	// KindExternalAPI: a remote call (contest platform or source control) failed. Retry.
	KindExternalAPI
	// KindInternalDependency: temporary unreachable dependency or a creation
	// already in flight. Retry.
	KindInternalDependency
	// KindNotFound: an entity is missing where one was expected (no Project
	// for a repository, for instance). Surfaced, no retry.
	KindNotFound
	// KindConflict: a duplicate record or a creation-in-progress guard hit. Retry.
	KindConflict
	// KindFatal: a programmer error or invariant violation. Crash-loud.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExternalAPI:
		return "external_api"
	case KindInternalDependency:
		return "internal_dependency"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether the RetryService should reschedule an event that
// failed with this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindExternalAPI, KindInternalDependency, KindConflict:
		return true
	default:
		return false
	}
}

// AppError is the error shape every handler returns: a kind, a human
// message, and (optionally) the wrapped cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps err (which may be nil) into an AppError of the given kind.
func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError {
	return New(KindValidation, message, nil)
}

func ExternalAPI(message string, err error) *AppError {
	return New(KindExternalAPI, message, err)
}

func InternalDependency(message string) *AppError {
	return New(KindInternalDependency, message, nil)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(KindConflict, message, nil)
}

func Fatal(message string, err error) *AppError {
	return New(KindFatal, message, err)
}

// CreationInProgress is the specific Conflict raised by the CreationGuard
// when a second caller enters while a creation is already in flight for the
// same (provider, repo, number).
func CreationInProgress() *AppError {
	return Conflict("creation in progress, reschedule")
}

// As extracts an *AppError from err, following the standard wrapping chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindFatal for errors that
// were never stamped (programmer oversight, not a domain decision).
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindFatal
}
