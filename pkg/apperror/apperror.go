package apperror

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of an error.
type Kind string

const (
	KindNotFound                  Kind = "NOT_FOUND"
	KindUnauthorized              Kind = "UNAUTHORIZED"
	KindSlotUnavailable           Kind = "SLOT_UNAVAILABLE"
	KindInvalidTransition         Kind = "INVALID_TRANSITION"
	KindImmutable                 Kind = "IMMUTABLE"
	KindCancellationWindowExpired Kind = "CANCELLATION_WINDOW_EXPIRED"
	KindInvalidArgument           Kind = "INVALID_ARGUMENT"
	KindInternal                  Kind = "INTERNAL"
)

// Error carries a Kind and a human-readable message. Err, when set, is the
// underlying cause and is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind. Package-level values created with
// New work as sentinels with errors.Is.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Internal wraps an unexpected storage or transport failure.
func Internal(cause error) *Error {
	return Wrap(KindInternal, "internal error", cause)
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
// A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
