package reading

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every error returned by this package that is the caller's
// fault wraps exactly one of these.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Refinements of ErrPreconditionFailed.
var (
	ErrBookNotApproved    = fmt.Errorf("%w: book not approved", ErrPreconditionFailed)
	ErrAlreadyCompleted   = fmt.Errorf("%w: already completed", ErrPreconditionFailed)
	ErrOnCooldown         = fmt.Errorf("%w: on cooldown", ErrPreconditionFailed)
	ErrInsufficientPoints = fmt.Errorf("%w: insufficient points", ErrPreconditionFailed)
)

// Error is a caller-facing failure. Message is safe to show to end users.
type Error struct {
	Kind    error
	Message string

	// RetryAt is set for ErrOnCooldown.
	RetryAt *time.Time
	// Shortfall is set for ErrInsufficientPoints.
	Shortfall int
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return newError(ErrInvalidInput, format, args...)
}

func notFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}
