// Package flow orchestrates the per-user planning lifecycle: onboarding,
// shopping-list review, plan generation, substitutions, and saved plans.
// Every mutation is a pure transition over (State, Event); side effects are
// expressed as intents executed by the session layer.
package flow

import (
	"errors"
	"fmt"

	"github.com/nutriweek/nutriweek/internal/nutrition"
)

// ErrorClass categorizes a flow failure for propagation policy: validation
// errors never reach upstream services, transient upstream errors carry a
// wait-and-retry hint, permanent upstream errors are generic failures, and
// persistence errors are mostly logged rather than surfaced.
type ErrorClass string

// Error classes.
const (
	ClassValidation        ErrorClass = "validation"
	ClassTransientUpstream ErrorClass = "transient_upstream"
	ClassPermanentUpstream ErrorClass = "permanent_upstream"
	ClassPersistence       ErrorClass = "persistence"
)

// Error is a classified flow failure with a human-readable message.
type Error struct {
	Class   ErrorClass
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified error wrapping cause.
func NewError(class ErrorClass, message string, cause error) *Error {
	return &Error{Class: class, Message: message, cause: cause}
}

// Validationf builds a validation-class error.
func Validationf(format string, args ...any) *Error {
	return &Error{Class: ClassValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrBusy is returned when a mutating event arrives while an operation is
// already in flight for the session.
var ErrBusy = &Error{Class: ClassValidation, Message: "another operation is already in progress"}

// Classify wraps an upstream or persistence error with its flow class.
// Quota exhaustion surfaced by the generation service is transient; every
// other generation failure (malformed response, schema violation, network)
// is permanent-upstream.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr
	}

	if errors.Is(err, nutrition.ErrOverloaded) {
		return &Error{Class: ClassTransientUpstream, Message: err.Error(), cause: err}
	}

	return &Error{Class: ClassPermanentUpstream, Message: err.Error(), cause: err}
}
