// Package errors defines the error classes shared by the repository,
// service and handler layers. Domain sentinels wrap one of the class
// errors so handlers map them to HTTP statuses with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Error classes
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// InputError names the request field that failed
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NotFoundError reports a missing resource, e.g. "booking not found"
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// AccessDeniedError reports a caller acting on a resource it does not own
func AccessDeniedError(reason string) error {
	if reason == "" {
		return ErrAccessDenied
	}
	return fmt.Errorf("%s: %w", reason, ErrAccessDenied)
}

// InvalidInputError reports a bad value for field
func InvalidInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// ConflictError reports a state clash such as an occupied slot
func ConflictError(what string) error {
	return fmt.Errorf("%s: %w", what, ErrConflict)
}

// UnavailableError reports an optional dependency that is not configured
func UnavailableError(what string) error {
	return fmt.Errorf("%s: %w", what, ErrUnavailable)
}

// FieldOf returns the failing field of an input error, or "" otherwise
func FieldOf(err error) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Field
	}
	return ""
}
