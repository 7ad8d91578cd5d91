// Package apperror defines the application's error taxonomy.
//
// Services return these classified errors; the HTTP layer maps them to status
// codes and the session layer maps them to user-facing flash messages. Using
// sentinel errors + errors.Is keeps the mapping in one place instead of
// string-matching error text all over the codebase.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstreamAuth = errors.New("upstream authentication error")
)

type AppError struct {
	Err     error  // sentinel this error classifies as
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness-invariant violation, e.g. two concurrent
// OAuth callbacks racing to create the same (provider, uid) identity.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict on %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// UpstreamAuth reports a failure from the OAuth provider side: the provider
// returned an error, or the callback payload is missing mandatory fields.
// The reason is surfaced to the user verbatim by the failure handler.
func UpstreamAuth(reason string) *AppError {
	return &AppError{
		Err:     ErrUpstreamAuth,
		Message: reason,
	}
}
