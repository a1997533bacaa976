// Package apperror defines the domain error taxonomy shared by every layer.
//
// The store and service layers return these errors; only the HTTP handler
// layer knows which status code each one maps to. Callers test the kind of
// an error with errors.Is against the sentinel values below, and read the
// human-readable text with errors.As into *AppError.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotImplemented = errors.New("not implemented")
)

type AppError struct {
	Err      error  // sentinel kind, matched with errors.Is
	Message  string // human-readable error message
	Field    string // optional: request field causing the error
	Resource string // optional: entity kind for NotFound ("set", "card")
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:      ErrNotFound,
		Message:  fmt.Sprintf("%s not found with id %s", resource, id),
		Resource: resource,
	}
}

// Missing is NotFound with a fixed, client-facing message instead of one
// built from the ID.
func Missing(resource, message string) *AppError {
	return &AppError{
		Err:      ErrNotFound,
		Message:  message,
		Resource: resource,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
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

// Unauthorized reports rejected credentials (401).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func NotImplemented(feature string) *AppError {
	return &AppError{
		Err:     ErrNotImplemented,
		Message: fmt.Sprintf("%s is not yet implemented", feature),
	}
}

// IsMissing reports whether err is a NotFound for the given resource kind.
func IsMissing(err error, resource string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return errors.Is(appErr.Err, ErrNotFound) && appErr.Resource == resource
}
