// Package apperr defines the closed set of error kinds the API maps onto HTTP
// statuses. Handlers translate service failures into one of these kinds so the
// JSON error envelope always carries a machine-readable classification.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// Internal is an unexpected failure (database unavailable, etc).
	Internal Kind = iota
	// Validation is malformed, missing or out-of-range input.
	Validation
	// Unauthenticated is a missing, invalid or expired credential.
	Unauthenticated
	// Forbidden means the caller is authenticated but not the resource owner.
	Forbidden
	// NotFound means the resource id does not resolve.
	NotFound
	// Conflict is a unique-field collision on create.
	Conflict
)

// Error carries an error kind plus a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unknown errors are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// MessageOf extracts the user-facing message from an error chain. Unknown
// errors get a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Error interno del servidor"
}

// HTTPStatus maps a kind to its HTTP status code. Conflict maps to 400, not
// 409: clients only look for a bad request with a specific message on
// unique-field collisions.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, Conflict:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
