// Package apperrors defines the error kinds shared across the core and the
// HTTP surface, and a wrapper type that carries an HTTP status alongside a
// sentinel kind so handlers can dispatch with errors.Is instead of string
// matching.
package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrAuth indicates a missing or invalid admin token / CSRF token.
var ErrAuth = errors.New("authentication error")

// ErrConflict indicates a concurrent write to the same anchor or key event.
var ErrConflict = errors.New("conflicting write")

// ErrUpstream indicates a transport or protocol failure talking to the
// upstream bookkeeping service.
var ErrUpstream = errors.New("upstream error")

// ErrIntegrity indicates a store-level constraint violation that should be
// impossible under normal flow.
var ErrIntegrity = errors.New("integrity error")

// Error wraps a sentinel kind with a human-readable message, an HTTP status,
// and an optional cause. Handlers use errors.Is(err, apperrors.ErrX) against
// the sentinel to decide how to respond; Message is safe to return to the
// caller (upstream credentials and internal detail never go in Message).
type Error struct {
	Kind    error
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, status int, msg string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Cause: cause}
}

// Validation reports malformed input: bad dates, negative horizons, unknown pack/category.
func Validation(msg string) *Error { return newError(ErrValidation, http.StatusBadRequest, msg, nil) }

// NotFound reports an unknown id.
func NotFound(msg string) *Error { return newError(ErrNotFound, http.StatusNotFound, msg, nil) }

// Duplicate reports an attempt to create something that already exists.
func Duplicate(msg string) *Error { return newError(ErrDuplicate, http.StatusConflict, msg, nil) }

// Auth reports a missing or invalid admin/CSRF token.
func Auth(msg string) *Error { return newError(ErrAuth, http.StatusUnauthorized, msg, nil) }

// Conflict reports a concurrent write to the same anchor or key event.
func Conflict(msg string) *Error { return newError(ErrConflict, http.StatusConflict, msg, nil) }

// Upstream reports an ingest transport/protocol failure after retries were exhausted.
func Upstream(msg string, cause error) *Error {
	return newError(ErrUpstream, http.StatusBadGateway, msg, cause)
}

// Integrity reports a store-level constraint violation that should be impossible under normal flow.
func Integrity(msg string, cause error) *Error {
	return newError(ErrIntegrity, http.StatusInternalServerError, msg, cause)
}

// Internal wraps an unexpected error with no specific kind.
func Internal(msg string, cause error) *Error {
	return newError(nil, http.StatusInternalServerError, msg, cause)
}

// StatusOf returns the HTTP status an error should be reported with,
// defaulting to 500 for anything that isn't an *Error.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
