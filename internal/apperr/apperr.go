// Package apperr defines the single tagged error type used across the
// service, together with its HTTP mapping. Handlers never branch on error
// strings; they branch on the kind.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind uint8

const (
	// Validation marks a malformed or semantically invalid request.
	Validation Kind = iota + 1
	// Conflict marks a duplicate-resource failure, e.g. an email collision.
	Conflict
	// NotFound marks a missing user, conversation or document.
	NotFound
	// NoEffect marks a conditioned write that touched zero rows. It is
	// reported with the same generic message whether the row was missing or
	// simply not owned by the actor, so existence never leaks.
	NoEffect
	// Forbidden marks a capability-check failure.
	Forbidden
	// Downstream marks a remote system (broker, cache, store) failure.
	Downstream
	// Internal is everything else.
	Internal
)

// Error pairs a kind with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a tagged error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error with a kind and a client-safe message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from any error, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the client-safe message of an error. Untagged errors are
// collapsed to a generic message so internals never reach a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong."
}

var httpStatus = map[Kind]int{
	Validation: http.StatusBadRequest,
	Conflict:   http.StatusConflict,
	NotFound:   http.StatusNotFound,
	NoEffect:   http.StatusBadRequest,
	Forbidden:  http.StatusForbidden,
	Downstream: http.StatusBadGateway,
	Internal:   http.StatusInternalServerError,
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	if status, ok := httpStatus[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
