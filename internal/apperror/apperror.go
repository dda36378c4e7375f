// Package apperror defines the typed errors surfaced to API clients.
//
// Every business-rule failure is an *Error carrying a Kind; the transport
// layer maps the Kind to an HTTP status and sends Message verbatim. Any
// other error reaching the transport is treated as Internal and its text is
// never sent to the client.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindBadRequest
	KindConflict
	KindNotFound
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InternalMessage is sent for every error that is not an *Error.
const InternalMessage = "Internal server error"

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func InvalidCredentials() *Error {
	return newError(KindInvalidCredentials, "Invalid credentials")
}

func Unauthenticated(message string) *Error {
	return newError(KindUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, message)
}

func BadRequest(message string) *Error {
	return newError(KindBadRequest, message)
}

func Conflict(message string) *Error {
	return newError(KindConflict, message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, message)
}

// Internal attaches an underlying cause that is logged but never sent.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the message that is safe to send to a client.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return InternalMessage
}
