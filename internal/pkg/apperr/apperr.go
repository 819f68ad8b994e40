// Package apperr is the error taxonomy shared by services and the HTTP layer.
// Services return *Error values; serverutils maps Kind to a status code.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindDatabase
)

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthentication:
		return "AUTHENTICATION_ERROR"
	case KindAuthorization:
		return "AUTHORIZATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDatabase:
		return "DATABASE_ERROR"
	}
	return "INTERNAL_ERROR"
}

func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Message is safe to show to callers;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Authentication() *Error {
	return New(KindAuthentication, "authentication required")
}

func Authorization(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return New(KindAuthorization, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "resource not found"
	}
	return New(KindNotFound, message)
}

// Database wraps a storage failure under a caller-facing message.
func Database(message string, cause error) *Error {
	if message == "" {
		message = "a database error occurred"
	}
	return &Error{Kind: KindDatabase, Message: message, cause: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", cause: cause}
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
