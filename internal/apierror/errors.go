// Package apierror defines the closed error taxonomy every failure is
// translated into before a response leaves the service. Callers only ever
// see the declared message of an error class; internal detail stays in logs.
package apierror

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// DefaultMessage is returned for anything unclassified.
const DefaultMessage = "Server cannot validate requests sent at this time, please try again."

// Error is a classified API failure. Status and Message are part of the
// public contract; LogMessage and the wrapped cause are log-only.
type Error struct {
	Status     int
	Message    string
	LogMessage string

	kind  *Error
	cause error
}

func (e *Error) Error() string {
	if e.LogMessage != "" {
		return e.LogMessage
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches an error against its class, so errors.Is(err, ErrTokenExpired)
// holds for derived copies carrying extra log context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.kind == t
}

func (e *Error) root() *Error {
	if e.kind != nil {
		return e.kind
	}
	return e
}

// WithLog returns a copy of the class with a log-only message attached.
func (e *Error) WithLog(logMessage string) *Error {
	return &Error{Status: e.Status, Message: e.Message, LogMessage: logMessage, kind: e.root()}
}

// WithCause returns a copy of the class wrapping an underlying error.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Status: e.Status, Message: e.Message, LogMessage: e.LogMessage, kind: e.root(), cause: cause}
}

// 401 — authentication failures.
var (
	ErrMissingCredentials         = &Error{Status: http.StatusUnauthorized, Message: "Missing authentication credentials."}
	ErrInvalidToken               = &Error{Status: http.StatusUnauthorized, Message: "Invalid authentication token provided."}
	ErrTokenExpired               = &Error{Status: http.StatusUnauthorized, Message: "Token has expired."}
	ErrUnsuccessfulAuthentication = &Error{Status: http.StatusUnauthorized, Message: "Authentication unsuccessful"}
	ErrUnauthorized               = &Error{Status: http.StatusUnauthorized, Message: "Unauthorized"}
)

// 403 — forbidden requests.
var (
	ErrForbidden         = &Error{Status: http.StatusForbidden, Message: "Forbidden request"}
	ErrBadRequest        = &Error{Status: http.StatusForbidden, Message: "Bad request"}
	ErrResourceConflict  = &Error{Status: http.StatusForbidden, Message: "Resource already exists"}
	ErrInsufficientFunds = &Error{Status: http.StatusForbidden, Message: "Insufficient funds"}
)

// 429 — rate limited.
var ErrTooManyRequests = &Error{Status: http.StatusTooManyRequests, Message: "Too many requests"}

// 404 — missing or soft-deleted resources.
var (
	ErrResourceNotFound = &Error{Status: http.StatusNotFound, Message: "Resource not found"}
	ErrDeletedResource  = &Error{Status: http.StatusNotFound, Message: "Resource has been deleted"}
)

// 500 — everything unanticipated.
var ErrInternal = &Error{Status: http.StatusInternalServerError, Message: DefaultMessage}

// Translate maps any raised error into its classified form. Unclassified
// errors collapse into ErrInternal with the original preserved as cause.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound.WithCause(err)
	}

	return ErrInternal.WithCause(err)
}
