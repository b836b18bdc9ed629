package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the categories the HTTP surface understands.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

var kindText = map[Kind]string{
	KindInternal:        "Internal Server Error",
	KindValidation:      "Bad Request",
	KindUnauthorized:    "Unauthorized",
	KindForbidden:       "Forbidden",
	KindNotFound:        "Not Found",
	KindConflict:        "Conflict",
	KindTooManyRequests: "Too Many Requests",
}

var kindStatus = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindValidation:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindTooManyRequests: http.StatusTooManyRequests,
}

func (k Kind) String() string {
	return kindText[k]
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	return kindStatus[k]
}

// Error is a classified error carrying a stable, client-safe message.
// Err holds the underlying cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthorized(message string) *Error    { return newError(KindUnauthorized, message) }
func Forbidden(message string) *Error       { return newError(KindForbidden, message) }
func NotFound(message string) *Error        { return newError(KindNotFound, message) }
func Conflict(message string) *Error        { return newError(KindConflict, message) }
func TooManyRequests(message string) *Error { return newError(KindTooManyRequests, message) }

// Validation builds a 400 error with per-field messages.
func Validation(message string, fields map[string]string) *Error {
	e := newError(KindValidation, message)
	e.Fields = fields
	return e
}

// Internal wraps an unexpected failure. The message is sanitized, the cause is kept for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// WithCause attaches an underlying cause to a classified error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of the first classified error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusCode maps err onto an HTTP status code.
func StatusCode(err error) int {
	return KindOf(err).Status()
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
