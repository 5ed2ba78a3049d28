// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies a service error and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindSelfReference
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Stable machine-readable codes returned next to the message.
const (
	CodeValidation    = "validation_error"
	CodeGenderNotSet  = "gender_not_set"
	CodeNotFound      = "not_found"
	CodeSelfReference = "self_reference"
	CodeConflict      = "conflict"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeInternal      = "internal_error"
)

// Error is the single error type crossing the service boundary.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindSelfReference:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Map converts repo/infra errors into service errors.
// Already typed errors pass through untouched.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: "record not found", cause: err}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Code: CodeConflict, Message: "record already exists", cause: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindInternal, Code: CodeInternal, Message: "request timed out", cause: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindInternal, Code: CodeInternal, Message: "request was canceled", cause: err}

	default:
		return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", cause: err}
	}
}

// InvalidArgument is returned for bad input.
func InvalidArgument(msg string) error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

// GenderNotSet is returned when an operation needs the player's gender first.
func GenderNotSet() error {
	return &Error{Kind: KindValidation, Code: CodeGenderNotSet, Message: "Пол пользователя не указан"}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func SelfReference(msg string) error {
	return &Error{Kind: KindSelfReference, Code: CodeSelfReference, Message: msg}
}

// AlreadyExists maps to 409.
func AlreadyExists(msg string) error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

// Internal wraps an unexpected failure. The cause is logged, never rendered.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", cause: err}
}

// As extracts a service error, mapping anything else first.
func As(err error) *Error {
	var se *Error
	if errors.As(Map(err), &se) {
		return se
	}
	return nil
}
