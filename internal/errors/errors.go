// Package errors defines the coded errors services return.
//
// A Code decides both the HTTP status the API answers with and whether a
// background caller may retry: CodeUnavailable is the only transient code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Code is the machine-readable part of an error response.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeTooLarge           Code = "TOO_LARGE"
)

var codeStatus = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeValidation:         http.StatusBadRequest,
	CodeTooLarge:           http.StatusRequestEntityTooLarge,
	CodeUnavailable:        http.StatusServiceUnavailable,
}

// HTTPStatus maps c to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error carries a Code, a client-safe message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns e.Code.HTTPStatus().
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// ErrNotFound matches any not-found *Error under errors.Is.
var ErrNotFound = &Error{Code: CodeNotFound, Message: "not found"}

func newError(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func NotFound(msg string) *Error           { return newError(CodeNotFound, msg) }
func AlreadyExists(msg string) *Error      { return newError(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *Error       { return newError(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error          { return newError(CodeForbidden, msg) }
func Validation(msg string) *Error         { return newError(CodeValidation, msg) }
func InvalidCredentials(msg string) *Error { return newError(CodeInvalidCredentials, msg) }
func TooLarge(msg string) *Error           { return newError(CodeTooLarge, msg) }

// Validationf formats a validation message.
func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails attaches per-field problems to a validation error.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unavailable marks err as a transient failure of a backing store.
func Unavailable(msg string, err error) *Error {
	return &Error{Code: CodeUnavailable, Message: msg, cause: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return CodeOf(err) == CodeUnavailable
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
