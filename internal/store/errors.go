package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a persistence error carrying the HTTP status it maps to.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so every WithMessage variant of
// ErrNotFound satisfies errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy of e with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)

// Entity-specific not-found errors.
var (
	ErrUserNotFound         = ErrNotFound.WithMessage("user not found")
	ErrNovelNotFound        = ErrNotFound.WithMessage("novel not found")
	ErrChapterNotFound      = ErrNotFound.WithMessage("chapter not found")
	ErrLibraryEntryNotFound = ErrNotFound.WithMessage("library entry not found")
	ErrRatingNotFound       = ErrNotFound.WithMessage("rating not found")
	ErrCommentNotFound      = ErrNotFound.WithMessage("comment not found")
	ErrCoverNotFound        = ErrNotFound.WithMessage("cover not found")
)

// IsNotFound reports whether err is any not-found store error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
