// Package domain contains the core business entities for LinkDay.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every client-facing failure is tagged with exactly one of these
// and translated to a transport status once, at the API boundary.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing resource or one the caller does not own.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized marks a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist or is inactive.
	ErrUserNotFound = NewError(ErrNotFound, "User not found")

	// ErrUsernameLength indicates the username is outside 3-30 characters.
	ErrUsernameLength = NewError(ErrValidation, "Username must be between 3 and 30 characters")

	// ErrUsernameTaken indicates another user holds the username.
	ErrUsernameTaken = NewFieldError(ErrConflict, "Username already exists", "username")

	// ErrEmailTaken indicates another user holds the email.
	ErrEmailTaken = NewFieldError(ErrConflict, "Email already exists", "email")

	// ErrInvalidCredentials indicates login failed.
	ErrInvalidCredentials = NewError(ErrUnauthorized, "Invalid credentials")

	// ===========================================
	// Link Errors
	// ===========================================

	// ErrLinkNotFound indicates the link does not exist, is not owned by the
	// caller, or is inactive where an active link is required.
	ErrLinkNotFound = NewError(ErrNotFound, "Link not found")

	// ErrTitleURLRequired indicates a create request without title or url.
	ErrTitleURLRequired = NewError(ErrValidation, "Title and URL are required")
)

// Error is a domain failure carrying its kind and a client-safe message.
type Error struct {
	// Kind is one of ErrValidation, ErrNotFound, ErrConflict or ErrUnauthorized.
	Kind error

	// Message is safe to return to the caller.
	Message string

	// Field names the offending field, if any.
	Field string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the kind for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError creates a new Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewFieldError creates a new Error that names a field.
func NewFieldError(kind error, message, field string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Validationf creates a validation Error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return NewError(ErrValidation, fmt.Sprintf(format, args...))
}

// Message returns the client-safe message of a domain error, or fallback if
// err carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
