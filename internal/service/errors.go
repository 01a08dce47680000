// Package service provides business logic services for LinkDay.
package service

import (
	"errors"

	"github.com/prn-tf/linkday/internal/domain"
)

// Common service errors.
var (
	// ErrInternalError wraps infrastructure failures. Its detail is logged,
	// never returned to clients.
	ErrInternalError = errors.New("internal server error")

	// Auth errors
	ErrMissingFields      = domain.NewError(domain.ErrValidation, "Please provide all required fields")
	ErrMissingCredentials = domain.NewError(domain.ErrValidation, "Please provide email and password")
	ErrInvalidEmail       = domain.NewFieldError(domain.ErrValidation, "Please provide a valid email", "email")
	ErrPasswordTooShort   = domain.NewFieldError(domain.ErrValidation, "Password must be at least 6 characters", "password")

	// Avatar errors
	ErrAvatarTooLarge    = domain.NewFieldError(domain.ErrValidation, "Avatar exceeds maximum size", "avatar")
	ErrAvatarType        = domain.NewFieldError(domain.ErrValidation, "Avatar must be a PNG, JPEG, GIF or WebP image", "avatar")
	ErrAvatarMissing     = domain.NewFieldError(domain.ErrValidation, "Avatar file is required", "avatar")
	ErrAvatarUnavailable = errors.New("avatar storage is not configured")
)
