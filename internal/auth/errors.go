// Package auth provides JWT bearer authentication for LinkDay.
package auth

import "errors"

// Token errors.
var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("no token, authorization denied")

	// ErrInvalidToken indicates the token is malformed, badly signed or expired.
	ErrInvalidToken = errors.New("token is not valid")

	// ErrInvalidSecret indicates the signing secret is unusable.
	ErrInvalidSecret = errors.New("jwt secret must be at least 32 bytes")
)

// Client-facing messages for failed authentication.
const (
	MessageMissingToken = "No token, authorization denied"
	MessageInvalidToken = "Token is not valid"
	MessageServerError  = "Server Error"
)

// messageFor returns the client message for an authentication failure.
func messageFor(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return MessageMissingToken
	}
	return MessageInvalidToken
}
