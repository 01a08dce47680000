package auth

import "context"

type contextKey struct{}

// identityKey is the context key for the authenticated Identity.
var identityKey = contextKey{}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   string
	Username string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom retrieves the Identity stored by the middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireIdentity returns the Identity or ErrMissingToken.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return Identity{}, ErrMissingToken
	}
	return id, nil
}
