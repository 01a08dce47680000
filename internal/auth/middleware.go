package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/domain"
)

// AuthorizationHeader is the header carrying the bearer token.
const AuthorizationHeader = "Authorization"

// UserLookup resolves a token subject to a user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Middleware authenticates requests with a bearer token. The token must be
// valid and belong to an active user; otherwise the request is rejected
// with 401 and the next handler is not called. A failed user lookup other
// than not-found is a 500.
func Middleware(tokens *TokenManager, users UserLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Parse(BearerToken(r))
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer authentication failed")
				writeAuthError(w, err)
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Str("user_id", claims.UserID()).Msg("failed to load token subject")
				writeJSON(w, http.StatusInternalServerError, MessageServerError)
				return
			}
			if err != nil || !user.CanAuthenticate() {
				logger.Debug().Err(err).Str("user_id", claims.UserID()).Msg("token subject rejected")
				writeAuthError(w, ErrInvalidToken)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: user.ID, Username: user.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. A bare
// "Bearer" scheme with nothing after it yields "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(AuthorizationHeader))
	scheme, rest, _ := strings.Cut(header, " ")
	if strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}

// writeAuthError writes the 401 JSON envelope.
func writeAuthError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, messageFor(err))
}

func writeJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
