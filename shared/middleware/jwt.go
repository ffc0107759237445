package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

type contextKey struct{}

var UserClaimsKey = contextKey{}

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// SessionVerifier resolves a raw bearer token to the session it belongs to.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*auth.SessionClaims, error)
}

// NewJWTMiddleware rejects requests without a valid bearer session token and stores
// the session claims in the request context.
func NewJWTMiddleware(verifier SessionVerifier, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				response.Fail(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			claims, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("session verification failed")
				response.Fail(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}

// ClaimsFromContext returns the session claims stored by the JWT middleware.
func ClaimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.SessionClaims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}
