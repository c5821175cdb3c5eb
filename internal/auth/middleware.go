// Package auth carries the thin identity collaborator: bearer-token
// middleware that resolves the acting student for exam endpoints.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examadapt/adaptive-engine/internal/auth/jwt"
	httperrors "github.com/examadapt/adaptive-engine/pkg/http/errors"
)

type claimsKey struct{}

// Middleware validates JWT bearer tokens and injects claims into the request
// context. Requests without a token are rejected: every exam endpoint acts on
// behalf of a specific student.
func Middleware(tokens *jwt.Manager, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid authorization header")
				return
			}

			claims, err := tokens.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StudentFromContext returns the authenticated student id, or uuid.Nil when
// the request was not authenticated.
func StudentFromContext(ctx context.Context) uuid.UUID {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	if !ok || claims == nil {
		return uuid.Nil
	}
	return claims.StudentID
}
