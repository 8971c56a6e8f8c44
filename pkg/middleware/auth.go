package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtutil "github.com/n0ll22/HouseholdRPG/pkg/jwt"
	"github.com/n0ll22/HouseholdRPG/pkg/logger"
)

type contextKey string

const UserContextKey contextKey = "user"

// TokenCookie is the cookie the login handler sets and AuthMiddleware reads.
const TokenCookie = "token"

// AuthMiddleware verifies the session token and stores its claims in the request context.
// The token is taken from the cookie first, then the Authorization header, then ?token=.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtutil.ValidateToken(token, secret)
			if err != nil {
				logger.Log.WithError(err).Warn("Rejected invalid token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the claims stored by AuthMiddleware, or nil.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, _ := ctx.Value(UserContextKey).(*jwtutil.Claims)
	return claims
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
