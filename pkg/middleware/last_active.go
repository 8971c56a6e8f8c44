package middleware

import (
	"context"
	"net/http"

	"github.com/n0ll22/HouseholdRPG/pkg/logger"
)

// LastActiveToucher records activity for a user id.
type LastActiveToucher interface {
	TouchLastActive(ctx context.Context, userID string) error
}

// UpdateLastActiveMiddleware stamps the caller's last_active time before
// serving the request. It must run after AuthMiddleware; failures are logged
// and never block the request.
func UpdateLastActiveMiddleware(users LastActiveToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetUserFromContext(r.Context()); claims != nil {
				if err := users.TouchLastActive(r.Context(), claims.UserID); err != nil {
					logger.Log.WithError(err).WithField("userID", claims.UserID).Warn("Failed to update last active")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
