package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtutil "github.com/n0ll22/HouseholdRPG/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type touchRecorder struct {
	touched []string
	err     error
}

func (t *touchRecorder) TouchLastActive(_ context.Context, userID string) error {
	t.touched = append(t.touched, userID)
	return t.err
}

func TestUpdateLastActiveMiddleware(t *testing.T) {
	token, err := jwtutil.GenerateToken("u1", "u1@example.com", false, "secret", time.Hour)
	require.NoError(t, err)

	for name, touchErr := range map[string]error{"ok": nil, "store down": errors.New("boom")} {
		t.Run(name, func(t *testing.T) {
			rec := &touchRecorder{err: touchErr}
			h := AuthMiddleware("secret")(UpdateLastActiveMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})))

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, []string{"u1"}, rec.touched)
		})
	}
}

func TestUpdateLastActiveMiddlewareAnonymous(t *testing.T) {
	rec := &touchRecorder{}
	h := UpdateLastActiveMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.touched)
}
