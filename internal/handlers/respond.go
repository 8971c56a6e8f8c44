package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	jwtutil "github.com/n0ll22/HouseholdRPG/pkg/jwt"
	"github.com/n0ll22/HouseholdRPG/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch services.Code(err) {
	case services.CodeInvalidRequest:
		return http.StatusBadRequest
	case services.CodeAlreadyExists, services.CodeAlreadyPending, services.CodeAlreadyBlocked:
		return http.StatusConflict
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {code, message}. Store failures keep their cause
// in the log only.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		message = "internal error"
	} else {
		log.WithError(err).Warn("Request rejected")
	}
	writeJSON(w, status, map[string]string{
		"code":    services.Code(err),
		"message": message,
	})
}

func requireClaims(w http.ResponseWriter, r *http.Request) *jwtutil.Claims {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return claims
}
