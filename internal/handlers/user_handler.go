package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/n0ll22/HouseholdRPG/internal/config"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	jwtutil "github.com/n0ll22/HouseholdRPG/pkg/jwt"
	"github.com/n0ll22/HouseholdRPG/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.WithError(err).Warn("Failed to decode user registration request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.RegisterUser(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// LoginUserHandler checks the credentials and sets the session cookie.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.WithField("email", credentials.Email).Warn("Authentication failed")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.IsAdmin, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.Config.TokenExpiry),
		HttpOnly: true,
		Secure:   h.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	writeJSON(w, http.StatusOK, user)
}

// LogoutUserHandler clears the session cookie.
func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler returns the logged-in user's own profile.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	user, err := h.Service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserHandler returns another player's public profile.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.Service.GetPublicUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
