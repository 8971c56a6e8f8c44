package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
)

// FriendshipHandler serves read access to friendships. Changes go through the
// realtime channel.
type FriendshipHandler struct {
	Service *services.FriendshipService
}

func NewFriendshipHandler(service *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{Service: service}
}

// ListFriendshipsHandler lists the caller's friendships, optionally ?status=.
func (h *FriendshipHandler) ListFriendshipsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("status"))
}

func (h *FriendshipHandler) BlockedHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.FriendshipBlocked)
}

func (h *FriendshipHandler) list(w http.ResponseWriter, r *http.Request, status string) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	friendships, err := h.Service.ListForUser(r.Context(), claims.UserID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friendships)
}

// WithUserHandler returns the friendship between the caller and another user.
func (h *FriendshipHandler) WithUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	friendship, err := h.Service.Between(r.Context(), claims.UserID, mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friendship)
}

func (h *FriendshipHandler) GetFriendshipHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	friendship, err := h.Service.Get(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friendship)
}
