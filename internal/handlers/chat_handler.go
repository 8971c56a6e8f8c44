package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	log "github.com/sirupsen/logrus"
)

// MessageDeliverer pushes a stored message to live connections.
// *realtime.Hub implements it.
type MessageDeliverer interface {
	DeliverMessage(chatID string, msg models.MessageView, participants []string)
}

// ChatHandler serves the chat REST routes.
type ChatHandler struct {
	Service  *services.ChatService
	Delivery MessageDeliverer
}

// NewChatHandler creates a ChatHandler. delivery may be nil, in which case
// messages sent over REST are only stored.
func NewChatHandler(service *services.ChatService, delivery MessageDeliverer) *ChatHandler {
	return &ChatHandler{Service: service, Delivery: delivery}
}

// CreateChatHandler creates a chat for the given participants or returns the
// existing one with created=false.
func (h *ChatHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	var body struct {
		Participants []string `json:"participants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	chat, created, err := h.Service.CreateOrFindChat(r.Context(), claims.UserID, body.Participants)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.WithField("chatID", chat.ID.Hex()).Info("Chat created over REST")
	}
	writeJSON(w, status, map[string]interface{}{
		"chat":    chat,
		"created": created,
	})
}

func (h *ChatHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	chats, err := h.Service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// GetChatHandler returns a chat with its full message history.
func (h *ChatHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	chat, messages, err := h.Service.GetWithMessages(r.Context(), mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat":     chat,
		"messages": messages,
	})
}

// DirectChatHandler finds or creates the two-person chat with another user.
func (h *ChatHandler) DirectChatHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	chat, created, err := h.Service.FindOrCreateDirect(r.Context(), claims.UserID, mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat":    chat,
		"created": created,
	})
}

// SendMessageHandler stores a message from the caller and delivers it to the
// chat's live connections.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	var body struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	msg, participants, err := h.Service.SendMessage(r.Context(), body.ChatID, claims.UserID, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Delivery != nil {
		h.Delivery.DeliverMessage(body.ChatID, *msg, participants)
	}

	log.WithFields(log.Fields{
		"chatID": body.ChatID,
		"msgID":  msg.ID.Hex(),
	}).Info("Message sent over REST")
	writeJSON(w, http.StatusCreated, msg)
}
