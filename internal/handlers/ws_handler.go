package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/n0ll22/HouseholdRPG/internal/realtime"
	log "github.com/sirupsen/logrus"
)

// WSHandler upgrades authenticated requests to the realtime channel.
type WSHandler struct {
	Hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from allowedOrigin only. An empty
// allowedOrigin accepts same-origin requests.
func NewWSHandler(hub *realtime.Hub, allowedOrigin string) *WSHandler {
	h := &WSHandler{Hub: hub}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if allowedOrigin != "" {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || strings.EqualFold(origin, allowedOrigin)
		}
	}
	return h
}

// ServeWS runs the connection until it closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims := requireClaims(w, r)
	if claims == nil {
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client, err := h.Hub.NewClient(ws, claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to create realtime client")
		ws.Close()
		return
	}

	log.WithFields(log.Fields{
		"userID": claims.UserID,
		"connID": client.ID(),
	}).Info("WebSocket connected")
	client.Run()
	log.WithField("connID", client.ID()).Info("WebSocket disconnected")
}
