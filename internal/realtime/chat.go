package realtime

import (
	"context"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"github.com/sirupsen/logrus"
)

func (h *Hub) joinChat(ctx context.Context, conn Conn, c *JoinChat) {
	if _, err := h.chats.CanJoin(ctx, c.ChatID, h.actor(conn)); err != nil {
		h.reject(conn, EventJoinChat, err)
		return
	}

	h.rooms.Join(c.ChatID, conn)
	conn.Send(ChatJoinedEvent(c.ChatID))

	logrus.WithFields(logrus.Fields{
		"chatID": c.ChatID,
		"connID": conn.ID(),
	}).Debug("Connection joined chat")
}

// newChat answers only the requesting connection.
func (h *Hub) newChat(ctx context.Context, conn Conn, c *NewChat) {
	chat, created, err := h.chats.CreateOrFindChat(ctx, h.actor(conn), c.ParticipantIDs)
	if err != nil {
		h.reject(conn, EventNewChat, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"chatID":  chat.ID.Hex(),
		"created": created,
	}).Debug("Chat resolved")
	conn.Send(NewChatEvent(*chat))
}

func (h *Hub) sendMessage(ctx context.Context, conn Conn, c *SendMessage) {
	actor := h.actor(conn)
	if c.SenderID != actor {
		h.reject(conn, EventSendMessage, fmt.Errorf("send as %s: %w", c.SenderID, services.ErrUnauthorized))
		return
	}

	msg, participants, err := h.chats.SendMessage(ctx, c.ChatID, actor, c.Content)
	if err != nil {
		h.reject(conn, EventSendMessage, err)
		return
	}

	h.DeliverMessage(c.ChatID, *msg, participants)
}

// DeliverMessage publishes a stored message to the chat room as
// receive_message and to every bound participant as newMessage.
func (h *Hub) DeliverMessage(chatID string, msg models.MessageView, participants []string) {
	inRoom := h.rooms.Publish(chatID, MessageEvent(msg))

	notify := NewMessageEvent(msg)
	notified := 0
	for _, p := range participants {
		if h.SendTo(p, notify) {
			notified++
		}
	}

	logrus.WithFields(logrus.Fields{
		"chatID":   chatID,
		"msgID":    msg.ID.Hex(),
		"inRoom":   inRoom,
		"notified": notified,
	}).Debug("Message delivered")
}
