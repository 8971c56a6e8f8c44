package realtime

import (
	"context"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"github.com/sirupsen/logrus"
)

func (h *Hub) sendFriendRequest(ctx context.Context, conn Conn, c *SendFriendRequest) {
	actor := h.actor(conn)
	if c.SenderID != actor {
		h.reject(conn, EventSendFriendRequest, fmt.Errorf("send as %s: %w", c.SenderID, services.ErrUnauthorized))
		return
	}

	f, err := h.friendships.SendRequest(ctx, actor, c.ReceiverID)
	if err != nil {
		h.reject(conn, EventSendFriendRequest, err)
		return
	}

	// an offline receiver sees the pending record on next login
	delivered := h.SendTo(c.ReceiverID, FriendRequestEvent(*f))
	conn.Send(FriendRequestSentEvent(*f))

	logrus.WithFields(logrus.Fields{
		"friendshipID": f.ID.Hex(),
		"delivered":    delivered,
	}).Debug("Friend request delivered")
}

func (h *Hub) answerFriendRequest(ctx context.Context, conn Conn, c *AnswerFriendRequest) {
	f, err := h.friendships.Answer(ctx, h.actor(conn), c.ID, c.Status)
	if err != nil {
		h.reject(conn, EventAnswerFriendRequest, err)
		return
	}
	h.toParties(conn, f, FriendRequestAnswerEvent(*f))
}

func (h *Hub) unsendFriendRequest(ctx context.Context, conn Conn, c *UnsendFriendRequest) {
	f, err := h.friendships.Unsend(ctx, h.actor(conn), c.FriendshipID)
	if err != nil {
		h.reject(conn, EventUnsendFriendRequest, err)
		return
	}
	h.toParties(conn, f, UnsentFriendRequestEvent(f.ID))
}

// toParties sends ev to both parties' bound connections. The acting
// connection always gets it, bound or not.
func (h *Hub) toParties(conn Conn, f *models.FriendshipView, ev Event) {
	actorReached := false
	for _, party := range []string{f.Sender.ID.Hex(), f.Receiver.ID.Hex()} {
		bound, ok := h.registry.Lookup(party)
		if !ok {
			continue
		}
		bound.Send(ev)
		if bound.ID() == conn.ID() {
			actorReached = true
		}
	}
	if !actorReached {
		conn.Send(ev)
	}

	logrus.WithFields(logrus.Fields{
		"friendshipID": f.ID.Hex(),
		"event":        ev.Name,
	}).Debug("Friendship update delivered")
}
