package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"github.com/sirupsen/logrus"
)

// Conn is one live client connection as the hub sees it.
type Conn interface {
	ID() string
	// AuthUserID is the identity authenticated when the connection was opened.
	AuthUserID() string
	// Send queues ev without blocking and reports whether it was accepted.
	Send(ev Event) bool
	Close()
}

// PresenceService persists online/offline transitions.
type PresenceService interface {
	GoOnline(ctx context.Context, userID, connID string) (*models.PublicUser, error)
	GoOffline(ctx context.Context, userID, connID string) (*models.PublicUser, bool, error)
	Sweep(ctx context.Context, isLive func(userID string) bool) ([]models.PublicUser, error)
}

// ChatService resolves chats and stores messages for the chat events.
type ChatService interface {
	CreateOrFindChat(ctx context.Context, actorID string, participantIDs []string) (*models.ChatView, bool, error)
	CanJoin(ctx context.Context, chatID, userID string) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID, content string) (*models.MessageView, []string, error)
}

// FriendshipService runs the friend request negotiation.
type FriendshipService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendshipView, error)
	Answer(ctx context.Context, actorID, friendshipID, status string) (*models.FriendshipView, error)
	Unsend(ctx context.Context, actorID, friendshipID string) (*models.FriendshipView, error)
}

// Options tunes the hub. Zero values fall back to the defaults.
type Options struct {
	GracePeriod  time.Duration
	StoreTimeout time.Duration
	SendQueue    int
}

func (o *Options) defaults() {
	if o.GracePeriod <= 0 {
		o.GracePeriod = 5 * time.Second
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 64
	}
}

type session struct {
	conn   Conn
	userID string
}

// Hub owns every live connection, the presence registry, the chat rooms and
// the pending offline timers.
type Hub struct {
	presence    PresenceService
	chats       ChatService
	friendships FriendshipService

	registry *Registry
	grace    *Grace
	rooms    *Rooms
	metrics  *hubMetrics
	opts     Options

	mu    sync.RWMutex
	conns map[string]*session
}

// NewHub wires a hub over the given services.
func NewHub(presence PresenceService, chats ChatService, friendships FriendshipService, opts Options) *Hub {
	opts.defaults()
	return &Hub{
		presence:    presence,
		chats:       chats,
		friendships: friendships,
		registry:    NewRegistry(),
		grace:       NewGrace(),
		rooms:       NewRooms(),
		metrics:     newHubMetrics(),
		opts:        opts,
		conns:       make(map[string]*session),
	}
}

// Connect records a new connection. It has no presence effect until the
// client sends register_user.
func (h *Hub) Connect(conn Conn) {
	h.mu.Lock()
	h.conns[conn.ID()] = &session{conn: conn}
	h.mu.Unlock()

	h.metrics.connected(1)
	logrus.WithFields(logrus.Fields{
		"connID": conn.ID(),
		"userID": conn.AuthUserID(),
	}).Debug("Connection opened")
}

// Disconnect forgets the connection and, if it is still the one bound to its
// user, arms the grace timer that will take the user offline.
// The timer is armed before the connection is dropped from the live set so a
// concurrent sweep never sees the user bound, disconnected and untimed.
func (h *Hub) Disconnect(conn Conn) {
	connID := conn.ID()

	h.mu.RLock()
	s, ok := h.conns[connID]
	userID := ""
	if ok {
		userID = s.userID
	}
	h.mu.RUnlock()
	if !ok {
		return
	}

	armed := false
	if userID != "" {
		// a displaced connection has nothing to take offline
		if cur, bound := h.registry.Lookup(userID); bound && cur.ID() == connID {
			h.grace.Arm(userID, h.opts.GracePeriod, func() { h.expire(userID, connID) })
			armed = true
		}
	}

	h.mu.Lock()
	_, ok = h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()
	if !ok {
		return
	}

	h.metrics.connected(-1)
	h.rooms.LeaveAll(connID)

	if armed {
		logrus.WithFields(logrus.Fields{
			"connID": connID,
			"userID": userID,
			"grace":  h.opts.GracePeriod.String(),
		}).Debug("Connection closed, offline timer armed")
	}
}

// Handle decodes one inbound frame and runs it. Frames from one connection
// are handled one at a time by its read loop.
func (h *Hub) Handle(conn Conn, raw []byte) {
	cmd, err := Decode(raw)
	if err != nil {
		var de *DecodeError
		event := ""
		if errors.As(err, &de) {
			event = de.Event
		}
		h.reject(conn, event, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err))
		return
	}

	h.metrics.handled(cmd.Event())

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.StoreTimeout)
	defer cancel()

	switch c := cmd.(type) {
	case *RegisterUser:
		h.registerUser(ctx, conn, c)
	case *JoinChat:
		h.joinChat(ctx, conn, c)
	case *NewChat:
		h.newChat(ctx, conn, c)
	case *SendMessage:
		h.sendMessage(ctx, conn, c)
	case *SendFriendRequest:
		h.sendFriendRequest(ctx, conn, c)
	case *AnswerFriendRequest:
		h.answerFriendRequest(ctx, conn, c)
	case *UnsendFriendRequest:
		h.unsendFriendRequest(ctx, conn, c)
	}
}

// Broadcast sends ev to every open connection.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, s := range h.conns {
		targets = append(targets, s.conn)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(ev)
	}
}

// SendTo delivers ev to the connection bound to userID. It reports false when
// the user has no bound connection.
func (h *Hub) SendTo(userID string, ev Event) bool {
	conn, ok := h.registry.Lookup(userID)
	if !ok {
		return false
	}
	return conn.Send(ev)
}

// Online reports whether userID has a bound connection.
func (h *Hub) Online(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown drops pending offline timers and closes every connection.
func (h *Hub) Shutdown() {
	h.grace.Stop()

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, s := range h.conns {
		conns = append(conns, s.conn)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
	logrus.WithField("connections", len(conns)).Info("Realtime hub stopped")
}

func (h *Hub) bind(conn Conn, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.conns[conn.ID()]
	if !ok {
		return false
	}
	s.userID = userID
	return true
}

func (h *Hub) connected(connID string) bool {
	h.mu.RLock()
	_, ok := h.conns[connID]
	h.mu.RUnlock()
	return ok
}

// actor is the identity commands from conn act as.
func (h *Hub) actor(conn Conn) string {
	return conn.AuthUserID()
}

func (h *Hub) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.opts.StoreTimeout)
}

// reject logs err and answers conn with the error event that belongs to event.
func (h *Hub) reject(conn Conn, event string, err error) {
	code := services.Code(err)

	message := err.Error()
	entry := logrus.WithFields(logrus.Fields{
		"connID": conn.ID(),
		"userID": conn.AuthUserID(),
		"event":  event,
		"code":   code,
	}).WithError(err)
	if code == services.CodeStoreFailure {
		entry.Error("Realtime event failed")
		message = "internal error"
	} else {
		entry.Warn("Realtime event rejected")
	}

	h.metrics.failed(event, code)
	conn.Send(ErrorEvent(errorEventFor(event), code, message, event))
}
