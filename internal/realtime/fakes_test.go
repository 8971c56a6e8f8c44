package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeConn struct {
	id     string
	userID string

	mu     sync.Mutex
	events []Event
	closed bool
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) AuthUserID() string { return c.userID }

func (c *fakeConn) Send(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// named returns the received events called name, oldest first.
func (c *fakeConn) named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// statuses returns the status values of the receive_status events about userID.
func (c *fakeConn) statuses(userID string) []string {
	var out []string
	for _, ev := range c.named(EventReceiveStatus) {
		u := ev.Data.(models.PublicUser)
		if u.ID.Hex() == userID {
			out = append(out, u.Status)
		}
	}
	return out
}

func newUserID() string { return primitive.NewObjectID().Hex() }

func mustID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

type fakePresence struct {
	mu       sync.Mutex
	bindings map[string]string
	online   map[string]bool
	offline  int
	err      error
}

func newFakePresence() *fakePresence {
	return &fakePresence{bindings: map[string]string{}, online: map[string]bool{}}
}

func (p *fakePresence) GoOnline(_ context.Context, userID, connID string) (*models.PublicUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.bindings[userID] = connID
	p.online[userID] = true
	return &models.PublicUser{ID: mustID(userID), Status: models.StatusOnline}, nil
}

func (p *fakePresence) GoOffline(_ context.Context, userID, connID string) (*models.PublicUser, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b := p.bindings[userID]; b != "" && b != connID {
		return nil, false, nil
	}
	p.bindings[userID] = ""
	p.online[userID] = false
	p.offline++
	return &models.PublicUser{ID: mustID(userID), Status: models.StatusOffline}, true, nil
}

func (p *fakePresence) Sweep(_ context.Context, isLive func(string) bool) ([]models.PublicUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var changed []models.PublicUser
	for userID, on := range p.online {
		if on && !isLive(userID) {
			p.online[userID] = false
			p.bindings[userID] = ""
			changed = append(changed, models.PublicUser{ID: mustID(userID), Status: models.StatusOffline})
		}
	}
	return changed, nil
}

func (p *fakePresence) isOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) offlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offline
}

type fakeChats struct {
	mu    sync.Mutex
	chats map[string][]string
}

func newFakeChats() *fakeChats {
	return &fakeChats{chats: map[string][]string{}}
}

func (f *fakeChats) add(participants ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID().Hex()
	f.chats[id] = participants
	return id
}

func (f *fakeChats) CreateOrFindChat(_ context.Context, actorID string, ids []string) (*models.ChatView, bool, error) {
	key := models.PairKey(toIDs(ids)...)
	f.mu.Lock()
	for id, members := range f.chats {
		if models.PairKey(toIDs(members)...) == key {
			f.mu.Unlock()
			return &models.ChatView{ID: mustID(id)}, false, nil
		}
	}
	f.mu.Unlock()
	id := f.add(ids...)
	return &models.ChatView{ID: mustID(id), IsGroup: len(ids) > 2}, true, nil
}

func (f *fakeChats) CanJoin(_ context.Context, chatID, userID string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, services.ErrNotFound)
	}
	for _, m := range members {
		if m == userID {
			return &models.Chat{ID: mustID(chatID), Participants: toIDs(members)}, nil
		}
	}
	return nil, fmt.Errorf("not a member: %w", services.ErrUnauthorized)
}

func (f *fakeChats) SendMessage(ctx context.Context, chatID, senderID, content string) (*models.MessageView, []string, error) {
	chat, err := f.CanJoin(ctx, chatID, senderID)
	if err != nil {
		return nil, nil, err
	}
	participants := make([]string, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		participants = append(participants, p.Hex())
	}
	return &models.MessageView{
		ID:      primitive.NewObjectID(),
		ChatID:  chat.ID,
		Sender:  models.PublicUser{ID: mustID(senderID)},
		Content: content,
	}, participants, nil
}

func toIDs(hex []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(hex))
	for _, h := range hex {
		out = append(out, mustID(h))
	}
	return out
}

type fakeFriendships struct {
	mu   sync.Mutex
	sent int
	err  error
	byID map[string]*models.FriendshipView
}

func newFakeFriendships() *fakeFriendships {
	return &fakeFriendships{byID: map[string]*models.FriendshipView{}}
}

func (f *fakeFriendships) SendRequest(_ context.Context, senderID, receiverID string) (*models.FriendshipView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent++
	v := &models.FriendshipView{
		ID:       primitive.NewObjectID(),
		Sender:   models.PublicUser{ID: mustID(senderID)},
		Receiver: models.PublicUser{ID: mustID(receiverID)},
		Status:   models.FriendshipPending,
	}
	f.byID[v.ID.Hex()] = v
	return v, nil
}

func (f *fakeFriendships) Answer(_ context.Context, actorID, id, status string) (*models.FriendshipView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("friendship %s: %w", id, services.ErrNotFound)
	}
	if v.Receiver.ID.Hex() != actorID {
		return nil, fmt.Errorf("not the receiver: %w", services.ErrUnauthorized)
	}
	out := *v
	out.Status = status
	if status == models.FriendshipRefused {
		delete(f.byID, id)
	} else {
		v.Status = status
	}
	return &out, nil
}

func (f *fakeFriendships) Unsend(_ context.Context, actorID, id string) (*models.FriendshipView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("friendship %s: %w", id, services.ErrNotFound)
	}
	delete(f.byID, id)
	return v, nil
}

func (f *fakeFriendships) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}
