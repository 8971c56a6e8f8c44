package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore backs all four store interfaces with maps and mirrors the unique
// indexes the Mongo collections carry.
type memStore struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	friendships map[primitive.ObjectID]*models.Friendship
	chats       map[primitive.ObjectID]*models.Chat
	messages    map[primitive.ObjectID]*models.Message
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[primitive.ObjectID]*models.User{},
		friendships: map[primitive.ObjectID]*models.Friendship{},
		chats:       map[primitive.ObjectID]*models.Chat{},
		messages:    map[primitive.ObjectID]*models.Message{},
	}
}

func (m *memStore) addUser(name string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{
		ID:          primitive.NewObjectID(),
		Username:    name,
		Email:       name + "@household.test",
		Lvl:         1,
		Status:      models.StatusOffline,
		Friendships: []primitive.ObjectID{},
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) user(id primitive.ObjectID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

type userStore struct{ *memStore }
type friendshipStore struct{ *memStore }
type chatStore struct{ *memStore }
type messageStore struct{ *memStore }

func (s userStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return user, nil
}

func (s userStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s userStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s userStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s userStore) SetOnline(_ context.Context, id primitive.ObjectID, connID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Status == models.StatusDeleted {
		return nil, repository.ErrNotFound
	}
	u.Status = models.StatusOnline
	u.ConnectionID = connID
	cp := *u
	return &cp, nil
}

func (s userStore) SetOfflineIfBound(_ context.Context, id primitive.ObjectID, connID string) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Status != models.StatusOnline {
		return nil, false, nil
	}
	if u.ConnectionID != connID && u.ConnectionID != "" {
		return nil, false, nil
	}
	u.Status = models.StatusOffline
	u.ConnectionID = ""
	u.LastActive = time.Now()
	cp := *u
	return &cp, true, nil
}

func (s userStore) TouchLastActive(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastActive = time.Now()
	return nil
}

func (s userStore) FindOnline(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Status == models.StatusOnline {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s userStore) AddFriendship(_ context.Context, fid primitive.ObjectID, userIDs ...primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range userIDs {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		present := false
		for _, f := range u.Friendships {
			present = present || f == fid
		}
		if !present {
			u.Friendships = append(u.Friendships, fid)
		}
	}
	return nil
}

func (s userStore) PullFriendship(_ context.Context, fid primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		kept := []primitive.ObjectID{}
		for _, f := range u.Friendships {
			if f != fid {
				kept = append(kept, f)
			}
		}
		u.Friendships = kept
	}
	return nil
}

func (s friendshipStore) Create(_ context.Context, f *models.Friendship) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.PairKey = models.PairKey(f.SenderID, f.ReceiverID)
	for _, existing := range s.friendships {
		if existing.PairKey == f.PairKey {
			return nil, repository.ErrDuplicate
		}
	}
	f.ID = primitive.NewObjectID()
	f.CreatedAt = time.Now()
	cp := *f
	s.friendships[f.ID] = &cp
	return f, nil
}

func (s friendshipStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s friendshipStore) FindBetween(_ context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.PairKey(a, b)
	for _, f := range s.friendships {
		if f.PairKey == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s friendshipStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status string, blockedBy *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Status = status
	f.BlockedBy = blockedBy
	return nil
}

func (s friendshipStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.friendships, id)
	return nil
}

func (s friendshipStore) ListForUser(_ context.Context, userID primitive.ObjectID, status string) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Friendship
	for _, f := range s.friendships {
		if f.Involves(userID) && (status == "" || f.Status == status) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s chatStore) Create(_ context.Context, chat *models.Chat) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat.Key = models.PairKey(chat.Participants...)
	for _, c := range s.chats {
		if c.Key == chat.Key {
			return nil, repository.ErrDuplicate
		}
	}
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	cp := *chat
	s.chats[chat.ID] = &cp
	return chat, nil
}

func (s chatStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s chatStore) FindByKey(_ context.Context, key string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.Key == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s chatStore) SetLatest(_ context.Context, chatID, messageID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chats[chatID]; ok {
		c.Latest = &messageID
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (s chatStore) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s messageStore) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	cp := *msg
	s.messages[msg.ID] = &cp
	return msg, nil
}

func (s messageStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s messageStore) ListByChat(_ context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}
