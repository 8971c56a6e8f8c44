package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	jwtutil "github.com/n0ll22/HouseholdRPG/pkg/jwt"
	"github.com/n0ll22/HouseholdRPG/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memChats struct {
	services.ChatStore
	chats map[primitive.ObjectID]*models.Chat
}

func (m *memChats) GetByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	c, ok := m.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memChats) SetLatest(_ context.Context, chatID, messageID primitive.ObjectID) error {
	m.chats[chatID].Latest = &messageID
	return nil
}

type memMessages struct {
	services.MessageStore
	saved []models.Message
}

func (m *memMessages) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	m.saved = append(m.saved, *msg)
	return msg, nil
}

type delivery struct {
	chatID       string
	msg          models.MessageView
	participants []string
}

type recordingDeliverer struct {
	mu    sync.Mutex
	calls []delivery
}

func (d *recordingDeliverer) DeliverMessage(chatID string, msg models.MessageView, participants []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, delivery{chatID: chatID, msg: msg, participants: participants})
}

type chatFixture struct {
	router    *mux.Router
	chats     *memChats
	messages  *memMessages
	delivered *recordingDeliverer
	users     *memUsers
}

func (f *chatFixture) addUser(name string) models.User {
	u := models.User{ID: primitive.NewObjectID(), Username: name, Email: name + "@household.test", Lvl: 1}
	f.users.mu.Lock()
	f.users.users[u.ID] = u
	f.users.mu.Unlock()
	return u
}

func (f *chatFixture) addChat(members ...models.User) primitive.ObjectID {
	chat := &models.Chat{ID: primitive.NewObjectID()}
	for _, m := range members {
		chat.Participants = append(chat.Participants, m.ID)
	}
	f.chats.chats[chat.ID] = chat
	return chat.ID
}

func (f *chatFixture) session(t *testing.T, u models.User) *http.Cookie {
	t.Helper()
	token, err := jwtutil.GenerateToken(u.ID.Hex(), u.Email, false, testConfig().JWTSecret, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.TokenCookie, Value: token}
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		chats:     &memChats{chats: map[primitive.ObjectID]*models.Chat{}},
		messages:  &memMessages{},
		delivered: &recordingDeliverer{},
		users:     newMemUsers(),
	}
	h := NewChatHandler(services.NewChatService(f.chats, f.messages, f.users), f.delivered)

	f.router = mux.NewRouter()
	chats := f.router.PathPrefix("/chats").Subrouter()
	chats.Use(middleware.AuthMiddleware(testConfig().JWTSecret))
	chats.HandleFunc("/messages", h.SendMessageHandler).Methods("POST")
	return f
}

func TestSendMessageOverREST(t *testing.T) {
	f := newChatFixture()
	anna, bela := f.addUser("anna"), f.addUser("bela")
	chatID := f.addChat(anna, bela)

	rec := do(f.router, "POST", "/chats/messages", `{"chatId":"` + chatID.Hex() + `","content":"  dishes are done  "}`, f.session(t, anna))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"content":"dishes are done"`)
	require.Len(t, f.messages.saved, 1)
	assert.Equal(t, anna.ID, f.messages.saved[0].SenderID)

	require.Len(t, f.delivered.calls, 1)
	call := f.delivered.calls[0]
	assert.Equal(t, chatID.Hex(), call.chatID)
	assert.Equal(t, "anna", call.msg.Sender.Username)
	assert.ElementsMatch(t, []string{anna.ID.Hex(), bela.ID.Hex()}, call.participants)
	assert.Equal(t, f.messages.saved[0].ID, *f.chats.chats[chatID].Latest)
}

func TestSendMessageOverRESTRejects(t *testing.T) {
	f := newChatFixture()
	anna, bela, csaba := f.addUser("anna"), f.addUser("bela"), f.addUser("csaba")
	chatID := f.addChat(anna, bela)

	cases := []struct {
		name   string
		as     models.User
		body   string
		status int
	}{
		{"not a member", csaba, `{"chatId":"` + chatID.Hex() + `","content":"hi"}`, http.StatusForbidden},
		{"blank content", anna, `{"chatId":"` + chatID.Hex() + `","content":"   "}`, http.StatusBadRequest},
		{"unknown chat", anna, `{"chatId":"` + primitive.NewObjectID().Hex() + `","content":"hi"}`, http.StatusNotFound},
		{"bad json", anna, `{"chatId":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(f.router, "POST", "/chats/messages", tc.body, f.session(t, tc.as))
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	assert.Empty(t, f.messages.saved)
	assert.Empty(t, f.delivered.calls)

	rec := do(f.router, "POST", "/chats/messages", `{"chatId":"` + chatID.Hex() + `","content":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
