package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxMessageLength = 2000

// ChatService handles chat rooms and messages.
type ChatService struct {
	chats    ChatStore
	messages MessageStore
	users    UserStore
}

// NewChatService creates a new ChatService.
func NewChatService(chats ChatStore, messages MessageStore, users UserStore) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
	}
}

// CreateOrFindChat returns the chat whose participant set is exactly
// participantHex, creating it if none exists. The bool reports creation.
func (s *ChatService) CreateOrFindChat(ctx context.Context, actorHex string, participantHex []string) (*models.ChatView, bool, error) {
	actorID, err := parseID(actorHex, "user id")
	if err != nil {
		return nil, false, err
	}

	seen := make(map[primitive.ObjectID]bool, len(participantHex))
	participants := make([]primitive.ObjectID, 0, len(participantHex))
	for _, h := range participantHex {
		id, err := parseID(h, "participant id")
		if err != nil {
			return nil, false, err
		}
		if !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}
	if len(participants) < 2 {
		return nil, false, fmt.Errorf("a chat needs at least two participants: %w", ErrInvalidRequest)
	}
	if !seen[actorID] {
		return nil, false, fmt.Errorf("user %s is not among the participants: %w", actorHex, ErrUnauthorized)
	}

	key := models.PairKey(participants...)
	existing, err := s.chats.FindByKey(ctx, key)
	if err == nil {
		view, err := s.view(ctx, existing)
		return view, false, err
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeErr("find chat", err)
	}

	profiles, err := publicUsers(ctx, s.users, participants)
	if err != nil {
		return nil, false, err
	}
	if len(profiles) != len(participants) {
		return nil, false, fmt.Errorf("unknown participant: %w", ErrNotFound)
	}

	chat, err := s.chats.Create(ctx, &models.Chat{
		IsGroup:      len(participants) > 2,
		Participants: participants,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// someone created the same room in between
		winner, err := s.chats.FindByKey(ctx, key)
		if err != nil {
			return nil, false, storeErr("find chat", err)
		}
		view, err := s.view(ctx, winner)
		return view, false, err
	}
	if err != nil {
		return nil, false, storeErr("create chat", err)
	}

	logrus.WithFields(logrus.Fields{
		"chatID":       chat.ID.Hex(),
		"participants": len(participants),
	}).Info("Chat created")

	view, err := s.view(ctx, chat)
	return view, true, err
}

// FindOrCreateDirect returns the two-person chat between the actor and other.
func (s *ChatService) FindOrCreateDirect(ctx context.Context, actorHex, otherHex string) (*models.ChatView, bool, error) {
	return s.CreateOrFindChat(ctx, actorHex, []string{actorHex, otherHex})
}

// CanJoin checks that the chat exists and the user participates in it.
func (s *ChatService) CanJoin(ctx context.Context, chatHex, userHex string) (*models.Chat, error) {
	userID, err := parseID(userHex, "user id")
	if err != nil {
		return nil, err
	}
	return s.memberChat(ctx, chatHex, userID)
}

// SendMessage persists a message, moves the chat's latest pointer and returns
// the populated message plus the hex ids of every participant.
func (s *ChatService) SendMessage(ctx context.Context, chatHex, senderHex, content string) (*models.MessageView, []string, error) {
	senderID, err := parseID(senderHex, "sender id")
	if err != nil {
		return nil, nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("empty message: %w", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, nil, fmt.Errorf("message longer than %d characters: %w", MaxMessageLength, ErrInvalidRequest)
	}

	chat, err := s.memberChat(ctx, chatHex, senderID)
	if err != nil {
		return nil, nil, err
	}

	msg, err := s.messages.Create(ctx, &models.Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  content,
	})
	if err != nil {
		return nil, nil, storeErr("save message", err)
	}
	if err := s.chats.SetLatest(ctx, chat.ID, msg.ID); err != nil {
		return nil, nil, storeErr("update chat", err)
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, nil, storeErr("load sender", err)
	}

	participants := make([]string, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		participants = append(participants, p.Hex())
	}

	view := toMessageView(msg, sender.Public())
	return &view, participants, nil
}

// ListForUser returns the user's chats with participants and latest message.
func (s *ChatService) ListForUser(ctx context.Context, userHex string) ([]models.ChatView, error) {
	userID, err := parseID(userHex, "user id")
	if err != nil {
		return nil, err
	}

	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list chats", err)
	}

	views := make([]models.ChatView, 0, len(chats))
	for i := range chats {
		v, err := s.view(ctx, &chats[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetWithMessages returns a chat the user participates in and its history.
func (s *ChatService) GetWithMessages(ctx context.Context, chatHex, userHex string) (*models.ChatView, []models.MessageView, error) {
	userID, err := parseID(userHex, "user id")
	if err != nil {
		return nil, nil, err
	}
	chat, err := s.memberChat(ctx, chatHex, userID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, nil, storeErr("list messages", err)
	}
	profiles, err := publicUsers(ctx, s.users, chat.Participants)
	if err != nil {
		return nil, nil, err
	}

	history := make([]models.MessageView, 0, len(msgs))
	for i := range msgs {
		history = append(history, toMessageView(&msgs[i], profileOrGhost(profiles, msgs[i].SenderID)))
	}

	view, err := s.view(ctx, chat)
	if err != nil {
		return nil, nil, err
	}
	return view, history, nil
}

func (s *ChatService) memberChat(ctx context.Context, chatHex string, userID primitive.ObjectID) (*models.Chat, error) {
	chatID, err := parseID(chatHex, "chat id")
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, storeErr("load chat", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, fmt.Errorf("user %s is not in chat %s: %w", userID.Hex(), chatHex, ErrUnauthorized)
	}
	return chat, nil
}

func (s *ChatService) view(ctx context.Context, chat *models.Chat) (*models.ChatView, error) {
	profiles, err := publicUsers(ctx, s.users, chat.Participants)
	if err != nil {
		return nil, err
	}

	view := &models.ChatView{
		ID:           chat.ID,
		Name:         chat.Name,
		IsGroup:      chat.IsGroup,
		Participants: make([]models.PublicUser, 0, len(chat.Participants)),
		CreatedAt:    chat.CreatedAt,
	}
	for _, p := range chat.Participants {
		view.Participants = append(view.Participants, profileOrGhost(profiles, p))
	}

	if chat.Latest != nil {
		msg, err := s.messages.GetByID(ctx, *chat.Latest)
		switch {
		case err == nil:
			latest := toMessageView(msg, profileOrGhost(profiles, msg.SenderID))
			view.Latest = &latest
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, storeErr("load latest message", err)
		}
	}
	return view, nil
}

func profileOrGhost(profiles map[primitive.ObjectID]models.PublicUser, id primitive.ObjectID) models.PublicUser {
	if p, ok := profiles[id]; ok {
		return p
	}
	return models.PublicUser{ID: id, Status: models.StatusDeleted}
}

func toMessageView(msg *models.Message, sender models.PublicUser) models.MessageView {
	return models.MessageView{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Sender:    sender,
		Content:   msg.Content,
		Seen:      msg.Seen,
		CreatedAt: msg.CreatedAt,
	}
}
