package services

import (
	"context"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the slice of the user collection the services need.
// *repository.UserRepository implements it.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	SetOnline(ctx context.Context, id primitive.ObjectID, connID string) (*models.User, error)
	SetOfflineIfBound(ctx context.Context, id primitive.ObjectID, connID string) (*models.User, bool, error)
	FindOnline(ctx context.Context) ([]models.User, error)
	TouchLastActive(ctx context.Context, id primitive.ObjectID) error
	AddFriendship(ctx context.Context, friendshipID primitive.ObjectID, userIDs ...primitive.ObjectID) error
	PullFriendship(ctx context.Context, friendshipID primitive.ObjectID) error
}

// FriendshipStore is implemented by *repository.FriendshipRepository.
type FriendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) (*models.Friendship, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Friendship, error)
	FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, blockedBy *primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.Friendship, error)
}

// ChatStore is implemented by *repository.ChatRepository.
type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindByKey(ctx context.Context, key string) (*models.Chat, error)
	SetLatest(ctx context.Context, chatID, messageID primitive.ObjectID) error
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
}

// MessageStore is implemented by *repository.MessageRepository.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error)
}

// publicUsers loads the public profiles of ids keyed by id.
func publicUsers(ctx context.Context, users UserStore, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error) {
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("load users", err)
	}
	out := make(map[primitive.ObjectID]models.PublicUser, len(found))
	for i := range found {
		out[found[i].ID] = found[i].Public()
	}
	return out, nil
}
