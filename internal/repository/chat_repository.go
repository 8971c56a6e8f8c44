package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepository stores chat rooms in the chats collection.
type ChatRepository struct {
	collection *mongo.Collection
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("chats")}
}

// Create inserts a chat. A chat with the same key already stored yields ErrDuplicate.
func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	chat.Key = models.PairKey(chat.Participants...)

	result, err := r.collection.InsertOne(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", translate(err))
	}
	chat.ID = result.InsertedID.(primitive.ObjectID)
	return chat, nil
}

// GetByID retrieves a chat by its ID.
func (r *ChatRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to find chat: %w", translate(err))
	}
	return &chat, nil
}

// FindByKey looks a chat up by its exact participant set.
func (r *ChatRepository) FindByKey(ctx context.Context, key string) (*models.Chat, error) {
	var chat models.Chat
	if err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to find chat by key: %w", translate(err))
	}
	return &chat, nil
}

// SetLatest points the chat at its newest message.
func (r *ChatRepository) SetLatest(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"latest": messageID, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update latest message: %v", err)
	}
	return nil
}

// ListForUser returns the chats the user participates in, most recently active first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %v", err)
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %v", err)
	}
	return chats, nil
}
