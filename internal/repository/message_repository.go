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

// MessageRepository stores chat messages.
type MessageRepository struct {
	collection *mongo.Collection
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection("messages")}
}

// Create inserts a message stamped with the current time.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", translate(err))
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// GetByID retrieves a message by its ID.
func (r *MessageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to find message: %w", translate(err))
	}
	return &msg, nil
}

// ListByChat returns a chat's messages in creation order.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}
	return messages, nil
}
