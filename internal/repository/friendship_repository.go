package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendshipRepository stores friend requests and friendships.
type FriendshipRepository struct {
	collection *mongo.Collection
}

// NewFriendshipRepository creates a new FriendshipRepository.
func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		collection: db.Collection("friendships"),
	}
}

// Create inserts a pending friendship. A second record for the same pair
// fails with ErrDuplicate through the unique pair_key index.
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) (*models.Friendship, error) {
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	f.PairKey = models.PairKey(f.SenderID, f.ReceiverID)

	result, err := r.collection.InsertOne(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create friendship: %w", translate(err))
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	f.ID = insertedID
	return f, nil
}

// GetByID retrieves a friendship by its ID.
func (r *FriendshipRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to find friendship: %w", translate(err))
	}
	return &f, nil
}

// FindBetween returns the friendship between a and b regardless of direction.
func (r *FriendshipRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
	}

	var f models.Friendship
	if err := r.collection.FindOne(ctx, filter).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to find friendship: %w", translate(err))
	}
	return &f, nil
}

// UpdateStatus sets the status and blocked_by of a friendship.
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, blockedBy *primitive.ObjectID) error {
	set := bson.M{"status": status, "updated_at": time.Now()}
	update := bson.M{"$set": set}
	if blockedBy != nil {
		set["blocked_by"] = *blockedBy
	} else {
		update["$unset"] = bson.M{"blocked_by": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update friendship status: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update friendship status: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a friendship.
func (r *FriendshipRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("failed to delete friendship: %w", ErrNotFound)
	}

	logrus.WithField("friendshipID", id.Hex()).Info("Friendship deleted")
	return nil
}

// ListForUser returns the user's friendships, newest first. An empty status matches all.
func (r *FriendshipRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %v", err)
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	if err := cursor.All(ctx, &friendships); err != nil {
		return nil, fmt.Errorf("failed to decode friendships: %v", err)
	}
	return friendships, nil
}
