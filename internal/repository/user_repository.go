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

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friendships == nil {
		user.Friendships = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %w", translate(err))
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", translate(err))
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Debug("Failed to find user by ID")
		return nil, fmt.Errorf("failed to find user by id: %w", translate(err))
	}
	return &user, nil
}

// GetUsersByIDs fetches user details for a list of ObjectIDs.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by IDs: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

// SetOnline binds the user to connID and marks them online, returning the
// updated user. Deleted accounts are reported as not found.
func (r *UserRepository) SetOnline(ctx context.Context, id primitive.ObjectID, connID string) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"status":        models.StatusOnline,
		"connection_id": connID,
		"updated_at":    time.Now(),
	}}

	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.StatusDeleted}}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to set user online: %w", translate(err))
	}

	logrus.WithFields(logrus.Fields{"userID": id.Hex(), "connID": connID}).Info("User marked online")
	return &user, nil
}

// SetOfflineIfBound marks the user offline only when the persisted binding is
// still connID or already empty. The bool reports whether the update applied.
func (r *UserRepository) SetOfflineIfBound(ctx context.Context, id primitive.ObjectID, connID string) (*models.User, bool, error) {
	filter := bson.M{
		"_id":           id,
		"status":        models.StatusOnline,
		"connection_id": bson.M{"$in": []string{connID, ""}},
	}
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":        models.StatusOffline,
		"connection_id": "",
		"last_active":   now,
		"updated_at":    now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		err = translate(err)
		if err == ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to set user offline: %w", err)
	}

	logrus.WithField("userID", id.Hex()).Info("User marked offline")
	return &user, true, nil
}

// TouchLastActive stamps the user's last_active time.
func (r *UserRepository) TouchLastActive(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_active": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to update last active: %v", err)
	}
	return nil
}

// FindOnline returns every user persisted as online.
func (r *UserRepository) FindOnline(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.StatusOnline})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode online users: %v", err)
	}
	return users, nil
}

// AddFriendship appends a friendship id to each user's list, skipping duplicates.
func (r *UserRepository) AddFriendship(ctx context.Context, friendshipID primitive.ObjectID, userIDs ...primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$addToSet": bson.M{"friendships": friendshipID}},
	)
	if err != nil {
		return fmt.Errorf("failed to add friendship: %v", err)
	}
	return nil
}

// PullFriendship removes a friendship id from every user that references it.
func (r *UserRepository) PullFriendship(ctx context.Context, friendshipID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"friendships": friendshipID},
		bson.M{"$pull": bson.M{"friendships": friendshipID}},
	)
	if err != nil {
		return fmt.Errorf("failed to pull friendship %s: %v", friendshipID.Hex(), err)
	}
	return nil
}
