package database

import (
	"context"
	"fmt"
	"time"

	"github.com/n0ll22/HouseholdRPG/internal/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB opens the MongoDB client, pings it and returns the configured database.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %v", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %v", err)
	}

	logrus.WithField("db", cfg.DBName).Info("Connected to MongoDB")
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the indexes the realtime layer relies on. The unique
// pair_key and key indexes turn concurrent duplicate creates into duplicate-key
// errors instead of second documents.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"friendships": {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"chats": {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		"messages": {
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %v", name, err)
		}
	}
	return nil
}
