package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content   string             `bson:"content" json:"content"`
	Seen      bool               `bson:"seen" json:"seen"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// MessageView is a message with its sender's public profile.
type MessageView struct {
	ID        primitive.ObjectID `json:"id"`
	ChatID    primitive.ObjectID `json:"chat_id"`
	Sender    PublicUser         `json:"sender"`
	Content   string             `json:"content"`
	Seen      bool               `json:"seen"`
	CreatedAt time.Time          `json:"created_at"`
}
