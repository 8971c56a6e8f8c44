package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a room. Key is PairKey of the participant set and is unique, so a
// participant set maps to at most one chat.
type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup      bool                 `bson:"is_group" json:"is_group"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Key          string               `bson:"key" json:"-"`
	Latest       *primitive.ObjectID  `bson:"latest,omitempty" json:"latest,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether id is one of the chat participants.
func (c *Chat) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

type ChatView struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name,omitempty"`
	IsGroup      bool               `json:"is_group"`
	Participants []PublicUser       `json:"participants"`
	Latest       *MessageView       `json:"latest,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}
