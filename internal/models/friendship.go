package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRefused  = "refused"
	FriendshipBlocked  = "blocked"
)

// Friendship is one negotiated relation between two users. Refused requests
// are deleted, so Status is never "refused" in storage.
type Friendship struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID  `bson:"sender_id" json:"sender_id"`
	ReceiverID primitive.ObjectID  `bson:"receiver_id" json:"receiver_id"`
	Status     string              `bson:"status" json:"status"`
	BlockedBy  *primitive.ObjectID `bson:"blocked_by,omitempty" json:"blocked_by,omitempty"`
	PairKey    string              `bson:"pair_key" json:"-"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updated_at"`
}

// FriendshipView is a friendship with both parties populated.
type FriendshipView struct {
	ID        primitive.ObjectID  `json:"id"`
	Sender    PublicUser          `json:"sender"`
	Receiver  PublicUser          `json:"receiver"`
	Status    string              `json:"status"`
	BlockedBy *primitive.ObjectID `json:"blocked_by,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Involves reports whether id is one of the two parties.
func (f *Friendship) Involves(id primitive.ObjectID) bool {
	return f.SenderID == id || f.ReceiverID == id
}

// PairKey returns the order-independent key of an id set.
func PairKey(ids ...primitive.ObjectID) string {
	hex := make([]string, 0, len(ids))
	for _, id := range ids {
		hex = append(hex, id.Hex())
	}
	sort.Strings(hex)
	return strings.Join(hex, ":")
}
