package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusDeleted = "deleted"
)

// User represents a player account. ConnectionID is the persisted presence
// binding: the id of the live connection last registered for this user, or ""
// when the user is not bound.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	Banner       string               `bson:"banner,omitempty" json:"banner,omitempty"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	Lvl          int                  `bson:"lvl" json:"lvl"`
	Exp          int                  `bson:"exp" json:"exp"`
	Status       string               `bson:"status" json:"status"`
	ConnectionID string               `bson:"connection_id" json:"-"`
	Friendships  []primitive.ObjectID `bson:"friendships" json:"friendships"`
	IsAdmin      bool                 `bson:"is_admin" json:"is_admin"`
	LastActive   time.Time            `bson:"last_active" json:"last_active"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the profile slice other players are allowed to see.
type PublicUser struct {
	ID         primitive.ObjectID `json:"id"`
	Username   string             `json:"username"`
	Avatar     string             `json:"avatar"`
	Lvl        int                `json:"lvl"`
	Status     string             `json:"status"`
	LastActive time.Time          `json:"last_active"`
}

// Public projects the user onto the profile other players may see.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Lvl:        u.Lvl,
		Status:     u.Status,
		LastActive: u.LastActive,
	}
}
