package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents the structure of a user document in MongoDB
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email" index:"unique"`
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Tier         Tier               `bson:"tier" json:"tier"`
	Subscription UserSubscription   `bson:"subscription" json:"subscription"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSubscription holds the Stripe-backed subscription state for a user
type UserSubscription struct {
	ID        string     `bson:"id,omitempty" json:"id,omitempty"`
	Plan      Tier       `bson:"plan,omitempty" json:"plan,omitempty"`
	Active    bool       `bson:"active" json:"active"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}
