package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SupportMessage is a single persisted support chat message
type SupportMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	Sender    string             `bson:"sender" json:"sender"` // "user" or "agent"
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
