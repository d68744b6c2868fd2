package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessCode represents the structure of an access code document in MongoDB.
// Codes are stored uppercase; a UsageLimit of zero or below means unlimited.
type AccessCode struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code       string             `bson:"code" json:"code" index:"unique"`
	Tier       Tier               `bson:"tier" json:"tier"`
	Type       string             `bson:"type" json:"type"`
	UsageLimit int                `bson:"usageLimit" json:"usageLimit"`
	UsedCount  int                `bson:"usedCount" json:"usedCount"`
	ExpiresAt  *time.Time         `bson:"expiresAt" json:"expiresAt"`
	Active     bool               `bson:"active" json:"active"`
	CreatedBy  string             `bson:"createdBy" json:"-"`
	CreatedAt  time.Time          `bson:"createdAt" json:"-"`
}

// CodeData is the subset of an access code safe to return to
// unauthenticated callers during validation
type CodeData struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Tier Tier   `json:"tier"`
	Type string `json:"type"`
}
