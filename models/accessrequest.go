package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Access request statuses. A request transitions pending->approved or
// pending->denied exactly once, by an administrator.
const (
	AccessRequestPending  = "pending"
	AccessRequestApproved = "approved"
	AccessRequestDenied   = "denied"
)

// AccessRequest represents a user's code redemption awaiting admin review
type AccessRequest struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          string              `bson:"userId" json:"userId"`
	Name            string              `bson:"name" json:"name"`
	Email           string              `bson:"email" json:"email"`
	Code            string              `bson:"code" json:"code"`
	Tier            Tier                `bson:"tier" json:"tier"`
	IsStudent       bool                `bson:"isStudent" json:"isStudent"`
	ProofURL        string              `bson:"proofUrl,omitempty" json:"proofUrl,omitempty"`
	Status          string              `bson:"status" json:"status"`
	DenialReason    string              `bson:"denialReason,omitempty" json:"denialReason,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	ProcessedAt     *time.Time          `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	ProcessedBy     string              `bson:"processedBy,omitempty" json:"-"`
	AccessExpiresAt *time.Time          `bson:"accessExpiresAt,omitempty" json:"accessExpiresAt,omitempty"`
	RevertedAt      *time.Time          `bson:"revertedAt,omitempty" json:"-"`
	CodeID          *primitive.ObjectID `bson:"codeId,omitempty" json:"-"`
}
