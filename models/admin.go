package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser represents an administrative user for platform management
type AdminUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Active       bool               `bson:"active" json:"active"`
	Roles        []string           `bson:"roles" json:"roles"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SchedulerLock is a best-effort distributed lock document so cron jobs
// run on a single instance at a time
type SchedulerLock struct {
	ID         string    `bson:"_id" json:"id"`
	InstanceID string    `bson:"instanceId" json:"instanceId"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
	AcquiredAt time.Time `bson:"acquiredAt" json:"acquiredAt"`
}
