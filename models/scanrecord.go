package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScanRecord is one rate-limited product analysis performed by a user.
// Daily quota is derived by counting these since local midnight; it is
// never stored as its own document.
type ScanRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"userId"`
	ScanType    string             `bson:"scanType" json:"scanType"`
	ProductName string             `bson:"productName" json:"productName"`
	Input       string             `bson:"input" json:"input"`
	Summary     string             `bson:"summary" json:"summary"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// QuotaResponse reports whether another scan may proceed today
type QuotaResponse struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     *int `json:"limit"`
}
