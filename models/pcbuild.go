package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PC component categories used by the build recommender
const (
	ComponentCPU     = "cpu"
	ComponentGPU     = "gpu"
	ComponentRAM     = "ram"
	ComponentStorage = "storage"
	ComponentMobo    = "motherboard"
	ComponentPSU     = "psu"
	ComponentCase    = "case"
)

// PCComponent is one catalog entry the recommender can pick from
type PCComponent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category  string             `bson:"category" json:"category"`
	Name      string             `bson:"name" json:"name"`
	PriceUSD  float64            `bson:"priceUsd" json:"priceUsd"`
	Score     int                `bson:"score" json:"score"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// PCBuild is a recommended set of components within a budget
type PCBuild struct {
	Budget     float64       `json:"budget"`
	TotalUSD   float64       `json:"totalUsd"`
	Components []PCComponent `json:"components"`
}
