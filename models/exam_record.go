package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExamRecord archives the outcome of a finished examination. It is written
// once when feedback is produced and never read back by the request path.
type ExamRecord struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentResponses []string           `json:"studentResponses" bson:"studentResponses"`
	Feedback         string             `json:"feedback" bson:"feedback"`
	Fallback         bool               `json:"fallback" bson:"fallback"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
}
