package models

import "time"

// EvaluationRecord is the archived outcome of a finalize attempt.
type EvaluationRecord struct {
	ContainerCode string        `bson:"container_code" json:"containerCode"`
	UserID        int           `bson:"user_id" json:"userId"`
	Status        string        `bson:"status" json:"status"`
	Expected      int           `bson:"expected" json:"expected"`
	Actual        int           `bson:"actual" json:"actual"`
	Missing       []MissingItem `bson:"missing,omitempty" json:"missing,omitempty"`
	EvaluatedAt   time.Time     `bson:"evaluated_at" json:"evaluatedAt"`
}
