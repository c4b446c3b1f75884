// internal/domain/models/grade.go
package models

import "time"

// Grade is one homebuyer's score (1-5) for one house under one
// category. Exactly one row exists per (house, category, homebuyer)
// once the grading backfill has run; the default score is 3.
type Grade struct {
	ID          string    `bson:"_id" json:"id"`
	HouseID     string    `bson:"house_id" json:"house_id"`
	CategoryID  string    `bson:"category_id" json:"category_id"`
	HomebuyerID string    `bson:"homebuyer_id" json:"homebuyer_id"`
	Score       int       `bson:"score" json:"score"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
