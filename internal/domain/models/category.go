// internal/domain/models/category.go
package models

import "time"

// Weight and score bounds for category weights and grades.
const (
	RatingMin     = 1
	RatingMax     = 5
	RatingDefault = 3
)

// RatingScale returns every valid rating value in order, for rendering
// weight and score pickers.
func RatingScale() []int {
	scale := make([]int, 0, RatingMax-RatingMin+1)
	for v := RatingMin; v <= RatingMax; v++ {
		scale = append(scale, v)
	}
	return scale
}

// Category is an evaluation dimension (Comfort, Location, ...) scoped
// to one couple. Summary is unique within the couple.
type Category struct {
	ID          string    `bson:"_id" json:"id"`
	CoupleID    string    `bson:"couple_id" json:"couple_id"`
	Summary     string    `bson:"summary" json:"summary"`
	SummaryCI   string    `bson:"summary_ci" json:"summary_ci"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// CategoryWeight is one homebuyer's importance rating (1-5) for one
// category. Exactly one row exists per (homebuyer, category) once the
// grading backfill has run; the default weight is 3.
type CategoryWeight struct {
	ID          string    `bson:"_id" json:"id"`
	HomebuyerID string    `bson:"homebuyer_id" json:"homebuyer_id"`
	CategoryID  string    `bson:"category_id" json:"category_id"`
	Weight      int       `bson:"weight" json:"weight"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
