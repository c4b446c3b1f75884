// internal/domain/models/house.go
package models

import "time"

// House is a candidate property a couple is evaluating. Nickname is
// unique within the couple (case-insensitively, via NicknameCI).
type House struct {
	ID         string    `bson:"_id" json:"id"`
	CoupleID   string    `bson:"couple_id" json:"couple_id"`
	Nickname   string    `bson:"nickname" json:"nickname"`
	NicknameCI string    `bson:"nickname_ci" json:"nickname_ci"`
	Address    string    `bson:"address" json:"address"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
