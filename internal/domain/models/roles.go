// internal/domain/models/roles.go
package models

import "time"

// Realtor is the one-to-one realtor role record for a user.
type Realtor struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Homebuyer is the one-to-one homebuyer role record for a user.
// Every homebuyer belongs to exactly one couple; the partner is the
// couple's other homebuyer and is derived, never stored.
type Homebuyer struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CoupleID  string    `bson:"couple_id" json:"couple_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Role type labels used in sessions, route gates, and audit events.
const (
	RoleHomebuyer = "homebuyer"
	RoleRealtor   = "realtor"
)
