// internal/domain/models/user.go
package models

import "time"

// User is the login identity for both homebuyers and realtors.
// Email is the login key. Role is not stored here: a user is a
// homebuyer or a realtor according to which role record points at
// them (see the realtors and homebuyers collections), never both.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	EmailCI      string    `bson:"email_ci" json:"email_ci"` // lowercase, trimmed
	PasswordHash string    `bson:"password_hash" json:"-"`
	FirstName    string    `bson:"first_name" json:"first_name"`
	LastName     string    `bson:"last_name" json:"last_name"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	IsStaff      bool      `bson:"is_staff" json:"is_staff"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns "First Last" with surrounding space trimmed when a
// part is missing.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
