// internal/domain/models/pending.go
package models

import "time"

// PendingCouple mirrors a Couple during the invitation window, before
// either invited homebuyer has finished signing up. It is deleted,
// together with its PendingHomebuyers, once both have registered.
type PendingCouple struct {
	ID        string    `bson:"_id" json:"id"`
	RealtorID string    `bson:"realtor_id" json:"realtor_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PendingHomebuyer is one invited email under a PendingCouple. The
// registration token is a 64-char hex string embedded in the signup
// link; it is globally unique while unconsumed. Whether the invitee
// has registered is computed from the homebuyers collection, never
// stored here.
type PendingHomebuyer struct {
	ID                string    `bson:"_id" json:"id"`
	PendingCoupleID   string    `bson:"pending_couple_id" json:"pending_couple_id"`
	Email             string    `bson:"email" json:"email"`
	EmailCI           string    `bson:"email_ci" json:"-"`
	FirstName         string    `bson:"first_name" json:"first_name"`
	LastName          string    `bson:"last_name" json:"last_name"`
	RegistrationToken string    `bson:"registration_token" json:"-"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
