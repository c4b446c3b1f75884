// internal/domain/models/couple.go
package models

import "time"

// MaxHomebuyersPerCouple caps couple membership. The guard in the
// homebuyers store enforces it on every insert; reads that find more
// treat it as a data-integrity failure.
const MaxHomebuyersPerCouple = 2

// Couple is the tenant unit: up to two homebuyers sharing a realtor,
// a house list, and a category set.
type Couple struct {
	ID        string    `bson:"_id" json:"id"`
	RealtorID string    `bson:"realtor_id" json:"realtor_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
