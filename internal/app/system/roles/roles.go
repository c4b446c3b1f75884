// Package roles resolves a user's role record once per request.
//
// A user is a homebuyer or a realtor depending on which role record
// points at them. Resolve returns a tagged Role value instead of
// letting handlers probe collections ad hoc; a user with both records
// is a data-integrity failure and is reported loudly, never resolved
// to one of the two.
package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/housematch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Role type tags.
const (
	TypeUnassigned = ""
	TypeHomebuyer  = models.RoleHomebuyer
	TypeRealtor    = models.RoleRealtor
)

// ErrBothRoles indicates a user holds both a homebuyer and a realtor
// record. The creation invariants make this impossible, so finding it
// means the data is corrupt; callers must surface a server error.
var ErrBothRoles = errors.New("user is registered as both a homebuyer and a realtor")

// Role is the resolved role of one user. Exactly one of Homebuyer and
// Realtor is non-nil when Type is the matching tag; both are nil for
// TypeUnassigned.
type Role struct {
	Type      string
	Homebuyer *models.Homebuyer
	Realtor   *models.Realtor
}

// Unassigned reports whether the user has no role record.
func (r Role) Unassigned() bool { return r.Type == TypeUnassigned }

// Resolve looks up the role record for userID. It returns an
// unassigned Role when neither record exists and ErrBothRoles when
// both do.
func Resolve(ctx context.Context, db *mongo.Database, userID string) (Role, error) {
	var hb models.Homebuyer
	hbErr := db.Collection("homebuyers").FindOne(ctx, bson.M{"user_id": userID}).Decode(&hb)
	if hbErr != nil && hbErr != mongo.ErrNoDocuments {
		return Role{}, fmt.Errorf("resolve homebuyer role: %w", hbErr)
	}

	var rl models.Realtor
	rlErr := db.Collection("realtors").FindOne(ctx, bson.M{"user_id": userID}).Decode(&rl)
	if rlErr != nil && rlErr != mongo.ErrNoDocuments {
		return Role{}, fmt.Errorf("resolve realtor role: %w", rlErr)
	}

	hasHB := hbErr == nil
	hasRL := rlErr == nil

	switch {
	case hasHB && hasRL:
		return Role{}, fmt.Errorf("%w (user_id %s)", ErrBothRoles, userID)
	case hasHB:
		return Role{Type: TypeHomebuyer, Homebuyer: &hb}, nil
	case hasRL:
		return Role{Type: TypeRealtor, Realtor: &rl}, nil
	default:
		return Role{}, nil
	}
}
