package homebuyerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/housematch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	realtors *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("homebuyers"),
		realtors: db.Collection("realtors"),
	}
}

var (
	// ErrAlreadyHomebuyer is returned when the user already has a homebuyer record.
	ErrAlreadyHomebuyer = errors.New("user is already a homebuyer")

	// ErrAlreadyRealtor is returned when the user holds a realtor record;
	// an account carries exactly one role.
	ErrAlreadyRealtor = errors.New("user is already a realtor")

	// ErrCoupleFull is returned when the couple already has two homebuyers.
	ErrCoupleFull = errors.New("couple already has two homebuyers")
)

// Create inserts the homebuyer role record for a user, refusing when
// the couple already holds two homebuyers or the user is a realtor.
// Run it inside a transaction together with the user insert so the
// checks and the insert are atomic.
func (s *Store) Create(ctx context.Context, userID, coupleID string) (models.Homebuyer, error) {
	if err := s.realtors.FindOne(ctx, bson.M{"user_id": userID}).Err(); err == nil {
		return models.Homebuyer{}, ErrAlreadyRealtor
	} else if err != mongo.ErrNoDocuments {
		return models.Homebuyer{}, err
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"couple_id": coupleID})
	if err != nil {
		return models.Homebuyer{}, err
	}
	if n >= models.MaxHomebuyersPerCouple {
		return models.Homebuyer{}, ErrCoupleFull
	}

	hb := models.Homebuyer{
		ID:        uuid.NewString(),
		UserID:    userID,
		CoupleID:  coupleID,
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, hb); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Homebuyer{}, ErrAlreadyHomebuyer
		}
		return models.Homebuyer{}, err
	}
	return hb, nil
}

// GetByID loads a homebuyer by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Homebuyer, error) {
	var hb models.Homebuyer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&hb); err != nil {
		return nil, err
	}
	return &hb, nil
}

// GetByUserID loads the homebuyer record for a user. Returns
// mongo.ErrNoDocuments when the user is not a homebuyer.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*models.Homebuyer, error) {
	var hb models.Homebuyer
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&hb); err != nil {
		return nil, err
	}
	return &hb, nil
}

// ListByCouple returns the couple's homebuyers ordered by creation time.
func (s *Store) ListByCouple(ctx context.Context, coupleID string) ([]models.Homebuyer, error) {
	cur, err := s.c.Find(ctx, bson.M{"couple_id": coupleID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Homebuyer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByCouple removes every homebuyer of the couple. Returns the
// number removed.
func (s *Store) DeleteByCouple(ctx context.Context, coupleID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"couple_id": coupleID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByCouple returns how many homebuyers the couple has.
func (s *Store) CountByCouple(ctx context.Context, coupleID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"couple_id": coupleID})
}

// EmailRegistered reports whether the email belongs to a registered
// homebuyer, by joining through the users collection. The email must
// already be folded to its case-insensitive form.
func (s *Store) EmailRegistered(ctx context.Context, db *mongo.Database, emailCI string) (bool, error) {
	var u models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = s.c.FindOne(ctx, bson.M{"user_id": u.ID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Partner returns the couple's other homebuyer, or nil when the
// partner has not registered yet. Finding more than one partner means
// the two-per-couple cap was breached and is reported as an error.
func (s *Store) Partner(ctx context.Context, hb *models.Homebuyer) (*models.Homebuyer, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"couple_id": hb.CoupleID,
		"_id":       bson.M{"$ne": hb.ID},
	})
	if err != nil {
		return nil, err
	}
	var others []models.Homebuyer
	if err := cur.All(ctx, &others); err != nil {
		return nil, err
	}
	switch len(others) {
	case 0:
		return nil, nil
	case 1:
		return &others[0], nil
	default:
		return nil, fmt.Errorf("couple %s has %d homebuyers", hb.CoupleID, len(others)+1)
	}
}
