package realtorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/housematch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c          *mongo.Collection
	homebuyers *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:          db.Collection("realtors"),
		homebuyers: db.Collection("homebuyers"),
	}
}

var (
	// ErrAlreadyRealtor is returned when the user already has a realtor record.
	ErrAlreadyRealtor = errors.New("user is already a realtor")

	// ErrAlreadyHomebuyer is returned when the user holds a homebuyer
	// record; an account carries exactly one role.
	ErrAlreadyHomebuyer = errors.New("user is already a homebuyer")
)

// Create inserts the realtor role record for a user, refusing when the
// user is a homebuyer.
func (s *Store) Create(ctx context.Context, userID string) (models.Realtor, error) {
	if err := s.homebuyers.FindOne(ctx, bson.M{"user_id": userID}).Err(); err == nil {
		return models.Realtor{}, ErrAlreadyHomebuyer
	} else if err != mongo.ErrNoDocuments {
		return models.Realtor{}, err
	}
	r := models.Realtor{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Realtor{}, ErrAlreadyRealtor
		}
		return models.Realtor{}, err
	}
	return r, nil
}

// GetByID loads a realtor by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Realtor, error) {
	var r models.Realtor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByUserID loads the realtor record for a user. Returns
// mongo.ErrNoDocuments when the user is not a realtor.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*models.Realtor, error) {
	var r models.Realtor
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
