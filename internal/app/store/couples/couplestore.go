package couplestore

import (
	"context"
	"time"

	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("couples")}
}

// Create inserts a couple under the given realtor.
func (s *Store) Create(ctx context.Context, realtorID string) (models.Couple, error) {
	cp := models.Couple{
		ID:        uuid.NewString(),
		RealtorID: realtorID,
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, cp); err != nil {
		return models.Couple{}, err
	}
	return cp, nil
}

// GetByID loads a couple by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Couple, error) {
	var cp models.Couple
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ListByRealtor returns the realtor's couples, newest first.
func (s *Store) ListByRealtor(ctx context.Context, realtorID string) ([]models.Couple, error) {
	cur, err := s.c.Find(ctx, bson.M{"realtor_id": realtorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Couple
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BelongsToRealtor reports whether the couple is managed by the realtor.
func (s *Store) BelongsToRealtor(ctx context.Context, coupleID, realtorID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": coupleID, "realtor_id": realtorID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Delete removes a couple by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
