package weightstore

import (
	"context"
	"fmt"
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
	return &Store{c: db.Collection("category_weights")}
}

func inRange(v int) bool {
	return v >= models.RatingMin && v <= models.RatingMax
}

// Set upserts the homebuyer's weight for a category.
func (s *Store) Set(ctx context.Context, homebuyerID, categoryID string, weight int) error {
	if !inRange(weight) {
		return fmt.Errorf("weight %d out of range %d..%d", weight, models.RatingMin, models.RatingMax)
	}
	now := time.Now()
	filter := bson.M{"homebuyer_id": homebuyerID, "category_id": categoryID}
	update := bson.M{
		"$set": bson.M{
			"weight":     weight,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"homebuyer_id": homebuyerID,
			"category_id":  categoryID,
			"created_at":   now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Get loads one weight row. Returns mongo.ErrNoDocuments if missing.
func (s *Store) Get(ctx context.Context, homebuyerID, categoryID string) (*models.CategoryWeight, error) {
	var w models.CategoryWeight
	err := s.c.FindOne(ctx, bson.M{"homebuyer_id": homebuyerID, "category_id": categoryID}).Decode(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByHomebuyer returns all of one homebuyer's weights.
func (s *Store) ListByHomebuyer(ctx context.Context, homebuyerID string) ([]models.CategoryWeight, error) {
	cur, err := s.c.Find(ctx, bson.M{"homebuyer_id": homebuyerID})
	if err != nil {
		return nil, err
	}
	var out []models.CategoryWeight
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByHomebuyers returns weights for several homebuyers at once,
// keyed for report aggregation.
func (s *Store) ListByHomebuyers(ctx context.Context, homebuyerIDs []string) ([]models.CategoryWeight, error) {
	if len(homebuyerIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"homebuyer_id": bson.M{"$in": homebuyerIDs}})
	if err != nil {
		return nil, err
	}
	var out []models.CategoryWeight
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMany bulk-inserts weight rows. Used by the grading backfill.
func (s *Store) InsertMany(ctx context.Context, ws []models.CategoryWeight) error {
	if len(ws) == 0 {
		return nil
	}
	docs := make([]any, len(ws))
	for i := range ws {
		docs[i] = ws[i]
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// DeleteByCategory removes every weight pointing at a category.
// Used when a category is deleted.
func (s *Store) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCategories removes weights for several categories at once.
func (s *Store) DeleteByCategories(ctx context.Context, categoryIDs []string) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"category_id": bson.M{"$in": categoryIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
