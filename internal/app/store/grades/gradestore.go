package gradestore

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
	return &Store{c: db.Collection("grades")}
}

func inRange(v int) bool {
	return v >= models.RatingMin && v <= models.RatingMax
}

// Set upserts the homebuyer's score for one house under one category.
func (s *Store) Set(ctx context.Context, houseID, categoryID, homebuyerID string, score int) error {
	if !inRange(score) {
		return fmt.Errorf("score %d out of range %d..%d", score, models.RatingMin, models.RatingMax)
	}
	now := time.Now()
	filter := bson.M{
		"house_id":     houseID,
		"category_id":  categoryID,
		"homebuyer_id": homebuyerID,
	}
	update := bson.M{
		"$set": bson.M{
			"score":      score,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"house_id":     houseID,
			"category_id":  categoryID,
			"homebuyer_id": homebuyerID,
			"created_at":   now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Get loads one grade row. Returns mongo.ErrNoDocuments if missing.
func (s *Store) Get(ctx context.Context, houseID, categoryID, homebuyerID string) (*models.Grade, error) {
	var g models.Grade
	err := s.c.FindOne(ctx, bson.M{
		"house_id":     houseID,
		"category_id":  categoryID,
		"homebuyer_id": homebuyerID,
	}).Decode(&g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByHouseAndHomebuyer returns one homebuyer's grades for a house.
func (s *Store) ListByHouseAndHomebuyer(ctx context.Context, houseID, homebuyerID string) ([]models.Grade, error) {
	cur, err := s.c.Find(ctx, bson.M{"house_id": houseID, "homebuyer_id": homebuyerID})
	if err != nil {
		return nil, err
	}
	var out []models.Grade
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByHouses returns every grade for the given houses, for report
// aggregation across the couple.
func (s *Store) ListByHouses(ctx context.Context, houseIDs []string) ([]models.Grade, error) {
	if len(houseIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"house_id": bson.M{"$in": houseIDs}})
	if err != nil {
		return nil, err
	}
	var out []models.Grade
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByHomebuyer returns all of one homebuyer's grades.
func (s *Store) ListByHomebuyer(ctx context.Context, homebuyerID string) ([]models.Grade, error) {
	cur, err := s.c.Find(ctx, bson.M{"homebuyer_id": homebuyerID})
	if err != nil {
		return nil, err
	}
	var out []models.Grade
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMany bulk-inserts grade rows. Used by the grading backfill.
func (s *Store) InsertMany(ctx context.Context, gs []models.Grade) error {
	if len(gs) == 0 {
		return nil
	}
	docs := make([]any, len(gs))
	for i := range gs {
		docs[i] = gs[i]
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// DeleteByHouse removes every grade for a house.
func (s *Store) DeleteByHouse(ctx context.Context, houseID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"house_id": houseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCategory removes every grade under a category.
func (s *Store) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCategories removes grades for several categories at once.
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

// DeleteByHouses removes grades for several houses at once.
func (s *Store) DeleteByHouses(ctx context.Context, houseIDs []string) (int64, error) {
	if len(houseIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"house_id": bson.M{"$in": houseIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
