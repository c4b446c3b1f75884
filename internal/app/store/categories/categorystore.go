package categorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/housematch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// ErrDuplicateSummary is returned when the couple already has a
// category with the same summary.
var ErrDuplicateSummary = errors.New("a category with this summary already exists for this couple")

// Default is a category seeded for every new couple.
type Default struct {
	Summary     string
	Description string
}

// Defaults returns the categories every new couple starts with.
func Defaults() []Default {
	return []Default{
		{
			Summary:     "Comfort",
			Description: "Comfort assesses how cozy and livable a house is. It considers factors such as the layout, interior design, temperature control, and the quality of furnishings. A higher comfort rating typically indicates a more pleasant and inviting living environment.",
		},
		{
			Summary:     "Location",
			Description: "Location evaluates the accessibility and convenience of the property's surroundings. This category takes into account proximity to essential amenities such as schools, shopping centers, parks, and public transportation. A higher location rating suggests a more desirable and well-situated property.",
		},
		{
			Summary:     "Maintenance",
			Description: "Maintenance assesses the overall condition and upkeep of the house. It includes the state of the building structure, the functionality of appliances, and the quality of landscaping. A higher maintenance rating indicates that the property is well-maintained and likely to require fewer repairs or renovations.",
		},
	}
}

// Create inserts a category for a couple.
func (s *Store) Create(ctx context.Context, cat models.Category) (models.Category, error) {
	cat.ID = uuid.NewString()
	cat.Summary = strings.TrimSpace(cat.Summary)
	cat.SummaryCI = text.Fold(cat.Summary)
	cat.Description = strings.TrimSpace(cat.Description)

	now := time.Now()
	cat.CreatedAt = now
	cat.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, cat); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateSummary
		}
		return models.Category{}, err
	}
	return cat, nil
}

// GetByID loads a category by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListByCouple returns the couple's categories sorted by summary.
func (s *Store) ListByCouple(ctx context.Context, coupleID string) ([]models.Category, error) {
	cur, err := s.c.Find(ctx, bson.M{"couple_id": coupleID},
		options.Find().SetSort(bson.D{{Key: "summary_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the fields that can change on a category.
type Update struct {
	Summary     string
	Description string
}

// Update rewrites a category's summary and description. Returns
// ErrDuplicateSummary when the new summary collides within the couple.
func (s *Store) Update(ctx context.Context, id string, upd Update) error {
	summary := strings.TrimSpace(upd.Summary)
	set := bson.M{
		"summary":     summary,
		"summary_ci":  text.Fold(summary),
		"description": strings.TrimSpace(upd.Description),
		"updated_at":  time.Now(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSummary
		}
		return err
	}
	return nil
}

// Delete removes a category by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCouple removes every category the couple has.
func (s *Store) DeleteByCouple(ctx context.Context, coupleID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"couple_id": coupleID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SummaryExistsForOther checks if a summary already exists on a
// different category within the same couple.
func (s *Store) SummaryExistsForOther(ctx context.Context, coupleID, summary, excludeID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"couple_id":  coupleID,
		"summary_ci": text.Fold(strings.TrimSpace(summary)),
		"_id":        bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
