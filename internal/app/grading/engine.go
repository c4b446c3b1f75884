// Package grading keeps the weight and grade matrices complete: every
// homebuyer carries one weight per category of their couple and one
// grade per (house, category) pair. Callers invoke the backfill
// explicitly after creating the records that widen the matrix.
package grading

import (
	"context"
	"errors"
	"time"

	categorystore "github.com/dalemusser/housematch/internal/app/store/categories"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	weightstore "github.com/dalemusser/housematch/internal/app/store/weights"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrCoupleMismatch is returned when a grade or weight would span
// records from different couples.
var ErrCoupleMismatch = errors.New("house, category, and homebuyer must belong to the same couple")

// ValidateSameCouple checks that every given couple ID is present and
// identical. Pass the couple IDs of the records a grade or weight ties
// together.
func ValidateSameCouple(coupleIDs ...string) error {
	if len(coupleIDs) == 0 {
		return nil
	}
	first := coupleIDs[0]
	if first == "" {
		return ErrCoupleMismatch
	}
	for _, id := range coupleIDs[1:] {
		if id != first {
			return ErrCoupleMismatch
		}
	}
	return nil
}

// Engine fills in default weights and grades.
type Engine struct {
	categories *categorystore.Store
	houses     *housestore.Store
	homebuyers *homebuyerstore.Store
	weights    *weightstore.Store
	grades     *gradestore.Store
}

func NewEngine(db *mongo.Database) *Engine {
	return &Engine{
		categories: categorystore.New(db),
		houses:     housestore.New(db),
		homebuyers: homebuyerstore.New(db),
		weights:    weightstore.New(db),
		grades:     gradestore.New(db),
	}
}

// SeedCoupleDefaults creates the starter categories for a new couple
// and backfills weights and grades for any homebuyers it already has.
// Categories that already exist for the couple are left alone, so
// reseeding is safe.
func (e *Engine) SeedCoupleDefaults(ctx context.Context, coupleID string) error {
	for _, d := range categorystore.Defaults() {
		_, err := e.categories.Create(ctx, models.Category{
			CoupleID:    coupleID,
			Summary:     d.Summary,
			Description: d.Description,
		})
		if err != nil && !errors.Is(err, categorystore.ErrDuplicateSummary) {
			return err
		}
	}
	return e.backfillCouple(ctx, coupleID)
}

// BackfillHomebuyer fills the matrix for one newly registered
// homebuyer: a default weight per category and a default grade per
// (house, category) pair of their couple.
func (e *Engine) BackfillHomebuyer(ctx context.Context, hb *models.Homebuyer) error {
	return e.backfillOne(ctx, hb)
}

// BackfillCategory fills the matrix after a category was added to the
// couple.
func (e *Engine) BackfillCategory(ctx context.Context, coupleID string) error {
	return e.backfillCouple(ctx, coupleID)
}

// BackfillHouse fills the matrix after a house was added to the couple.
func (e *Engine) BackfillHouse(ctx context.Context, coupleID string) error {
	return e.backfillCouple(ctx, coupleID)
}

func (e *Engine) backfillCouple(ctx context.Context, coupleID string) error {
	hbs, err := e.homebuyers.ListByCouple(ctx, coupleID)
	if err != nil {
		return err
	}
	for i := range hbs {
		if err := e.backfillOne(ctx, &hbs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) backfillOne(ctx context.Context, hb *models.Homebuyer) error {
	cats, err := e.categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		return err
	}
	houses, err := e.houses.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		return err
	}

	now := time.Now()

	existing, err := e.weights.ListByHomebuyer(ctx, hb.ID)
	if err != nil {
		return err
	}
	weighted := make(map[string]bool, len(existing))
	for _, w := range existing {
		weighted[w.CategoryID] = true
	}

	var newWeights []models.CategoryWeight
	for _, cat := range cats {
		if weighted[cat.ID] {
			continue
		}
		newWeights = append(newWeights, models.CategoryWeight{
			ID:          uuid.NewString(),
			HomebuyerID: hb.ID,
			CategoryID:  cat.ID,
			Weight:      models.RatingDefault,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := e.weights.InsertMany(ctx, newWeights); err != nil {
		return err
	}

	grades, err := e.grades.ListByHomebuyer(ctx, hb.ID)
	if err != nil {
		return err
	}
	graded := make(map[[2]string]bool, len(grades))
	for _, g := range grades {
		graded[[2]string{g.HouseID, g.CategoryID}] = true
	}

	var newGrades []models.Grade
	for _, h := range houses {
		for _, cat := range cats {
			if graded[[2]string{h.ID, cat.ID}] {
				continue
			}
			newGrades = append(newGrades, models.Grade{
				ID:          uuid.NewString(),
				HouseID:     h.ID,
				CategoryID:  cat.ID,
				HomebuyerID: hb.ID,
				Score:       models.RatingDefault,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}
	return e.grades.InsertMany(ctx, newGrades)
}
