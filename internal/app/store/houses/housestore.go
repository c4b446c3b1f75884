package housestore

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
	return &Store{c: db.Collection("houses")}
}

// ErrDuplicateNickname is returned when the couple already has a house
// with the same nickname.
var ErrDuplicateNickname = errors.New("a house with this nickname already exists for this couple")

// Create inserts a house for a couple.
func (s *Store) Create(ctx context.Context, h models.House) (models.House, error) {
	h.ID = uuid.NewString()
	h.Nickname = strings.TrimSpace(h.Nickname)
	h.NicknameCI = text.Fold(h.Nickname)
	h.Address = strings.TrimSpace(h.Address)

	now := time.Now()
	h.CreatedAt = now
	h.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, h); err != nil {
		if wafflemongo.IsDup(err) {
			return models.House{}, ErrDuplicateNickname
		}
		return models.House{}, err
	}
	return h, nil
}

// GetByID loads a house by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.House, error) {
	var h models.House
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByCouple returns the couple's houses sorted by nickname.
func (s *Store) ListByCouple(ctx context.Context, coupleID string) ([]models.House, error) {
	cur, err := s.c.Find(ctx, bson.M{"couple_id": coupleID},
		options.Find().SetSort(bson.D{{Key: "nickname_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.House
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the fields that can change on a house.
type Update struct {
	Nickname string
	Address  string
}

// Update rewrites a house's nickname and address. Returns
// ErrDuplicateNickname when the new nickname collides within the couple.
func (s *Store) Update(ctx context.Context, id string, upd Update) error {
	nickname := strings.TrimSpace(upd.Nickname)
	set := bson.M{
		"nickname":    nickname,
		"nickname_ci": text.Fold(nickname),
		"address":     strings.TrimSpace(upd.Address),
		"updated_at":  time.Now(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateNickname
		}
		return err
	}
	return nil
}

// Delete removes a house by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCouple removes every house the couple has. Used when a
// couple is torn down.
func (s *Store) DeleteByCouple(ctx context.Context, coupleID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"couple_id": coupleID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// NicknameExistsForOther checks if a nickname already exists on a
// different house within the same couple.
func (s *Store) NicknameExistsForOther(ctx context.Context, coupleID, nickname, excludeID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"couple_id":   coupleID,
		"nickname_ci": text.Fold(strings.TrimSpace(nickname)),
		"_id":         bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
