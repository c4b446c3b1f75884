package pendingstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/housematch/internal/app/system/normalize"
	"github.com/dalemusser/housematch/internal/app/system/tokens"
	"github.com/dalemusser/housematch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store covers the invitation window: pending couples and their
// pending homebuyers live here until both invitees register.
type Store struct {
	couples    *mongo.Collection
	homebuyers *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		couples:    db.Collection("pending_couples"),
		homebuyers: db.Collection("pending_homebuyers"),
	}
}

var (
	// ErrDuplicateEmail is returned when the email already has an open invitation.
	ErrDuplicateEmail = errors.New("an invitation for this email already exists")

	// ErrCoupleFull is returned when the pending couple already has two invitees.
	ErrCoupleFull = errors.New("pending couple already has two invitees")
)

// CreateCouple inserts a pending couple under the given realtor.
func (s *Store) CreateCouple(ctx context.Context, realtorID string) (models.PendingCouple, error) {
	pc := models.PendingCouple{
		ID:        uuid.NewString(),
		RealtorID: realtorID,
		CreatedAt: time.Now(),
	}
	if _, err := s.couples.InsertOne(ctx, pc); err != nil {
		return models.PendingCouple{}, err
	}
	return pc, nil
}

// CreateHomebuyer inserts one invitee under a pending couple, minting
// a fresh registration token. It refuses a third invitee and reports
// email collisions against other open invitations.
func (s *Store) CreateHomebuyer(ctx context.Context, ph models.PendingHomebuyer) (models.PendingHomebuyer, error) {
	n, err := s.homebuyers.CountDocuments(ctx, bson.M{"pending_couple_id": ph.PendingCoupleID})
	if err != nil {
		return models.PendingHomebuyer{}, err
	}
	if n >= models.MaxHomebuyersPerCouple {
		return models.PendingHomebuyer{}, ErrCoupleFull
	}

	ph.ID = uuid.NewString()
	ph.Email = normalize.Email(ph.Email)
	ph.EmailCI = text.Fold(ph.Email)
	ph.FirstName = normalize.Name(ph.FirstName)
	ph.LastName = normalize.Name(ph.LastName)
	ph.CreatedAt = time.Now()

	token, err := tokens.NewUnique(ctx, func(ctx context.Context, t string) (bool, error) {
		err := s.homebuyers.FindOne(ctx, bson.M{"registration_token": t}).Err()
		if err == nil {
			return true, nil
		}
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	})
	if err != nil {
		return models.PendingHomebuyer{}, err
	}
	ph.RegistrationToken = token

	if _, err := s.homebuyers.InsertOne(ctx, ph); err != nil {
		if wafflemongo.IsDup(err) {
			return models.PendingHomebuyer{}, ErrDuplicateEmail
		}
		return models.PendingHomebuyer{}, err
	}
	return ph, nil
}

// GetByToken loads the pending homebuyer carrying a registration
// token. Returns mongo.ErrNoDocuments for unknown or consumed tokens.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.PendingHomebuyer, error) {
	var ph models.PendingHomebuyer
	if err := s.homebuyers.FindOne(ctx, bson.M{"registration_token": token}).Decode(&ph); err != nil {
		return nil, err
	}
	return &ph, nil
}

// GetByEmail loads an open invitation by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.PendingHomebuyer, error) {
	var ph models.PendingHomebuyer
	filter := bson.M{"email_ci": text.Fold(normalize.Email(email))}
	if err := s.homebuyers.FindOne(ctx, filter).Decode(&ph); err != nil {
		return nil, err
	}
	return &ph, nil
}

// GetCouple loads a pending couple by ID.
func (s *Store) GetCouple(ctx context.Context, id string) (*models.PendingCouple, error) {
	var pc models.PendingCouple
	if err := s.couples.FindOne(ctx, bson.M{"_id": id}).Decode(&pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

// ListCouplesByRealtor returns the realtor's pending couples, newest first.
func (s *Store) ListCouplesByRealtor(ctx context.Context, realtorID string) ([]models.PendingCouple, error) {
	cur, err := s.couples.Find(ctx, bson.M{"realtor_id": realtorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []models.PendingCouple
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListHomebuyersByCouple returns the invitees under a pending couple.
func (s *Store) ListHomebuyersByCouple(ctx context.Context, pendingCoupleID string) ([]models.PendingHomebuyer, error) {
	cur, err := s.homebuyers.Find(ctx, bson.M{"pending_couple_id": pendingCoupleID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.PendingHomebuyer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmailInvited reports whether the email already has an open invitation.
func (s *Store) EmailInvited(ctx context.Context, email string) (bool, error) {
	filter := bson.M{"email_ci": text.Fold(normalize.Email(email))}
	err := s.homebuyers.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// DeleteHomebuyer removes one invitee. Returns the number of documents
// deleted (0 or 1).
func (s *Store) DeleteHomebuyer(ctx context.Context, id string) (int64, error) {
	res, err := s.homebuyers.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteCouple removes a pending couple together with its invitees.
func (s *Store) DeleteCouple(ctx context.Context, id string) error {
	if _, err := s.homebuyers.DeleteMany(ctx, bson.M{"pending_couple_id": id}); err != nil {
		return err
	}
	if _, err := s.couples.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	return nil
}
