package testutil

import (
	"context"
	"testing"

	categorystore "github.com/dalemusser/housematch/internal/app/store/categories"
	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	weightstore "github.com/dalemusser/housematch/internal/app/store/weights"
	"github.com/dalemusser/housematch/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestPassword is the password every fixture user is created with.
const TestPassword = "test-password-123"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, email, firstName, lastName string) models.User {
	f.t.Helper()

	u, err := userstore.New(f.db).Create(ctx, models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}, TestPassword)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateRealtor creates a user together with their realtor role record.
func (f *Fixtures) CreateRealtor(ctx context.Context, email, firstName, lastName string) (models.User, models.Realtor) {
	f.t.Helper()

	u := f.CreateUser(ctx, email, firstName, lastName)
	r, err := realtorstore.New(f.db).Create(ctx, u.ID)
	if err != nil {
		f.t.Fatalf("failed to create test realtor: %v", err)
	}
	return u, r
}

// CreateCouple creates a couple under the given realtor.
func (f *Fixtures) CreateCouple(ctx context.Context, realtorID string) models.Couple {
	f.t.Helper()

	cp, err := couplestore.New(f.db).Create(ctx, realtorID)
	if err != nil {
		f.t.Fatalf("failed to create test couple: %v", err)
	}
	return cp
}

// CreateHomebuyer creates a user together with their homebuyer role
// record in the given couple.
func (f *Fixtures) CreateHomebuyer(ctx context.Context, email, firstName, lastName, coupleID string) (models.User, models.Homebuyer) {
	f.t.Helper()

	u := f.CreateUser(ctx, email, firstName, lastName)
	hb, err := homebuyerstore.New(f.db).Create(ctx, u.ID, coupleID)
	if err != nil {
		f.t.Fatalf("failed to create test homebuyer: %v", err)
	}
	return u, hb
}

// CreateHouse creates a house for the couple.
func (f *Fixtures) CreateHouse(ctx context.Context, coupleID, nickname, address string) models.House {
	f.t.Helper()

	h, err := housestore.New(f.db).Create(ctx, models.House{
		CoupleID: coupleID,
		Nickname: nickname,
		Address:  address,
	})
	if err != nil {
		f.t.Fatalf("failed to create test house: %v", err)
	}
	return h
}

// CreateCategory creates a category for the couple.
func (f *Fixtures) CreateCategory(ctx context.Context, coupleID, summary, description string) models.Category {
	f.t.Helper()

	cat, err := categorystore.New(f.db).Create(ctx, models.Category{
		CoupleID:    coupleID,
		Summary:     summary,
		Description: description,
	})
	if err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// SetWeight sets a homebuyer's weight for a category.
func (f *Fixtures) SetWeight(ctx context.Context, homebuyerID, categoryID string, weight int) {
	f.t.Helper()

	if err := weightstore.New(f.db).Set(ctx, homebuyerID, categoryID, weight); err != nil {
		f.t.Fatalf("failed to set test weight: %v", err)
	}
}

// SetGrade sets a homebuyer's score for a house under a category.
func (f *Fixtures) SetGrade(ctx context.Context, houseID, categoryID, homebuyerID string, score int) {
	f.t.Helper()

	if err := gradestore.New(f.db).Set(ctx, houseID, categoryID, homebuyerID, score); err != nil {
		f.t.Fatalf("failed to set test grade: %v", err)
	}
}

// CreateInvitation creates a pending couple under the realtor with one
// pending homebuyer per invitee email.
func (f *Fixtures) CreateInvitation(ctx context.Context, realtorID string, emails ...string) (models.PendingCouple, []models.PendingHomebuyer) {
	f.t.Helper()

	ps := pendingstore.New(f.db)
	pc, err := ps.CreateCouple(ctx, realtorID)
	if err != nil {
		f.t.Fatalf("failed to create test pending couple: %v", err)
	}

	phs := make([]models.PendingHomebuyer, 0, len(emails))
	for _, email := range emails {
		ph, err := ps.CreateHomebuyer(ctx, models.PendingHomebuyer{
			PendingCoupleID: pc.ID,
			Email:           email,
			FirstName:       "Invited",
			LastName:        "Buyer",
		})
		if err != nil {
			f.t.Fatalf("failed to create test pending homebuyer: %v", err)
		}
		phs = append(phs, ph)
	}
	return pc, phs
}
