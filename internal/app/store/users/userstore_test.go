package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		Email:     "  Jane.Doe@Example.COM ",
		FirstName: "  Jane ",
		LastName:  "Doe",
		Phone:     "555 867 5309",
	}

	created, err := store.Create(ctx, user, "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "jane.doe@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.EmailCI == "" {
		t.Error("expected EmailCI to be set")
	}
	if created.FirstName != "Jane" {
		t.Errorf("expected trimmed first name, got %q", created.FirstName)
	}
	if created.Phone != "5558675309" {
		t.Errorf("expected normalized phone, got %q", created.Phone)
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cret-pass" {
		t.Error("expected password to be hashed")
	}
	if !created.IsActive {
		t.Error("new users should be active")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "dup@example.com", FirstName: "First"}, "pass-one"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Same email in a different case still collides.
	_, err := store.Create(ctx, models.User{Email: "DUP@example.com", FirstName: "Second"}, "pass-two")
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Create_EmptyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "nopass@example.com"}, ""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "lookup@example.com", FirstName: "Look"}, "passw0rd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "  LOOKUP@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected user %s, got %s", created.ID, got.ID)
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "check@example.com"}, "right-password")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !userstore.CheckPassword(&created, "right-password") {
		t.Error("expected correct password to verify")
	}
	if userstore.CheckPassword(&created, "wrong-password") {
		t.Error("expected wrong password to fail")
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "prof@example.com", FirstName: "Old"}, "passw0rd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = store.UpdateProfile(ctx, created.ID, userstore.ProfileUpdate{
		FirstName: " New ",
		LastName:  "Name",
		Phone:     "555 000 1111",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FirstName != "New" || got.LastName != "Name" {
		t.Errorf("unexpected name after update: %q %q", got.FirstName, got.LastName)
	}
	if got.Phone != "5550001111" {
		t.Errorf("unexpected phone after update: %q", got.Phone)
	}
}

func TestStore_SetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "rotate@example.com"}, "old-password")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetPassword(ctx, created.ID, "new-password"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !userstore.CheckPassword(got, "new-password") {
		t.Error("expected new password to verify")
	}
	if userstore.CheckPassword(got, "old-password") {
		t.Error("expected old password to stop working")
	}
}

func TestStore_SetActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "disable@example.com"}, "passw0rd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsActive {
		t.Error("expected user to be inactive")
	}
}

func TestStore_EmailExistsForOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.User{Email: "a@example.com"}, "passw0rd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, models.User{Email: "b@example.com"}, "passw0rd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, err := store.EmailExistsForOther(ctx, "A@example.com", b.ID)
	if err != nil {
		t.Fatalf("EmailExistsForOther failed: %v", err)
	}
	if !exists {
		t.Error("expected a@example.com to exist for another user")
	}

	exists, err = store.EmailExistsForOther(ctx, "a@example.com", a.ID)
	if err != nil {
		t.Fatalf("EmailExistsForOther failed: %v", err)
	}
	if exists {
		t.Error("own email should not count as taken")
	}
}
