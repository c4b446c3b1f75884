package pendingstore_test

import (
	"errors"
	"regexp"
	"testing"

	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestStore_CreateHomebuyer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	pc, err := store.CreateCouple(ctx, realtor.ID)
	if err != nil {
		t.Fatalf("CreateCouple failed: %v", err)
	}

	ph, err := store.CreateHomebuyer(ctx, models.PendingHomebuyer{
		PendingCoupleID: pc.ID,
		Email:           "  Invitee@Example.COM ",
		FirstName:       " Ina ",
		LastName:        "Vitee",
	})
	if err != nil {
		t.Fatalf("CreateHomebuyer failed: %v", err)
	}

	if ph.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if ph.Email != "invitee@example.com" {
		t.Errorf("expected normalized email, got %q", ph.Email)
	}
	if ph.FirstName != "Ina" {
		t.Errorf("expected trimmed first name, got %q", ph.FirstName)
	}
	if !hexToken.MatchString(ph.RegistrationToken) {
		t.Errorf("expected 64-char hex registration token, got %q", ph.RegistrationToken)
	}
}

func TestStore_CreateHomebuyer_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	pcA, err := store.CreateCouple(ctx, realtor.ID)
	if err != nil {
		t.Fatalf("CreateCouple failed: %v", err)
	}
	pcB, err := store.CreateCouple(ctx, realtor.ID)
	if err != nil {
		t.Fatalf("CreateCouple failed: %v", err)
	}

	if _, err := store.CreateHomebuyer(ctx, models.PendingHomebuyer{PendingCoupleID: pcA.ID, Email: "dup@example.com"}); err != nil {
		t.Fatalf("CreateHomebuyer failed: %v", err)
	}

	// Open invitations are unique per email across all pending couples.
	_, err = store.CreateHomebuyer(ctx, models.PendingHomebuyer{PendingCoupleID: pcB.ID, Email: "DUP@example.com"})
	if !errors.Is(err, pendingstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_CreateHomebuyer_CoupleCap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	pc, _ := fx.CreateInvitation(ctx, realtor.ID, "one@example.com", "two@example.com")

	_, err := store.CreateHomebuyer(ctx, models.PendingHomebuyer{PendingCoupleID: pc.ID, Email: "three@example.com"})
	if !errors.Is(err, pendingstore.ErrCoupleFull) {
		t.Errorf("expected ErrCoupleFull, got %v", err)
	}
}

func TestStore_GetByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	_, phs := fx.CreateInvitation(ctx, realtor.ID, "invitee@example.com")

	got, err := store.GetByToken(ctx, phs[0].RegistrationToken)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if got.ID != phs[0].ID {
		t.Errorf("expected pending homebuyer %s, got %s", phs[0].ID, got.ID)
	}

	if _, err := store.GetByToken(ctx, "0000000000000000000000000000000000000000000000000000000000000000"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for unknown token, got %v", err)
	}
}

func TestStore_EmailInvited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	fx.CreateInvitation(ctx, realtor.ID, "open@example.com")

	got, err := store.EmailInvited(ctx, "  OPEN@Example.com ")
	if err != nil {
		t.Fatalf("EmailInvited failed: %v", err)
	}
	if !got {
		t.Error("expected open invitation to report true")
	}

	got, err = store.EmailInvited(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("EmailInvited failed: %v", err)
	}
	if got {
		t.Error("unknown email should report false")
	}
}

func TestStore_DeleteCouple(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	pc, _ := fx.CreateInvitation(ctx, realtor.ID, "one@example.com", "two@example.com")

	if err := store.DeleteCouple(ctx, pc.ID); err != nil {
		t.Fatalf("DeleteCouple failed: %v", err)
	}

	if _, err := store.GetCouple(ctx, pc.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected pending couple to be gone, got %v", err)
	}

	phs, err := store.ListHomebuyersByCouple(ctx, pc.ID)
	if err != nil {
		t.Fatalf("ListHomebuyersByCouple failed: %v", err)
	}
	if len(phs) != 0 {
		t.Errorf("expected invitees to be removed with the couple, got %d", len(phs))
	}
}

func TestStore_ListCouplesByRealtor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pendingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, mine := fx.CreateRealtor(ctx, "mine@example.com", "Mine", "Realtor")
	_, other := fx.CreateRealtor(ctx, "other@example.com", "Other", "Realtor")

	fx.CreateInvitation(ctx, mine.ID, "a@example.com")
	fx.CreateInvitation(ctx, mine.ID, "b@example.com")
	fx.CreateInvitation(ctx, other.ID, "c@example.com")

	pcs, err := store.ListCouplesByRealtor(ctx, mine.ID)
	if err != nil {
		t.Fatalf("ListCouplesByRealtor failed: %v", err)
	}
	if len(pcs) != 2 {
		t.Errorf("expected 2 pending couples, got %d", len(pcs))
	}
}
