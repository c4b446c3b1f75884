package gradestore_test

import (
	"testing"

	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Set_Upserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gradestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fx.CreateCouple(ctx, realtor.ID)
	_, hb := fx.CreateHomebuyer(ctx, "buyer@example.com", "Bo", "Yer", couple.ID)
	house := fx.CreateHouse(ctx, couple.ID, "Craftsman", "1 First St")
	cat := fx.CreateCategory(ctx, couple.ID, "Comfort", "")

	if err := store.Set(ctx, house.ID, cat.ID, hb.ID, 4); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	g, err := store.Get(ctx, house.ID, cat.ID, hb.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.Score != 4 {
		t.Errorf("expected score 4, got %d", g.Score)
	}
	firstID := g.ID

	// Re-grading replaces the score in the same row.
	if err := store.Set(ctx, house.ID, cat.ID, hb.ID, 1); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	g, err = store.Get(ctx, house.ID, cat.ID, hb.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.Score != 1 {
		t.Errorf("expected score 1, got %d", g.Score)
	}
	if g.ID != firstID {
		t.Errorf("expected upsert to keep row %s, got %s", firstID, g.ID)
	}

	all, err := store.ListByHouseAndHomebuyer(ctx, house.ID, hb.ID)
	if err != nil {
		t.Fatalf("ListByHouseAndHomebuyer failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 grade row, got %d", len(all))
	}
}

func TestStore_Set_RangeCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gradestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, bad := range []int{0, -3, 6, 42} {
		if err := store.Set(ctx, "house", "cat", "hb", bad); err == nil {
			t.Errorf("expected error for score %d", bad)
		}
	}
}

func TestStore_Get_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gradestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "no-house", "no-cat", "no-hb"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_DeleteByHouse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gradestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fx.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fx.CreateCouple(ctx, realtor.ID)
	_, hb := fx.CreateHomebuyer(ctx, "buyer@example.com", "Bo", "Yer", couple.ID)
	keep := fx.CreateHouse(ctx, couple.ID, "Keep", "1 First St")
	doomed := fx.CreateHouse(ctx, couple.ID, "Doomed", "2 Second St")
	cat := fx.CreateCategory(ctx, couple.ID, "Comfort", "")

	fx.SetGrade(ctx, keep.ID, cat.ID, hb.ID, 3)
	fx.SetGrade(ctx, doomed.ID, cat.ID, hb.ID, 3)

	n, err := store.DeleteByHouse(ctx, doomed.ID)
	if err != nil {
		t.Fatalf("DeleteByHouse failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deletion, got %d", n)
	}

	remaining, err := store.ListByHouses(ctx, []string{keep.ID, doomed.ID})
	if err != nil {
		t.Fatalf("ListByHouses failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].HouseID != keep.ID {
		t.Errorf("expected only the kept house's grade to remain, got %+v", remaining)
	}
}
