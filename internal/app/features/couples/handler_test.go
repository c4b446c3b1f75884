package couples_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/housematch/internal/app/features/couples"
	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/mailer"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*couples.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audit := auditlog.New(nil, logger, auditlog.Config{Admin: "log"})
	mail := mailer.New(mailer.Config{}, logger)
	return couples.NewHandler(db, uierrors.NewErrorLogger(logger), audit, mail, "http://localhost:8080", logger), testutil.NewFixtures(t, db)
}

// renderSafe runs a handler that ends in a template render, absorbing
// the panic an unbooted template engine may raise in tests.
func renderSafe(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func asRealtor(req *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(req, &auth.SessionUser{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: "realtor"})
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRoutes_RealtorsOnly(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := couples.Routes(handler)

	// A homebuyer has no couples area.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Bo", Role: "homebuyer"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("homebuyer status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/forbidden" {
		t.Errorf("homebuyer redirect = %q, want /forbidden", loc)
	}
}

func inviteValues(email1, email2 string) url.Values {
	return url.Values{
		"first_name_1": {"Alex"},
		"last_name_1":  {"Stone"},
		"email_1":      {email1},
		"first_name_2": {"Jamie"},
		"last_name_2":  {"Stone"},
		"email_2":      {email2},
	}
}

func TestHandleInvitePost_CreatesPendingCouple(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")

	req := asRealtor(postForm("/couples/invite", inviteValues("alex@example.com", "jamie@example.com")), user)
	rec := httptest.NewRecorder()

	handler.HandleInvitePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	pending := pendingstore.New(fixtures.DB())
	pcs, err := pending.ListCouplesByRealtor(ctx, realtor.ID)
	if err != nil || len(pcs) != 1 {
		t.Fatalf("ListCouplesByRealtor = %d, err %v, want 1", len(pcs), err)
	}
	invitees, err := pending.ListHomebuyersByCouple(ctx, pcs[0].ID)
	if err != nil || len(invitees) != 2 {
		t.Fatalf("ListHomebuyersByCouple = %d, err %v, want 2", len(invitees), err)
	}
	for _, inv := range invitees {
		if len(inv.RegistrationToken) != 64 {
			t.Errorf("token length = %d for %s, want 64", len(inv.RegistrationToken), inv.Email)
		}
	}
	if invitees[0].RegistrationToken == invitees[1].RegistrationToken {
		t.Error("invitees share a registration token")
	}
}

func TestHandleInvitePost_SameEmailRejected(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")

	req := asRealtor(postForm("/couples/invite", inviteValues("alex@example.com", "Alex@Example.com")), user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleInvitePost(rec, req) })

	if rec.Code == http.StatusSeeOther {
		t.Fatalf("duplicate emails should not redirect")
	}
	pcs, _ := pendingstore.New(fixtures.DB()).ListCouplesByRealtor(ctx, realtor.ID)
	if len(pcs) != 0 {
		t.Errorf("pending couples = %d, want 0", len(pcs))
	}
}

func TestHandleInvitePost_RegisteredEmailRejected(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, realtor.ID)
	fixtures.CreateHomebuyer(ctx, "alex@example.com", "Alex", "Stone", couple.ID)

	req := asRealtor(postForm("/couples/invite", inviteValues("alex@example.com", "jamie@example.com")), user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleInvitePost(rec, req) })

	if rec.Code == http.StatusSeeOther {
		t.Fatalf("registered email should not redirect")
	}
}

func TestHandleInvitePost_AlreadyInvitedEmailRejected(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	fixtures.CreateInvitation(ctx, realtor.ID, "alex@example.com", "jamie@example.com")

	req := asRealtor(postForm("/couples/invite", inviteValues("alex@example.com", "casey@example.com")), user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleInvitePost(rec, req) })

	if rec.Code == http.StatusSeeOther {
		t.Fatalf("already invited email should not redirect")
	}
	pcs, _ := pendingstore.New(fixtures.DB()).ListCouplesByRealtor(ctx, realtor.ID)
	if len(pcs) != 1 {
		t.Errorf("pending couples = %d, want the original 1", len(pcs))
	}
}

func TestHandleInvitationDeletePost_RemovesInvitation(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	pc, invitees := fixtures.CreateInvitation(ctx, realtor.ID, "alex@example.com", "jamie@example.com")

	req := asRealtor(postForm("/couples/invitations/"+pc.ID+"/delete", nil), user)
	req = testutil.WithChiURLParam(req, "pendingCoupleID", pc.ID)
	rec := httptest.NewRecorder()

	handler.HandleInvitationDeletePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	pending := pendingstore.New(fixtures.DB())
	if _, err := pending.GetCouple(ctx, pc.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetCouple after delete = %v, want ErrNoDocuments", err)
	}
	for _, inv := range invitees {
		if _, err := pending.GetByToken(ctx, inv.RegistrationToken); err != mongo.ErrNoDocuments {
			t.Errorf("GetByToken(%s) after delete = %v, want ErrNoDocuments", inv.Email, err)
		}
	}
}

func TestHandleInvitationDeletePost_ForeignRealtorForbidden(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, owner := fixtures.CreateRealtor(ctx, "owner@example.com", "Rae", "Altor")
	pc, _ := fixtures.CreateInvitation(ctx, owner.ID, "alex@example.com", "jamie@example.com")
	intruderUser, _ := fixtures.CreateRealtor(ctx, "intruder@example.com", "Ira", "Nosy")

	req := asRealtor(postForm("/couples/invitations/"+pc.ID+"/delete", nil), intruderUser)
	req = testutil.WithChiURLParam(req, "pendingCoupleID", pc.ID)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleInvitationDeletePost(rec, req) })

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if _, err := pendingstore.New(fixtures.DB()).GetCouple(ctx, pc.ID); err != nil {
		t.Errorf("invitation should survive: %v", err)
	}
}

func TestServeList_RendersForRealtor(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, realtor.ID)
	fixtures.CreateHomebuyer(ctx, "alex@example.com", "Alex", "Stone", couple.ID)
	fixtures.CreateInvitation(ctx, realtor.ID, "casey@example.com", "drew@example.com")

	req := asRealtor(httptest.NewRequest("GET", "/couples", nil), user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.ServeList(rec, req) })
}

func TestHandleCoupleRemovePost_CascadesEverything(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, realtor := fixtures.CreateRealtor(ctx, "realtor@example.com", "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, realtor.ID)
	_, hb := fixtures.CreateHomebuyer(ctx, "alex@example.com", "Alex", "Stone", couple.ID)
	house := fixtures.CreateHouse(ctx, couple.ID, "Blue Bungalow", "12 Oak St")
	cat := fixtures.CreateCategory(ctx, couple.ID, "Kitchen", "")
	fixtures.SetWeight(ctx, hb.ID, cat.ID, 4)
	fixtures.SetGrade(ctx, house.ID, cat.ID, hb.ID, 5)

	req := asRealtor(postForm("/couples/"+couple.ID+"/remove", nil), user)
	req = testutil.WithChiURLParam(req, "coupleID", couple.ID)
	rec := httptest.NewRecorder()

	handler.HandleCoupleRemovePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/couples" {
		t.Errorf("Location: got %q, want %q", loc, "/couples")
	}

	if _, err := handler.Couples.GetByID(ctx, couple.ID); err != mongo.ErrNoDocuments {
		t.Errorf("couple should be gone, err = %v", err)
	}
	if _, err := handler.Homebuyers.GetByID(ctx, hb.ID); err != mongo.ErrNoDocuments {
		t.Errorf("homebuyer should be gone, err = %v", err)
	}
	if _, err := handler.Houses.GetByID(ctx, house.ID); err != mongo.ErrNoDocuments {
		t.Errorf("house should be gone, err = %v", err)
	}
	if _, err := handler.Categories.GetByID(ctx, cat.ID); err != mongo.ErrNoDocuments {
		t.Errorf("category should be gone, err = %v", err)
	}
	if _, err := handler.Weights.Get(ctx, hb.ID, cat.ID); err != mongo.ErrNoDocuments {
		t.Errorf("weight should be gone, err = %v", err)
	}
	if _, err := handler.Grades.Get(ctx, house.ID, cat.ID, hb.ID); err != mongo.ErrNoDocuments {
		t.Errorf("grade should be gone, err = %v", err)
	}
}

func TestHandleCoupleRemovePost_ForeignRealtorForbidden(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, owner := fixtures.CreateRealtor(ctx, "owner@example.com", "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, owner.ID)
	intruderUser, _ := fixtures.CreateRealtor(ctx, "intruder@example.com", "Ira", "Nosy")

	req := asRealtor(postForm("/couples/"+couple.ID+"/remove", nil), intruderUser)
	req = testutil.WithChiURLParam(req, "coupleID", couple.ID)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleCoupleRemovePost(rec, req) })

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if _, err := handler.Couples.GetByID(ctx, couple.ID); err != nil {
		t.Errorf("couple should survive: %v", err)
	}
}
