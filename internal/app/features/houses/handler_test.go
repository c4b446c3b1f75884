package houses_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/features/houses"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/housematch/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*houses.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audit := auditlog.New(nil, logger, auditlog.Config{Grade: "log", Admin: "log"})
	return houses.NewHandler(db, uierrors.NewErrorLogger(logger), audit, logger), testutil.NewFixtures(t, db)
}

// renderSafe runs a handler that ends in a template render, absorbing
// the panic an unbooted template engine may raise in tests.
func renderSafe(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

type coupleSetup struct {
	user      models.User
	homebuyer models.Homebuyer
	coupleID  string
}

func setupCouple(t *testing.T, fixtures *testutil.Fixtures, email string) coupleSetup {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, realtor := fixtures.CreateRealtor(ctx, "realtor-"+email, "Rae", "Altor")
	couple := fixtures.CreateCouple(ctx, realtor.ID)
	user, hb := fixtures.CreateHomebuyer(ctx, email, "Bo", "Yer", couple.ID)
	return coupleSetup{user: user, homebuyer: hb, coupleID: couple.ID}
}

func asUser(req *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(req, &auth.SessionUser{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: "homebuyer"})
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRoutes_HomebuyersOnly(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := houses.Routes(handler)

	// Anonymous browsers are sent to sign in.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anonymous status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("anonymous redirect = %q, want /login", loc)
	}

	// Realtors have no houses area.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Rae", Role: "realtor"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("realtor status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/forbidden" {
		t.Errorf("realtor redirect = %q, want /forbidden", loc)
	}
}

func TestHandleNewPost_CreatesHouseAndBackfillsGrades(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	cat := fixtures.CreateCategory(ctx, cs.coupleID, "Comfort", "How it feels")

	req := asUser(postForm("/houses/new", url.Values{
		"nickname": {"Craftsman"},
		"address":  {"1 First St"},
	}), cs.user)
	rec := httptest.NewRecorder()

	handler.HandleNewPost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	list, err := housestore.New(fixtures.DB()).ListByCouple(ctx, cs.coupleID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByCouple = %v houses, err %v, want 1 house", len(list), err)
	}
	house := list[0]

	if loc := rec.Header().Get("Location"); loc != "/houses/"+house.ID+"/evaluate" {
		t.Errorf("redirect Location = %q, want evaluate page for new house", loc)
	}

	// The new house picks up a default score per homebuyer and category.
	g, err := gradestore.New(fixtures.DB()).Get(ctx, house.ID, cat.ID, cs.homebuyer.ID)
	if err != nil {
		t.Fatalf("Get grade: %v", err)
	}
	if g.Score != models.RatingDefault {
		t.Errorf("backfilled score = %d, want %d", g.Score, models.RatingDefault)
	}
}

func TestHandleNewPost_DuplicateNicknameRendersForm(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")

	req := asUser(postForm("/houses/new", url.Values{
		"nickname": {"craftsman"},
	}), cs.user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleNewPost(rec, req) })

	if rec.Code == http.StatusSeeOther {
		t.Fatalf("duplicate nickname should not redirect")
	}
	list, _ := housestore.New(fixtures.DB()).ListByCouple(ctx, cs.coupleID)
	if len(list) != 1 {
		t.Errorf("house count = %d, want 1", len(list))
	}
}

func TestHandleNewPost_MissingNicknameRendersForm(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")

	req := asUser(postForm("/houses/new", url.Values{
		"nickname": {""},
		"address":  {"1 First St"},
	}), cs.user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleNewPost(rec, req) })

	if rec.Code == http.StatusSeeOther {
		t.Fatalf("missing nickname should not redirect")
	}
	list, _ := housestore.New(fixtures.DB()).ListByCouple(ctx, cs.coupleID)
	if len(list) != 0 {
		t.Errorf("house count = %d, want 0", len(list))
	}
}

func TestHandleEditPost_UpdatesHouse(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	house := fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")

	req := asUser(postForm("/houses/"+house.ID+"/edit", url.Values{
		"nickname": {"Bungalow"},
		"address":  {"2 Second St"},
	}), cs.user)
	req = testutil.WithChiURLParam(req, "houseID", house.ID)
	rec := httptest.NewRecorder()

	handler.HandleEditPost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	updated, err := housestore.New(fixtures.DB()).GetByID(ctx, house.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Nickname != "Bungalow" || updated.Address != "2 Second St" {
		t.Errorf("house = %q / %q after update", updated.Nickname, updated.Address)
	}
}

func TestHandleEditPost_ForeignCoupleForbidden(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	other := setupCouple(t, fixtures, "other@example.com")
	house := fixtures.CreateHouse(ctx, other.coupleID, "Craftsman", "1 First St")

	req := asUser(postForm("/houses/"+house.ID+"/edit", url.Values{
		"nickname": {"Stolen"},
	}), cs.user)
	req = testutil.WithChiURLParam(req, "houseID", house.ID)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleEditPost(rec, req) })

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleDeletePost_RemovesHouseAndGrades(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	house := fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")
	cat := fixtures.CreateCategory(ctx, cs.coupleID, "Comfort", "")
	fixtures.SetGrade(ctx, house.ID, cat.ID, cs.homebuyer.ID, 4)

	req := asUser(postForm("/houses/"+house.ID+"/delete", nil), cs.user)
	req = testutil.WithChiURLParam(req, "houseID", house.ID)
	rec := httptest.NewRecorder()

	handler.HandleDeletePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if _, err := housestore.New(fixtures.DB()).GetByID(ctx, house.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete = %v, want ErrNoDocuments", err)
	}
	grades, err := gradestore.New(fixtures.DB()).ListByHouseAndHomebuyer(ctx, house.ID, cs.homebuyer.ID)
	if err != nil {
		t.Fatalf("ListByHouseAndHomebuyer: %v", err)
	}
	if len(grades) != 0 {
		t.Errorf("grades after delete = %d, want 0", len(grades))
	}
}

func TestHandleEvaluatePost_SavesScores(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	house := fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")
	comfort := fixtures.CreateCategory(ctx, cs.coupleID, "Comfort", "")
	location := fixtures.CreateCategory(ctx, cs.coupleID, "Location", "")

	req := asUser(postForm("/houses/"+house.ID+"/evaluate", url.Values{
		"score_" + comfort.ID:  {"5"},
		"score_" + location.ID: {"2"},
	}), cs.user)
	req = testutil.WithChiURLParam(req, "houseID", house.ID)
	rec := httptest.NewRecorder()

	handler.HandleEvaluatePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/houses/"+house.ID+"/evaluate?saved=1" {
		t.Errorf("redirect Location = %q", loc)
	}

	grades := gradestore.New(fixtures.DB())
	g, err := grades.Get(ctx, house.ID, comfort.ID, cs.homebuyer.ID)
	if err != nil || g.Score != 5 {
		t.Errorf("comfort score = %v err %v, want 5", g, err)
	}
	g, err = grades.Get(ctx, house.ID, location.ID, cs.homebuyer.ID)
	if err != nil || g.Score != 2 {
		t.Errorf("location score = %v err %v, want 2", g, err)
	}
}

func TestHandleEvaluatePost_ScoreOutOfRange(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	house := fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")
	cat := fixtures.CreateCategory(ctx, cs.coupleID, "Comfort", "")

	req := asUser(postForm("/houses/"+house.ID+"/evaluate", url.Values{
		"score_" + cat.ID: {"9"},
	}), cs.user)
	req = testutil.WithChiURLParam(req, "houseID", house.ID)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.HandleEvaluatePost(rec, req) })

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, err := gradestore.New(fixtures.DB()).Get(ctx, house.ID, cat.ID, cs.homebuyer.ID); err != mongo.ErrNoDocuments {
		t.Errorf("Get after rejected score = %v, want ErrNoDocuments", err)
	}
}

func TestServeList_RendersForHomebuyer(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cs := setupCouple(t, fixtures, "buyer@example.com")
	fixtures.CreateHouse(ctx, cs.coupleID, "Craftsman", "1 First St")

	req := asUser(httptest.NewRequest("GET", "/houses", nil), cs.user)
	rec := httptest.NewRecorder()

	renderSafe(func() { handler.ServeList(rec, req) })
}
