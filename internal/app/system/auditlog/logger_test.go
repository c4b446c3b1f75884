package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/housematch/internal/app/store/audit"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, uuid.NewString(), "test@example.com")
	logger.Logout(ctx, req, uuid.NewString())
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := uuid.NewString()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  "off",
		Grade: "off",
		Admin: "off",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		Success:   true,
	})

	// Verify nothing was logged to DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := uuid.NewString()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  "db",
		Grade: "db",
		Admin: "db",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		Success:   true,
	})

	// Verify event was logged to DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := uuid.NewString()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth: "log",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		Success:   true,
	})

	// zap-only mode must not write to the DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no DB events when config is 'log'")
	}
}

func TestLogger_CategoryRouting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Auth off but grade on: grade events still land in the DB.
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  "off",
		Grade: "db",
		Admin: "off",
	})

	authUser := uuid.NewString()
	gradeUser := uuid.NewString()

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    authUser,
		Success:   true,
	})
	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryGrade,
		EventType: audit.EventHouseGraded,
		UserID:    gradeUser,
		Success:   true,
	})

	authEvents, err := store.GetByUser(ctx, authUser, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(authEvents) != 0 {
		t.Error("auth events should be suppressed")
	}

	gradeEvents, err := store.GetByUser(ctx, gradeUser, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(gradeEvents) != 1 {
		t.Errorf("expected 1 grade event, got %d", len(gradeEvents))
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := uuid.NewString()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	logger.LoginSuccess(ctx, req, userID, "buyer@example.com")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.EventType != audit.EventLoginSuccess {
		t.Errorf("EventType = %q, want %q", e.EventType, audit.EventLoginSuccess)
	}
	if e.IP != "203.0.113.9" {
		t.Errorf("IP = %q, want forwarded address", e.IP)
	}
	if e.Details["email"] != "buyer@example.com" {
		t.Errorf("Details[email] = %q", e.Details["email"])
	}
}

func TestLogger_CoupleInvited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := uuid.NewString()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "db"})

	req := httptest.NewRequest("POST", "/invites", nil)
	logger.CoupleInvited(ctx, req, userID, uuid.NewString(), []string{"a@example.com", "b@example.com"})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["email_1"] != "a@example.com" || events[0].Details["email_2"] != "b@example.com" {
		t.Errorf("invited emails not recorded: %v", events[0].Details)
	}
}
