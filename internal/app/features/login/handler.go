// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/ratelimit"
	"github.com/dalemusser/housematch/internal/app/system/roles"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Failed sign-in attempts allowed per client IP per window before
// further attempts are refused.
const (
	loginAttemptLimit  = 10
	loginAttemptWindow = 5 * time.Minute
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Users      *userstore.Store
	Realtors   *realtorstore.Store
	Homebuyers *homebuyerstore.Store
	Limiter    *ratelimit.Limiter
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		Users:      userstore.New(db),
		Realtors:   realtorstore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Limiter:    ratelimit.New(loginAttemptLimit, loginAttemptWindow),
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign In", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow(ip) {
		h.renderFormWithError(w, r, "Too many sign-in attempts. Please wait a few minutes and try again.", r.FormValue("email"))
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		h.renderFormWithError(w, r, "Invalid email or password.", email)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user lookup failed", err, "Something went wrong. Please try again.", "/login")
		return
	}

	if !u.IsActive {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		h.renderFormWithError(w, r, "Your account has been disabled. Contact your realtor for help.", email)
		return
	}

	if !userstore.CheckPassword(u, password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		h.renderFormWithError(w, r, "Invalid email or password.", email)
		return
	}

	role, err := h.resolveRole(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "role lookup failed", err, "Something went wrong. Please try again.", "/login")
		return
	}
	if role == "" {
		h.Log.Warn("user has no role record", zap.String("user_id", u.ID))
		h.renderFormWithError(w, r, "Your account is not fully set up. Contact your realtor for help.", email)
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{
		ID:    u.ID,
		Name:  u.FullName(),
		Email: u.Email,
		Role:  role,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "session sign-in failed", err, "Something went wrong. Please try again.", "/login")
		return
	}

	h.Limiter.Reset(ip)
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.Email)

	dest := urlutil.SafeReturn(r.FormValue("return"), "", "/")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// resolveRole finds which role record points at the user. An empty
// string means neither does.
func (h *Handler) resolveRole(ctx context.Context, userID string) (string, error) {
	role, err := roles.Resolve(ctx, h.DB, userID)
	if err != nil {
		return "", err
	}
	return role.Type, nil
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign In", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: query.Get(r, "return"),
	})
}
