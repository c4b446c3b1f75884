// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/grading"
	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/inputval"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/txn"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Users      *userstore.Store
	Realtors   *realtorstore.Store
	Homebuyers *homebuyerstore.Store
	Couples    *couplestore.Store
	Pending    *pendingstore.Store
	Grading    *grading.Engine
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
		Couples:    couplestore.New(db),
		Pending:    pendingstore.New(db),
		Grading:    grading.NewEngine(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type homebuyerFormData struct {
	viewdata.BaseVM
	Error       string
	Token       string
	Email       string
	RealtorName string
	FirstName   string
	LastName    string
	Phone       string
}

type realtorFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

type homebuyerForm struct {
	FirstName       string `validate:"required,max=30" label:"First name"`
	LastName        string `validate:"required,max=30" label:"Last name"`
	Phone           string `validate:"phone" label:"Phone"`
	Password        string `validate:"required,min=8" label:"Password"`
	PasswordConfirm string `validate:"required" label:"Password confirmation"`
}

type realtorForm struct {
	Email           string `validate:"required,email" label:"Email"`
	FirstName       string `validate:"required,max=30" label:"First name"`
	LastName        string `validate:"required,max=30" label:"Last name"`
	Phone           string `validate:"phone" label:"Phone"`
	Password        string `validate:"required,min=8" label:"Password"`
	PasswordConfirm string `validate:"required" label:"Password confirmation"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /signup/{token}                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeHomebuyerSignup(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pending, realtorName, ok := h.lookupInvitation(ctx, w, r)
	if !ok {
		return
	}

	templates.Render(w, r, "signup_homebuyer", homebuyerFormData{
		BaseVM:      viewdata.NewBaseVM(r, "Create Your Account", "/login"),
		Token:       pending.RegistrationToken,
		Email:       pending.Email,
		RealtorName: realtorName,
		FirstName:   pending.FirstName,
		LastName:    pending.LastName,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup/{token}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleHomebuyerSignupPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	pending, realtorName, ok := h.lookupInvitation(ctx, w, r)
	if !ok {
		return
	}

	form := homebuyerForm{
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		Phone:           r.FormValue("phone"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "signup_homebuyer", homebuyerFormData{
			BaseVM:      viewdata.NewBaseVM(r, "Create Your Account", "/login"),
			Error:       msg,
			Token:       pending.RegistrationToken,
			Email:       pending.Email,
			RealtorName: realtorName,
			FirstName:   form.FirstName,
			LastName:    form.LastName,
			Phone:       form.Phone,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}
	if form.Password != form.PasswordConfirm {
		renderError("Passwords do not match.")
		return
	}

	var created models.User
	var joinedCoupleID string
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		u, err := h.Users.Create(ctx, models.User{
			Email:     pending.Email,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Phone:     form.Phone,
		}, form.Password)
		if err != nil {
			return err
		}
		created = u

		coupleID, err := h.resolveCouple(ctx, pending)
		if err != nil {
			return err
		}
		joinedCoupleID = coupleID

		hb, err := h.Homebuyers.Create(ctx, u.ID, coupleID)
		if err != nil {
			return err
		}
		if err := h.Grading.BackfillHomebuyer(ctx, &hb); err != nil {
			return err
		}

		return h.cleanupPendingIfDone(ctx, pending.PendingCoupleID)
	})
	if err == userstore.ErrDuplicateEmail {
		renderError("An account with this email already exists. Try signing in instead.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer signup failed", err, "Something went wrong. Please try again.", r.URL.Path)
		return
	}

	h.AuditLog.HomebuyerRegistered(r.Context(), r, created.ID, joinedCoupleID)

	if err := auth.SignIn(w, r, &auth.SessionUser{
		ID:    created.ID,
		Name:  created.FullName(),
		Email: created.Email,
		Role:  models.RoleHomebuyer,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "session sign-in failed", err, "Your account was created. Please sign in.", "/login")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// lookupInvitation loads the pending homebuyer for the {token} URL
// parameter. Unknown tokens and already-registered invitees are turned
// into a redirect to the login page.
func (h *Handler) lookupInvitation(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.PendingHomebuyer, string, bool) {
	token := chi.URLParam(r, "token")

	pending, err := h.Pending.GetByToken(ctx, token)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "unknown registration token", err, "This registration link is not valid.", "/login")
		return nil, "", false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "invitation lookup failed", err, "Something went wrong. Please try again.", "/login")
		return nil, "", false
	}

	registered, err := h.Homebuyers.EmailRegistered(ctx, h.DB, pending.EmailCI)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "registration check failed", err, "Something went wrong. Please try again.", "/login")
		return nil, "", false
	}
	if registered {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, "", false
	}

	realtorName := h.realtorNameForPending(ctx, pending.PendingCoupleID)
	return pending, realtorName, true
}

// resolveCouple finds the couple for a registering invitee: when the
// partner already registered, join their couple; otherwise create a
// fresh couple under the inviting realtor and seed its starter
// categories.
func (h *Handler) resolveCouple(ctx context.Context, pending *models.PendingHomebuyer) (string, error) {
	siblings, err := h.Pending.ListHomebuyersByCouple(ctx, pending.PendingCoupleID)
	if err != nil {
		return "", err
	}
	for _, sib := range siblings {
		if sib.ID == pending.ID {
			continue
		}
		u, err := h.Users.GetByEmail(ctx, sib.Email)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return "", err
		}
		hb, err := h.Homebuyers.GetByUserID(ctx, u.ID)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return "", err
		}
		return hb.CoupleID, nil
	}

	pc, err := h.Pending.GetCouple(ctx, pending.PendingCoupleID)
	if err != nil {
		return "", err
	}
	couple, err := h.Couples.Create(ctx, pc.RealtorID)
	if err != nil {
		return "", err
	}
	if err := h.Grading.SeedCoupleDefaults(ctx, couple.ID); err != nil {
		return "", err
	}
	return couple.ID, nil
}

// cleanupPendingIfDone removes the pending couple once every invitee
// has a registered homebuyer account.
func (h *Handler) cleanupPendingIfDone(ctx context.Context, pendingCoupleID string) error {
	siblings, err := h.Pending.ListHomebuyersByCouple(ctx, pendingCoupleID)
	if err != nil {
		return err
	}
	if len(siblings) < models.MaxHomebuyersPerCouple {
		return nil
	}
	for _, sib := range siblings {
		registered, err := h.Homebuyers.EmailRegistered(ctx, h.DB, sib.EmailCI)
		if err != nil {
			return err
		}
		if !registered {
			return nil
		}
	}
	return h.Pending.DeleteCouple(ctx, pendingCoupleID)
}

func (h *Handler) realtorNameForPending(ctx context.Context, pendingCoupleID string) string {
	pc, err := h.Pending.GetCouple(ctx, pendingCoupleID)
	if err != nil {
		return ""
	}
	rl, err := h.Realtors.GetByID(ctx, pc.RealtorID)
	if err != nil {
		return ""
	}
	u, err := h.Users.GetByID(ctx, rl.UserID)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", u.FullName(), u.Email)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /signup/realtor                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRealtorSignup(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "signup_realtor", realtorFormData{
		BaseVM: viewdata.NewBaseVM(r, "Realtor Sign Up", "/login"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup/realtor                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRealtorSignupPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/signup/realtor")
		return
	}

	form := realtorForm{
		Email:           r.FormValue("email"),
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		Phone:           r.FormValue("phone"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "signup_realtor", realtorFormData{
			BaseVM:    viewdata.NewBaseVM(r, "Realtor Sign Up", "/login"),
			Error:     msg,
			Email:     form.Email,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Phone:     form.Phone,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}
	if form.Password != form.PasswordConfirm {
		renderError("Passwords do not match.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var created models.User
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		u, err := h.Users.Create(ctx, models.User{
			Email:     form.Email,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Phone:     form.Phone,
		}, form.Password)
		if err != nil {
			return err
		}
		created = u
		_, err = h.Realtors.Create(ctx, u.ID)
		return err
	})
	if err == userstore.ErrDuplicateEmail {
		renderError("An account with this email already exists. Try signing in instead.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "realtor signup failed", err, "Something went wrong. Please try again.", "/signup/realtor")
		return
	}

	h.AuditLog.RealtorRegistered(r.Context(), r, created.ID)

	if err := auth.SignIn(w, r, &auth.SessionUser{
		ID:    created.ID,
		Name:  created.FullName(),
		Email: created.Email,
		Role:  models.RoleRealtor,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "session sign-in failed", err, "Your account was created. Please sign in.", "/login")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
