// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/inputval"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type profileData struct {
	viewdata.BaseVM
	Error     string
	Success   string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

type profileForm struct {
	FirstName string `validate:"required,max=30" label:"First name"`
	LastName  string `validate:"required,max=30" label:"Last name"`
	Phone     string `validate:"phone" label:"Phone"`
}

type passwordForm struct {
	Current string `validate:"required" label:"Current password"`
	New     string `validate:"required,min=8" label:"New password"`
	Confirm string `validate:"required" label:"Password confirmation"`
}

// currentUser loads the signed-in user's record. It writes its own
// error response when the lookup fails.
func (h *Handler) currentUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return nil, false
	}

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile user lookup failed", err, "Something went wrong. Please try again.", "/")
		return nil, false
	}
	return u, true
}

func successMessage(r *http.Request) string {
	switch r.URL.Query().Get("saved") {
	case "profile":
		return "Your profile has been updated."
	case "password":
		return "Your password has been changed."
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /profile                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.currentUser(ctx, w, r)
	if !ok {
		return
	}

	templates.Render(w, r, "profile", profileData{
		BaseVM:    viewdata.NewBaseVM(r, "Your Profile", "/"),
		Success:   successMessage(r),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleProfilePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.currentUser(ctx, w, r)
	if !ok {
		return
	}

	form := profileForm{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Phone:     r.FormValue("phone"),
	}

	if result := inputval.Validate(form); result.HasErrors() {
		h.renderWithError(w, r, u, form, result.First().Message)
		return
	}

	if err := h.Users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Phone:     form.Phone,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "profile update failed", err, "Failed to save your profile.", "/profile")
		return
	}

	http.Redirect(w, r, "/profile?saved=profile", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile/password                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePasswordPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.currentUser(ctx, w, r)
	if !ok {
		return
	}

	form := passwordForm{
		Current: r.FormValue("current_password"),
		New:     r.FormValue("new_password"),
		Confirm: r.FormValue("confirm_password"),
	}

	renderError := func(msg string) {
		h.renderWithError(w, r, u, profileForm{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
		}, msg)
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}
	if !userstore.CheckPassword(u, form.Current) {
		renderError("Your current password is incorrect.")
		return
	}
	if form.New != form.Confirm {
		renderError("New passwords do not match.")
		return
	}

	if err := h.Users.SetPassword(ctx, u.ID, form.New); err != nil {
		h.ErrLog.LogServerError(w, r, "password change failed", err, "Failed to change your password.", "/profile")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", u.ID))
	http.Redirect(w, r, "/profile?saved=password", http.StatusSeeOther)
}

func (h *Handler) renderWithError(w http.ResponseWriter, r *http.Request, u *models.User, form profileForm, msg string) {
	templates.Render(w, r, "profile", profileData{
		BaseVM:    viewdata.NewBaseVM(r, "Your Profile", "/"),
		Error:     msg,
		Email:     u.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Phone:     form.Phone,
	})
}
