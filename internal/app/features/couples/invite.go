// internal/app/features/couples/invite.go
package couples

import (
	"context"
	"net/http"
	"strings"

	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/inputval"
	"github.com/dalemusser/housematch/internal/app/system/mailer"
	"github.com/dalemusser/housematch/internal/app/system/normalize"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/txn"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// invitee is one half of the invitation form.
type invitee struct {
	FirstName string `validate:"required,max=30" label:"First name"`
	LastName  string `validate:"required,max=30" label:"Last name"`
	Email     string `validate:"required,email" label:"Email"`
}

type inviteForm struct {
	First  invitee
	Second invitee
}

type inviteData struct {
	viewdata.BaseVM
	Error string
	Form  inviteForm
}

func readInviteForm(r *http.Request) inviteForm {
	return inviteForm{
		First: invitee{
			FirstName: r.FormValue("first_name_1"),
			LastName:  r.FormValue("last_name_1"),
			Email:     r.FormValue("email_1"),
		},
		Second: invitee{
			FirstName: r.FormValue("first_name_2"),
			LastName:  r.FormValue("last_name_2"),
			Email:     r.FormValue("email_2"),
		},
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /couples/invite                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.currentRealtor(ctx, w, r); !ok {
		return
	}

	templates.Render(w, r, "couple_invite", inviteData{
		BaseVM: viewdata.NewBaseVM(r, "Invite Couple", "/couples"),
	})
}

func (h *Handler) HandleInvitePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/couples")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}

	form := readInviteForm(r)

	renderError := func(msg string) {
		templates.Render(w, r, "couple_invite", inviteData{
			BaseVM: viewdata.NewBaseVM(r, "Invite Couple", "/couples"),
			Error:  msg,
			Form:   form,
		})
	}

	for _, half := range []invitee{form.First, form.Second} {
		if result := inputval.Validate(half); result.HasErrors() {
			renderError(result.First().Message)
			return
		}
	}

	if strings.EqualFold(normalize.Email(form.First.Email), normalize.Email(form.Second.Email)) {
		renderError("Please enter two different email addresses.")
		return
	}

	for _, half := range []invitee{form.First, form.Second} {
		taken, err := h.emailTaken(ctx, half.Email)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "email availability check failed", err, "Something went wrong. Please try again.", "/couples")
			return
		}
		if taken {
			renderError("A user with the email " + half.Email + " already exists or has been invited.")
			return
		}
	}

	var (
		pc       models.PendingCouple
		invitees []models.PendingHomebuyer
	)
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		pc, err = h.Pending.CreateCouple(ctx, realtor.ID)
		if err != nil {
			return err
		}
		invitees = invitees[:0]
		for _, half := range []invitee{form.First, form.Second} {
			ph, err := h.Pending.CreateHomebuyer(ctx, models.PendingHomebuyer{
				PendingCoupleID: pc.ID,
				Email:           half.Email,
				FirstName:       half.FirstName,
				LastName:        half.LastName,
			})
			if err != nil {
				return err
			}
			invitees = append(invitees, ph)
		}
		return nil
	})
	if err == pendingstore.ErrDuplicateEmail {
		renderError("A user with this email already exists or has been invited.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "invitation create failed", err, "The invitation could not be created.", "/couples")
		return
	}

	realtorName := ""
	if u, ok := auth.CurrentUser(r); ok {
		realtorName = u.Name
		h.AuditLog.CoupleInvited(r.Context(), r, u.ID, pc.ID, []string{invitees[0].Email, invitees[1].Email})
	}

	// Email delivery must not hold up the response. Failures are
	// logged; the realtor can delete and re-invite.
	go h.sendInvitations(realtorName, invitees)

	http.Redirect(w, r, "/couples", http.StatusSeeOther)
}

func (h *Handler) sendInvitations(realtorName string, invitees []models.PendingHomebuyer) {
	for _, inv := range invitees {
		email := mailer.BuildInvitationEmail(mailer.InvitationEmailData{
			SiteName:    models.DefaultSiteName,
			FirstName:   inv.FirstName,
			RealtorName: realtorName,
			SignupLink:  h.BaseURL + "/signup/" + inv.RegistrationToken,
		})
		email.To = inv.Email
		if err := h.Mailer.Send(email); err != nil {
			h.Log.Error("invitation email failed",
				zap.String("to", inv.Email),
				zap.String("pending_couple_id", inv.PendingCoupleID),
				zap.Error(err),
			)
		}
	}
}

// emailTaken reports whether an email already belongs to a user or an
// outstanding invitation.
func (h *Handler) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := h.Users.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, err
	}
	return h.Pending.EmailInvited(ctx, email)
}
