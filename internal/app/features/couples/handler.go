// internal/app/features/couples/handler.go
package couples

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	categorystore "github.com/dalemusser/housematch/internal/app/store/categories"
	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	weightstore "github.com/dalemusser/housematch/internal/app/store/weights"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/mailer"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
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
	Mailer     *mailer.Mailer
	BaseURL    string
	Users      *userstore.Store
	Realtors   *realtorstore.Store
	Homebuyers *homebuyerstore.Store
	Couples    *couplestore.Store
	Pending    *pendingstore.Store
	Houses     *housestore.Store
	Categories *categorystore.Store
	Weights    *weightstore.Store
	Grades     *gradestore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		Mailer:     mail,
		BaseURL:    baseURL,
		Users:      userstore.New(db),
		Realtors:   realtorstore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Couples:    couplestore.New(db),
		Pending:    pendingstore.New(db),
		Houses:     housestore.New(db),
		Categories: categorystore.New(db),
		Weights:    weightstore.New(db),
		Grades:     gradestore.New(db),
	}
}

// coupleRow is one registered couple on the realtor's list.
type coupleRow struct {
	Couple models.Couple
	Names  []string
}

// inviteeRow is one invited email with its computed registration state.
type inviteeRow struct {
	Invitee    models.PendingHomebuyer
	Registered bool
}

// pendingRow is one outstanding invitation on the realtor's list.
type pendingRow struct {
	Pending  models.PendingCouple
	Invitees []inviteeRow
}

type listData struct {
	viewdata.BaseVM
	Couples []coupleRow
	Pending []pendingRow
}

// currentRealtor resolves the signed-in realtor, writing the error
// response itself when that fails.
func (h *Handler) currentRealtor(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Realtor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return nil, false
	}
	realtor, err := h.Realtors.GetByUserID(ctx, u.ID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogForbidden(w, r, "user is not a realtor", err, "Only realtors can manage couples.", "/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "realtor lookup failed", err, "Something went wrong. Please try again.", "/")
		return nil, false
	}
	return realtor, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /couples                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}

	couples, err := h.Couples.ListByRealtor(ctx, realtor.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "couple listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	rows := make([]coupleRow, 0, len(couples))
	for _, c := range couples {
		names, err := h.homebuyerNames(ctx, c.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/")
			return
		}
		rows = append(rows, coupleRow{Couple: c, Names: names})
	}

	pending, err := h.pendingRows(ctx, realtor.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "invitation listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	templates.Render(w, r, "couples_list", listData{
		BaseVM:  viewdata.NewBaseVM(r, "Couples", "/"),
		Couples: rows,
		Pending: pending,
	})
}

func (h *Handler) homebuyerNames(ctx context.Context, coupleID string) ([]string, error) {
	hbs, err := h.Homebuyers.ListByCouple(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(hbs))
	for _, hb := range hbs {
		u, err := h.Users.GetByID(ctx, hb.UserID)
		if err != nil {
			return nil, err
		}
		names = append(names, u.FullName())
	}
	return names, nil
}

func (h *Handler) pendingRows(ctx context.Context, realtorID string) ([]pendingRow, error) {
	pcs, err := h.Pending.ListCouplesByRealtor(ctx, realtorID)
	if err != nil {
		return nil, err
	}

	rows := make([]pendingRow, 0, len(pcs))
	for _, pc := range pcs {
		invitees, err := h.Pending.ListHomebuyersByCouple(ctx, pc.ID)
		if err != nil {
			return nil, err
		}
		row := pendingRow{Pending: pc}
		for _, inv := range invitees {
			registered, err := h.Homebuyers.EmailRegistered(ctx, h.DB, inv.EmailCI)
			if err != nil {
				return nil, err
			}
			row.Invitees = append(row.Invitees, inviteeRow{Invitee: inv, Registered: registered})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /couples/invitations/{pendingCoupleID}/delete                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) pendingForRealtor(ctx context.Context, w http.ResponseWriter, r *http.Request, realtor *models.Realtor) (*models.PendingCouple, bool) {
	id := chi.URLParam(r, "pendingCoupleID")
	pc, err := h.Pending.GetCouple(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "pending couple not found", err, "That invitation does not exist.", "/couples")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "pending couple lookup failed", err, "Something went wrong. Please try again.", "/couples")
		return nil, false
	}
	if pc.RealtorID != realtor.ID {
		h.ErrLog.LogForbidden(w, r, "pending couple belongs to another realtor", nil, "That invitation is not yours.", "/couples")
		return nil, false
	}
	return pc, true
}

func (h *Handler) ServeInvitationDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}
	pc, ok := h.pendingForRealtor(ctx, w, r, realtor)
	if !ok {
		return
	}

	invitees, err := h.Pending.ListHomebuyersByCouple(ctx, pc.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "invitee listing failed", err, "Something went wrong. Please try again.", "/couples")
		return
	}

	templates.Render(w, r, "invitation_delete", struct {
		viewdata.BaseVM
		Pending  models.PendingCouple
		Invitees []models.PendingHomebuyer
	}{
		BaseVM:   viewdata.NewBaseVM(r, "Delete Invitation", "/couples"),
		Pending:  *pc,
		Invitees: invitees,
	})
}

func (h *Handler) HandleInvitationDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}
	pc, ok := h.pendingForRealtor(ctx, w, r, realtor)
	if !ok {
		return
	}

	if err := h.Pending.DeleteCouple(ctx, pc.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "invitation delete failed", err, "The invitation could not be deleted.", "/couples")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.InvitationDeleted(r.Context(), r, u.ID, pc.ID)
	}

	http.Redirect(w, r, "/couples", http.StatusSeeOther)
}
