package home

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	pendingstore "github.com/dalemusser/housematch/internal/app/store/pending"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the landing page and the role dashboards.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Users      *userstore.Store
	Realtors   *realtorstore.Store
	Homebuyers *homebuyerstore.Store
	Couples    *couplestore.Store
	Houses     *housestore.Store
	Pending    *pendingstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		Users:      userstore.New(db),
		Realtors:   realtorstore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Couples:    couplestore.New(db),
		Houses:     housestore.New(db),
		Pending:    pendingstore.New(db),
	}
}

type landingData struct {
	viewdata.BaseVM
}

type homebuyerHomeData struct {
	viewdata.BaseVM
	Houses      []models.House
	PartnerName string
}

type realtorHomeData struct {
	viewdata.BaseVM
	CoupleCount  int
	PendingCount int
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing or dashboard                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		templates.Render(w, r, "home", landingData{
			BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch u.Role {
	case models.RoleHomebuyer:
		h.serveHomebuyerHome(ctx, w, r, u)
	case models.RoleRealtor:
		h.serveRealtorHome(ctx, w, r, u)
	default:
		templates.Render(w, r, "home", landingData{
			BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
		})
	}
}

func (h *Handler) serveHomebuyerHome(ctx context.Context, w http.ResponseWriter, r *http.Request, u *auth.SessionUser) {
	hb, err := h.Homebuyers.GetByUserID(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	houses, err := h.Houses.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	partnerName := ""
	if partner, err := h.Homebuyers.Partner(ctx, hb); err == nil && partner != nil {
		if pu, err := h.Users.GetByID(ctx, partner.UserID); err == nil {
			partnerName = pu.FullName()
		}
	}

	templates.Render(w, r, "home_homebuyer", homebuyerHomeData{
		BaseVM:      viewdata.NewBaseVM(r, "Your Houses", "/"),
		Houses:      houses,
		PartnerName: partnerName,
	})
}

func (h *Handler) serveRealtorHome(ctx context.Context, w http.ResponseWriter, r *http.Request, u *auth.SessionUser) {
	rl, err := h.Realtors.GetByUserID(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "realtor lookup failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	couples, err := h.Couples.ListByRealtor(ctx, rl.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "couple listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}
	pending, err := h.Pending.ListCouplesByRealtor(ctx, rl.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "pending couple listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	templates.Render(w, r, "home_realtor", realtorHomeData{
		BaseVM:       viewdata.NewBaseVM(r, "Your Couples", "/"),
		CoupleCount:  len(couples),
		PendingCount: len(pending),
	})
}
