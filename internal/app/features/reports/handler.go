// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/policy/reportpolicy"
	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	weightstore "github.com/dalemusser/housematch/internal/app/store/weights"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Policy     *reportpolicy.Policy
	Users      *userstore.Store
	Homebuyers *homebuyerstore.Store
	Couples    *couplestore.Store
	Houses     *housestore.Store
	Weights    *weightstore.Store
	Grades     *gradestore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		Policy:     reportpolicy.New(db),
		Users:      userstore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Couples:    couplestore.New(db),
		Houses:     housestore.New(db),
		Weights:    weightstore.New(db),
		Grades:     gradestore.New(db),
	}
}

type reportData struct {
	viewdata.BaseVM
	BuyerNames []string
	Houses     []HouseReport
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /report            (homebuyer, own couple)                              |
| GET /reports/{coupleID} (realtor, managed couple)                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeOwnReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	hb, err := h.Homebuyers.GetByUserID(ctx, u.ID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogForbidden(w, r, "user is not a homebuyer", err, "Only homebuyers have a couple report.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	h.serveReport(ctx, w, r, hb.CoupleID, "/")
}

func (h *Handler) ServeCoupleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	coupleID := chi.URLParam(r, "coupleID")
	allowed, err := h.Policy.CanViewReportForCouple(ctx, r, coupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report access check failed", err, "Something went wrong. Please try again.", "/")
		return
	}
	if !allowed {
		h.ErrLog.LogForbidden(w, r, "report access denied", nil, "You cannot view this couple's report.", "/")
		return
	}

	if _, err := h.Couples.GetByID(ctx, coupleID); err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "couple not found", err, "That couple does not exist.", "/couples")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "couple lookup failed", err, "Something went wrong. Please try again.", "/couples")
		return
	}

	h.serveReport(ctx, w, r, coupleID, "/couples")
}

func (h *Handler) serveReport(ctx context.Context, w http.ResponseWriter, r *http.Request, coupleID, backDefault string) {
	buyers, err := h.coupleBuyers(ctx, coupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report homebuyer lookup failed", err, "The report could not be built.", backDefault)
		return
	}

	houses, err := h.Houses.ListByCouple(ctx, coupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report house listing failed", err, "The report could not be built.", backDefault)
		return
	}

	buyerIDs := make([]string, len(buyers))
	for i, b := range buyers {
		buyerIDs[i] = b.ID
	}
	weights, err := h.Weights.ListByHomebuyers(ctx, buyerIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report weight listing failed", err, "The report could not be built.", backDefault)
		return
	}

	houseIDs := make([]string, len(houses))
	for i, house := range houses {
		houseIDs[i] = house.ID
	}
	grades, err := h.Grades.ListByHouses(ctx, houseIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report grade listing failed", err, "The report could not be built.", backDefault)
		return
	}

	names := make([]string, len(buyers))
	for i, b := range buyers {
		names[i] = b.Name
	}

	templates.Render(w, r, "couple_report", reportData{
		BaseVM:     viewdata.NewBaseVM(r, "Couple Report", backDefault),
		BuyerNames: names,
		Houses:     buildReport(houses, buyers, weights, grades),
	})
}

func (h *Handler) coupleBuyers(ctx context.Context, coupleID string) ([]buyer, error) {
	hbs, err := h.Homebuyers.ListByCouple(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	buyers := make([]buyer, 0, len(hbs))
	for _, hb := range hbs {
		u, err := h.Users.GetByID(ctx, hb.UserID)
		if err != nil {
			return nil, err
		}
		buyers = append(buyers, buyer{ID: hb.ID, Name: u.FullName()})
	}
	return buyers, nil
}
