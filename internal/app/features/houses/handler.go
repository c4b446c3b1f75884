// internal/app/features/houses/handler.go
package houses

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/grading"
	auditstore "github.com/dalemusser/housematch/internal/app/store/audit"
	categorystore "github.com/dalemusser/housematch/internal/app/store/categories"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	housestore "github.com/dalemusser/housematch/internal/app/store/houses"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/inputval"
	"github.com/dalemusser/housematch/internal/app/system/navigation"
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
	Houses     *housestore.Store
	Categories *categorystore.Store
	Grades     *gradestore.Store
	Homebuyers *homebuyerstore.Store
	Grading    *grading.Engine
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		Houses:     housestore.New(db),
		Categories: categorystore.New(db),
		Grades:     gradestore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Grading:    grading.NewEngine(db),
	}
}

type houseForm struct {
	Nickname string `validate:"required,max=128" label:"Nickname"`
	Address  string `validate:"max=255" label:"Address"`
}

type listData struct {
	viewdata.BaseVM
	Houses []models.House
}

type formData struct {
	viewdata.BaseVM
	Error    string
	Action   string
	Heading  string
	Nickname string
	Address  string
}

type deleteData struct {
	viewdata.BaseVM
	House models.House
}

// currentHomebuyer resolves the signed-in homebuyer, writing the error
// response itself when that fails.
func (h *Handler) currentHomebuyer(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Homebuyer, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return nil, false
	}
	hb, err := h.Homebuyers.GetByUserID(ctx, u.ID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogForbidden(w, r, "user is not a homebuyer", err, "Only homebuyers can manage houses.", "/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/")
		return nil, false
	}
	return hb, true
}

// houseForCouple loads a house and verifies it belongs to the
// homebuyer's couple, writing the error response itself on failure.
func (h *Handler) houseForCouple(ctx context.Context, w http.ResponseWriter, r *http.Request, hb *models.Homebuyer) (*models.House, bool) {
	id := chi.URLParam(r, "houseID")
	house, err := h.Houses.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "house not found", err, "That house does not exist.", "/houses")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house lookup failed", err, "Something went wrong. Please try again.", "/houses")
		return nil, false
	}
	if err := grading.ValidateSameCouple(house.CoupleID, hb.CoupleID); err != nil {
		h.ErrLog.LogForbidden(w, r, "house belongs to another couple", err, "That house is not part of your search.", "/houses")
		return nil, false
	}
	return house, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /houses                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}

	houses, err := h.Houses.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	templates.Render(w, r, "houses_list", listData{
		BaseVM: viewdata.NewBaseVM(r, "Houses", "/"),
		Houses: houses,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /houses/new                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.currentHomebuyer(ctx, w, r); !ok {
		return
	}

	templates.Render(w, r, "house_form", formData{
		BaseVM:  viewdata.NewBaseVM(r, "Add House", "/houses"),
		Action:  "/houses/new",
		Heading: "Add House",
	})
}

func (h *Handler) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/houses")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}

	form := houseForm{
		Nickname: r.FormValue("nickname"),
		Address:  r.FormValue("address"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "house_form", formData{
			BaseVM:   viewdata.NewBaseVM(r, "Add House", "/houses"),
			Error:    msg,
			Action:   "/houses/new",
			Heading:  "Add House",
			Nickname: form.Nickname,
			Address:  form.Address,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}

	// The house and its default grades land together.
	var house models.House
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		house, err = h.Houses.Create(ctx, models.House{
			CoupleID: hb.CoupleID,
			Nickname: form.Nickname,
			Address:  form.Address,
		})
		if err != nil {
			return err
		}
		return h.Grading.BackfillHouse(ctx, hb.CoupleID)
	})
	if err == housestore.ErrDuplicateNickname {
		renderError("You already have a house with this nickname.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house create failed", err, "Your house could not be added.", "/houses")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.HouseChanged(r.Context(), r, auditstore.EventHouseCreated, u.ID, hb.CoupleID, house.ID)
	}

	// Straight to scoring, like adding a house during a visit.
	http.Redirect(w, r, "/houses/"+house.ID+"/evaluate", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /houses/{houseID}/edit                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	house, ok := h.houseForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	templates.Render(w, r, "house_form", formData{
		BaseVM:   viewdata.NewBaseVM(r, "Edit House", navigation.SafeBackURL(r, navigation.HousesBackURL)),
		Action:   "/houses/" + house.ID + "/edit",
		Heading:  "Edit House",
		Nickname: house.Nickname,
		Address:  house.Address,
	})
}

func (h *Handler) HandleEditPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/houses")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	house, ok := h.houseForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	form := houseForm{
		Nickname: r.FormValue("nickname"),
		Address:  r.FormValue("address"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "house_form", formData{
			BaseVM:   viewdata.NewBaseVM(r, "Edit House", "/houses"),
			Error:    msg,
			Action:   "/houses/" + house.ID + "/edit",
			Heading:  "Edit House",
			Nickname: form.Nickname,
			Address:  form.Address,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}

	err := h.Houses.Update(ctx, house.ID, housestore.Update{
		Nickname: form.Nickname,
		Address:  form.Address,
	})
	if err == housestore.ErrDuplicateNickname {
		renderError("You already have a house with this nickname.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house update failed", err, "Your house could not be updated.", "/houses")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.HouseChanged(r.Context(), r, auditstore.EventHouseUpdated, u.ID, hb.CoupleID, house.ID)
	}

	http.Redirect(w, r, "/houses", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /houses/{houseID}/delete                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	house, ok := h.houseForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	templates.Render(w, r, "house_delete", deleteData{
		BaseVM: viewdata.NewBaseVM(r, "Delete House", "/houses"),
		House:  *house,
	})
}

func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	house, ok := h.houseForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	// Grades for the house go with it.
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Grades.DeleteByHouse(ctx, house.ID); err != nil {
			return err
		}
		_, err := h.Houses.Delete(ctx, house.ID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "house delete failed", err, "Your house could not be deleted.", "/houses")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.HouseChanged(r.Context(), r, auditstore.EventHouseDeleted, u.ID, hb.CoupleID, house.ID)
	}

	http.Redirect(w, r, "/houses", http.StatusSeeOther)
}
