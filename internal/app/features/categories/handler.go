// internal/app/features/categories/handler.go
package categories

import (
	"context"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	"github.com/dalemusser/housematch/internal/app/grading"
	auditstore "github.com/dalemusser/housematch/internal/app/store/audit"
	categorystore "github.com/dalemusser/housematch/internal/app/store/categories"
	gradestore "github.com/dalemusser/housematch/internal/app/store/grades"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	weightstore "github.com/dalemusser/housematch/internal/app/store/weights"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/htmlsanitize"
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
	Categories *categorystore.Store
	Weights    *weightstore.Store
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
		Categories: categorystore.New(db),
		Weights:    weightstore.New(db),
		Grades:     gradestore.New(db),
		Homebuyers: homebuyerstore.New(db),
		Grading:    grading.NewEngine(db),
	}
}

type categoryForm struct {
	Summary     string `validate:"required,max=64" label:"Summary"`
	Description string `validate:"max=1024" label:"Description"`
}

type categoryRow struct {
	models.Category
	DescriptionHTML template.HTML
}

type listData struct {
	viewdata.BaseVM
	Categories []categoryRow
}

type formData struct {
	viewdata.BaseVM
	Error       string
	Action      string
	Heading     string
	Summary     string
	Description string
}

type deleteData struct {
	viewdata.BaseVM
	Category models.Category
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
		h.ErrLog.LogForbidden(w, r, "user is not a homebuyer", err, "Only homebuyers can manage categories.", "/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/")
		return nil, false
	}
	return hb, true
}

// categoryForCouple loads a category and verifies it belongs to the
// homebuyer's couple, writing the error response itself on failure.
func (h *Handler) categoryForCouple(ctx context.Context, w http.ResponseWriter, r *http.Request, hb *models.Homebuyer) (*models.Category, bool) {
	id := chi.URLParam(r, "categoryID")
	cat, err := h.Categories.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "category not found", err, "That category does not exist.", "/categories")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category lookup failed", err, "Something went wrong. Please try again.", "/categories")
		return nil, false
	}
	if err := grading.ValidateSameCouple(cat.CoupleID, hb.CoupleID); err != nil {
		h.ErrLog.LogForbidden(w, r, "category belongs to another couple", err, "That category is not part of your search.", "/categories")
		return nil, false
	}
	return cat, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /categories                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}

	cats, err := h.Categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category listing failed", err, "Something went wrong. Please try again.", "/")
		return
	}

	// Descriptions may carry markup pasted from a rich-text editor, so
	// they are sanitized before templates render them unescaped.
	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, categoryRow{
			Category:        c,
			DescriptionHTML: htmlsanitize.SanitizeToHTML(c.Description),
		})
	}

	templates.Render(w, r, "categories_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, "Categories", "/"),
		Categories: rows,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /categories/new                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.currentHomebuyer(ctx, w, r); !ok {
		return
	}

	templates.Render(w, r, "category_form", formData{
		BaseVM:  viewdata.NewBaseVM(r, "Add Category", "/categories"),
		Action:  "/categories/new",
		Heading: "Add Category",
	})
}

func (h *Handler) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/categories")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}

	form := categoryForm{
		Summary:     r.FormValue("summary"),
		Description: r.FormValue("description"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "category_form", formData{
			BaseVM:      viewdata.NewBaseVM(r, "Add Category", "/categories"),
			Error:       msg,
			Action:      "/categories/new",
			Heading:     "Add Category",
			Summary:     form.Summary,
			Description: form.Description,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}

	// The category lands together with a default weight for both
	// homebuyers and a default score for every house.
	var cat models.Category
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		cat, err = h.Categories.Create(ctx, models.Category{
			CoupleID:    hb.CoupleID,
			Summary:     form.Summary,
			Description: form.Description,
		})
		if err != nil {
			return err
		}
		return h.Grading.BackfillCategory(ctx, hb.CoupleID)
	})
	if err == categorystore.ErrDuplicateSummary {
		renderError("You already have a category with this summary.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category create failed", err, "Your category could not be added.", "/categories")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CategoryChanged(r.Context(), r, auditstore.EventCategoryCreated, u.ID, hb.CoupleID, cat.ID)
	}

	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /categories/{categoryID}/edit                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	cat, ok := h.categoryForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	templates.Render(w, r, "category_form", formData{
		BaseVM:      viewdata.NewBaseVM(r, "Edit Category", navigation.SafeBackURL(r, navigation.CategoriesBackURL)),
		Action:      "/categories/" + cat.ID + "/edit",
		Heading:     "Edit Category",
		Summary:     cat.Summary,
		Description: cat.Description,
	})
}

func (h *Handler) HandleEditPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/categories")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	cat, ok := h.categoryForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	form := categoryForm{
		Summary:     r.FormValue("summary"),
		Description: r.FormValue("description"),
	}

	renderError := func(msg string) {
		templates.Render(w, r, "category_form", formData{
			BaseVM:      viewdata.NewBaseVM(r, "Edit Category", "/categories"),
			Error:       msg,
			Action:      "/categories/" + cat.ID + "/edit",
			Heading:     "Edit Category",
			Summary:     form.Summary,
			Description: form.Description,
		})
	}

	if result := inputval.Validate(form); result.HasErrors() {
		renderError(result.First().Message)
		return
	}

	err := h.Categories.Update(ctx, cat.ID, categorystore.Update{
		Summary:     form.Summary,
		Description: form.Description,
	})
	if err == categorystore.ErrDuplicateSummary {
		renderError("You already have a category with this summary.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category update failed", err, "Your category could not be updated.", "/categories")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CategoryChanged(r.Context(), r, auditstore.EventCategoryUpdated, u.ID, hb.CoupleID, cat.ID)
	}

	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /categories/{categoryID}/delete                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	cat, ok := h.categoryForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	templates.Render(w, r, "category_delete", deleteData{
		BaseVM:   viewdata.NewBaseVM(r, "Delete Category", "/categories"),
		Category: *cat,
	})
}

func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}
	cat, ok := h.categoryForCouple(ctx, w, r, hb)
	if !ok {
		return
	}

	// Weights and grades for the category go with it.
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Weights.DeleteByCategory(ctx, cat.ID); err != nil {
			return err
		}
		if _, err := h.Grades.DeleteByCategory(ctx, cat.ID); err != nil {
			return err
		}
		_, err := h.Categories.Delete(ctx, cat.ID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category delete failed", err, "Your category could not be deleted.", "/categories")
		return
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CategoryChanged(r.Context(), r, auditstore.EventCategoryDeleted, u.ID, hb.CoupleID, cat.ID)
	}

	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
