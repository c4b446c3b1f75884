// internal/app/features/categories/weights.go
package categories

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// categoryWeight is one row of the weights form.
type categoryWeight struct {
	Category models.Category
	Weight   int
}

type weightsData struct {
	viewdata.BaseVM
	Rows    []categoryWeight
	Ratings []int
	Saved   bool
}

// weightRows pairs each of the couple's categories with the
// homebuyer's current importance weight, defaulting where no weight
// row exists yet.
func (h *Handler) weightRows(ctx context.Context, hb *models.Homebuyer) ([]categoryWeight, error) {
	cats, err := h.Categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		return nil, err
	}
	weights, err := h.Weights.ListByHomebuyer(ctx, hb.ID)
	if err != nil {
		return nil, err
	}

	current := make(map[string]int, len(weights))
	for _, w := range weights {
		current[w.CategoryID] = w.Weight
	}

	rows := make([]categoryWeight, 0, len(cats))
	for _, c := range cats {
		weight, ok := current[c.ID]
		if !ok {
			weight = models.RatingDefault
		}
		rows = append(rows, categoryWeight{Category: c, Weight: weight})
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /categories/weights                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeWeights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hb, ok := h.currentHomebuyer(ctx, w, r)
	if !ok {
		return
	}

	rows, err := h.weightRows(ctx, hb)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "weights load failed", err, "Something went wrong. Please try again.", "/categories")
		return
	}

	templates.Render(w, r, "category_weights", weightsData{
		BaseVM:  viewdata.NewBaseVM(r, "Category Weights", "/categories"),
		Rows:    rows,
		Ratings: models.RatingScale(),
		Saved:   r.URL.Query().Get("saved") == "1",
	})
}

func (h *Handler) HandleWeightsPost(w http.ResponseWriter, r *http.Request) {
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

	cats, err := h.Categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category listing failed", err, "Something went wrong. Please try again.", "/categories")
		return
	}

	// One select per category, named weight_<categoryID>. Absent
	// fields mean a stale form and get skipped rather than reset.
	for _, c := range cats {
		raw := r.FormValue("weight_" + c.ID)
		if raw == "" {
			continue
		}
		weight, err := strconv.Atoi(raw)
		if err != nil || weight < models.RatingMin || weight > models.RatingMax {
			h.ErrLog.LogBadRequest(w, r, fmt.Sprintf("invalid weight %q for category %s", raw, c.ID), nil,
				"Weights must be between 1 and 5.", "/categories/weights")
			return
		}
		if err := h.Weights.Set(ctx, hb.ID, c.ID, weight); err != nil {
			h.ErrLog.LogServerError(w, r, "weight save failed", err, "Your weights could not be saved.", "/categories")
			return
		}
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.WeightsUpdated(r.Context(), r, u.ID, hb.CoupleID)
	}

	http.Redirect(w, r, "/categories/weights?saved=1", http.StatusSeeOther)
}
