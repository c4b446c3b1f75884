// internal/app/features/houses/evaluate.go
package houses

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/navigation"
	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// categoryScore is one row of the evaluation form.
type categoryScore struct {
	Category models.Category
	Score    int
}

type evaluateData struct {
	viewdata.BaseVM
	House   models.House
	Rows    []categoryScore
	Ratings []int
	Saved   bool
}

// evaluationRows pairs each of the couple's categories with the
// homebuyer's current score for the house, defaulting where no grade
// row exists yet.
func (h *Handler) evaluationRows(ctx context.Context, hb *models.Homebuyer, houseID string) ([]categoryScore, error) {
	cats, err := h.Categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		return nil, err
	}
	grades, err := h.Grades.ListByHouseAndHomebuyer(ctx, houseID, hb.ID)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(grades))
	for _, g := range grades {
		scores[g.CategoryID] = g.Score
	}

	rows := make([]categoryScore, 0, len(cats))
	for _, c := range cats {
		score, ok := scores[c.ID]
		if !ok {
			score = models.RatingDefault
		}
		rows = append(rows, categoryScore{Category: c, Score: score})
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /houses/{houseID}/evaluate                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEvaluate(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.evaluationRows(ctx, hb, house.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "evaluation load failed", err, "Something went wrong. Please try again.", "/houses")
		return
	}

	templates.Render(w, r, "house_evaluate", evaluateData{
		BaseVM:  viewdata.NewBaseVM(r, "Evaluate "+house.Nickname, navigation.SafeBackURL(r, navigation.HousesBackURL)),
		House:   *house,
		Rows:    rows,
		Ratings: models.RatingScale(),
		Saved:   r.URL.Query().Get("saved") == "1",
	})
}

func (h *Handler) HandleEvaluatePost(w http.ResponseWriter, r *http.Request) {
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

	cats, err := h.Categories.ListByCouple(ctx, hb.CoupleID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category listing failed", err, "Something went wrong. Please try again.", "/houses")
		return
	}

	// One select per category, named score_<categoryID>. A missing or
	// unchanged field still posts a value, so absent fields mean a
	// stale form and get skipped rather than reset.
	for _, c := range cats {
		raw := r.FormValue("score_" + c.ID)
		if raw == "" {
			continue
		}
		score, err := strconv.Atoi(raw)
		if err != nil || score < models.RatingMin || score > models.RatingMax {
			h.ErrLog.LogBadRequest(w, r, fmt.Sprintf("invalid score %q for category %s", raw, c.ID), nil,
				"Scores must be between 1 and 5.", "/houses/"+house.ID+"/evaluate")
			return
		}
		if err := h.Grades.Set(ctx, house.ID, c.ID, hb.ID, score); err != nil {
			h.ErrLog.LogServerError(w, r, "grade save failed", err, "Your evaluation could not be saved.", "/houses")
			return
		}
	}

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.HouseGraded(r.Context(), r, u.ID, hb.CoupleID, house.ID)
	}

	http.Redirect(w, r, "/houses/"+house.ID+"/evaluate?saved=1", http.StatusSeeOther)
}
