// internal/app/features/couples/remove.go
package couples

import (
	"context"
	"net/http"

	"github.com/dalemusser/housematch/internal/app/system/timeouts"
	"github.com/dalemusser/housematch/internal/app/system/txn"
	"github.com/dalemusser/housematch/internal/app/system/viewdata"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type removeData struct {
	viewdata.BaseVM
	Couple models.Couple
	Names  []string
}

// coupleForRealtor loads a couple and verifies the realtor manages it,
// writing the error response itself on failure.
func (h *Handler) coupleForRealtor(ctx context.Context, w http.ResponseWriter, r *http.Request, realtor *models.Realtor) (*models.Couple, bool) {
	id := chi.URLParam(r, "coupleID")
	c, err := h.Couples.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "couple not found", err, "That couple does not exist.", "/couples")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "couple lookup failed", err, "Something went wrong. Please try again.", "/couples")
		return nil, false
	}
	if c.RealtorID != realtor.ID {
		h.ErrLog.LogForbidden(w, r, "couple belongs to another realtor", nil, "That couple is not yours.", "/couples")
		return nil, false
	}
	return c, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /couples/{coupleID}/remove                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCoupleRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}
	c, ok := h.coupleForRealtor(ctx, w, r, realtor)
	if !ok {
		return
	}

	names, err := h.homebuyerNames(ctx, c.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "homebuyer lookup failed", err, "Something went wrong. Please try again.", "/couples")
		return
	}

	templates.Render(w, r, "couple_remove", removeData{
		BaseVM: viewdata.NewBaseVM(r, "Remove Couple", "/couples"),
		Couple: *c,
		Names:  names,
	})
}

func (h *Handler) HandleCoupleRemovePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	realtor, ok := h.currentRealtor(ctx, w, r)
	if !ok {
		return
	}
	c, ok := h.coupleForRealtor(ctx, w, r, realtor)
	if !ok {
		return
	}

	// Everything the couple owns goes with it. The homebuyers' user
	// accounts survive but lose their role, which locks them out of the
	// homebuyer area.
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		houses, err := h.Houses.ListByCouple(ctx, c.ID)
		if err != nil {
			return err
		}
		houseIDs := make([]string, 0, len(houses))
		for _, house := range houses {
			houseIDs = append(houseIDs, house.ID)
		}

		cats, err := h.Categories.ListByCouple(ctx, c.ID)
		if err != nil {
			return err
		}
		catIDs := make([]string, 0, len(cats))
		for _, cat := range cats {
			catIDs = append(catIDs, cat.ID)
		}

		if _, err := h.Grades.DeleteByHouses(ctx, houseIDs); err != nil {
			return err
		}
		if _, err := h.Weights.DeleteByCategories(ctx, catIDs); err != nil {
			return err
		}
		if _, err := h.Houses.DeleteByCouple(ctx, c.ID); err != nil {
			return err
		}
		if _, err := h.Categories.DeleteByCouple(ctx, c.ID); err != nil {
			return err
		}
		if _, err := h.Homebuyers.DeleteByCouple(ctx, c.ID); err != nil {
			return err
		}
		_, err = h.Couples.Delete(ctx, c.ID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "couple removal failed", err, "Failed to remove the couple. Please try again.", "/couples")
		return
	}

	h.AuditLog.CoupleRemoved(r.Context(), r, realtor.UserID, c.ID)
	http.Redirect(w, r, "/couples", http.StatusSeeOther)
}
