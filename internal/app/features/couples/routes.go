// internal/app/features/couples/routes.go
package couples

import (
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleRealtor))

	r.Get("/", h.ServeList)
	r.Get("/invite", h.ServeInvite)
	r.Post("/invite", h.HandleInvitePost)
	r.Get("/invitations/{pendingCoupleID}/delete", h.ServeInvitationDelete)
	r.Post("/invitations/{pendingCoupleID}/delete", h.HandleInvitationDeletePost)
	r.Get("/{coupleID}/remove", h.ServeCoupleRemove)
	r.Post("/{coupleID}/remove", h.HandleCoupleRemovePost)
	return r
}
