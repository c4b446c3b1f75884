// internal/app/features/houses/routes.go
package houses

import (
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleHomebuyer))

	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/new", h.HandleNewPost)
	r.Get("/{houseID}/edit", h.ServeEdit)
	r.Post("/{houseID}/edit", h.HandleEditPost)
	r.Get("/{houseID}/delete", h.ServeDelete)
	r.Post("/{houseID}/delete", h.HandleDeletePost)
	r.Get("/{houseID}/evaluate", h.ServeEvaluate)
	r.Post("/{houseID}/evaluate", h.HandleEvaluatePost)
	return r
}
