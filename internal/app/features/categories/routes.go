// internal/app/features/categories/routes.go
package categories

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
	r.Get("/weights", h.ServeWeights)
	r.Post("/weights", h.HandleWeightsPost)
	r.Get("/{categoryID}/edit", h.ServeEdit)
	r.Post("/{categoryID}/edit", h.HandleEditPost)
	r.Get("/{categoryID}/delete", h.ServeDelete)
	r.Post("/{categoryID}/delete", h.HandleDeletePost)
	return r
}
