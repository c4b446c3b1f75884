// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes covers the realtor-facing /reports/{coupleID} subtree. The
// homebuyer's own /report route is wired directly in bootstrap.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleRealtor))

	r.Get("/{coupleID}", h.ServeCoupleReport)
	return r
}
