// internal/app/features/signup/routes.go
package signup

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/realtor", h.ServeRealtorSignup)
	r.Post("/realtor", h.HandleRealtorSignupPost)
	r.Get("/{token}", h.ServeHomebuyerSignup)
	r.Post("/{token}", h.HandleHomebuyerSignupPost)
	return r
}
