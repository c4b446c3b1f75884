// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
	nav "github.com/dalemusser/waffle/pantry/httpnav"
)

func userContext(r *http.Request) (role, name string, signed bool) {
	u, signed := auth.CurrentUser(r)
	if signed && u != nil {
		return u.Role, u.Name, signed
	}
	return "", "", signed
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	role, name, signed := userContext(r)
	if backURL == "" {
		backURL = "/login"
	}

	data := pageData{
		Title:      "Sign in required",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    backURL,
	}

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	role, name, signed := userContext(r)
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      "Access denied",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderNotFound shows a friendly "not found" page with a message.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	role, name, signed := userContext(r)
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      "Not found",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(http.StatusNotFound)
	templates.Render(w, r, "error_notfound", data)
}

// RenderBadRequest shows a friendly "bad request" page with a message.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	role, name, signed := userContext(r)
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      "Something's not right",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(http.StatusBadRequest)
	templates.Render(w, r, "error_badrequest", data)
}

// RenderServerError shows a friendly "server error" page with a message.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	role, name, signed := userContext(r)
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      "Something went wrong",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(http.StatusInternalServerError)
	templates.Render(w, r, "error_server", data)
}
