// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/google/uuid"
)

// UserCtx returns the user's role (lowercased), name, user ID, and a found
// flag. If no user is present in context or the user ID is not a valid
// UUID, it returns "visitor", "", "", false. This ensures callers can
// trust that ok=true means a valid, authenticated user with a valid ID.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", "", false
	}
	if _, err := uuid.Parse(user.ID); err != nil {
		// Malformed user ID in session - fail closed for security.
		// This should not happen in normal operation; indicates session corruption.
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsRealtor reports whether the current request's user is a realtor.
func IsRealtor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "realtor"
}

// IsHomebuyer reports whether the current request's user is a homebuyer.
func IsHomebuyer(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "homebuyer"
}
