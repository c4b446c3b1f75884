// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/houses", "/categories").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/edit", "/delete", "/new").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", validates
// the URL is safe (not an open redirect), optionally validates the prefix,
// and excludes specified subpaths to prevent redirect loops.
//
// Example usage:
//
//	url := navigation.SafeBackURL(r, navigation.HousesBackURL)
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	// Try query parameter first, then form value
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}

	if ret != "" {
		valid := true

		if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
			valid = false
		}

		for _, excluded := range opts.ExcludedSubpaths {
			if strings.Contains(ret, excluded) {
				valid = false
				break
			}
		}

		if valid {
			return ret
		}
	}

	return opts.Fallback
}

// Common back URL configurations for reuse across packages.
var (
	// HousesBackURL returns options for house pages.
	HousesBackURL = BackURLOptions{
		AllowedPrefix:    "/houses",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new", "/evaluate"},
		Fallback:         "/houses",
	}

	// CategoriesBackURL returns options for category pages.
	CategoriesBackURL = BackURLOptions{
		AllowedPrefix:    "/categories",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/categories",
	}

	// InvitesBackURL returns options for invitation pages.
	InvitesBackURL = BackURLOptions{
		AllowedPrefix:    "/invites",
		ExcludedSubpaths: []string{"/delete", "/new"},
		Fallback:         "/invites",
	}

	// ReportsBackURL returns options for report pages.
	ReportsBackURL = BackURLOptions{
		AllowedPrefix: "/reports",
		Fallback:      "/reports",
	}
)
