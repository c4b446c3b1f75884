// Package normalize holds the canonical cleanup rules for user input.
// Every value is normalized exactly once, on the way in (form parsing,
// store Create/Update), so comparisons elsewhere can be plain ==.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces from a phone number; the allowed characters are
// enforced by inputval, not here.
func Phone(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// Summary trims a category summary. Case is preserved; the *_ci field
// handles case-insensitive uniqueness.
func Summary(s string) string {
	return strings.TrimSpace(s)
}

// Nickname trims a house nickname.
func Nickname(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role label.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
