// Package inputval validates user-submitted form values.
package inputval

import "strings"

// IsValidEmail reports whether s is a plausible addr-spec email address.
// Display-name forms ("Name <user@host>") are rejected. Single-label
// domains are accepted so dev and test environments can use addresses
// like admin@mailserver.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	local := s[:at]
	domain := s[at+1:]

	return validDotAtom(local) && validDotAtom(domain)
}

// validDotAtom checks a dot-separated atom: no leading, trailing, or
// consecutive dots, and no whitespace or angle brackets.
func validDotAtom(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '<', '>', '@', ',':
			return false
		}
	}
	return true
}
