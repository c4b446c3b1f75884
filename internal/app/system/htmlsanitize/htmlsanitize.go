// Package htmlsanitize cleans user-authored rich text before it is
// rendered. Category and house descriptions may carry markup from a
// rich-text editor, so anything stored gets run through a bluemonday
// policy on the way out.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the sanitization policy used by all functions in this
// package. Built once at init since bluemonday policies are safe for
// concurrent use.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("style").OnElements("table", "thead", "tbody", "tr", "th", "td")
	return p
}

// Sanitize removes dangerous tags and attributes from untrusted HTML.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes untrusted HTML and returns it as
// template.HTML so templates render it unescaped.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no HTML tags. A lone < or >
// (as in "5 < 10") still counts as plain text.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes plain text and converts newlines to <br>,
// wrapping the result in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored text for templates: plain text is
// escaped and paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
