// Package sanitize cleans user-supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element and attribute.
var strict = bluemonday.StrictPolicy()

// Text removes all markup from s and returns trimmed plain text.
// Entities are decoded so "Rent & bills" round-trips unchanged.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
