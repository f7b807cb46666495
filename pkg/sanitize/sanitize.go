// Package sanitize rejects markup in free-text fields.
package sanitize

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// HasMarkup reports whether s contains anything the strict policy would
// strip. Bare angle brackets and ampersands are plain text.
func HasMarkup(s string) bool {
	return html.UnescapeString(strict.Sanitize(s)) != s
}

// PlainText trims s and returns an error if it contains markup.
func PlainText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if HasMarkup(s) {
		return s, fmt.Errorf("%s contains disallowed markup", field)
	}
	return s, nil
}
