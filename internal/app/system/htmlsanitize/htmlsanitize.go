// Package htmlsanitize strips markup from user-supplied text.
package htmlsanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML element and attribute from s and returns
// the remaining text with entities decoded.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}
