// Package normalize canonicalizes user-supplied identifiers and names.
package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/larder/internal/app/system/htmlsanitize"
)

// MaxHouseholdName is the longest household name kept, in runes.
const MaxHouseholdName = 80

// HouseholdName strips markup, collapses whitespace runs, and truncates to
// MaxHouseholdName runes.
func HouseholdName(s string) string {
	s = strings.Join(strings.Fields(htmlsanitize.PlainText(s)), " ")
	if utf8.RuneCountInString(s) <= MaxHouseholdName {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxHouseholdName]))
}

// ID trims surrounding whitespace from a document id.
func ID(s string) string {
	return strings.TrimSpace(s)
}
