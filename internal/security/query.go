package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minQueryLength is the minimum cleaned query length for a search to run.
// Shorter queries match too much of the table to be useful and FTS5
// treats some single characters as syntax.
const minQueryLength = 2

// ftsMetaChars matches everything that carries meaning in the FTS5 query
// grammar (quotes, parens, column filters, NEAR, prefix stars, boolean
// operators are plain words and survive as literals inside the phrase).
var ftsMetaChars = regexp.MustCompile("[\"'`*^:(){}\\[\\]<>~!?\\\\|&=%#@$;,+-]")

// SanitizeSearchQuery strips FTS5 metacharacters from a caller query,
// collapses whitespace, and wraps the result in double quotes so it is
// matched as an exact phrase. It returns "" when the cleaned query is
// shorter than two characters, which signals "do not run a search".
func SanitizeSearchQuery(input string) string {
	cleaned := ftsMetaChars.ReplaceAllString(input, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if utf8.RuneCountInString(cleaned) < minQueryLength {
		return ""
	}
	return `"` + cleaned + `"`
}
