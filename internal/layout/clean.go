package layout

import (
	"strings"
	"unicode"
)

// CleanText drops non-printable characters, keeping whitespace, and trims
// the result.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(cleaned)
}
