package shortener

import (
	"strings"
	"unicode"
)

// Normalize strips trailing whitespace and newlines from a URL.
// Stored URLs and lookup input go through the same function.
func Normalize(rawURL string) string {
	return strings.TrimRightFunc(rawURL, unicode.IsSpace)
}
