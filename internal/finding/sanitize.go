package finding

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxTitleLength       = 256
	maxDescriptionLength = 1024
)

// sanitizeText replaces control characters with spaces, collapses runs of whitespace
// and truncates the result to limit runes.
func sanitizeText(s string, limit int) string {
	if limit < 1 {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if utf8.RuneCountInString(cleaned) <= limit {
		return cleaned
	}

	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
