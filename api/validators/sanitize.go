package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxQueryLen = 200

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:maxLen])
}

// SearchQuery returns the trimmed, length-capped "q" parameter.
func SearchQuery(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("q"), maxQueryLen)
}
