package helper

import (
	"strings"
	"unicode"
)

// NormBar maps loose bar labels ("60m", "candle1H") onto the venue's
// canonical form.
func NormBar(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "1h":
		return "1h"
	case "4h":
		return "4h"
	case "1d", "24h":
		return "1d"
	default:
		return s
	}
}

// CollapseWhitespace squeezes any run of whitespace, newlines included,
// into a single space.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most n runes, appending an ellipsis when it cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
