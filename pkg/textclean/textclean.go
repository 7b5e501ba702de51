// Package textclean normalizes model output and extracts readable text
// from HTML fragments sent by browser clients.
package textclean

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \\t]*\\n(.*?)\\n?```$")

// Normalize collapses every run of Unicode whitespace to one space and
// trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripCodeFences removes a single markdown fence wrapping the whole text.
// Fences in the middle of an answer are left alone.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return s
}

// TruncateRunes cuts s to at most n runes. n <= 0 means no limit.
func TruncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
