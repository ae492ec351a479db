package common

import (
	"strings"
	"unicode/utf8"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HasAnyFold is HasAny with case-insensitive matching.
func HasAnyFold(s string, subs ...string) bool {
	lower := make([]string, len(subs))
	for i, sub := range subs {
		lower[i] = strings.ToLower(sub)
	}
	return HasAny(strings.ToLower(s), lower...)
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FirstNonEmpty returns v if it is not empty, def otherwise.
func FirstNonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
