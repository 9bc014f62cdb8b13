// Package wordlist provides word list filtering helpers.
package wordlist

import (
	"strings"
	"unicode"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// Valid reports whether word can be typed as a single target: non-empty, no whitespace
// and no control characters.
func Valid(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Filter returns the words accepted by keep, normalized to lower case and de-duplicated
// in first-seen order.
func Filter(words []string, keep FilterFunc) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if !keep(word) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}
