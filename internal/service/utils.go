package service

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortByName orders items by a display name using locale-aware collation.
// A Collator is not safe for concurrent use, so each call builds its own.
func sortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(items, func(a, b T) int {
		return c.CompareString(name(a), name(b))
	})
}

// initials returns the upper-cased first letter of every name part
func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		b.WriteRune(unicode.ToUpper([]rune(part)[0]))
	}
	return b.String()
}

// dedupe removes empty and repeated values, keeping first occurrences
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
