package catalog

import "strings"

// lowerJoin joins non-empty parts with a single space and lowercases the
// result, matching the FULLTEXT derivation rule.
func lowerJoin(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}

// splitKeywords lowercases, collapses whitespace, and splits s into
// keywords for free-text search.
func splitKeywords(s string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(s)))
}
