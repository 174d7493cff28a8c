package domain

import "strings"

// MatchTerms returns the subset of terms contained in text, compared
// case-insensitively as plain substrings. Terms are tested independently and
// the result preserves the configured order, each term at most once.
func MatchTerms(text string, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	lower := strings.ToLower(text)
	var matched []string
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}
	return matched
}
