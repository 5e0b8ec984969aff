// Package textnorm provides the canonical text identity used for all
// equality and containment checks across the parsers: city names, keyword
// matching, and title-to-link lookups.
package textnorm

import "strings"

// Key returns the normalized identity of a text fragment: trimmed,
// lower-cased, internal whitespace runs collapsed to a single space, and the
// letter "ё" folded to "е". Two fragments denote the same identity iff their
// keys are equal.
func Key(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	return strings.Join(strings.Fields(s), " ")
}

// ContainsKey reports whether the normalized keyword occurs as a substring of
// the normalized text. Empty keywords never match.
func ContainsKey(text, keyword string) bool {
	k := Key(keyword)
	if k == "" {
		return false
	}
	return strings.Contains(Key(text), k)
}

// ContainsAnyKey reports whether any of the keywords matches per ContainsKey.
func ContainsAnyKey(text string, keywords []string) bool {
	for _, kw := range keywords {
		if ContainsKey(text, kw) {
			return true
		}
	}
	return false
}
