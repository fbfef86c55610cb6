package quiz

import "strings"

// fold normalizes a submitted or accepted value for comparison. Trim plus
// case-fold, nothing fancier.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// splitAlternatives splits a |-delimited keyword entry into its synonyms,
// preserving case for display. Empty segments are dropped. Only keyword
// entries use this encoding; short-answer accepted strings are literal.
func splitAlternatives(s string) []string {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// containsAccepted reports whether any accepted alternative occurs inside the
// submitted value. Containment, not equality: supersets of the accepted
// phrase also pass. An empty accepted set passes trivially.
func containsAccepted(submitted string, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	sub := fold(submitted)
	for _, a := range accepted {
		if strings.Contains(sub, fold(a)) {
			return true
		}
	}
	return false
}
