package quiz

import "strings"

// Grade reports whether submitted matches any accepted answer, ignoring case
// and surrounding whitespace. An empty accepted list never matches.
func Grade(submitted string, accepted []string) bool {
	submitted = strings.TrimSpace(submitted)
	for _, a := range accepted {
		if a = strings.TrimSpace(a); a == "" {
			continue
		}
		if strings.EqualFold(submitted, a) {
			return true
		}
	}
	return false
}
