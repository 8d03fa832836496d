// Package suggest finds near misses for mistyped names.
package suggest

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Closest returns the candidate with the smallest edit distance from name, or
// "" when every candidate would need a complete rewrite. Ties go to the
// lexically smallest candidate.
func Closest(name string, candidates []string) string {
	nameRunes := []rune(name)
	closestDistance := len(nameRunes)
	closest := ""

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	for _, candidate := range sorted {
		if candidate == name {
			return candidate
		}
		candidateRunes := []rune(candidate)
		distance := levenshtein.DistanceForStrings(
			nameRunes,
			candidateRunes,
			levenshtein.DefaultOptions,
		)
		if distance < closestDistance && distance < len(candidateRunes) {
			closest = candidate
			closestDistance = distance
		}
	}
	return closest
}
