// Package similarity provides the cheap, deterministic text similarity used
// by the dedup engine. It is deliberately token-based rather than
// embedding-based: it runs synchronously on every ingested item against a
// sliding window and must stay fast and side-effect-free.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases, strips punctuation and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		// whitespace and punctuation are both token boundaries
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenSet splits a normalized string into its set of words.
func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard computes |A∩B| / |A∪B| over the normalized word sets of a and b.
// Identical normalized strings short-circuit to 1.0; either-empty returns 0.0.
// The result is symmetric.
func Jaccard(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)

	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
