// Package textutil provides the tolerant string and date primitives the
// verification pipeline is built on: Levenshtein similarity, OCR
// character-confusion normalization, and noisy date parsing.
package textutil

import (
	"strings"
	"unicode"
)

// Normalize strips whitespace and punctuation and uppercases, producing
// the canonical form used for all string comparisons.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Similarity returns a 0-100 similarity score between two strings based
// on Levenshtein edit distance over their normalized forms. Symmetric;
// identical inputs score 100; two empty strings score 100.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	if na == nb {
		return 100
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 100
	}

	distance := levenshtein(na, nb)
	return float64(maxLen-distance) / float64(maxLen) * 100
}

// levenshtein computes the edit distance between two byte strings using
// a two-row dynamic program.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// ContainsNormalized reports whether one normalized string contains the
// other. Used as the lenient containment path for non-critical fields.
func ContainsNormalized(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
