package textutil

import "strings"

// confusionCanonical maps each member of a visually-confusable character
// class to one canonical symbol, so that strings differing only by OCR
// confusions normalize to the same form. Classes: O/0, I/1/l/J, S/5,
// B/8, Z/2, U/V.
var confusionCanonical = map[rune]rune{
	'O': '0', '0': '0',
	'I': '1', '1': '1', 'L': '1', 'J': '1',
	'S': '5', '5': '5',
	'B': '8', '8': '8',
	'Z': '2', '2': '2',
	'U': 'V', 'V': 'V',
}

// NormalizeConfusions canonicalizes OCR-confusable characters on top of
// the standard normalization.
func NormalizeConfusions(s string) string {
	var b strings.Builder
	for _, r := range Normalize(s) {
		if canonical, ok := confusionCanonical[r]; ok {
			b.WriteRune(canonical)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsKnownConfusion reports whether two characters belong to the same
// OCR confusion class.
func IsKnownConfusion(a, b rune) bool {
	ca, okA := confusionCanonical[a]
	cb, okB := confusionCanonical[b]
	return okA && okB && ca == cb
}

// DiffCategory classifies the difference between two equal-length
// normalized strings.
type DiffCategory int

const (
	// DiffIdentical means no differing positions
	DiffIdentical DiffCategory = iota
	// DiffConfusionOnly means every differing position is a known OCR confusion
	DiffConfusionOnly
	// DiffSubstantive means at least one difference is not a known confusion,
	// or the strings have different lengths
	DiffSubstantive
)

// ClassifyDiff categorizes the character-level difference between two
// strings after normalization. Length mismatches are substantive: an
// inserted or dropped character is not a shape confusion.
func ClassifyDiff(a, b string) DiffCategory {
	na := []rune(Normalize(a))
	nb := []rune(Normalize(b))

	if len(na) != len(nb) {
		return DiffSubstantive
	}

	category := DiffIdentical
	for i := range na {
		if na[i] == nb[i] {
			continue
		}
		if !IsKnownConfusion(na[i], nb[i]) {
			return DiffSubstantive
		}
		category = DiffConfusionOnly
	}

	return category
}

// CorrectDateDigits replaces the letter confusions that commonly corrupt
// OCR-read dates with their digit counterparts.
func CorrectDateDigits(s string) string {
	replacer := strings.NewReplacer(
		"O", "0", "o", "0",
		"I", "1", "l", "1",
	)
	return replacer.Replace(s)
}
