// Package mrz validates Machine Readable Zone lines in the ICAO 9303
// TD3 format (passport-sized documents, two 44-character lines).
package mrz

import (
	"fmt"
	"strings"
	"time"
)

const lineLength = 44

// checksum weight sequence per ICAO 9303
var weights = [3]int{7, 3, 1}

// FieldValidation carries the independent checksum outcome per MRZ field.
// A single failed field does not invalidate fields whose own checksum passed.
type FieldValidation struct {
	DocumentNumber bool `json:"document_number"`
	DateOfBirth    bool `json:"date_of_birth"`
	ExpiryDate     bool `json:"expiry_date"`
	Composite      bool `json:"composite"`
}

// Data holds the fields parsed out of a TD3 MRZ. Dates are raw YYMMDD;
// use DateToTime to resolve the century.
type Data struct {
	DocumentCode   string `json:"document_code"`
	IssuingCountry string `json:"issuing_country"`
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	DocumentNumber string `json:"document_number"`
	Nationality    string `json:"nationality"`
	DateOfBirth    string `json:"date_of_birth"`
	Gender         string `json:"gender"`
	ExpiryDate     string `json:"expiry_date"`
	PersonalNumber string `json:"personal_number"`
}

// Result is the outcome of validating a TD3 MRZ pair
type Result struct {
	IsValid         bool            `json:"is_valid"`
	Errors          []string        `json:"errors,omitempty"`
	FieldValidation FieldValidation `json:"field_validation"`
	Data            Data            `json:"data"`
}

// ValidateTD3 validates a two-line TD3 MRZ. Both lines must be exactly
// 44 characters; otherwise validation fails fast with a length error and
// all sub-validations false. Each of the four check digits (document
// number, date of birth, expiry date, composite) is verified
// independently.
func ValidateTD3(line1, line2 string) *Result {
	result := &Result{}

	if len(line1) != lineLength || len(line2) != lineLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("TD3 MRZ lines must be exactly %d characters (got %d and %d)",
				lineLength, len(line1), len(line2)))
		return result
	}

	// Line 1: document code (0-1), issuing country (2-4), name (5-43)
	result.Data.DocumentCode = cleanSegment(line1[0:2])
	result.Data.IssuingCountry = cleanSegment(line1[2:5])

	nameParts := strings.SplitN(line1[5:], "<<", 2)
	result.Data.LastName = cleanName(nameParts[0])
	if len(nameParts) == 2 {
		result.Data.FirstName = cleanName(nameParts[1])
	}

	// Line 2: document number (0-8) check (9), nationality (10-12),
	// DOB (13-18) check (19), gender (20), expiry (21-26) check (27),
	// personal number (28-41) check (42), composite check (43)
	result.Data.DocumentNumber = cleanSegment(line2[0:9])
	result.Data.Nationality = cleanSegment(line2[10:13])
	result.Data.DateOfBirth = line2[13:19]
	result.Data.Gender = string(line2[20])
	result.Data.ExpiryDate = line2[21:27]
	result.Data.PersonalNumber = cleanSegment(line2[28:42])

	result.FieldValidation.DocumentNumber = verifyCheckDigit(line2[0:9], line2[9])
	if !result.FieldValidation.DocumentNumber {
		result.Errors = append(result.Errors, "document number check digit mismatch")
	}

	result.FieldValidation.DateOfBirth = verifyCheckDigit(line2[13:19], line2[19])
	if !result.FieldValidation.DateOfBirth {
		result.Errors = append(result.Errors, "date of birth check digit mismatch")
	}

	result.FieldValidation.ExpiryDate = verifyCheckDigit(line2[21:27], line2[27])
	if !result.FieldValidation.ExpiryDate {
		result.Errors = append(result.Errors, "expiry date check digit mismatch")
	}

	// Composite covers document number, DOB and expiry including their
	// check digits, plus the personal number field.
	composite := line2[0:10] + line2[13:20] + line2[21:43]
	result.FieldValidation.Composite = verifyCheckDigit(composite, line2[43])
	if !result.FieldValidation.Composite {
		result.Errors = append(result.Errors, "composite check digit mismatch")
	}

	result.IsValid = result.FieldValidation.DocumentNumber &&
		result.FieldValidation.DateOfBirth &&
		result.FieldValidation.ExpiryDate &&
		result.FieldValidation.Composite

	return result
}

// CheckDigit computes the ICAO 9303 check digit for a segment: each
// character's numeric value multiplied by the repeating 7-3-1 weight
// sequence, summed mod 10. Returns -1 if the segment contains a
// character outside the MRZ alphabet.
func CheckDigit(segment string) int {
	sum := 0
	for i := 0; i < len(segment); i++ {
		v := charValue(segment[i])
		if v < 0 {
			return -1
		}
		sum += v * weights[i%3]
	}
	return sum % 10
}

func verifyCheckDigit(segment string, check byte) bool {
	if check < '0' || check > '9' {
		return false
	}
	digit := CheckDigit(segment)
	return digit >= 0 && digit == int(check-'0')
}

// charValue maps an MRZ character to its numeric value: filler '<' is 0,
// digits map to themselves, letters map to 10 + alphabet index.
func charValue(c byte) int {
	switch {
	case c == '<':
		return 0
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// DateToTime resolves a raw YYMMDD MRZ date to a calendar date. Expiry
// dates are assumed to lie in 2000-2099. Birth dates pivot on the
// current two-digit year: a YY greater than it rolls back to the 1900s.
// The pivot is a heuristic; birth years near the boundary cannot be
// distinguished in TD3 and callers should surface a warning for them.
func DateToTime(yymmdd string, isExpiry bool) (time.Time, bool) {
	return dateToTimeAt(yymmdd, isExpiry, time.Now().UTC())
}

func dateToTimeAt(yymmdd string, isExpiry bool, now time.Time) (time.Time, bool) {
	if len(yymmdd) != 6 {
		return time.Time{}, false
	}
	for i := 0; i < 6; i++ {
		if yymmdd[i] < '0' || yymmdd[i] > '9' {
			return time.Time{}, false
		}
	}

	yy := int(yymmdd[0]-'0')*10 + int(yymmdd[1]-'0')
	month := int(yymmdd[2]-'0')*10 + int(yymmdd[3]-'0')
	day := int(yymmdd[4]-'0')*10 + int(yymmdd[5]-'0')

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	year := 2000 + yy
	if !isExpiry && yy > now.Year()%100 {
		year = 1900 + yy
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject dates that normalize away (e.g. Feb 30)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}

	return t, true
}

// NearCenturyBoundary reports whether a birth-date YY lands close enough
// to the pivot year that the century resolution is ambiguous.
func NearCenturyBoundary(yymmdd string) bool {
	if len(yymmdd) != 6 {
		return false
	}
	yy := int(yymmdd[0]-'0')*10 + int(yymmdd[1]-'0')
	pivot := time.Now().UTC().Year() % 100
	diff := yy - pivot
	if diff < 0 {
		diff = -diff
	}
	return diff <= 10
}

// CleanLine normalizes an OCR-read MRZ line: uppercases, strips
// characters outside the MRZ alphabet, then pads with filler or
// truncates to exactly 44 characters.
func CleanLine(line string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(line)) {
		if r == '<' || (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) > lineLength {
		return cleaned[:lineLength]
	}
	return cleaned + strings.Repeat("<", lineLength-len(cleaned))
}

func cleanSegment(s string) string {
	return strings.TrimRight(strings.ReplaceAll(s, "<", ""), " ")
}

func cleanName(s string) string {
	cleaned := strings.TrimRight(s, "< ")
	cleaned = strings.ReplaceAll(cleaned, "<", " ")
	return strings.TrimSpace(cleaned)
}
