package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateMatchTolerance absorbs timezone-shifted date-only values: a date
// serialized in one zone and parsed in another can drift by up to a day.
const dateMatchTolerance = time.Duration(1.05 * 24 * float64(time.Hour))

// nativeLayouts are tried verbatim before any OCR correction
var nativeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

var monthNames = []string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
	"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
}

// ParseRobustDate parses a noisy OCR date string into a calendar date.
// Native layouts are tried first; on failure the input is stripped of
// non-date characters, OCR digit confusions are corrected, and the
// remainder is parsed as DD-MM-YYYY or YYYY-MM-DD with the month given
// numerically or as an English month name (3+ letters). Any candidate
// whose components do not round-trip exactly is rejected. The boolean
// is false for irrecoverable input; callers must treat that as unknown,
// never as a zero date.
func ParseRobustDate(text string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return dateOnly(t), true
		}
	}

	return parseStructured(trimmed)
}

func parseStructured(text string) (time.Time, bool) {
	corrected := CorrectDateDigits(text)

	// Keep only digits, letters and separators, then tokenize
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			return r
		case r == '/' || r == '-' || r == '.' || r == ' ' || r == ',':
			return ' '
		}
		return -1
	}, corrected)

	tokens := strings.Fields(cleaned)
	if len(tokens) != 3 {
		return time.Time{}, false
	}

	var day, month, year int
	var ok bool

	switch {
	case isYear(tokens[0]):
		// YYYY-MM-DD
		year, _ = strconv.Atoi(tokens[0])
		if month, ok = resolveMonth(tokens[1]); !ok {
			return time.Time{}, false
		}
		if day, ok = atoiInRange(tokens[2], 1, 31); !ok {
			return time.Time{}, false
		}
	case isYear(tokens[2]):
		// DD-MM-YYYY, month possibly a name
		year, _ = strconv.Atoi(tokens[2])
		if day, ok = atoiInRange(tokens[0], 1, 31); !ok {
			// Month-name-first form: MONTH DD YYYY
			if month, ok = resolveMonth(tokens[0]); !ok {
				return time.Time{}, false
			}
			if day, ok = atoiInRange(tokens[1], 1, 31); !ok {
				return time.Time{}, false
			}
			break
		}
		if month, ok = resolveMonth(tokens[1]); !ok {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Round-trip guard: reject day=31 in a 30-day month and similar
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}

func isYear(token string) bool {
	if len(token) != 4 {
		return false
	}
	n, err := strconv.Atoi(token)
	return err == nil && n >= 1900 && n <= 2100
}

func atoiInRange(token string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// resolveMonth accepts a numeric month or an English month name of at
// least three letters, including common truncations like SEPT.
func resolveMonth(token string) (int, bool) {
	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}

	upper := strings.ToUpper(strings.TrimSuffix(token, "."))
	if len(upper) < 3 {
		return 0, false
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, upper) {
			return i + 1, true
		}
	}
	return 0, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DatesMatch reports whether two dates refer to the same calendar day,
// within the tolerance for timezone-shifted date-only values. Symmetric
// and reflexive.
func DatesMatch(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= dateMatchTolerance
}

// Date harvesting for the disambiguator: one regex for the numeric
// DD/MM/YYYY family, one for the month-name family.
var (
	numericDateRe   = regexp.MustCompile(`\b([0-9OIl]{1,2})[\/\-\.]([0-9OIl]{1,2})[\/\-\.]([0-9OIl]{2,4})\b`)
	monthNameDateRe = regexp.MustCompile(`\b([0-9]{1,2})?[\s,]*([A-Za-z]{3,9})\.?[\s,]+([0-9]{1,2})?[\s,]*([0-9]{4})\b`)
)

// HarvestDates extracts every parseable date-like substring from raw
// unstructured OCR text, in order of appearance. Duplicates are kept;
// callers decide precedence.
func HarvestDates(text string) []time.Time {
	var dates []time.Time

	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		candidate := m[1] + "/" + m[2] + "/" + normalizeYearToken(m[3])
		if t, ok := ParseRobustDate(candidate); ok {
			dates = append(dates, t)
		}
	}

	for _, m := range monthNameDateRe.FindAllStringSubmatch(text, -1) {
		day := m[1]
		if day == "" {
			day = m[3]
		}
		if day == "" {
			continue
		}
		if _, ok := resolveMonth(m[2]); !ok {
			continue
		}
		candidate := day + " " + m[2] + " " + m[4]
		if t, ok := ParseRobustDate(candidate); ok {
			dates = append(dates, t)
		}
	}

	return dates
}

// normalizeYearToken expands a two-digit year into the 2000s; harvested
// expiry candidates are filtered to the future by the caller anyway.
func normalizeYearToken(year string) string {
	corrected := CorrectDateDigits(year)
	if len(corrected) == 2 {
		return "20" + corrected
	}
	return corrected
}
