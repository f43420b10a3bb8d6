package mapper

import (
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/textutil"
)

// staleExpiryYears is how far in the past an expiry year may sit before
// it is treated as an OCR artifact rather than a genuinely lapsed document
const staleExpiryYears = 5

// DisambiguateExpiry detects implausible expiry dates on critical
// document types and attempts correction. A suspicious expiry that cannot
// be corrected is unset: a wrong date must not pass as a confirmed one.
//
// expectedExpiry, when the caller holds a claimed record, anchors the
// correction: a harvested date equal to it is preferred over any other.
func (m *Mapper) DisambiguateExpiry(data *domain.ExtractedDocumentData, docType domain.DocumentType, expectedExpiry *time.Time) {
	if !docType.IsCritical() {
		return
	}
	m.disambiguateExpiryAt(data, expectedExpiry, time.Now().UTC())
}

func (m *Mapper) disambiguateExpiryAt(data *domain.ExtractedDocumentData, expectedExpiry *time.Time, now time.Time) {
	reason := suspicionReason(data, now)
	if reason == "" {
		return
	}

	// A checksum-validated MRZ already overrode the expiry during
	// mapping; that value outranks any heuristic correction.
	if data.HasValidMRZ() {
		return
	}

	m.log.Warn().
		Str("engine", data.Engine).
		Str("reason", reason).
		Msg("suspicious expiry date, attempting correction from raw text")

	if corrected, ok := harvestExpiry(data, expectedExpiry, now); ok {
		data.ExpiryDate = &corrected
		data.Notes = append(data.Notes, "expiry date recovered from document text ("+reason+")")
		return
	}

	data.ExpiryDate = nil
	data.Notes = append(data.Notes, "expiry date unset: "+reason+" and no reliable replacement found")
}

func suspicionReason(data *domain.ExtractedDocumentData, now time.Time) string {
	if data.ExpiryDate == nil {
		return "expiry date missing after extraction"
	}
	if dob := data.Profile.DateOfBirth; dob != nil && textutil.DatesMatch(*data.ExpiryDate, *dob) {
		return "expiry date equals date of birth"
	}
	if data.ExpiryDate.Year() < now.Year()-staleExpiryYears {
		return "expiry year implausibly far in the past"
	}
	return ""
}

// harvestExpiry scans the engine's unstructured text for date-like
// substrings and picks the best expiry candidate: an exact match against
// the claimed expiry wins; otherwise the most recent future date that is
// not the date of birth.
func harvestExpiry(data *domain.ExtractedDocumentData, expectedExpiry *time.Time, now time.Time) (time.Time, bool) {
	candidates := textutil.HarvestDates(data.RawText)
	if len(candidates) == 0 {
		return time.Time{}, false
	}

	if expectedExpiry != nil {
		for _, c := range candidates {
			if textutil.DatesMatch(c, *expectedExpiry) {
				return c, true
			}
		}
	}

	dob := data.Profile.DateOfBirth
	var best time.Time
	found := false
	for _, c := range candidates {
		if !c.After(now) {
			continue
		}
		if dob != nil && textutil.DatesMatch(c, *dob) {
			continue
		}
		if !found || c.After(best) {
			best = c
			found = true
		}
	}
	return best, found
}
