package merge

import (
	"time"
	"unicode"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// Merger reconciles two engines' canonical extractions into one.
// Stateless; safe for concurrent use.
type Merger struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Merger {
	return &Merger{log: log.WithComponent("merger")}
}

// Merge combines two extractions field by field: a one-sided value is
// taken as-is; when both sides have a value the MRZ-validated side wins,
// then the side with higher heuristic confidence, and on a true tie the
// first argument. The inputs are never mutated, so the merge order is the
// only source of nondeterminism; callers pass engines in registration
// order to keep results reproducible.
//
// Three or more successful engines are merged by folding pairwise left
// to right, so earlier-registered engines keep their tie-break priority.
func (m *Merger) Merge(first, second *domain.ExtractedDocumentData) *domain.ExtractedDocumentData {
	if second == nil {
		return first
	}
	if first == nil {
		return second
	}

	merged := &domain.ExtractedDocumentData{
		Engine:     first.Engine + "+" + second.Engine,
		EngineKind: first.EngineKind,
	}

	merged.DocumentNumber = m.pickString(first, second, first.DocumentNumber, second.DocumentNumber)
	merged.IssuingAuthority = m.pickString(first, second, first.IssuingAuthority, second.IssuingAuthority)
	merged.HolderName = m.pickString(first, second, first.HolderName, second.HolderName)
	merged.IssueDate = m.pickDate(first, second, first.IssueDate, second.IssueDate)
	merged.ExpiryDate = m.pickDate(first, second, first.ExpiryDate, second.ExpiryDate)

	merged.Profile = mergeProfiles(first.Profile, second.Profile)

	// MRZ lines and validation travel together from whichever side
	// actually read them; a valid MRZ beats an invalid one.
	mrzSide := first
	if !first.HasValidMRZ() && (second.HasValidMRZ() || first.MRZLine2 == "") {
		if second.MRZLine2 != "" {
			mrzSide = second
		}
	}
	merged.MRZLine1 = mrzSide.MRZLine1
	merged.MRZLine2 = mrzSide.MRZLine2
	merged.MRZValidation = mrzSide.MRZValidation

	if first.RawText != "" {
		merged.RawText = first.RawText
	} else {
		merged.RawText = second.RawText
	}
	merged.OCRConfidence = (first.OCRConfidence + second.OCRConfidence) / 2

	merged.Notes = append(merged.Notes, first.Notes...)
	merged.Notes = append(merged.Notes, second.Notes...)

	return merged
}

func (m *Merger) pickString(first, second *domain.ExtractedDocumentData, a, b string) string {
	if b == "" {
		return a
	}
	if a == "" {
		return b
	}
	if a == b {
		return a
	}

	if first.HasValidMRZ() && !second.HasValidMRZ() {
		return a
	}
	if second.HasValidMRZ() && !first.HasValidMRZ() {
		return b
	}

	confA, confB := assessConfidence(a), assessConfidence(b)
	if confB > confA {
		m.log.Debug().Str("chosen", b).Str("rejected", a).Msg("merge picked higher-confidence value")
		return b
	}
	// Equal confidence: first engine wins, deterministically
	return a
}

func (m *Merger) pickDate(first, second *domain.ExtractedDocumentData, a, b *time.Time) *time.Time {
	if b == nil {
		return a
	}
	if a == nil {
		return b
	}
	if a.Equal(*b) {
		return a
	}
	if first.HasValidMRZ() && !second.HasValidMRZ() {
		return a
	}
	if second.HasValidMRZ() && !first.HasValidMRZ() {
		return b
	}
	return a
}

func mergeProfiles(a, b domain.ProfileData) domain.ProfileData {
	merged := a
	if merged.FirstName == "" {
		merged.FirstName = b.FirstName
	}
	if merged.MiddleName == "" {
		merged.MiddleName = b.MiddleName
	}
	if merged.LastName == "" {
		merged.LastName = b.LastName
	}
	if merged.Nationality == "" {
		merged.Nationality = b.Nationality
	}
	if merged.DateOfBirth == nil {
		merged.DateOfBirth = b.DateOfBirth
	}
	if merged.Phone == "" {
		merged.Phone = b.Phone
	}
	if merged.Email == "" {
		merged.Email = b.Email
	}
	if merged.Address == "" {
		merged.Address = b.Address
	}
	if merged.NextOfKinName == "" {
		merged.NextOfKinName = b.NextOfKinName
	}
	if merged.NextOfKinRelation == "" {
		merged.NextOfKinRelation = b.NextOfKinRelation
	}
	if merged.NextOfKinPhone == "" {
		merged.NextOfKinPhone = b.NextOfKinPhone
	}
	return merged
}

// assessConfidence scores how much a value looks like a cleanly read
// document field: alphanumeric with a plausible length reads as high.
func assessConfidence(value string) int {
	length := 0
	special := 0
	for _, r := range value {
		length++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			special++
		}
	}

	switch {
	case length >= 5 && length <= 25 && special == 0:
		return 2
	case length > 0 && special <= 2:
		return 1
	default:
		return 0
	}
}
