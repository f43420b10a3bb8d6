package merge

import (
	"fmt"
	"time"
	"unicode"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/textutil"
)

// Confidence assigned per agreement case when two engines ran
const (
	confidenceAgree      = 95.0
	confidenceOnlyAI     = 70.0
	confidenceOnlyTrad   = 65.0
	confidenceDisagree   = 40.0
	confidenceNone       = 0.0
	mrzBoost             = 20.0
	lowConfidenceCutoff  = 60.0
	longStringAgreeFloor = 90.0
)

// alignmentWeights orders the canonical fields by how much a disagreement
// on them should drag overall confidence down
var alignmentWeights = []struct {
	field  string
	weight float64
}{
	{"documentNumber", 2.0},
	{"expiryDate", 1.8},
	{"holderName", 1.5},
	{"issueDate", 1.2},
	{"issuingAuthority", 1.0},
}

// mrzClassFields are backed by MRZ checksums when validation passed
var mrzClassFields = map[string]bool{
	"documentNumber": true,
	"expiryDate":     true,
	"dateOfBirth":    true,
	"holderName":     true,
}

var fieldDisplayNames = map[string]string{
	"documentNumber":   "Document Number",
	"expiryDate":       "Expiry Date",
	"holderName":       "Holder Name",
	"issueDate":        "Issue Date",
	"issuingAuthority": "Issuing Authority",
}

// Analyze scores per-field confidence from how well two independent
// engines agreed, boosted by MRZ backing. second may be nil when only
// one engine succeeded.
func (m *Merger) Analyze(first, second *domain.ExtractedDocumentData) *domain.FieldAlignmentResult {
	result := &domain.FieldAlignmentResult{}

	mrzValid := first.HasValidMRZ() || second.HasValidMRZ()

	var weightedSum, weightTotal float64
	agreed, comparable := 0, 0

	for _, fw := range alignmentWeights {
		a := fieldValue(first, fw.field)
		b := fieldValue(second, fw.field)

		confidence := caseConfidence(a, b, first, second)

		mrzBacked := false
		if mrzValid && mrzClassFields[fw.field] && confidence > 0 {
			mrzBacked = true
			confidence += mrzBoost
		}
		confidence += qualityBoost(a, b)
		if confidence > 100 {
			confidence = 100
		}

		result.FieldConfidences = append(result.FieldConfidences, domain.FieldConfidence{
			FieldName:  fw.field,
			Confidence: confidence,
			MRZBacked:  mrzBacked,
		})

		weightedSum += confidence * fw.weight
		weightTotal += fw.weight

		if a != "" && b != "" {
			comparable++
			if valuesAgree(a, b) {
				agreed++
			}
		}

		if confidence < lowConfidenceCutoff {
			result.LowConfidenceFields = append(result.LowConfidenceFields, fw.field)
			result.Suggestions = append(result.Suggestions, suggestionFor(fw.field, confidence))
		}
	}

	result.OverallConfidence = weightedSum / weightTotal
	if comparable > 0 {
		result.AlignmentScore = float64(agreed) / float64(comparable) * 100
	}

	return result
}

// caseConfidence applies the 4-way split: agree / one-sided / disagree / neither
func caseConfidence(a, b string, first, second *domain.ExtractedDocumentData) float64 {
	switch {
	case a != "" && b != "":
		if valuesAgree(a, b) {
			return confidenceAgree
		}
		return confidenceDisagree
	case a != "":
		return oneSidedConfidence(first)
	case b != "":
		return oneSidedConfidence(second)
	default:
		return confidenceNone
	}
}

func oneSidedConfidence(source *domain.ExtractedDocumentData) float64 {
	if source != nil && source.EngineKind == domain.EngineKindTraditional {
		return confidenceOnlyTrad
	}
	return confidenceOnlyAI
}

// valuesAgree fuzzy-compares two field values: normalized equality, and
// for longer strings a high-similarity match still counts as agreement.
func valuesAgree(a, b string) bool {
	na, nb := textutil.Normalize(a), textutil.Normalize(b)
	if na == nb {
		return true
	}
	if len(na) >= 8 && len(nb) >= 8 {
		return textutil.Similarity(a, b) >= longStringAgreeFloor
	}
	return false
}

// qualityBoost nudges confidence up when the extracted value itself looks
// clean: alphanumeric, plausible length, few special characters.
func qualityBoost(a, b string) float64 {
	v := a
	if v == "" {
		v = b
	}
	if v == "" {
		return 0
	}

	length, special := 0, 0
	for _, r := range v {
		length++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '-' && r != '/' {
			special++
		}
	}
	if length >= 4 && length <= 40 && special == 0 {
		return 5
	}
	return 0
}

func suggestionFor(field string, confidence float64) string {
	display := fieldDisplayNames[field]
	switch {
	case confidence == 0:
		return fmt.Sprintf("%s could not be extracted from the document", display)
	case confidence < 40:
		return fmt.Sprintf("%s has very low confidence: the engines disagreed on its value", display)
	default:
		return fmt.Sprintf("Please verify %s against the physical document", display)
	}
}

// fieldValue projects a canonical field to its comparable string form.
// Dates render as date-only ISO so the comparison is timezone-stable.
func fieldValue(data *domain.ExtractedDocumentData, field string) string {
	if data == nil {
		return ""
	}
	switch field {
	case "documentNumber":
		return data.DocumentNumber
	case "expiryDate":
		return formatDate(data.ExpiryDate)
	case "holderName":
		return data.HolderName
	case "issueDate":
		return formatDate(data.IssueDate)
	case "issuingAuthority":
		return data.IssuingAuthority
	}
	return ""
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
