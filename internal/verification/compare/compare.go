package compare

import (
	"fmt"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/textutil"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// Similarity floors for context-aware fuzzy matching. Critical fields
// are deliberately stricter: a document number must survive either a
// near-exact raw comparison or a confusion-normalized one.
const (
	criticalConfusionFloor = 90.0
	criticalRawFloor       = 95.0
	nonCriticalFloor       = 85.0
)

// FuzzyMatchWithContext compares two field values with OCR tolerance.
// Exact match after normalization always passes. Critical fields require
// ≥90% similarity on the confusion-normalized forms or ≥95% raw; other
// fields accept ≥85% plain similarity or substring containment.
// Placeholder values on both sides count as an equal (non-)match.
func FuzzyMatchWithContext(existing, extracted string, critical bool) bool {
	existingAbsent := isPlaceholder(existing)
	extractedAbsent := isPlaceholder(extracted)
	if existingAbsent && extractedAbsent {
		return true
	}
	if existingAbsent || extractedAbsent {
		return false
	}

	if textutil.Normalize(existing) == textutil.Normalize(extracted) {
		return true
	}

	if critical {
		confusionSim := textutil.Similarity(
			textutil.NormalizeConfusions(existing),
			textutil.NormalizeConfusions(extracted),
		)
		if confusionSim >= criticalConfusionFloor {
			return true
		}
		return textutil.Similarity(existing, extracted) >= criticalRawFloor
	}

	if textutil.Similarity(existing, extracted) >= nonCriticalFloor {
		return true
	}
	return textutil.ContainsNormalized(existing, extracted)
}

func isPlaceholder(v string) bool {
	switch textutil.Normalize(v) {
	case "", "NONE", "NA", "NULL":
		return true
	}
	return false
}

// scoreWeights drive the overall match score. Holder name is compared
// and can force rejection, but identity matching is the owner
// validator's job, so it carries no score weight.
var scoreWeights = map[string]float64{
	"documentNumber":   2.0,
	"expiryDate":       1.5,
	"issuingAuthority": 1.0,
	"issueDate":        0.5,
}

// criticalFields force rejection when both sides are populated and the
// values genuinely mismatch
var criticalFields = map[string]bool{
	"documentNumber": true,
	"expiryDate":     true,
	"issueDate":      true,
	"holderName":     true,
}

var displayNames = map[string]string{
	"documentNumber":   "Document Number",
	"expiryDate":       "Expiry Date",
	"issueDate":        "Issue Date",
	"issuingAuthority": "Issuing Authority",
	"holderName":       "Holder Name",
}

// Comparator fuzzy-compares a merged extraction against the claimed
// stored record and applies the acceptance policy.
type Comparator struct {
	log         *logger.Logger
	acceptScore float64
	manualScore float64
}

func New(log *logger.Logger, acceptScore, manualScore float64) *Comparator {
	return &Comparator{
		log:         log.WithComponent("comparator"),
		acceptScore: acceptScore,
		manualScore: manualScore,
	}
}

// Compare produces the field-by-field comparison rows and the weighted
// overall match score. Fields missing on either side carry no weight;
// silence is handled by the acceptance policy, not scored as agreement.
func (c *Comparator) Compare(extracted *domain.ExtractedDocumentData, existing *domain.ExistingDocumentData) ([]domain.FieldComparison, float64) {
	rows := []domain.FieldComparison{
		c.compareString("documentNumber", existing.DocumentNumber, extracted.DocumentNumber, true),
		c.compareDate("expiryDate", existing.ExpiryDate, extracted.ExpiryDate),
		c.compareDate("issueDate", existing.IssueDate, extracted.IssueDate),
		c.compareString("issuingAuthority", existing.IssuingAuthority, extracted.IssuingAuthority, false),
	}
	if existing.HolderName != "" || extracted.HolderName != "" {
		rows = append(rows, c.compareString("holderName", existing.HolderName, extracted.HolderName, false))
	}

	var weightedSum, weightTotal float64
	for _, row := range rows {
		weight, scored := scoreWeights[row.FieldName]
		if !scored || row.ExistingValue == "" || row.ExtractedValue == "" {
			continue
		}
		weightedSum += row.Similarity * weight
		weightTotal += weight
	}

	score := 0.0
	if weightTotal > 0 {
		score = weightedSum / weightTotal
	}
	return rows, score
}

func (c *Comparator) compareString(field, existing, extracted string, critical bool) domain.FieldComparison {
	row := domain.FieldComparison{
		FieldName:      field,
		DisplayName:    displayNames[field],
		ExistingValue:  existing,
		ExtractedValue: extracted,
		IsEditable:     true,
	}

	row.Matches = FuzzyMatchWithContext(existing, extracted, critical)
	if critical {
		row.Similarity = textutil.Similarity(
			textutil.NormalizeConfusions(existing),
			textutil.NormalizeConfusions(extracted),
		)
	} else {
		row.Similarity = textutil.Similarity(existing, extracted)
	}
	if isPlaceholder(existing) && isPlaceholder(extracted) {
		row.Similarity = 100
	}

	row.ConfidenceLevel = confidenceFor(row.Matches, row.Similarity)
	return row
}

func (c *Comparator) compareDate(field string, existing, extracted *time.Time) domain.FieldComparison {
	row := domain.FieldComparison{
		FieldName:      field,
		DisplayName:    displayNames[field],
		ExistingValue:  formatDate(existing),
		ExtractedValue: formatDate(extracted),
		IsEditable:     true,
	}

	switch {
	case existing == nil && extracted == nil:
		row.Matches = true
		row.Similarity = 100
	case existing == nil || extracted == nil:
		row.Matches = false
		row.Similarity = 0
	case textutil.DatesMatch(*existing, *extracted):
		row.Matches = true
		row.Similarity = 100
	default:
		row.Matches = false
		row.Similarity = textutil.Similarity(row.ExistingValue, row.ExtractedValue)
	}

	row.ConfidenceLevel = confidenceFor(row.Matches, row.Similarity)
	return row
}

func confidenceFor(matches bool, similarity float64) domain.ConfidenceLevel {
	switch {
	case matches && similarity >= 95:
		return domain.ConfidenceHigh
	case matches || similarity >= 70:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Evaluate applies the acceptance policy to a finished comparison and
// assembles the terminal verification result. Rejections are successful
// results with IsValid=false and every contributing reason in Warnings.
func (c *Comparator) Evaluate(
	docType domain.DocumentType,
	extracted *domain.ExtractedDocumentData,
	comparisons []domain.FieldComparison,
	matchScore float64,
	forgery *domain.ForgeryAnalysis,
	alignment *domain.FieldAlignmentResult,
) *domain.DocumentVerificationResult {
	result := &domain.DocumentVerificationResult{
		MatchScore:            matchScore,
		FieldComparisons:      comparisons,
		ExtractedData:         extracted,
		OCRConfidence:         extracted.OCRConfidence,
		ForgeryAnalysis:       forgery,
		FieldAlignment:        alignment,
		AllowManualCorrection: matchScore >= c.manualScore,
	}

	if docType.BypassesStrictMatching() {
		result.IsValid = true
		result.AllowManualCorrection = true
		return result
	}

	if extracted.MRZValidation != nil && !extracted.MRZValidation.IsValid {
		result.Warnings = append(result.Warnings, "MRZ checksum validation failed")
	}
	if forgery.HighRisk() {
		result.Warnings = append(result.Warnings, "forgery detector reported high risk")
	}

	var docNumberMatched, expiryMatched bool
	for _, row := range comparisons {
		bothPresent := row.ExistingValue != "" && row.ExtractedValue != ""

		if criticalFields[row.FieldName] && bothPresent && !row.Matches {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s mismatch: expected %q, extracted %q",
				row.DisplayName, row.ExistingValue, row.ExtractedValue))
		}
		if docType.IsCritical() && criticalFields[row.FieldName] &&
			row.ExistingValue != "" && row.ExtractedValue == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s could not be extracted from the document", row.DisplayName))
		}

		if bothPresent && row.Matches {
			switch row.FieldName {
			case "documentNumber":
				docNumberMatched = true
			case "expiryDate":
				expiryMatched = true
			}
		}
	}

	if len(result.Warnings) > 0 {
		result.IsValid = false
		return result
	}

	switch {
	case matchScore >= c.acceptScore:
		result.IsValid = true
	case matchScore >= c.manualScore && docNumberMatched && expiryMatched:
		// Leniency path: the identifying fields specifically match even
		// though peripheral fields dragged the score down. Applies on
		// every evaluation, not only re-checks of stored documents.
		result.IsValid = true
	default:
		result.IsValid = false
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"match score %.0f is below the acceptance threshold %.0f", matchScore, c.acceptScore))
	}

	return result
}
