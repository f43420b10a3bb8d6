package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// keywordProfile describes one document type: required keywords anchor
// the classification, supporting keywords refine the score. Multi-word
// entries are bigrams and earn half credit on a partial match.
type keywordProfile struct {
	required   []string
	supporting []string
}

var profiles = map[domain.DocumentType]keywordProfile{
	domain.DocumentTypePassport: {
		required: []string{"passport"},
		supporting: []string{
			"republic of", "place of issue", "place of birth", "nationality",
			"surname", "given names", "date of expiry",
		},
	},
	domain.DocumentTypeCDC: {
		required: []string{"continuous discharge", "discharge certificate", "seafarer identity"},
		supporting: []string{
			"seaman", "rank", "port of registry", "signed on", "signed off",
			"vessel name", "capacity engaged",
		},
	},
	domain.DocumentTypeCOC: {
		required: []string{"certificate of competency", "competency"},
		supporting: []string{
			"stcw", "regulation", "endorsement", "capacity",
			"directorate general", "merchant shipping", "watchkeeping",
		},
	},
	domain.DocumentTypeMedical: {
		required: []string{"medical certificate", "medical fitness"},
		supporting: []string{
			"examination", "fit for sea service", "colour vision", "hearing",
			"approved medical practitioner", "height", "weight",
		},
	},
}

// filenameHints map filename substrings to the type they suggest
var filenameHints = map[string]domain.DocumentType{
	"passport": domain.DocumentTypePassport,
	"cdc":      domain.DocumentTypeCDC,
	"coc":      domain.DocumentTypeCOC,
	"medical":  domain.DocumentTypeMedical,
}

// typeAliases are caller-supplied labels accepted as equivalent to a
// canonical type before a mismatch is declared
var typeAliases = map[string]domain.DocumentType{
	"stcw":           domain.DocumentTypeCOC,
	"competency":     domain.DocumentTypeCOC,
	"discharge_book": domain.DocumentTypeCDC,
	"seamans_book":   domain.DocumentTypeCDC,
	"medical_cert":   domain.DocumentTypeMedical,
}

const (
	filenameScore    = 10.0
	requiredScore    = 40.0
	noRequiredCap    = 20.0
	supportingScore  = 40.0
	multiMatchBonus  = 10.0
	shortTextPenalty = 0.8
	shortTextLength  = 100
)

// Candidate is one scored classification outcome
type Candidate struct {
	DocumentType domain.DocumentType `json:"document_type"`
	Confidence   float64             `json:"confidence"`
}

// Result is the classifier's verdict: the top-scoring type plus up to
// three non-zero alternatives.
type Result struct {
	DocumentType domain.DocumentType `json:"document_type"`
	Confidence   float64             `json:"confidence"`
	Alternatives []Candidate         `json:"alternatives,omitempty"`
}

// Classifier scores raw OCR text against per-type keyword tables.
// Stateless; safe for concurrent use.
type Classifier struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Classifier {
	return &Classifier{log: log.WithComponent("classifier")}
}

// Classify scores the text (and filename hint) against every known type
// and returns the best match with alternatives.
func (c *Classifier) Classify(text, filename string) *Result {
	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(filename)

	var candidates []Candidate
	for docType, profile := range profiles {
		score := scoreType(docType, profile, lowerText, lowerName)
		if len(lowerText) < shortTextLength {
			score *= shortTextPenalty
		}
		candidates = append(candidates, Candidate{DocumentType: docType, Confidence: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		// Stable order for equal scores
		return candidates[i].DocumentType < candidates[j].DocumentType
	})

	result := &Result{
		DocumentType: candidates[0].DocumentType,
		Confidence:   candidates[0].Confidence,
	}
	for _, alt := range candidates[1:] {
		if alt.Confidence <= 0 || len(result.Alternatives) == 3 {
			break
		}
		result.Alternatives = append(result.Alternatives, alt)
	}

	c.log.Debug().
		Str("document_type", string(result.DocumentType)).
		Float64("confidence", result.Confidence).
		Msg("classified document")

	return result
}

func scoreType(docType domain.DocumentType, profile keywordProfile, text, filename string) float64 {
	var score float64
	matched := 0

	if hint, ok := filenameHintFor(filename); ok && hint == docType {
		score += filenameScore
	}

	hasRequired := false
	for _, kw := range profile.required {
		if strings.Contains(text, kw) {
			hasRequired = true
			matched++
		}
	}
	if hasRequired {
		score += requiredScore
	}

	var supportingCredit float64
	for _, kw := range profile.supporting {
		credit := keywordCredit(text, kw)
		supportingCredit += credit
		if credit == 1 {
			matched++
		}
	}
	if len(profile.supporting) > 0 {
		score += supportingScore * supportingCredit / float64(len(profile.supporting))
	}

	if matched >= 3 {
		score += multiMatchBonus
	}

	// Without a required keyword the type can never score past the cap,
	// no matter how many generic supporting words appear.
	if !hasRequired && score > noRequiredCap {
		score = noRequiredCap
	}

	return score
}

// keywordCredit returns 1 for a full match, 0.5 for a bigram with
// exactly one word present, 0 otherwise.
func keywordCredit(text, keyword string) float64 {
	if strings.Contains(text, keyword) {
		return 1
	}
	words := strings.Fields(keyword)
	if len(words) < 2 {
		return 0
	}
	for _, w := range words {
		if len(w) >= 4 && strings.Contains(text, w) {
			return 0.5
		}
	}
	return 0
}

func filenameHintFor(filename string) (domain.DocumentType, bool) {
	for token, docType := range filenameHints {
		if strings.Contains(filename, token) {
			return docType, true
		}
	}
	return "", false
}

// ValidateTypeMatch checks the caller's claimed type label against the
// classifier's verdict, accepting known aliases before declaring a
// mismatch. Returns a human-readable warning when the types disagree.
func ValidateTypeMatch(claimed string, detected domain.DocumentType) (bool, string) {
	normalized := strings.ToLower(strings.TrimSpace(claimed))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	claimedType := domain.DocumentType(normalized)
	if alias, ok := typeAliases[normalized]; ok {
		claimedType = alias
	}

	if claimedType == detected {
		return true, ""
	}
	return false, fmt.Sprintf(
		"document was uploaded as %q but reads like a %s", claimed, detected)
}
