package owner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/textutil"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// Status classifies the identity check outcome
type Status string

const (
	StatusMatch    Status = "match"
	StatusWarning  Status = "warning"
	StatusMismatch Status = "mismatch"
)

// Similarity bands for name matching. The borderline band can be
// rescued by date-of-birth corroboration.
const (
	matchThreshold      = 85.0
	mismatchThreshold   = 70.0
	borderlineRescueMin = 70.0
)

// ValidationResult is the owner check verdict attached to verification warnings
type ValidationResult struct {
	Status     Status  `json:"status"`
	Similarity float64 `json:"similarity"`
	MatchedOn  string  `json:"matched_on,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// CrewMember is the claimed person the document should belong to
type CrewMember struct {
	ID          string
	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth *time.Time
}

// FullName renders the stored name the way it appears on documents
func (c *CrewMember) FullName() string {
	parts := []string{c.FirstName, c.MiddleName, c.LastName}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.ToUpper(strings.Join(nonEmpty, " "))
}

// CrewStore is the read-only storage collaborator
type CrewStore interface {
	GetCrewMember(ctx context.Context, id string) (*CrewMember, error)
}

// NameMatcher computes person-name similarity. The default matcher is
// Levenshtein-based; swapping in a phonetic matcher only touches wiring.
type NameMatcher interface {
	BestMatch(extracted string, stored *CrewMember) float64
}

// LevenshteinMatcher compares the extracted name against several
// orderings of the stored name and keeps the best score, since documents
// disagree on surname-first vs given-name-first.
type LevenshteinMatcher struct{}

func (LevenshteinMatcher) BestMatch(extracted string, stored *CrewMember) float64 {
	candidates := []string{
		stored.FullName(),
		strings.TrimSpace(strings.ToUpper(stored.LastName + " " + stored.FirstName)),
		strings.TrimSpace(strings.ToUpper(stored.FirstName + " " + stored.LastName)),
	}

	best := 0.0
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if sim := textutil.Similarity(extracted, candidate); sim > best {
			best = sim
		}
	}
	return best
}

// Validator cross-checks the extracted holder name against the claimed
// crew member.
type Validator struct {
	store   CrewStore
	matcher NameMatcher
	log     *logger.Logger
}

func New(store CrewStore, matcher NameMatcher, log *logger.Logger) *Validator {
	return &Validator{
		store:   store,
		matcher: matcher,
		log:     log.WithComponent("owner_validator"),
	}
}

// Validate fetches the claimed person and classifies how well the
// extracted holder name (and optionally date of birth) corroborates
// them. An absent extracted name is a warning, never a hard failure.
func (v *Validator) Validate(ctx context.Context, crewMemberID, extractedName string, extractedDOB *time.Time) (*ValidationResult, error) {
	if isAbsentName(extractedName) {
		return &ValidationResult{
			Status:  StatusWarning,
			Message: "holder name could not be extracted; manual identity verification required",
		}, nil
	}

	member, err := v.store.GetCrewMember(ctx, crewMemberID)
	if err != nil {
		return nil, fmt.Errorf("fetch crew member %s: %w", crewMemberID, err)
	}

	similarity := v.matcher.BestMatch(extractedName, member)
	result := &ValidationResult{Similarity: similarity, MatchedOn: "name"}

	dobMatches := extractedDOB != nil && member.DateOfBirth != nil &&
		textutil.DatesMatch(*extractedDOB, *member.DateOfBirth)

	switch {
	case similarity >= matchThreshold:
		result.Status = StatusMatch
	case similarity >= borderlineRescueMin && dobMatches:
		// DOB corroboration rescues a borderline name; it never
		// downgrades a verdict reached on the name alone.
		result.Status = StatusMatch
		result.MatchedOn = "name+dob"
	case similarity >= mismatchThreshold:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf(
			"extracted name %q is only %.0f%% similar to %q", extractedName, similarity, member.FullName())
	default:
		result.Status = StatusMismatch
		result.Message = fmt.Sprintf(
			"extracted name %q does not match %q", extractedName, member.FullName())
	}

	v.log.Info().
		Str("crew_member_id", crewMemberID).
		Str("status", string(result.Status)).
		Float64("similarity", similarity).
		Msg("owner validation completed")

	return result, nil
}

func isAbsentName(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "NONE", "NA", "N/A", "NULL":
		return true
	}
	return false
}
