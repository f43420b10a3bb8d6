package merge_test

import (
	"testing"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/merge"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMerger() *merge.Merger {
	return merge.New(logger.New("merge-test", "test"))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMergeOneSidedValuesTaken(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		DocumentNumber: "J2701560",
	}
	second := &domain.ExtractedDocumentData{
		Engine:     "textract",
		ExpiryDate: date(2031, time.January, 4),
		HolderName: "RAMESH KUMAR",
	}

	merged := m.Merge(first, second)

	assert.Equal(t, "J2701560", merged.DocumentNumber)
	assert.Equal(t, "RAMESH KUMAR", merged.HolderName)
	require.NotNil(t, merged.ExpiryDate)
	assert.Equal(t, *date(2031, time.January, 4), *merged.ExpiryDate)
}

func TestMergePrefersMRZValidatedSide(t *testing.T) {
	m := newMerger()

	// "AB1234567" passed its ICAO checksum, "AB12345G7" did not
	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		DocumentNumber: "AB1234567",
		MRZValidation:  &domain.MRZValidation{IsValid: true},
	}
	second := &domain.ExtractedDocumentData{
		Engine:         "vision-secondary",
		DocumentNumber: "AB12345G7",
	}

	merged := m.Merge(first, second)
	assert.Equal(t, "AB1234567", merged.DocumentNumber)

	// The validated side must win regardless of argument order
	merged = m.Merge(second, first)
	assert.Equal(t, "AB1234567", merged.DocumentNumber)
}

func TestMergeTieBreakIsDeterministic(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		DocumentNumber: "J2701560",
	}
	second := &domain.ExtractedDocumentData{
		Engine:         "vision-secondary",
		DocumentNumber: "K3812671",
	}

	// Equal heuristic confidence, no MRZ on either side: the first
	// engine's value must win on every run.
	for i := 0; i < 50; i++ {
		merged := m.Merge(first, second)
		assert.Equal(t, "J2701560", merged.DocumentNumber)
	}
}

func TestMergePrefersHigherHeuristicConfidence(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		DocumentNumber: "J27#!%60@@@", // noisy read
	}
	second := &domain.ExtractedDocumentData{
		Engine:         "vision-secondary",
		DocumentNumber: "J2701560",
	}

	merged := m.Merge(first, second)
	assert.Equal(t, "J2701560", merged.DocumentNumber)
}

func TestMergeInputsNotMutated(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		DocumentNumber: "J2701560",
	}
	second := &domain.ExtractedDocumentData{
		Engine:         "textract",
		DocumentNumber: "K3812671",
		HolderName:     "RAMESH KUMAR",
	}

	m.Merge(first, second)

	assert.Equal(t, "J2701560", first.DocumentNumber)
	assert.Empty(t, first.HolderName)
	assert.Equal(t, "K3812671", second.DocumentNumber)
}

func TestMergeNilSides(t *testing.T) {
	m := newMerger()

	only := &domain.ExtractedDocumentData{Engine: "vision-primary", DocumentNumber: "J2701560"}

	assert.Same(t, only, m.Merge(only, nil))
	assert.Same(t, only, m.Merge(nil, only))
}

func TestMergeMRZLinesTravelTogether(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{Engine: "vision-primary"}
	second := &domain.ExtractedDocumentData{
		Engine:        "vision-secondary",
		MRZLine1:      "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		MRZLine2:      "L898902C36UTO7408122F1204159ZE184226B<<<<<10",
		MRZValidation: &domain.MRZValidation{IsValid: true},
	}

	merged := m.Merge(first, second)

	assert.Equal(t, second.MRZLine1, merged.MRZLine1)
	assert.Equal(t, second.MRZLine2, merged.MRZLine2)
	require.NotNil(t, merged.MRZValidation)
	assert.True(t, merged.MRZValidation.IsValid)
}

func TestMergeProfileFillsGaps(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:  "vision-primary",
		Profile: domain.ProfileData{FirstName: "RAMESH", Nationality: "INDIAN"},
	}
	second := &domain.ExtractedDocumentData{
		Engine: "textract",
		Profile: domain.ProfileData{
			FirstName:   "RAMESH",
			LastName:    "KUMAR",
			DateOfBirth: date(1985, time.March, 4),
		},
	}

	merged := m.Merge(first, second)

	assert.Equal(t, "RAMESH", merged.Profile.FirstName)
	assert.Equal(t, "KUMAR", merged.Profile.LastName)
	assert.Equal(t, "INDIAN", merged.Profile.Nationality)
	require.NotNil(t, merged.Profile.DateOfBirth)
}

func TestAnalyzeBothAgree(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:           "vision-primary",
		EngineKind:       domain.EngineKindAI,
		DocumentNumber:   "J2701560",
		ExpiryDate:       date(2031, time.January, 4),
		HolderName:       "RAMESH KUMAR",
		IssueDate:        date(2021, time.January, 5),
		IssuingAuthority: "MUMBAI",
	}
	second := &domain.ExtractedDocumentData{
		Engine:           "vision-secondary",
		EngineKind:       domain.EngineKindAI,
		DocumentNumber:   "J2701560",
		ExpiryDate:       date(2031, time.January, 4),
		HolderName:       "RAMESH KUMAR",
		IssueDate:        date(2021, time.January, 5),
		IssuingAuthority: "MUMBAI",
	}

	result := m.Analyze(first, second)

	assert.Equal(t, 100.0, result.AlignmentScore)
	assert.GreaterOrEqual(t, result.OverallConfidence, 95.0)
	assert.Empty(t, result.LowConfidenceFields)
	for _, fc := range result.FieldConfidences {
		assert.GreaterOrEqual(t, fc.Confidence, 95.0, fc.FieldName)
	}
}

func TestAnalyzeDisagreementDragsConfidence(t *testing.T) {
	m := newMerger()

	first := &domain.ExtractedDocumentData{
		Engine:         "vision-primary",
		EngineKind:     domain.EngineKindAI,
		DocumentNumber: "J2701560",
	}
	second := &domain.ExtractedDocumentData{
		Engine:         "vision-secondary",
		EngineKind:     domain.EngineKindAI,
		DocumentNumber: "X9999999",
	}

	result := m.Analyze(first, second)

	assert.Equal(t, 0.0, result.AlignmentScore)
	require.NotEmpty(t, result.FieldConfidences)
	assert.Equal(t, "documentNumber", result.FieldConfidences[0].FieldName)
	assert.LessOrEqual(t, result.FieldConfidences[0].Confidence, 45.0)
	assert.Contains(t, result.LowConfidenceFields, "documentNumber")
	assert.NotEmpty(t, result.Suggestions)
}

func TestAnalyzeMRZBoost(t *testing.T) {
	m := newMerger()

	base := func() *domain.ExtractedDocumentData {
		return &domain.ExtractedDocumentData{
			Engine:         "vision-primary",
			EngineKind:     domain.EngineKindAI,
			DocumentNumber: "J2701560",
		}
	}

	plain := m.Analyze(base(), nil)

	withMRZ := base()
	withMRZ.MRZValidation = &domain.MRZValidation{IsValid: true}
	boosted := m.Analyze(withMRZ, nil)

	plainDocNum := plain.FieldConfidences[0]
	boostedDocNum := boosted.FieldConfidences[0]

	assert.False(t, plainDocNum.MRZBacked)
	assert.True(t, boostedDocNum.MRZBacked)
	assert.Greater(t, boostedDocNum.Confidence, plainDocNum.Confidence)
	assert.LessOrEqual(t, boostedDocNum.Confidence, 100.0)
}

func TestAnalyzeSingleTraditionalEngine(t *testing.T) {
	m := newMerger()

	only := &domain.ExtractedDocumentData{
		Engine:         "textract",
		EngineKind:     domain.EngineKindTraditional,
		DocumentNumber: "J2701560",
	}

	result := m.Analyze(only, nil)

	docNum := result.FieldConfidences[0]
	require.Equal(t, "documentNumber", docNum.FieldName)
	// One-sided traditional read scores below a one-sided AI read
	assert.Less(t, docNum.Confidence, 80.0)
	assert.GreaterOrEqual(t, docNum.Confidence, 65.0)
}

func TestAnalyzeNothingExtracted(t *testing.T) {
	m := newMerger()

	result := m.Analyze(&domain.ExtractedDocumentData{Engine: "vision-primary"}, nil)

	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.Len(t, result.LowConfidenceFields, 5)
	for _, s := range result.Suggestions {
		assert.Contains(t, s, "could not be extracted")
	}
}
