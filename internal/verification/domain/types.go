package domain

import "time"

// DocumentType represents the type of crew document being verified
type DocumentType string

const (
	DocumentTypePassport DocumentType = "passport"
	DocumentTypeCDC      DocumentType = "cdc" // seafarer discharge book
	DocumentTypeCOC      DocumentType = "coc" // certificate of competency
	DocumentTypeMedical  DocumentType = "medical"
	DocumentTypeGeneric  DocumentType = "generic"

	// Types accepted once extracted, without strict field matching
	DocumentTypePhoto     DocumentType = "photo"
	DocumentTypeNextOfKin DocumentType = "next_of_kin"
	DocumentTypeContract  DocumentType = "contract"
	DocumentTypeLetter    DocumentType = "letter"
)

// IsCritical reports whether mismatches on this document type alone can
// reject an upload. Critical types also run date disambiguation.
func (t DocumentType) IsCritical() bool {
	switch t {
	case DocumentTypePassport, DocumentTypeCDC, DocumentTypeCOC, DocumentTypeMedical:
		return true
	}
	return false
}

// BypassesStrictMatching reports whether the type is accepted once any
// extraction succeeded, skipping field comparison entirely.
func (t DocumentType) BypassesStrictMatching() bool {
	switch t {
	case DocumentTypePhoto, DocumentTypeNextOfKin, DocumentTypeContract, DocumentTypeLetter:
		return true
	}
	return false
}

// KnownDocumentTypes lists every type the verify endpoint accepts.
func KnownDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypePassport, DocumentTypeCDC, DocumentTypeCOC,
		DocumentTypeMedical, DocumentTypeGeneric,
		DocumentTypePhoto, DocumentTypeNextOfKin, DocumentTypeContract, DocumentTypeLetter,
	}
}

// EngineKind distinguishes AI vision engines from the traditional OCR chain
type EngineKind string

const (
	EngineKindAI          EngineKind = "ai"
	EngineKindTraditional EngineKind = "traditional"
)

// ConfidenceLevel buckets per-field confidence for UI rendering
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RawExtraction is the vendor-shaped output of one OCR engine pass.
// Fields carries the engine's loosely-named key/value pairs; no key is
// guaranteed present. RawText is the unstructured full-text read.
type RawExtraction struct {
	Engine     string            `json:"engine"`
	Kind       EngineKind        `json:"kind"`
	Fields     map[string]string `json:"fields"`
	RawText    string            `json:"raw_text"`
	Confidence float64           `json:"confidence"`
}

// MRZValidation carries the checksum outcome attached to an extraction
type MRZValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ProfileData holds person-level fields harvested opportunistically from
// any scan, independent of the claimed document type.
type ProfileData struct {
	FirstName         string     `json:"first_name,omitempty"`
	MiddleName        string     `json:"middle_name,omitempty"`
	LastName          string     `json:"last_name,omitempty"`
	Nationality       string     `json:"nationality,omitempty"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Email             string     `json:"email,omitempty"`
	Address           string     `json:"address,omitempty"`
	NextOfKinName     string     `json:"next_of_kin_name,omitempty"`
	NextOfKinRelation string     `json:"next_of_kin_relation,omitempty"`
	NextOfKinPhone    string     `json:"next_of_kin_phone,omitempty"`
}

// ExtractedDocumentData is the canonical, type-agnostic projection of one
// OCR pass. It is created once by the field mapper and treated as
// immutable; merge and correction steps build new values instead of
// mutating an engine's original output.
type ExtractedDocumentData struct {
	Engine     string     `json:"engine,omitempty"`
	EngineKind EngineKind `json:"engine_kind,omitempty"`

	DocumentNumber   string     `json:"document_number,omitempty"`
	IssuingAuthority string     `json:"issuing_authority,omitempty"`
	IssueDate        *time.Time `json:"issue_date,omitempty"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	HolderName       string     `json:"holder_name,omitempty"`

	Profile ProfileData `json:"profile"`

	MRZLine1      string         `json:"mrz_line1,omitempty"`
	MRZLine2      string         `json:"mrz_line2,omitempty"`
	MRZValidation *MRZValidation `json:"mrz_validation,omitempty"`

	RawText       string   `json:"raw_text,omitempty"`
	OCRConfidence float64  `json:"ocr_confidence"`
	Notes         []string `json:"notes,omitempty"`
}

// HasValidMRZ reports whether this extraction's MRZ passed full checksum
// validation.
func (e *ExtractedDocumentData) HasValidMRZ() bool {
	return e != nil && e.MRZValidation != nil && e.MRZValidation.IsValid
}

// ExistingDocumentData is the claimed ground truth pulled from storage.
// Read-only input to comparison.
type ExistingDocumentData struct {
	DocumentID       string       `json:"document_id,omitempty"`
	DocumentType     DocumentType `json:"document_type"`
	DocumentNumber   string       `json:"document_number,omitempty"`
	IssuingAuthority string       `json:"issuing_authority,omitempty"`
	IssueDate        *time.Time   `json:"issue_date,omitempty"`
	ExpiryDate       *time.Time   `json:"expiry_date,omitempty"`
	HolderName       string       `json:"holder_name,omitempty"`
}

// FieldComparison is one row of the field-by-field comparison UI
type FieldComparison struct {
	FieldName       string          `json:"field_name"`
	DisplayName     string          `json:"display_name"`
	ExistingValue   string          `json:"existing_value"`
	ExtractedValue  string          `json:"extracted_value"`
	Matches         bool            `json:"matches"`
	Similarity      float64         `json:"similarity"`
	IsEditable      bool            `json:"is_editable"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
}

// FieldConfidence is the per-field agreement score from the alignment analyzer
type FieldConfidence struct {
	FieldName  string  `json:"field_name"`
	Confidence float64 `json:"confidence"`
	MRZBacked  bool    `json:"mrz_backed,omitempty"`
}

// FieldAlignmentResult summarizes how well independent engines agreed
type FieldAlignmentResult struct {
	FieldConfidences    []FieldConfidence `json:"field_confidences"`
	OverallConfidence   float64           `json:"overall_confidence"`
	AlignmentScore      float64           `json:"alignment_score"`
	LowConfidenceFields []string          `json:"low_confidence_fields,omitempty"`
	Suggestions         []string          `json:"suggestions,omitempty"`
}

// ForgeryAnalysis is produced by the external forgery detector and
// attached opaquely to the result.
type ForgeryAnalysis struct {
	RiskScore float64  `json:"risk_score"`
	RiskLevel string   `json:"risk_level"`
	Warnings  []string `json:"warnings,omitempty"`
}

// HighRisk reports whether the forgery detector's risk level forces rejection
func (f *ForgeryAnalysis) HighRisk() bool {
	return f != nil && f.RiskLevel == "high"
}

// DocumentVerificationResult is the terminal artifact of one verification
// call. Validation rejections are successful results with IsValid=false
// and every contributing reason listed in Warnings.
type DocumentVerificationResult struct {
	IsValid               bool                   `json:"is_valid"`
	MatchScore            float64                `json:"match_score"`
	FieldComparisons      []FieldComparison      `json:"field_comparisons"`
	ExtractedData         *ExtractedDocumentData `json:"extracted_data,omitempty"`
	Warnings              []string               `json:"warnings,omitempty"`
	AllowManualCorrection bool                   `json:"allow_manual_correction"`
	OCRConfidence         float64                `json:"ocr_confidence"`
	ForgeryAnalysis       *ForgeryAnalysis       `json:"forgery_analysis,omitempty"`
	FieldAlignment        *FieldAlignmentResult  `json:"field_alignment,omitempty"`
}
