package mapper

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/mrz"
	"github.com/seacrew/crewdocs-backend/internal/verification/textutil"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// fieldTable lists, per canonical field, the vendor key aliases in lookup
// order. Engines name fields loosely; the first populated alias wins.
type fieldTable struct {
	documentNumber   []string
	issuingAuthority []string
	issueDate        []string
	expiryDate       []string
	holderName       []string
}

var passportTable = fieldTable{
	documentNumber:   []string{"passportNumber", "passport_number", "documentNumber"},
	issuingAuthority: []string{"passportPlaceOfIssue", "placeOfIssue", "issuingAuthority", "issuing_authority"},
	issueDate:        []string{"passportDateOfIssue", "dateOfIssue", "issueDate", "issue_date"},
	expiryDate:       []string{"passportDateOfExpiry", "dateOfExpiry", "expiryDate", "expiry_date"},
	holderName:       []string{"fullName", "holderName", "name", "surnameAndGivenNames"},
}

var cdcTable = fieldTable{
	documentNumber:   []string{"cdcNumber", "cdc_number", "dischargeBookNumber", "documentNumber"},
	issuingAuthority: []string{"cdcPlaceOfIssue", "issuingAuthority", "issuing_authority", "placeOfIssue"},
	issueDate:        []string{"cdcDateOfIssue", "dateOfIssue", "issueDate", "issue_date"},
	expiryDate:       []string{"cdcDateOfExpiry", "dateOfExpiry", "expiryDate", "expiry_date"},
	holderName:       []string{"fullName", "holderName", "seamanName", "name"},
}

var cocTable = fieldTable{
	documentNumber:   []string{"cocNumber", "coc_number", "certificateNumber", "certificate_number", "documentNumber"},
	issuingAuthority: []string{"cocIssuingAuthority", "issuingAuthority", "issuing_authority", "issuingCountry"},
	issueDate:        []string{"cocDateOfIssue", "dateOfIssue", "issueDate", "issue_date"},
	expiryDate:       []string{"cocDateOfExpiry", "dateOfExpiry", "expiryDate", "expiry_date", "validUntil"},
	holderName:       []string{"fullName", "holderName", "name"},
}

var medicalTable = fieldTable{
	documentNumber:   []string{"certificateNumber", "certificate_number", "medicalCertificateNumber", "documentNumber"},
	issuingAuthority: []string{"issuingAuthority", "issuing_authority", "clinicName", "doctorName"},
	issueDate:        []string{"examinationDate", "dateOfIssue", "issueDate", "issue_date"},
	expiryDate:       []string{"dateOfExpiry", "expiryDate", "expiry_date", "validUntil"},
	holderName:       []string{"fullName", "holderName", "name", "patientName"},
}

// genericTable is the superset fallback for unknown or generic documents
var genericTable = fieldTable{
	documentNumber: []string{
		"documentNumber", "document_number", "passportNumber", "cdcNumber",
		"cocNumber", "certificateNumber", "number",
	},
	issuingAuthority: []string{
		"issuingAuthority", "issuing_authority", "passportPlaceOfIssue",
		"placeOfIssue", "issuingCountry",
	},
	issueDate: []string{
		"issueDate", "issue_date", "dateOfIssue", "passportDateOfIssue", "examinationDate",
	},
	expiryDate: []string{
		"expiryDate", "expiry_date", "dateOfExpiry", "passportDateOfExpiry", "validUntil",
	},
	holderName: []string{"fullName", "holderName", "name", "seamanName", "patientName"},
}

func tableFor(docType domain.DocumentType) fieldTable {
	switch docType {
	case domain.DocumentTypePassport:
		return passportTable
	case domain.DocumentTypeCDC:
		return cdcTable
	case domain.DocumentTypeCOC:
		return cocTable
	case domain.DocumentTypeMedical:
		return medicalTable
	default:
		return genericTable
	}
}

// Mapper projects vendor-shaped raw extractions onto the canonical
// document schema. Stateless; safe for concurrent use.
type Mapper struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Mapper {
	return &Mapper{log: log.WithComponent("field_mapper")}
}

// Map projects one engine's raw output into ExtractedDocumentData for
// the given document type, then applies MRZ-backed corrections when both
// MRZ lines were read. The raw extraction is never mutated.
func (m *Mapper) Map(raw *domain.RawExtraction, docType domain.DocumentType) *domain.ExtractedDocumentData {
	table := tableFor(docType)
	fields := normalizeKeys(raw.Fields)

	data := &domain.ExtractedDocumentData{
		Engine:        raw.Engine,
		EngineKind:    raw.Kind,
		RawText:       raw.RawText,
		OCRConfidence: raw.Confidence,
	}

	data.DocumentNumber = lookup(fields, table.documentNumber)
	data.IssuingAuthority = lookup(fields, table.issuingAuthority)
	data.HolderName = CleanExtractedName(lookup(fields, table.holderName))

	if v := lookup(fields, table.issueDate); v != "" {
		if t, ok := textutil.ParseRobustDate(v); ok {
			data.IssueDate = &t
		}
	}
	if v := lookup(fields, table.expiryDate); v != "" {
		if t, ok := textutil.ParseRobustDate(v); ok {
			data.ExpiryDate = &t
		}
	}

	// Profile fields are harvested regardless of the claimed type: a
	// single scan may update profile data opportunistically.
	m.mapProfile(fields, data)

	data.MRZLine1 = lookup(fields, []string{"mrzLine1", "mrz_line1", "mrzLineOne"})
	data.MRZLine2 = lookup(fields, []string{"mrzLine2", "mrz_line2", "mrzLineTwo"})
	m.applyMRZ(data)

	return data
}

func (m *Mapper) mapProfile(fields map[string]string, data *domain.ExtractedDocumentData) {
	p := &data.Profile

	p.FirstName = CleanExtractedName(lookup(fields, []string{"firstName", "first_name", "givenName", "givenNames"}))
	p.MiddleName = CleanExtractedName(lookup(fields, []string{"middleName", "middle_name"}))
	p.LastName = CleanExtractedName(lookup(fields, []string{"lastName", "last_name", "surname", "familyName"}))

	// Engines that only read a combined name still feed the profile
	if p.FirstName == "" && p.LastName == "" && data.HolderName != "" {
		parts := strings.Fields(data.HolderName)
		switch {
		case len(parts) == 1:
			p.FirstName = parts[0]
		case len(parts) >= 2:
			p.FirstName = parts[0]
			p.LastName = parts[len(parts)-1]
			if len(parts) > 2 {
				p.MiddleName = strings.Join(parts[1:len(parts)-1], " ")
			}
		}
	}

	p.Nationality = strings.ToUpper(strings.TrimSpace(lookup(fields, []string{"nationality", "citizenship"})))
	if v := lookup(fields, []string{"dateOfBirth", "date_of_birth", "dob", "birthDate"}); v != "" {
		if t, ok := textutil.ParseRobustDate(v); ok {
			p.DateOfBirth = &t
		}
	}

	p.Phone = strings.TrimSpace(lookup(fields, []string{"phone", "phoneNumber", "mobile", "mobileNumber", "contactNumber"}))
	p.Email = strings.ToLower(strings.TrimSpace(lookup(fields, []string{"email", "emailAddress"})))
	p.Address = strings.TrimSpace(lookup(fields, []string{"address", "permanentAddress", "residentialAddress"}))

	p.NextOfKinName = CleanExtractedName(lookup(fields, []string{"nextOfKinName", "next_of_kin_name", "kinName", "emergencyContactName"}))
	p.NextOfKinRelation = strings.TrimSpace(lookup(fields, []string{"nextOfKinRelation", "next_of_kin_relation", "kinRelation", "relationship"}))
	p.NextOfKinPhone = strings.TrimSpace(lookup(fields, []string{"nextOfKinPhone", "next_of_kin_phone", "kinPhone", "emergencyContactNumber"}))
}

// applyMRZ validates the MRZ lines when both are present and reconciles
// the checksum-backed MRZ fields against the visually read values.
func (m *Mapper) applyMRZ(data *domain.ExtractedDocumentData) {
	if isAbsent(data.MRZLine1) || isAbsent(data.MRZLine2) {
		return
	}

	line1 := mrz.CleanLine(data.MRZLine1)
	line2 := mrz.CleanLine(data.MRZLine2)
	data.MRZLine1 = line1
	data.MRZLine2 = line2

	result := mrz.ValidateTD3(line1, line2)
	data.MRZValidation = &domain.MRZValidation{
		IsValid: result.IsValid,
		Errors:  result.Errors,
	}

	if result.FieldValidation.DocumentNumber && result.Data.DocumentNumber != "" {
		m.reconcileDocumentNumber(data, result.Data.DocumentNumber)
	}

	// Checksum-validated dates always beat the visual read
	if result.FieldValidation.ExpiryDate {
		if t, ok := mrz.DateToTime(result.Data.ExpiryDate, true); ok {
			data.ExpiryDate = &t
		}
	}
	if result.FieldValidation.DateOfBirth {
		if t, ok := mrz.DateToTime(result.Data.DateOfBirth, false); ok {
			data.Profile.DateOfBirth = &t
			if mrz.NearCenturyBoundary(result.Data.DateOfBirth) {
				data.Notes = append(data.Notes, "date of birth century resolved heuristically; verify against the printed date")
			}
		}
	}
}

// reconcileDocumentNumber decides between the checksum-backed MRZ
// document number and the vision engine's visual read. The MRZ value is
// higher-trust only when the two reads are plausibly the same string.
func (m *Mapper) reconcileDocumentNumber(data *domain.ExtractedDocumentData, mrzNumber string) {
	visual := data.DocumentNumber
	if visual == "" {
		data.DocumentNumber = mrzNumber
		return
	}

	sim := textutil.Similarity(visual, mrzNumber)
	diff := textutil.ClassifyDiff(visual, mrzNumber)

	switch {
	case sim >= 95, sim >= 85 && diff == textutil.DiffConfusionOnly:
		data.DocumentNumber = mrzNumber
	case sim < 70:
		// Large disagreement: do not silently trust the MRZ. Keep the
		// visual value and surface the conflict for review.
		data.Notes = append(data.Notes, fmt.Sprintf(
			"document number conflict: visual read %q vs MRZ %q", visual, mrzNumber))
		m.log.Warn().
			Str("visual", visual).
			Str("mrz", mrzNumber).
			Float64("similarity", sim).
			Msg("document number disagrees with MRZ")
	default:
		data.DocumentNumber = mrzNumber
		data.Notes = append(data.Notes, fmt.Sprintf(
			"document number taken from MRZ over visual read %q", visual))
	}
}

var honorifics = map[string]bool{
	"MR": true, "MRS": true, "MS": true, "MISS": true, "DR": true,
	"CAPT": true, "CAPTAIN": true, "ENGR": true, "SHRI": true, "SMT": true,
}

// CleanExtractedName normalizes an OCR-read person name: honorifics
// stripped, non-letters removed, whitespace collapsed, upper-cased.
// Empty and placeholder values map to the empty string.
func CleanExtractedName(name string) string {
	name = strings.TrimSpace(name)
	if isAbsent(name) {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, word := range strings.Fields(b.String()) {
		if honorifics[strings.TrimSuffix(word, ".")] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func isAbsent(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "NONE", "NA", "N/A", "NULL":
		return true
	}
	return false
}

// normalizeKeys re-keys the vendor field map for case- and
// separator-insensitive lookup. First writer wins on collisions.
func normalizeKeys(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		nk := normalizeKey(k)
		if _, exists := out[nk]; !exists {
			out[nk] = v
		}
	}
	return out
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func lookup(fields map[string]string, keys []string) string {
	for _, key := range keys {
		if v, ok := fields[normalizeKey(key)]; ok {
			v = strings.TrimSpace(v)
			if !isAbsent(v) {
				return v
			}
		}
	}
	return ""
}
