package mrz

import (
	"strings"
	"testing"
	"time"
)

// ICAO 9303 specimen passport (Doc 9303 part 4 appendix)
const (
	specimenLine1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	specimenLine2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

func TestValidateTD3_Specimen(t *testing.T) {
	result := ValidateTD3(specimenLine1, specimenLine2)

	if !result.IsValid {
		t.Fatalf("specimen MRZ should be valid, errors: %v", result.Errors)
	}

	fv := result.FieldValidation
	if !fv.DocumentNumber || !fv.DateOfBirth || !fv.ExpiryDate || !fv.Composite {
		t.Errorf("all field validations should pass, got %+v", fv)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"document_code", result.Data.DocumentCode, "P"},
		{"issuing_country", result.Data.IssuingCountry, "UTO"},
		{"last_name", result.Data.LastName, "ERIKSSON"},
		{"first_name", result.Data.FirstName, "ANNA MARIA"},
		{"document_number", result.Data.DocumentNumber, "L898902C3"},
		{"nationality", result.Data.Nationality, "UTO"},
		{"date_of_birth", result.Data.DateOfBirth, "740812"},
		{"gender", result.Data.Gender, "F"},
		{"expiry_date", result.Data.ExpiryDate, "120415"},
		{"personal_number", result.Data.PersonalNumber, "ZE184226B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidateTD3_SingleCharacterFlip(t *testing.T) {
	// Flip one document number character: the document number checksum
	// must fail while DOB and expiry checksums stay independently valid.
	flipped := "X" + specimenLine2[1:]

	result := ValidateTD3(specimenLine1, flipped)

	if result.IsValid {
		t.Fatal("flipped MRZ should not be valid overall")
	}
	if result.FieldValidation.DocumentNumber {
		t.Error("document number checksum should fail after flip")
	}
	if !result.FieldValidation.DateOfBirth {
		t.Error("date of birth checksum should still pass")
	}
	if !result.FieldValidation.ExpiryDate {
		t.Error("expiry date checksum should still pass")
	}
	// The composite covers the flipped character too
	if result.FieldValidation.Composite {
		t.Error("composite checksum should fail after flip")
	}
}

func TestValidateTD3_DOBFlipIsolated(t *testing.T) {
	// Flip a DOB digit (position 13)
	flipped := specimenLine2[:13] + "8" + specimenLine2[14:]

	result := ValidateTD3(specimenLine1, flipped)

	if result.FieldValidation.DateOfBirth {
		t.Error("DOB checksum should fail after flip")
	}
	if !result.FieldValidation.DocumentNumber {
		t.Error("document number checksum should still pass")
	}
	if !result.FieldValidation.ExpiryDate {
		t.Error("expiry checksum should still pass")
	}
}

func TestValidateTD3_LengthError(t *testing.T) {
	result := ValidateTD3("P<UTO", "L898902C36")

	if result.IsValid {
		t.Error("short lines should not validate")
	}
	if len(result.Errors) == 0 {
		t.Error("expected a length error")
	}
	fv := result.FieldValidation
	if fv.DocumentNumber || fv.DateOfBirth || fv.ExpiryDate || fv.Composite {
		t.Errorf("all sub-validations should be false on length error, got %+v", fv)
	}
}

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		segment string
		want    int
	}{
		{"L898902C3", 6}, // ICAO specimen document number
		{"740812", 2},    // specimen DOB
		{"120415", 9},    // specimen expiry
		{"520727", 3},    // 5*7+2*3+0*1+7*7+2*3+7*1 = 103
		{"<<<<<<", 0},    // filler maps to zero
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			if got := CheckDigit(tt.segment); got != tt.want {
				t.Errorf("CheckDigit(%q) = %d, want %d", tt.segment, got, tt.want)
			}
		})
	}

	if got := CheckDigit("ab*"); got != -1 {
		t.Errorf("CheckDigit with invalid characters = %d, want -1", got)
	}
}

func TestDateToTime_Century(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		yymmdd   string
		isExpiry bool
		wantYear int
	}{
		{"expiry always 2000s", "301201", true, 2030},
		{"expiry low yy", "120415", true, 2012},
		{"birth year above pivot rolls back", "740812", false, 1974},
		{"birth year below pivot stays 2000s", "150610", false, 2015},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dateToTimeAt(tt.yymmdd, tt.isExpiry, now)
			if !ok {
				t.Fatalf("dateToTimeAt(%q) not ok", tt.yymmdd)
			}
			if got.Year() != tt.wantYear {
				t.Errorf("year = %d, want %d", got.Year(), tt.wantYear)
			}
		})
	}
}

func TestDateToTime_Invalid(t *testing.T) {
	invalid := []string{"", "74081", "7408122", "749912", "740832", "740230", "74O812"}
	for _, s := range invalid {
		if _, ok := DateToTime(s, false); ok {
			t.Errorf("DateToTime(%q) should fail", s)
		}
	}
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips noise and pads",
			in:   "  p<utoeriksson<<anna maria",
			want: "P<UTOERIKSSON<<ANNAMARIA" + strings.Repeat("<", 20),
		},
		{
			name: "truncates overlong lines",
			in:   specimenLine2 + "XX",
			want: specimenLine2,
		},
		{
			name: "already exact",
			in:   specimenLine2,
			want: specimenLine2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanLine(tt.in)
			if len(got) != 44 {
				t.Fatalf("CleanLine() length = %d, want 44", len(got))
			}
			if got != tt.want {
				t.Errorf("CleanLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNearCenturyBoundary(t *testing.T) {
	pivot := time.Now().UTC().Year() % 100

	near := string([]byte{byte('0' + pivot/10), byte('0' + pivot%10)}) + "0101"
	if !NearCenturyBoundary(near) {
		t.Errorf("yy equal to pivot should be flagged ambiguous")
	}
	if NearCenturyBoundary("740812") && pivot < 64 {
		t.Errorf("yy far from pivot should not be flagged")
	}
}
