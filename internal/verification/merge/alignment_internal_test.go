package merge

import "testing"

// The TD3 lower line carries check digits for the document number, the
// date of birth, and the expiry date, and the upper line carries the
// holder name. All four must be treated as MRZ-backed.
func TestMRZClassFieldsCoverChecksumBackedFields(t *testing.T) {
	for _, field := range []string{"documentNumber", "expiryDate", "dateOfBirth", "holderName"} {
		if !mrzClassFields[field] {
			t.Errorf("%s is not marked as MRZ-backed", field)
		}
	}
}
