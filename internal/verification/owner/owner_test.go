package owner_test

import (
	"context"
	"testing"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/owner"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	member *owner.CrewMember
	err    error
}

func (s *stubStore) GetCrewMember(ctx context.Context, id string) (*owner.CrewMember, error) {
	return s.member, s.err
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newValidator(member *owner.CrewMember) *owner.Validator {
	return owner.New(
		&stubStore{member: member},
		owner.LevenshteinMatcher{},
		logger.New("owner-test", "test"),
	)
}

func TestValidateExactName(t *testing.T) {
	v := newValidator(&owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar"})

	result, err := v.Validate(context.Background(), "crew-1", "RAMESH KUMAR", nil)
	require.NoError(t, err)

	assert.Equal(t, owner.StatusMatch, result.Status)
	assert.Equal(t, 100.0, result.Similarity)
}

func TestValidateSurnameFirstOrdering(t *testing.T) {
	v := newValidator(&owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar"})

	result, err := v.Validate(context.Background(), "crew-1", "KUMAR RAMESH", nil)
	require.NoError(t, err)

	assert.Equal(t, owner.StatusMatch, result.Status)
}

func TestValidateAbsentNameIsWarning(t *testing.T) {
	v := newValidator(&owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar"})

	for _, name := range []string{"", "NONE", "N/A"} {
		result, err := v.Validate(context.Background(), "crew-1", name, nil)
		require.NoError(t, err)
		assert.Equal(t, owner.StatusWarning, result.Status, "name %q", name)
		assert.NotEmpty(t, result.Message)
	}
}

func TestValidateMismatch(t *testing.T) {
	v := newValidator(&owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar"})

	result, err := v.Validate(context.Background(), "crew-1", "JOHN ANDERSON", nil)
	require.NoError(t, err)

	assert.Equal(t, owner.StatusMismatch, result.Status)
}

func TestValidateDOBRescuesBorderlineName(t *testing.T) {
	dob := date(1985, time.March, 4)
	member := &owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar", DateOfBirth: dob}

	// Two OCR-mangled characters: similar but under the match threshold
	extracted := "RANESH KUMHR"

	withoutDOB, err := newValidator(member).Validate(context.Background(), "crew-1", extracted, nil)
	require.NoError(t, err)
	assert.Equal(t, owner.StatusWarning, withoutDOB.Status)

	withDOB, err := newValidator(member).Validate(context.Background(), "crew-1", extracted, dob)
	require.NoError(t, err)
	assert.Equal(t, owner.StatusMatch, withDOB.Status, "DOB corroboration should rescue a borderline name")
	assert.Equal(t, "name+dob", withDOB.MatchedOn)
}

func TestValidateDOBNeverDowngrades(t *testing.T) {
	dob := date(1985, time.March, 4)
	wrongDOB := date(1990, time.July, 1)
	member := &owner.CrewMember{FirstName: "Ramesh", LastName: "Kumar", DateOfBirth: dob}

	result, err := newValidator(member).Validate(context.Background(), "crew-1", "RAMESH KUMAR", wrongDOB)
	require.NoError(t, err)

	assert.Equal(t, owner.StatusMatch, result.Status, "a conflicting DOB must not downgrade a clean name match")
}

func TestValidateStoreError(t *testing.T) {
	v := owner.New(
		&stubStore{err: assert.AnError},
		owner.LevenshteinMatcher{},
		logger.New("owner-test", "test"),
	)

	_, err := v.Validate(context.Background(), "crew-1", "RAMESH KUMAR", nil)
	assert.Error(t, err)
}
