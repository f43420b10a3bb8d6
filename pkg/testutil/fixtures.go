package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CrewMemberFixture represents test crew member data
type CrewMemberFixture struct {
	ID          string
	FirstName   string
	MiddleName  string
	LastName    string
	Nationality string
	DateOfBirth time.Time
	CreatedAt   time.Time
}

// DocumentFixture represents test crew document data
type DocumentFixture struct {
	ID               string
	CrewMemberID     string
	DocumentType     string
	DocumentNumber   string
	IssuingAuthority string
	IssueDate        time.Time
	ExpiryDate       time.Time
	HolderName       string
	CreatedAt        time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) next() int {
	f.sequence++
	return f.sequence
}

// CrewMember creates a crew member fixture with sequential defaults
func (f *FixtureFactory) CrewMember(overrides ...func(*CrewMemberFixture)) *CrewMemberFixture {
	n := f.next()
	fixture := &CrewMemberFixture{
		ID:          uuid.New().String(),
		FirstName:   fmt.Sprintf("Ramesh%d", n),
		LastName:    fmt.Sprintf("Kumar%d", n),
		Nationality: "Indian",
		DateOfBirth: time.Date(1985, 3, 4, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(fixture)
	}

	return fixture
}

// PassportDocument creates a passport document fixture for the given crew member
func (f *FixtureFactory) PassportDocument(crewMemberID string, overrides ...func(*DocumentFixture)) *DocumentFixture {
	n := f.next()
	fixture := &DocumentFixture{
		ID:               uuid.New().String(),
		CrewMemberID:     crewMemberID,
		DocumentType:     "passport",
		DocumentNumber:   fmt.Sprintf("J%07d", 2701560+n),
		IssuingAuthority: "MUMBAI",
		IssueDate:        time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:       time.Date(2030, 12, 1, 0, 0, 0, 0, time.UTC),
		HolderName:       "RAMESH KUMAR",
		CreatedAt:        time.Now().UTC(),
	}

	for _, override := range overrides {
		override(fixture)
	}

	return fixture
}
