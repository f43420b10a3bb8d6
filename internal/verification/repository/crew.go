package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seacrew/crewdocs-backend/pkg/database"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
)

// CrewMember is the stored person a document is claimed for
type CrewMember struct {
	ID          string     `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	MiddleName  *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName    string     `db:"last_name" json:"last_name"`
	Nationality *string    `db:"nationality" json:"nationality,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CrewDocument is the stored record an uploaded scan is verified against
type CrewDocument struct {
	ID               string     `db:"id" json:"id"`
	CrewMemberID     string     `db:"crew_member_id" json:"crew_member_id"`
	DocumentType     string     `db:"document_type" json:"document_type"`
	DocumentNumber   *string    `db:"document_number" json:"document_number,omitempty"`
	IssuingAuthority *string    `db:"issuing_authority" json:"issuing_authority,omitempty"`
	IssueDate        *time.Time `db:"issue_date" json:"issue_date,omitempty"`
	ExpiryDate       *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	HolderName       *string    `db:"holder_name" json:"holder_name,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// CrewRepository reads crew and document records. The verification
// engine never writes: persistence of decisions belongs to the storage
// collaborator.
type CrewRepository struct {
	db *database.DB
}

func NewCrewRepository(db *database.DB) *CrewRepository {
	return &CrewRepository{db: db}
}

// GetCrewMember fetches one crew member by ID
func (r *CrewRepository) GetCrewMember(ctx context.Context, id string) (*CrewMember, error) {
	var member CrewMember
	query := `
		SELECT id, first_name, middle_name, last_name, nationality,
		       date_of_birth, created_at, updated_at
		FROM crew_members
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &member, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("crew member")
	}
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &member, nil
}

// GetDocument fetches one stored document by ID
func (r *CrewRepository) GetDocument(ctx context.Context, id string) (*CrewDocument, error) {
	var doc CrewDocument
	query := `
		SELECT id, crew_member_id, document_type, document_number,
		       issuing_authority, issue_date, expiry_date, holder_name,
		       created_at, updated_at
		FROM crew_documents
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document")
	}
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &doc, nil
}

// ListDocumentsByNumber returns every stored document carrying the given
// number, across all crew members.
func (r *CrewRepository) ListDocumentsByNumber(ctx context.Context, documentNumber string) ([]CrewDocument, error) {
	var docs []CrewDocument
	query := `
		SELECT id, crew_member_id, document_type, document_number,
		       issuing_authority, issue_date, expiry_date, holder_name,
		       created_at, updated_at
		FROM crew_documents
		WHERE document_number = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &docs, query, documentNumber); err != nil {
		return nil, database.MapPQError(err)
	}
	return docs, nil
}

// IsDocumentNumberUnique reports whether the number is attached to any
// other crew member. The document itself (excludeDocumentID) and other
// documents of the same person are not conflicts: the same passport may
// legitimately appear on a renewal record.
func (r *CrewRepository) IsDocumentNumberUnique(ctx context.Context, documentNumber, crewMemberID, excludeDocumentID string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM crew_documents
		WHERE document_number = $1
		  AND crew_member_id::text <> $2
		  AND id::text <> $3
	`
	if err := r.db.GetContext(ctx, &count, query, documentNumber, crewMemberID, excludeDocumentID); err != nil {
		return false, database.MapPQError(err)
	}
	return count == 0, nil
}
