package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/seacrew/crewdocs-backend/internal/verification/repository"
	"github.com/seacrew/crewdocs-backend/pkg/database"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/seacrew/crewdocs-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCrewMember(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now().UTC()
	dob := time.Date(1985, 3, 4, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "first_name", "middle_name", "last_name", "nationality",
		"date_of_birth", "created_at", "updated_at",
	}).AddRow("crew-1", "Ramesh", nil, "Kumar", "Indian", dob, now, now)

	mockDB.Mock.ExpectQuery("SELECT id, first_name").
		WithArgs("crew-1").
		WillReturnRows(rows)

	repo := repository.NewCrewRepository(mockDB.DB)
	member, err := repo.GetCrewMember(context.Background(), "crew-1")

	require.NoError(t, err)
	assert.Equal(t, "Ramesh", member.FirstName)
	assert.Equal(t, "Kumar", member.LastName)
	assert.Nil(t, member.MiddleName)
	require.NotNil(t, member.DateOfBirth)
	assert.Equal(t, dob, *member.DateOfBirth)

	mockDB.ExpectationsWereMet(t)
}

func TestGetCrewMemberNotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery("SELECT id, first_name").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := repository.NewCrewRepository(mockDB.DB)
	_, err := repo.GetCrewMember(context.Background(), "missing")

	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestIsDocumentNumberUnique(t *testing.T) {
	tests := []struct {
		name       string
		otherCount int
		wantUnique bool
	}{
		{"no other holders", 0, true},
		{"attached to a different person", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()

			mockDB.Mock.ExpectQuery("SELECT COUNT").
				WithArgs("J2701560", "crew-1", "doc-1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.otherCount))

			repo := repository.NewCrewRepository(mockDB.DB)
			unique, err := repo.IsDocumentNumberUnique(context.Background(), "J2701560", "crew-1", "doc-1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnique, unique)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestCrewRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
	require.NoError(t, err)
	defer container.Terminate(ctx)

	sqlxDB, err := container.Connect(ctx)
	require.NoError(t, err)
	defer sqlxDB.Close()

	require.NoError(t, container.CreateCrewSchema(ctx, sqlxDB))

	db := database.NewFromDB(sqlxDB, logger.New("repository-test", "test"))
	repo := repository.NewCrewRepository(db)
	fixtures := testutil.NewFixtureFactory()

	member := fixtures.CrewMember()
	_, err = sqlxDB.ExecContext(ctx, `
		INSERT INTO crew_members (id, first_name, last_name, nationality, date_of_birth)
		VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.FirstName, member.LastName, member.Nationality, member.DateOfBirth)
	require.NoError(t, err)

	doc := fixtures.PassportDocument(member.ID)
	_, err = sqlxDB.ExecContext(ctx, `
		INSERT INTO crew_documents (id, crew_member_id, document_type, document_number,
			issuing_authority, issue_date, expiry_date, holder_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.CrewMemberID, doc.DocumentType, doc.DocumentNumber,
		doc.IssuingAuthority, doc.IssueDate, doc.ExpiryDate, doc.HolderName)
	require.NoError(t, err)

	t.Run("GetCrewMember", func(t *testing.T) {
		got, err := repo.GetCrewMember(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, member.FirstName, got.FirstName)
	})

	t.Run("GetDocument", func(t *testing.T) {
		got, err := repo.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DocumentNumber)
		assert.Equal(t, doc.DocumentNumber, *got.DocumentNumber)
	})

	t.Run("ListDocumentsByNumber", func(t *testing.T) {
		docs, err := repo.ListDocumentsByNumber(ctx, doc.DocumentNumber)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, member.ID, docs[0].CrewMemberID)
	})

	t.Run("IsDocumentNumberUnique", func(t *testing.T) {
		// Same person, same document excluded: unique
		unique, err := repo.IsDocumentNumberUnique(ctx, doc.DocumentNumber, member.ID, doc.ID)
		require.NoError(t, err)
		assert.True(t, unique)

		// Another crew member holding the same number is a conflict
		other := fixtures.CrewMember()
		_, err = sqlxDB.ExecContext(ctx, `
			INSERT INTO crew_members (id, first_name, last_name)
			VALUES ($1, $2, $3)`,
			other.ID, other.FirstName, other.LastName)
		require.NoError(t, err)

		dup := fixtures.PassportDocument(other.ID, func(d *testutil.DocumentFixture) {
			d.DocumentNumber = doc.DocumentNumber
		})
		_, err = sqlxDB.ExecContext(ctx, `
			INSERT INTO crew_documents (id, crew_member_id, document_type, document_number)
			VALUES ($1, $2, $3, $4)`,
			dup.ID, dup.CrewMemberID, dup.DocumentType, dup.DocumentNumber)
		require.NoError(t, err)

		unique, err = repo.IsDocumentNumberUnique(ctx, doc.DocumentNumber, member.ID, doc.ID)
		require.NoError(t, err)
		assert.False(t, unique)
	})
}
