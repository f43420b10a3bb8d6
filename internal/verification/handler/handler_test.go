package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seacrew/crewdocs-backend/internal/verification/classify"
	"github.com/seacrew/crewdocs-backend/internal/verification/compare"
	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/engine"
	"github.com/seacrew/crewdocs-backend/internal/verification/handler"
	"github.com/seacrew/crewdocs-backend/internal/verification/mapper"
	"github.com/seacrew/crewdocs-backend/internal/verification/merge"
	"github.com/seacrew/crewdocs-backend/internal/verification/owner"
	"github.com/seacrew/crewdocs-backend/internal/verification/repository"
	"github.com/seacrew/crewdocs-backend/internal/verification/service"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name   string
	fields map[string]string
}

func (f *fakeEngine) Name() string            { return f.name }
func (f *fakeEngine) Kind() domain.EngineKind { return domain.EngineKindAI }

func (f *fakeEngine) Extract(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.RawExtraction, error) {
	return &domain.RawExtraction{
		Engine:     f.name,
		Kind:       domain.EngineKindAI,
		Fields:     f.fields,
		Confidence: 0.9,
	}, nil
}

type fakeStore struct {
	member *repository.CrewMember
	doc    *repository.CrewDocument
	unique bool
}

func (f *fakeStore) GetCrewMember(ctx context.Context, id string) (*repository.CrewMember, error) {
	if f.member == nil {
		return nil, errors.NotFound("crew member")
	}
	return f.member, nil
}

func (f *fakeStore) GetDocument(ctx context.Context, id string) (*repository.CrewDocument, error) {
	if f.doc == nil {
		return nil, errors.NotFound("document")
	}
	return f.doc, nil
}

func (f *fakeStore) IsDocumentNumberUnique(ctx context.Context, documentNumber, crewMemberID, excludeDocumentID string) (bool, error) {
	return f.unique, nil
}

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func passportFields() map[string]string {
	return map[string]string{
		"passportNumber":       "J2701560",
		"passportPlaceOfIssue": "MUMBAI",
		"passportDateOfIssue":  "05/01/2021",
		"passportDateOfExpiry": "04/01/2031",
		"fullName":             "RAMESH KUMAR",
		"dateOfBirth":          "04/03/1985",
	}
}

func storeWithMatchingRecord() *fakeStore {
	return &fakeStore{
		member: &repository.CrewMember{
			ID:          "crew-1",
			FirstName:   "Ramesh",
			LastName:    "Kumar",
			DateOfBirth: datePtr(1985, time.March, 4),
		},
		doc: &repository.CrewDocument{
			ID:               "doc-1",
			CrewMemberID:     "crew-1",
			DocumentType:     "passport",
			DocumentNumber:   strPtr("J2701560"),
			IssuingAuthority: strPtr("MUMBAI"),
			IssueDate:        datePtr(2021, time.January, 5),
			ExpiryDate:       datePtr(2031, time.January, 4),
			HolderName:       strPtr("RAMESH KUMAR"),
		},
		unique: true,
	}
}

func newTestRouter(t *testing.T, store *fakeStore, engines ...engine.TimedEngine) chi.Router {
	t.Helper()
	log := logger.New("handler-test", "test")

	svc := service.New(
		engine.NewOrchestrator(log, engines...),
		mapper.New(log),
		merge.New(log),
		compare.New(log, 75, 40),
		classify.New(log),
		owner.New(service.CrewStoreAdapter{Repo: store}, owner.LevenshteinMatcher{}, log),
		nil,
		store,
		nil,
		log,
	)

	h := handler.NewHandler(svc, log)
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.Routes(r)
	})
	return r
}

func timed(e *fakeEngine) engine.TimedEngine {
	return engine.TimedEngine{Engine: e, Timeout: time.Second}
}

// decodeResult unwraps the standard {success, data} response envelope.
func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) *domain.DocumentVerificationResult {
	t.Helper()
	var resp struct {
		Success bool                               `json:"success"`
		Data    *domain.DocumentVerificationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	return resp.Data
}

// multipartBody builds a verify request body with an attached scan file.
func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if withFile {
		fw, err := w.CreateFormFile("file", "passport-scan.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestVerifyEndpointAcceptsMatchingDocument(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord(),
		timed(&fakeEngine{name: "vision-a", fields: passportFields()}),
		timed(&fakeEngine{name: "vision-b", fields: passportFields()}),
	)

	body, contentType := multipartBody(t, map[string]string{
		"document_type":  "passport",
		"crew_member_id": "crew-1",
		"document_id":    "doc-1",
	}, true)

	req := httptest.NewRequest("POST", "/api/v1/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeResult(t, rec)
	assert.True(t, result.IsValid)
	assert.GreaterOrEqual(t, result.MatchScore, 75.0)
	assert.NotEmpty(t, result.FieldComparisons)
}

func TestVerifyEndpointInlineExistingRecord(t *testing.T) {
	store := storeWithMatchingRecord()
	store.doc = nil // no stored record: the caller supplies claimed values inline

	r := newTestRouter(t, store,
		timed(&fakeEngine{name: "vision-a", fields: passportFields()}),
	)

	body, contentType := multipartBody(t, map[string]string{
		"document_type":              "passport",
		"crew_member_id":             "crew-1",
		"existing_document_number":   "J2701560",
		"existing_issuing_authority": "MUMBAI",
		"existing_holder_name":       "RAMESH KUMAR",
		"existing_issue_date":        "2021-01-05",
		"existing_expiry_date":       "2031-01-04",
	}, true)

	req := httptest.NewRequest("POST", "/api/v1/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeResult(t, rec)
	assert.True(t, result.IsValid)
}

func TestVerifyEndpointRequiresCrewMemberID(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord(),
		timed(&fakeEngine{name: "vision-a", fields: passportFields()}),
	)

	body, contentType := multipartBody(t, map[string]string{
		"document_type": "passport",
	}, true)

	req := httptest.NewRequest("POST", "/api/v1/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEndpointRejectsUnknownDocumentType(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord(),
		timed(&fakeEngine{name: "vision-a", fields: passportFields()}),
	)

	body, contentType := multipartBody(t, map[string]string{
		"document_type":  "driving_licence",
		"crew_member_id": "crew-1",
	}, true)

	req := httptest.NewRequest("POST", "/api/v1/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEndpointRequiresFile(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord(),
		timed(&fakeEngine{name: "vision-a", fields: passportFields()}),
	)

	body, contentType := multipartBody(t, map[string]string{
		"document_type":  "passport",
		"crew_member_id": "crew-1",
	}, false)

	req := httptest.NewRequest("POST", "/api/v1/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNumberUniqueEndpoint(t *testing.T) {
	store := storeWithMatchingRecord()
	r := newTestRouter(t, store)

	req := httptest.NewRequest("GET", "/api/v1/documents/number-unique?number=J2701560&crew_member_id=crew-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "J2701560", resp.Data["document_number"])
	assert.Equal(t, true, resp.Data["is_unique"])
}

func TestNumberUniqueEndpointRequiresNumber(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord())

	req := httptest.NewRequest("GET", "/api/v1/documents/number-unique", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord())

	payload := map[string]string{
		"text": `REPUBLIC OF INDIA PASSPORT
Surname: KUMAR Given Names: RAMESH
Nationality: INDIAN Place of Birth: MUMBAI
Place of Issue: MUMBAI Date of Expiry: 04/01/2031`,
		"filename": "scan001.jpg",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/documents/classify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Classification classify.Result `json:"classification"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.DocumentTypePassport, resp.Data.Classification.DocumentType)
	assert.Greater(t, resp.Data.Classification.Confidence, 50.0)
}

func TestClassifyEndpointRequiresText(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord())

	req := httptest.NewRequest("POST", "/api/v1/documents/classify", bytes.NewReader([]byte(`{"filename":"a.jpg"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyEndpointFlagsClaimedTypeMismatch(t *testing.T) {
	r := newTestRouter(t, storeWithMatchingRecord())

	payload := map[string]string{
		"text": `GOVERNMENT OF INDIA DIRECTORATE GENERAL OF SHIPPING
CERTIFICATE OF COMPETENCY
Issued under the provisions of the Merchant Shipping Act
STCW Regulation II/1 Capacity: Officer in charge of a navigational watch
Endorsement valid until 2030`,
		"filename": "coc.pdf",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/documents/classify?claimed_type=passport", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data["type_mismatch"])
}
