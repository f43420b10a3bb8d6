package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/service"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
	"github.com/seacrew/crewdocs-backend/pkg/httputil"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler serves the document verification HTTP API
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Routes mounts the verification endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/documents/verify", h.Verify)
	r.Get("/documents/number-unique", h.NumberUnique)
	r.Post("/documents/classify", h.Classify)
}

// Verify handles POST /documents/verify.
// Accepts a multipart form with:
//   - file: the scanned document
//   - document_type: passport, cdc, coc, medical, generic, photo,
//     next_of_kin, contract, letter
//   - crew_member_id: the claimed owner
//   - document_id: optional stored record to compare against
//   - existing_*: optional inline claimed values when no document_id
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}

	docType := domain.DocumentType(r.FormValue("document_type"))
	if !isKnownType(docType) {
		httputil.Error(w, errors.BadRequest("unknown document_type"))
		return
	}

	crewMemberID := r.FormValue("crew_member_id")
	if crewMemberID == "" {
		httputil.Error(w, errors.BadRequest("crew_member_id is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to read uploaded file"))
		return
	}

	req := &service.VerifyRequest{
		FileData:     fileData,
		Filename:     header.Filename,
		DocumentType: docType,
		CrewMemberID: crewMemberID,
		DocumentID:   r.FormValue("document_id"),
		Existing:     inlineExisting(r, docType),
	}

	result, err := h.service.Verify(r.Context(), req)
	if err != nil {
		h.log.WithRequestID(httputil.GetRequestID(r.Context())).
			Error().Err(err).
			Str("crew_member_id", crewMemberID).
			Msg("verification failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// inlineExisting reads the optional existing_* form fields used when the
// caller holds the claimed record instead of a stored document ID.
func inlineExisting(r *http.Request, docType domain.DocumentType) *domain.ExistingDocumentData {
	number := r.FormValue("existing_document_number")
	authority := r.FormValue("existing_issuing_authority")
	holder := r.FormValue("existing_holder_name")
	issue := parseFormDate(r.FormValue("existing_issue_date"))
	expiry := parseFormDate(r.FormValue("existing_expiry_date"))

	if number == "" && authority == "" && holder == "" && issue == nil && expiry == nil {
		return nil
	}
	return &domain.ExistingDocumentData{
		DocumentType:     docType,
		DocumentNumber:   number,
		IssuingAuthority: authority,
		HolderName:       holder,
		IssueDate:        issue,
		ExpiryDate:       expiry,
	}
}

func parseFormDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil
	}
	return &t
}

func isKnownType(docType domain.DocumentType) bool {
	for _, known := range domain.KnownDocumentTypes() {
		if docType == known {
			return true
		}
	}
	return false
}

// NumberUnique handles GET /documents/number-unique.
// Query params: number (required), crew_member_id, exclude_document_id.
func (h *Handler) NumberUnique(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	crewMemberID := r.URL.Query().Get("crew_member_id")
	excludeDocumentID := r.URL.Query().Get("exclude_document_id")

	unique, err := h.service.IsDocumentNumberUnique(r.Context(), number, crewMemberID, excludeDocumentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"document_number": number,
		"is_unique":       unique,
	})
}

// classifyRequest is the POST /documents/classify body
type classifyRequest struct {
	Text     string `json:"text" validate:"required"`
	Filename string `json:"filename"`
}

// Classify handles POST /documents/classify
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result := h.service.Classify(r.Context(), req.Text, req.Filename)

	claimed := r.URL.Query().Get("claimed_type")
	if claimed != "" {
		if ok, warning := h.service.ValidateClaimedType(claimed, result.DocumentType); !ok {
			httputil.JSON(w, http.StatusOK, map[string]interface{}{
				"classification": result,
				"type_mismatch":  warning,
			})
			return
		}
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"classification": result,
	})
}
