package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
)

// VisionEngine extracts document fields by sending the scan to an AI
// vision inference service.
type VisionEngine struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewVisionEngine creates a vision engine client for the given service URL.
func NewVisionEngine(name, baseURL string, timeout time.Duration) *VisionEngine {
	return &VisionEngine{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout, // Vision inference can take over a minute on dense scans
		},
	}
}

func (e *VisionEngine) Name() string { return e.name }

func (e *VisionEngine) Kind() domain.EngineKind { return domain.EngineKindAI }

func (e *VisionEngine) Extract(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.RawExtraction, error) {
	if !isSupportedFile(fileData) {
		return nil, fmt.Errorf("%s: data is not a JPEG, PNG or PDF", e.name)
	}

	raw, err := postDocument(ctx, e.httpClient, e.baseURL+"/api/v1/extract", fileData, docType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	raw.Engine = e.name
	raw.Kind = domain.EngineKindAI
	return raw, nil
}

// vendorResponse mirrors the extraction service response contract. The
// vendors emit loosely-named fields; nothing is guaranteed present.
type vendorResponse struct {
	Fields     map[string]string `json:"fields"`
	RawText    string            `json:"raw_text"`
	Confidence float64           `json:"confidence"`
	Warnings   []string          `json:"warnings"`
}

// postDocument sends the document as a multipart form and decodes the
// vendor response. Shared by the vision engines and the textract chain.
func postDocument(ctx context.Context, client *http.Client, url string, fileData []byte, docType domain.DocumentType) (*domain.RawExtraction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "document.bin")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, fmt.Errorf("write file data: %w", err)
	}
	if err := writer.WriteField("document_type", string(docType)); err != nil {
		return nil, fmt.Errorf("write document_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var vendor vendorResponse
	if err := json.Unmarshal(respBody, &vendor); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	fields := vendor.Fields
	if fields == nil {
		fields = map[string]string{}
	}

	return &domain.RawExtraction{
		Fields:     fields,
		RawText:    vendor.RawText,
		Confidence: vendor.Confidence,
	}, nil
}
