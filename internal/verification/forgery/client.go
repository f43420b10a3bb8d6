package forgery

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
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// Detector is the external forgery-analysis collaborator. Its result is
// attached to the verification outcome opaquely; only a "high" risk
// level influences acceptance.
type Detector interface {
	Analyze(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.ForgeryAnalysis, error)
}

// HTTPDetector calls the forgery detection service over HTTP
type HTTPDetector struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewHTTPDetector(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPDetector {
	return &HTTPDetector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.WithComponent("forgery_detector"),
	}
}

func (d *HTTPDetector) Analyze(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.ForgeryAnalysis, error) {
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/v1/analyze", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forgery analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forgery service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var analysis domain.ForgeryAnalysis
	if err := json.Unmarshal(respBody, &analysis); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	d.log.Debug().
		Float64("risk_score", analysis.RiskScore).
		Str("risk_level", analysis.RiskLevel).
		Msg("forgery analysis completed")

	return &analysis, nil
}
