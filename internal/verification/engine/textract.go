package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// TextractEngine is the traditional OCR chain: a cloud OCR service
// tried first, with a local OCR sidecar as fallback when the cloud
// call fails. The fallback is internal; callers see a single engine.
type TextractEngine struct {
	cloudURL   string
	localURL   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewTextractEngine creates the traditional OCR engine with its
// cloud-then-local fallback chain.
func NewTextractEngine(cloudURL, localURL string, timeout time.Duration, log *logger.Logger) *TextractEngine {
	return &TextractEngine{
		cloudURL: cloudURL,
		localURL: localURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (e *TextractEngine) Name() string { return "textract" }

func (e *TextractEngine) Kind() domain.EngineKind { return domain.EngineKindTraditional }

func (e *TextractEngine) Extract(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.RawExtraction, error) {
	if !isSupportedFile(fileData) {
		return nil, fmt.Errorf("textract: data is not a JPEG, PNG or PDF")
	}

	raw, cloudErr := postDocument(ctx, e.httpClient, e.cloudURL+"/api/v1/extract", fileData, docType)
	if cloudErr == nil {
		raw.Engine = e.Name()
		raw.Kind = domain.EngineKindTraditional
		return raw, nil
	}

	e.log.Warn().Err(cloudErr).Msg("cloud OCR failed, falling back to local OCR")

	raw, localErr := postDocument(ctx, e.httpClient, e.localURL+"/api/v1/extract", fileData, docType)
	if localErr != nil {
		return nil, fmt.Errorf("textract: cloud OCR failed (%v); local OCR failed: %w", cloudErr, localErr)
	}

	raw.Engine = e.Name()
	raw.Kind = domain.EngineKindTraditional
	return raw, nil
}
