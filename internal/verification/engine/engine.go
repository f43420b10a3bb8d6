// Package engine contains the OCR extraction engines and the
// orchestrator that fans a document out to all of them concurrently.
package engine

import (
	"bytes"
	"context"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
)

// JPEG and PNG magic bytes for image detection
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	pdfMagic  = []byte{0x25, 0x50, 0x44, 0x46}
)

// Engine is one OCR/vision extraction backend. Implementations call a
// remote vendor service and return its vendor-shaped result; they never
// retain the file bytes after the call.
type Engine interface {
	// Name returns the engine name for logging and merge provenance
	Name() string

	// Kind reports whether this is an AI vision engine or the
	// traditional OCR chain; the alignment analyzer weighs them differently
	Kind() domain.EngineKind

	// Extract runs one extraction pass over the document bytes
	Extract(ctx context.Context, fileData []byte, docType domain.DocumentType) (*domain.RawExtraction, error)
}

// isSupportedFile checks for JPEG, PNG or PDF magic bytes at the start
// of the data.
func isSupportedFile(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return bytes.HasPrefix(data, jpegMagic) ||
		bytes.HasPrefix(data, pngMagic) ||
		bytes.HasPrefix(data, pdfMagic)
}
