package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Document verification events
	EventDocumentVerified       = "document.verified"
	EventDocumentRejected       = "document.rejected"
	EventDocumentReviewRequired = "document.review_required"

	// Extraction events
	EventExtractionFailed = "document.extraction.failed"
)

// Exchange names
const (
	ExchangeDocumentEvents = "document.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// GenerateEventID returns a new unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}

// DocumentVerifiedEvent is published when a document passes verification
type DocumentVerifiedEvent struct {
	CrewMemberID   string  `json:"crew_member_id"`
	DocumentID     string  `json:"document_id,omitempty"`
	DocumentType   string  `json:"document_type"`
	DocumentNumber string  `json:"document_number,omitempty"`
	MatchScore     float64 `json:"match_score"`
}

// DocumentRejectedEvent is published when a document fails verification
type DocumentRejectedEvent struct {
	CrewMemberID          string   `json:"crew_member_id"`
	DocumentID            string   `json:"document_id,omitempty"`
	DocumentType          string   `json:"document_type"`
	MatchScore            float64  `json:"match_score"`
	Warnings              []string `json:"warnings"`
	AllowManualCorrection bool     `json:"allow_manual_correction"`
}

// DocumentReviewRequiredEvent is published when verification needs a human decision
type DocumentReviewRequiredEvent struct {
	CrewMemberID        string   `json:"crew_member_id"`
	DocumentID          string   `json:"document_id,omitempty"`
	DocumentType        string   `json:"document_type"`
	LowConfidenceFields []string `json:"low_confidence_fields,omitempty"`
	Suggestions         []string `json:"suggestions,omitempty"`
}
