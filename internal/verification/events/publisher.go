package events

import (
	"context"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/seacrew/crewdocs-backend/pkg/messaging"
)

// Publisher narrows the messaging publisher to the verification
// service's events. Publishing is best-effort: a broker outage never
// fails a verification call.
type Publisher struct {
	publisher *messaging.Publisher
	log       *logger.Logger
}

func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeDocumentEvents, "verification-service", log)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		publisher: publisher,
		log:       log.WithComponent("event_publisher"),
	}, nil
}

// PublishResult emits the event matching the verification outcome:
// verified, rejected, or review-required when low-confidence fields need
// a human decision despite acceptance.
func (p *Publisher) PublishResult(ctx context.Context, crewMemberID, documentID string, docType domain.DocumentType, result *domain.DocumentVerificationResult) {
	if p == nil || p.publisher == nil {
		return
	}

	switch {
	case !result.IsValid:
		p.publish(ctx, messaging.EventDocumentRejected, messaging.DocumentRejectedEvent{
			CrewMemberID:          crewMemberID,
			DocumentID:            documentID,
			DocumentType:          string(docType),
			MatchScore:            result.MatchScore,
			Warnings:              result.Warnings,
			AllowManualCorrection: result.AllowManualCorrection,
		})
	case result.FieldAlignment != nil && len(result.FieldAlignment.LowConfidenceFields) > 0:
		p.publish(ctx, messaging.EventDocumentReviewRequired, messaging.DocumentReviewRequiredEvent{
			CrewMemberID:        crewMemberID,
			DocumentID:          documentID,
			DocumentType:        string(docType),
			LowConfidenceFields: result.FieldAlignment.LowConfidenceFields,
			Suggestions:         result.FieldAlignment.Suggestions,
		})
	default:
		documentNumber := ""
		if result.ExtractedData != nil {
			documentNumber = result.ExtractedData.DocumentNumber
		}
		p.publish(ctx, messaging.EventDocumentVerified, messaging.DocumentVerifiedEvent{
			CrewMemberID:   crewMemberID,
			DocumentID:     documentID,
			DocumentType:   string(docType),
			DocumentNumber: documentNumber,
			MatchScore:     result.MatchScore,
		})
	}
}

// PublishExtractionFailed emits the terminal all-engines-failed event
func (p *Publisher) PublishExtractionFailed(ctx context.Context, crewMemberID, documentID string, docType domain.DocumentType, reason string) {
	if p == nil || p.publisher == nil {
		return
	}
	p.publish(ctx, messaging.EventExtractionFailed, map[string]string{
		"crew_member_id": crewMemberID,
		"document_id":    documentID,
		"document_type":  string(docType),
		"reason":         reason,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.log.Warn().Err(err).
			Str("event_type", eventType).
			Msg("failed to publish event")
	}
}
