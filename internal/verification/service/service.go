package service

import (
	"context"
	"fmt"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/classify"
	"github.com/seacrew/crewdocs-backend/internal/verification/compare"
	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/internal/verification/engine"
	"github.com/seacrew/crewdocs-backend/internal/verification/events"
	"github.com/seacrew/crewdocs-backend/internal/verification/forgery"
	"github.com/seacrew/crewdocs-backend/internal/verification/mapper"
	"github.com/seacrew/crewdocs-backend/internal/verification/merge"
	"github.com/seacrew/crewdocs-backend/internal/verification/owner"
	"github.com/seacrew/crewdocs-backend/internal/verification/repository"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// DocumentStore is the read-only storage collaborator
type DocumentStore interface {
	GetCrewMember(ctx context.Context, id string) (*repository.CrewMember, error)
	GetDocument(ctx context.Context, id string) (*repository.CrewDocument, error)
	IsDocumentNumberUnique(ctx context.Context, documentNumber, crewMemberID, excludeDocumentID string) (bool, error)
}

// VerifyRequest carries one verification call's inputs. Existing is the
// claimed record to compare against; when DocumentID is set the stored
// record is loaded instead.
type VerifyRequest struct {
	FileData     []byte
	Filename     string
	DocumentType domain.DocumentType
	CrewMemberID string
	DocumentID   string
	Existing     *domain.ExistingDocumentData
}

// Service runs the verification pipeline: orchestrate engines → map →
// disambiguate → merge → align → compare → validate owner → decide.
type Service struct {
	orchestrator *engine.Orchestrator
	mapper       *mapper.Mapper
	merger       *merge.Merger
	comparator   *compare.Comparator
	classifier   *classify.Classifier
	ownerCheck   *owner.Validator
	detector     forgery.Detector
	store        DocumentStore
	publisher    *events.Publisher
	log          *logger.Logger
}

func New(
	orchestrator *engine.Orchestrator,
	fieldMapper *mapper.Mapper,
	merger *merge.Merger,
	comparator *compare.Comparator,
	classifier *classify.Classifier,
	ownerCheck *owner.Validator,
	detector forgery.Detector,
	store DocumentStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		orchestrator: orchestrator,
		mapper:       fieldMapper,
		merger:       merger,
		comparator:   comparator,
		classifier:   classifier,
		ownerCheck:   ownerCheck,
		detector:     detector,
		store:        store,
		publisher:    publisher,
		log:          log.WithComponent("verification_service"),
	}
}

// Verify runs the full pipeline for one uploaded scan. Validation
// rejections come back as successful results with IsValid=false; only a
// total extraction failure returns an error.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*domain.DocumentVerificationResult, error) {
	existing, err := s.resolveExisting(ctx, req)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.orchestrator.ExtractAll(ctx, req.FileData, req.DocumentType)
	if err != nil {
		s.publisher.PublishExtractionFailed(ctx, req.CrewMemberID, req.DocumentID, req.DocumentType, err.Error())
		return nil, err
	}

	mapped := s.mapOutcomes(outcomes, req.DocumentType, existing.ExpiryDate)

	merged := mapped[0]
	for _, next := range mapped[1:] {
		merged = s.merger.Merge(merged, next)
	}

	var second *domain.ExtractedDocumentData
	if len(mapped) > 1 {
		second = mapped[1]
	}
	alignment := s.merger.Analyze(mapped[0], second)

	comparisons, matchScore := s.comparator.Compare(merged, existing)

	analysis := s.analyzeForgery(ctx, req)

	result := s.comparator.Evaluate(req.DocumentType, merged, comparisons, matchScore, analysis, alignment)

	s.applyOwnerCheck(ctx, req, merged, result)

	s.log.WithCrewMemberID(req.CrewMemberID).Info().
		Str("document_type", string(req.DocumentType)).
		Bool("is_valid", result.IsValid).
		Float64("match_score", result.MatchScore).
		Int("engines_succeeded", len(mapped)).
		Msg("verification completed")

	s.publisher.PublishResult(ctx, req.CrewMemberID, req.DocumentID, req.DocumentType, result)

	return result, nil
}

func (s *Service) resolveExisting(ctx context.Context, req *VerifyRequest) (*domain.ExistingDocumentData, error) {
	if req.DocumentID != "" {
		doc, err := s.store.GetDocument(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		return toExistingData(doc), nil
	}
	if req.Existing != nil {
		return req.Existing, nil
	}
	// Nothing claimed: compare against an empty record, which makes
	// every field one-sided and routes the decision through alignment
	// and the bypass rules.
	return &domain.ExistingDocumentData{DocumentType: req.DocumentType}, nil
}

func (s *Service) mapOutcomes(outcomes []engine.Outcome, docType domain.DocumentType, expectedExpiry *time.Time) []*domain.ExtractedDocumentData {
	var mapped []*domain.ExtractedDocumentData
	for _, raw := range engine.Successes(outcomes) {
		data := s.mapper.Map(raw, docType)
		s.mapper.DisambiguateExpiry(data, docType, expectedExpiry)
		mapped = append(mapped, data)
	}
	return mapped
}

// analyzeForgery is best-effort: the detector is an external
// collaborator and its outage must not block verification.
func (s *Service) analyzeForgery(ctx context.Context, req *VerifyRequest) *domain.ForgeryAnalysis {
	if s.detector == nil {
		return nil
	}
	analysis, err := s.detector.Analyze(ctx, req.FileData, req.DocumentType)
	if err != nil {
		s.log.Warn().Err(err).Msg("forgery analysis unavailable")
		return nil
	}
	return analysis
}

// applyOwnerCheck cross-checks the extracted holder identity against the
// claimed crew member and folds the verdict into the result. A mismatch
// rejects; a warning only annotates.
func (s *Service) applyOwnerCheck(ctx context.Context, req *VerifyRequest, merged *domain.ExtractedDocumentData, result *domain.DocumentVerificationResult) {
	if s.ownerCheck == nil || req.CrewMemberID == "" || req.DocumentType.BypassesStrictMatching() {
		return
	}

	verdict, err := s.ownerCheck.Validate(ctx, req.CrewMemberID, merged.HolderName, merged.Profile.DateOfBirth)
	if err != nil {
		s.log.Warn().Err(err).Msg("owner validation unavailable")
		return
	}

	switch verdict.Status {
	case owner.StatusMismatch:
		result.IsValid = false
		result.Warnings = append(result.Warnings, verdict.Message)
	case owner.StatusWarning:
		result.Warnings = append(result.Warnings, verdict.Message)
	}
}

// IsDocumentNumberUnique reports whether the number is already attached
// to a different crew member.
func (s *Service) IsDocumentNumberUnique(ctx context.Context, documentNumber, crewMemberID, excludeDocumentID string) (bool, error) {
	if documentNumber == "" {
		return false, errors.BadRequest("document number is required")
	}
	return s.store.IsDocumentNumberUnique(ctx, documentNumber, crewMemberID, excludeDocumentID)
}

// Classify scores raw text against the known document types
func (s *Service) Classify(ctx context.Context, text, filename string) *classify.Result {
	return s.classifier.Classify(text, filename)
}

// ValidateClaimedType checks an uploaded type label against the
// classifier verdict for the document's text.
func (s *Service) ValidateClaimedType(claimed string, detected domain.DocumentType) (bool, string) {
	return classify.ValidateTypeMatch(claimed, detected)
}

func toExistingData(doc *repository.CrewDocument) *domain.ExistingDocumentData {
	existing := &domain.ExistingDocumentData{
		DocumentID:   doc.ID,
		DocumentType: domain.DocumentType(doc.DocumentType),
	}
	if doc.DocumentNumber != nil {
		existing.DocumentNumber = *doc.DocumentNumber
	}
	if doc.IssuingAuthority != nil {
		existing.IssuingAuthority = *doc.IssuingAuthority
	}
	existing.IssueDate = doc.IssueDate
	existing.ExpiryDate = doc.ExpiryDate
	if doc.HolderName != nil {
		existing.HolderName = *doc.HolderName
	}
	return existing
}

// CrewStoreAdapter bridges the repository to the owner validator's
// narrower collaborator contract.
type CrewStoreAdapter struct {
	Repo DocumentStore
}

func (a CrewStoreAdapter) GetCrewMember(ctx context.Context, id string) (*owner.CrewMember, error) {
	member, err := a.Repo.GetCrewMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("crew store: %w", err)
	}
	converted := &owner.CrewMember{
		ID:          member.ID,
		FirstName:   member.FirstName,
		LastName:    member.LastName,
		DateOfBirth: member.DateOfBirth,
	}
	if member.MiddleName != nil {
		converted.MiddleName = *member.MiddleName
	}
	return converted, nil
}
