package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InquiryService files inquiries and moves them through their lifecycle
type InquiryService struct {
	store  leasing.RecordStore
	engine *MatchingEngine
	logger *zap.Logger
}

// NewInquiryService creates a new InquiryService
func NewInquiryService(store leasing.RecordStore, engine *MatchingEngine, logger *zap.Logger) *InquiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{store: store, engine: engine, logger: logger}
}

// InquiryFileResult is the filed inquiry and the matching run it triggered
type InquiryFileResult struct {
	Inquiry *leasing.Inquiry
	Matches *MatchResult
}

// Get returns an inquiry by id
func (s *InquiryService) Get(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	return s.store.Inquiries().FindByID(ctx, id)
}

// File saves a new active inquiry and matches it against available properties.
// Matching failures are logged; the inquiry stays filed.
func (s *InquiryService) File(ctx context.Context, draft leasing.InquiryDraft) (*InquiryFileResult, error) {
	inq, err := leasing.NewInquiry(draft)
	if err != nil {
		return nil, err
	}
	if err := s.store.Inquiries().Save(ctx, inq); err != nil {
		return nil, err
	}

	result := &InquiryFileResult{Inquiry: inq}
	if s.engine == nil {
		return result, nil
	}
	matches, err := s.engine.MatchInquiryAgainstProperties(ctx, inq)
	if err != nil {
		s.logger.Warn("matching after inquiry filing failed",
			zap.String("inquiry_id", inq.ID.String()),
			zap.Error(err),
		)
		return result, nil
	}
	result.Matches = matches
	return result, nil
}

// MarkContacted records that an agent acted on the inquiry
func (s *InquiryService) MarkContacted(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	return s.transition(ctx, id, leasing.InquiryStatusContacted)
}

// Close closes the inquiry; closed is terminal
func (s *InquiryService) Close(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	return s.transition(ctx, id, leasing.InquiryStatusClosed)
}

func (s *InquiryService) transition(ctx context.Context, id uuid.UUID, next leasing.InquiryStatus) (*leasing.Inquiry, error) {
	inq, err := s.store.Inquiries().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inq.TransitionTo(next); err != nil {
		return nil, err
	}
	applied, err := s.store.Inquiries().TransitionStatus(ctx, id, leasing.TransitionSources(next), next)
	if err != nil {
		return nil, err
	}
	if !applied {
		// another writer moved the inquiry after it was read
		current, err := s.store.Inquiries().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := current.TransitionTo(next); err != nil {
			return nil, err
		}
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Inquiry status changed concurrently, retry")
	}
	return inq, nil
}
