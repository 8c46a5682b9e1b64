package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatchService handles agent follow-up on recorded matches
type MatchService struct {
	store  leasing.RecordStore
	logger *zap.Logger
}

// NewMatchService creates a new MatchService
func NewMatchService(store leasing.RecordStore, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{store: store, logger: logger}
}

// ListByInquiry returns the matches recorded for an inquiry
func (s *MatchService) ListByInquiry(ctx context.Context, inquiryID uuid.UUID) ([]leasing.Match, error) {
	return s.store.Matches().FindByInquiry(ctx, inquiryID)
}

// ListByProperty returns the matches recorded for a property
func (s *MatchService) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]leasing.Match, error) {
	return s.store.Matches().FindByProperty(ctx, propertyID)
}

// MarkContacted flags the match as contacted and moves its inquiry to
// contacted when the inquiry lifecycle allows it.
func (s *MatchService) MarkContacted(ctx context.Context, matchID uuid.UUID) (*leasing.Match, error) {
	m, err := s.store.Matches().FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Matches().MarkContacted(ctx, matchID); err != nil {
		return nil, err
	}
	m.Contacted = true

	// a closed inquiry stays closed; the conditional write skips it
	to := leasing.InquiryStatusContacted
	if _, err := s.store.Inquiries().TransitionStatus(ctx, m.InquiryID, leasing.TransitionSources(to), to); err != nil {
		s.logger.Warn("could not mark inquiry contacted",
			zap.String("inquiry_id", m.InquiryID.String()),
			zap.Error(err),
		)
	}
	return m, nil
}
