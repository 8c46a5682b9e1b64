package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyService owns the property status path. Whenever a save leaves a
// property available, the matching engine runs against open inquiries.
type PropertyService struct {
	store  leasing.RecordStore
	engine *MatchingEngine
	logger *zap.Logger
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(store leasing.RecordStore, engine *MatchingEngine, logger *zap.Logger) *PropertyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{store: store, engine: engine, logger: logger}
}

// PropertySaveResult is the saved property and the matching run it triggered, if any
type PropertySaveResult struct {
	Property *leasing.Property
	Matches  *MatchResult
}

// Get returns a property by id
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*leasing.Property, error) {
	return s.store.Properties().FindByID(ctx, id)
}

// Create saves a new property
func (s *PropertyService) Create(ctx context.Context, draft leasing.PropertyDraft) (*PropertySaveResult, error) {
	p, err := leasing.NewProperty(draft)
	if err != nil {
		return nil, err
	}
	if err := s.store.Properties().Save(ctx, p); err != nil {
		return nil, err
	}
	return &PropertySaveResult{Property: p, Matches: s.rematch(ctx, p)}, nil
}

// Update replaces the editable fields of a property. Editing an available
// property re-runs matching; existing matches are never duplicated.
func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, draft leasing.PropertyDraft) (*PropertySaveResult, error) {
	p, err := s.store.Properties().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Status == "" {
		draft.Status = p.Status
	}
	if err := p.Edit(draft); err != nil {
		return nil, err
	}
	if err := s.store.Properties().Save(ctx, p); err != nil {
		return nil, err
	}
	return &PropertySaveResult{Property: p, Matches: s.rematch(ctx, p)}, nil
}

// ChangeStatus persists a new status. Moving to Empty triggers matching.
func (s *PropertyService) ChangeStatus(ctx context.Context, id uuid.UUID, status leasing.PropertyStatus) (*PropertySaveResult, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainError(leasing.CodeInvalidStatus, "Unknown property status")
	}
	p, err := s.store.Properties().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Properties().UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	previous := p.Status
	p.Status = status
	p.Touch()

	s.logger.Info("property status changed",
		zap.String("property_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	return &PropertySaveResult{Property: p, Matches: s.rematch(ctx, p)}, nil
}

// Rematch runs matching for an existing property on demand
func (s *PropertyService) Rematch(ctx context.Context, id uuid.UUID) (*MatchResult, error) {
	p, err := s.store.Properties().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.MatchPropertyAgainstInquiries(ctx, p)
}

// rematch is fire-and-observe: failures are logged, never returned to the saver
func (s *PropertyService) rematch(ctx context.Context, p *leasing.Property) *MatchResult {
	if s.engine == nil || !p.IsAvailable() {
		return nil
	}
	result, err := s.engine.MatchPropertyAgainstInquiries(ctx, p)
	if err != nil {
		s.logger.Warn("matching after property save failed",
			zap.String("property_id", p.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return result
}
