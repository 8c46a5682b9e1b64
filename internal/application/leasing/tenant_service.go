package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService guards tenant removal
type TenantService struct {
	store  leasing.RecordStore
	logger *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(store leasing.RecordStore, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{store: store, logger: logger}
}

// Get returns a tenant by id
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*leasing.Tenant, error) {
	return s.store.Tenants().FindByID(ctx, id)
}

// Delete removes a tenant and its non-active contracts. A tenant holding an
// Active contract is refused with leasing.ErrTenantHasActiveContract.
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Tenants().DeleteIfNoActiveContract(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tenant deleted", zap.String("tenant_id", id.String()))
	return nil
}
