package leasing

import (
	"context"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LeaseService drives contract status changes and their effect on property status
type LeaseService struct {
	store        leasing.RecordStore
	provisioning *ProvisioningService
	properties   *PropertyService
	logger       *zap.Logger
}

// NewLeaseService creates a new LeaseService
func NewLeaseService(
	store leasing.RecordStore,
	provisioning *ProvisioningService,
	properties *PropertyService,
	logger *zap.Logger,
) *LeaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaseService{
		store:        store,
		provisioning: provisioning,
		properties:   properties,
		logger:       logger,
	}
}

// Get returns a contract by id
func (s *LeaseService) Get(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	return s.store.Contracts().FindByID(ctx, id)
}

// ListByTenant returns the contracts of one tenant
func (s *LeaseService) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]leasing.Contract, error) {
	return s.store.Contracts().FindByTenant(ctx, tenantID)
}

// Provision runs the provisioning saga and, for an Active lease, marks the
// property Occupied. The status update is a follow-up: its failure is logged
// and does not undo the provisioned rows.
func (s *LeaseService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	result, err := s.provisioning.ProvisionTenantWithLease(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Contract.IsActive() {
		s.occupy(ctx, result.Contract.PropertyID)
	}
	return result, nil
}

// Activate makes a contract Active. The store rejects a second Active contract
// for the property with leasing.ErrActiveContractConflict.
func (s *LeaseService) Activate(ctx context.Context, contractID uuid.UUID) (*leasing.Contract, error) {
	c, err := s.store.Contracts().FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.IsActive() {
		return c, nil
	}
	if err := s.store.Contracts().UpdateStatus(ctx, contractID, leasing.ContractStatusActive); err != nil {
		return nil, err
	}
	c.Status = leasing.ContractStatusActive
	s.occupy(ctx, c.PropertyID)
	return c, nil
}

// Deactivate moves a contract to Inactive or Archived. When it was the
// property's Active contract, an Occupied property becomes Empty again, which
// re-runs matching.
func (s *LeaseService) Deactivate(ctx context.Context, contractID uuid.UUID, status leasing.ContractStatus) (*leasing.Contract, error) {
	if status != leasing.ContractStatusInactive && status != leasing.ContractStatusArchived {
		return nil, shared.NewDomainError(leasing.CodeInvalidStatus, "Contract can only be deactivated to inactive or archived")
	}
	c, err := s.store.Contracts().FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	wasActive := c.IsActive()
	if err := s.store.Contracts().UpdateStatus(ctx, contractID, status); err != nil {
		return nil, err
	}
	c.Status = status

	if wasActive {
		s.vacate(ctx, c.PropertyID)
	}
	return c, nil
}

// UpdateDates reschedules a contract, keeping end_date > start_date
func (s *LeaseService) UpdateDates(ctx context.Context, contractID uuid.UUID, start, end time.Time) (*leasing.Contract, error) {
	c, err := s.store.Contracts().FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := c.Reschedule(start, end); err != nil {
		return nil, err
	}
	if err := s.store.Contracts().SetDates(ctx, contractID, c.StartDate, c.EndDate); err != nil {
		return nil, err
	}
	return s.store.Contracts().FindByID(ctx, contractID)
}

func (s *LeaseService) occupy(ctx context.Context, propertyID uuid.UUID) {
	if err := s.store.Properties().UpdateStatus(ctx, propertyID, leasing.PropertyStatusOccupied); err != nil {
		s.logger.Warn("could not mark property occupied",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
}

func (s *LeaseService) vacate(ctx context.Context, propertyID uuid.UUID) {
	p, err := s.store.Properties().FindByID(ctx, propertyID)
	if err != nil {
		s.logger.Warn("could not load property to vacate",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
		return
	}
	if p.Status != leasing.PropertyStatusOccupied {
		return
	}
	if _, err := s.properties.ChangeStatus(ctx, propertyID, leasing.PropertyStatusEmpty); err != nil {
		s.logger.Warn("could not mark property empty",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
}
