package leasing

import (
	"context"
	"fmt"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/estate/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProvisioningConfig holds tunables for the provisioning saga
type ProvisioningConfig struct {
	// DefaultReminderLeadDays applies when a lease draft leaves the lead time unset
	DefaultReminderLeadDays int
	// CompensationTimeout bounds the blob removal and rollback calls
	CompensationTimeout time.Duration
}

// DefaultProvisioningConfig returns the default configuration
func DefaultProvisioningConfig() ProvisioningConfig {
	return ProvisioningConfig{
		DefaultReminderLeadDays: leasing.DefaultReminderLeadDays,
		CompensationTimeout:     10 * time.Second,
	}
}

// ErrDocumentStoreMissing is returned before any write when a document is supplied without a store
var ErrDocumentStoreMissing = shared.NewDomainError(shared.CodeInvalidInput, "Document storage is not configured")

// ProvisionRequest is the input of ProvisionTenantWithLease
type ProvisionRequest struct {
	Tenant       leasing.TenantDraft
	Lease        leasing.LeaseDraft
	Document     []byte
	DocumentName string
}

// ProvisionResult is the committed tenant and contract
type ProvisionResult struct {
	Tenant      *leasing.Tenant
	Contract    *leasing.Contract
	DocumentURL string
}

// ProvisioningService creates a tenant and its lease, optionally attaching a
// document, as a saga: the tenant and contract are committed together by the
// store, and a failed document step is compensated by deleting both again.
type ProvisioningService struct {
	store   leasing.RecordStore
	docs    DocumentStore
	config  ProvisioningConfig
	logger  *zap.Logger
	metrics *telemetry.LeasingMetrics
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(
	store leasing.RecordStore,
	docs DocumentStore,
	config ProvisioningConfig,
	logger *zap.Logger,
) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CompensationTimeout <= 0 {
		config.CompensationTimeout = DefaultProvisioningConfig().CompensationTimeout
	}
	return &ProvisioningService{
		store:  store,
		docs:   docs,
		config: config,
		logger: logger,
	}
}

// SetMetrics sets the leasing metrics recorder
func (s *ProvisioningService) SetMetrics(m *telemetry.LeasingMetrics) {
	s.metrics = m
}

// ProvisionTenantWithLease validates the drafts, then runs the saga.
// Validation errors are returned as-is before any write. Every later failure
// is a *ProvisionError whose Outcome tells what was left behind.
func (s *ProvisioningService) ProvisionTenantWithLease(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "provisioning", "provision_tenant_with_lease",
		telemetry.WithAttribute(telemetry.SpanAttrHasDoc, len(req.Document) > 0),
	)
	defer span.End()
	started := time.Now()

	result, err := s.provision(ctx, req)

	outcome := "success"
	if err != nil {
		telemetry.RecordError(span, err)
		outcome = "invalid"
		if pe, ok := AsProvisionError(err); ok {
			outcome = string(pe.Outcome)
		}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, outcome)
	s.metrics.RecordProvision(ctx, outcome, time.Since(started))
	return result, err
}

func (s *ProvisioningService) provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if err := req.Tenant.Validate(); err != nil {
		return nil, err
	}
	if err := req.Lease.Validate(); err != nil {
		return nil, err
	}
	if len(req.Document) > 0 && s.docs == nil {
		return nil, ErrDocumentStoreMissing
	}

	tenant, err := leasing.NewTenant(req.Tenant)
	if err != nil {
		return nil, err
	}
	contract, err := leasing.NewContract(tenant.ID, req.Lease, s.config.DefaultReminderLeadDays)
	if err != nil {
		return nil, err
	}

	// Step 1: tenant and contract as one unit
	if err := s.store.CreateTenantAndContract(ctx, tenant, contract); err != nil {
		s.logger.Warn("provisioning: create tenant and contract failed",
			zap.String("property_id", contract.PropertyID.String()),
			zap.Error(err),
		)
		return nil, &ProvisionError{Outcome: OutcomeNothingCommitted, Step: StepCreate, Cause: err}
	}

	s.logger.Info("provisioning: tenant and contract committed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("contract_id", contract.ID.String()),
		zap.String("property_id", contract.PropertyID.String()),
	)

	// Step 2: optional document
	var documentURL string
	if len(req.Document) > 0 {
		path, err := s.attachDocument(ctx, tenant, contract, req)
		if err != nil {
			return nil, err
		}
		documentURL = s.docs.PublicURL(path)
	}

	// Step 3: return the stored rows
	return &ProvisionResult{
		Tenant:      s.reloadTenant(ctx, tenant),
		Contract:    s.reloadContract(ctx, contract),
		DocumentURL: documentURL,
	}, nil
}

// attachDocument uploads the document and persists its path on the contract,
// compensating on failure. It only runs after step 1 has committed.
func (s *ProvisioningService) attachDocument(
	ctx context.Context,
	tenant *leasing.Tenant,
	contract *leasing.Contract,
	req ProvisionRequest,
) (string, error) {
	name := req.DocumentName
	if name == "" {
		name = fmt.Sprintf("lease-%s.pdf", contract.ID)
	}

	path, err := s.docs.Put(ctx, req.Document, name)
	if err != nil {
		return "", s.compensate(ctx, tenant, contract, StepUpload, "", err)
	}
	if err := s.store.Contracts().SetDocumentPath(ctx, contract.ID, path); err != nil {
		return "", s.compensate(ctx, tenant, contract, StepAttach, path, err)
	}

	contract.DocumentPath = &path
	s.logger.Debug("provisioning: document attached",
		zap.String("contract_id", contract.ID.String()),
		zap.String("path", path),
	)
	return path, nil
}

// compensate undoes step 1 after a document failure. The rollback is attempted
// once; its failure is reported, never retried.
func (s *ProvisioningService) compensate(
	ctx context.Context,
	tenant *leasing.Tenant,
	contract *leasing.Contract,
	step string,
	uploadedPath string,
	cause error,
) error {
	log := s.logger.With(
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("contract_id", contract.ID.String()),
		zap.String("step", step),
	)
	log.Error("provisioning: document step failed, starting compensation", zap.Error(cause))
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "compensation.started", "step", step)

	// The caller's context may be the reason the step failed.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CompensationTimeout)
	defer cancel()

	if uploadedPath != "" {
		if err := s.docs.Remove(cctx, uploadedPath); err != nil {
			log.Warn("compensation: could not remove uploaded document",
				zap.String("path", uploadedPath),
				zap.Error(err),
			)
		}
	}

	pe := &ProvisionError{
		Outcome:    OutcomeRolledBack,
		Step:       step,
		TenantID:   tenant.ID,
		ContractID: contract.ID,
		Cause:      cause,
	}
	if err := s.store.RollbackTenantAndContract(cctx, tenant.ID, contract.ID); err != nil {
		pe.Outcome = OutcomeRollbackFailed
		pe.RollbackErr = err
		log.Error("compensation failed - manual cleanup required", zap.Error(err))
		return pe
	}

	log.Info("compensation completed - tenant and contract removed")
	return pe
}

// reloadTenant returns the stored tenant, falling back to the committed value when the read fails
func (s *ProvisioningService) reloadTenant(ctx context.Context, tenant *leasing.Tenant) *leasing.Tenant {
	stored, err := s.store.Tenants().FindByID(ctx, tenant.ID)
	if err != nil {
		s.logger.Warn("provisioning: reload tenant failed, returning committed values",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err),
		)
		return tenant
	}
	return stored
}

func (s *ProvisioningService) reloadContract(ctx context.Context, contract *leasing.Contract) *leasing.Contract {
	stored, err := s.store.Contracts().FindByID(ctx, contract.ID)
	if err != nil {
		s.logger.Warn("provisioning: reload contract failed, returning committed values",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
		return contract
	}
	return stored
}
