package leasing

import (
	"context"
	"testing"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type servicesFixture struct {
	store      *faultyStore
	engine     *MatchingEngine
	properties *PropertyService
	leases     *LeaseService
	tenants    *TenantService
	inquiries  *InquiryService
	matches    *MatchService
}

func newServicesFixture(t *testing.T) *servicesFixture {
	logger := zaptest.NewLogger(t)
	store := newFaultyStore()
	engine := newEngine(t, store)
	properties := NewPropertyService(store, engine, logger)
	provisioning := NewProvisioningService(store, nil, DefaultProvisioningConfig(), logger)
	return &servicesFixture{
		store:      store,
		engine:     engine,
		properties: properties,
		leases:     NewLeaseService(store, provisioning, properties, logger),
		tenants:    NewTenantService(store, logger),
		inquiries:  NewInquiryService(store, engine, logger),
		matches:    NewMatchService(store, logger),
	}
}

func (f *servicesFixture) propertyStatus(t *testing.T, id uuid.UUID) leasing.PropertyStatus {
	t.Helper()
	p, err := f.properties.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func TestLeaseService_ProvisionOccupiesProperty(t *testing.T) {
	f := newServicesFixture(t)
	property := seedProperty(t, f.store, nil)

	result, err := f.leases.Provision(context.Background(), leaseRequest(property.ID))
	require.NoError(t, err)
	assert.Equal(t, leasing.PropertyStatusOccupied, f.propertyStatus(t, property.ID))

	contracts, err := f.leases.ListByTenant(context.Background(), result.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, contracts, 1)
}

func TestLeaseService_InactiveProvisionLeavesPropertyEmpty(t *testing.T) {
	f := newServicesFixture(t)
	property := seedProperty(t, f.store, nil)
	req := leaseRequest(property.ID)
	req.Lease.Status = leasing.ContractStatusInactive

	_, err := f.leases.Provision(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, leasing.PropertyStatusEmpty, f.propertyStatus(t, property.ID))
}

func TestLeaseService_ActivateConflict(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, nil)

	_, err := f.leases.Provision(ctx, leaseRequest(property.ID))
	require.NoError(t, err)

	req := leaseRequest(property.ID)
	req.Lease.Status = leasing.ContractStatusInactive
	second, err := f.leases.Provision(ctx, req)
	require.NoError(t, err)

	_, err = f.leases.Activate(ctx, second.Contract.ID)
	assert.ErrorIs(t, err, leasing.ErrActiveContractConflict)

	stored, err := f.leases.Get(ctx, second.Contract.ID)
	require.NoError(t, err)
	assert.Equal(t, leasing.ContractStatusInactive, stored.Status)
}

func TestLeaseService_ActivateAlreadyActiveIsNoop(t *testing.T) {
	f := newServicesFixture(t)
	property := seedProperty(t, f.store, nil)
	result, err := f.leases.Provision(context.Background(), leaseRequest(property.ID))
	require.NoError(t, err)

	c, err := f.leases.Activate(context.Background(), result.Contract.ID)
	require.NoError(t, err)
	assert.Equal(t, leasing.ContractStatusActive, c.Status)
}

func TestLeaseService_DeactivateVacatesAndRematches(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, nil)
	result, err := f.leases.Provision(ctx, leaseRequest(property.ID))
	require.NoError(t, err)

	// Filed while the property is occupied: nothing to match yet.
	filed, err := f.inquiries.File(ctx, leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Type:          leasing.ListingRental,
		PreferredCity: strPtr("istanbul"),
		MaxRentBudget: decPtr(20000),
	})
	require.NoError(t, err)
	assert.Empty(t, filed.Matches.Created)

	c, err := f.leases.Deactivate(ctx, result.Contract.ID, leasing.ContractStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, leasing.ContractStatusArchived, c.Status)
	assert.Equal(t, leasing.PropertyStatusEmpty, f.propertyStatus(t, property.ID))

	matches, err := f.matches.ListByInquiry(ctx, filed.Inquiry.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, property.ID, matches[0].PropertyID)

	// The property is free again, so a new lease can be activated.
	req := leaseRequest(property.ID)
	req.Tenant.Name = "Zeynep Arslan"
	_, err = f.leases.Provision(ctx, req)
	assert.NoError(t, err)
}

func TestLeaseService_DeactivateRejectsActiveTarget(t *testing.T) {
	f := newServicesFixture(t)
	_, err := f.leases.Deactivate(context.Background(), uuid.New(), leasing.ContractStatusActive)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, leasing.CodeInvalidStatus, de.Code)
}

func TestLeaseService_UpdateDates(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, nil)
	result, err := f.leases.Provision(ctx, leaseRequest(property.ID))
	require.NoError(t, err)

	c, err := f.leases.UpdateDates(ctx, result.Contract.ID, date(2024, 1, 1), date(2026, 1, 1))
	require.NoError(t, err)
	assert.True(t, c.EndDate.Equal(date(2026, 1, 1)))

	_, err = f.leases.UpdateDates(ctx, result.Contract.ID, date(2024, 1, 1), date(2023, 6, 1))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, leasing.CodeInvalidDateRange, de.Code)

	stored, err := f.leases.Get(ctx, result.Contract.ID)
	require.NoError(t, err)
	assert.True(t, stored.EndDate.Equal(date(2026, 1, 1)))
}

func TestLeaseService_UpdateDatesKeepsConcurrentStatus(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, nil)
	result, err := f.leases.Provision(ctx, leaseRequest(property.ID))
	require.NoError(t, err)
	f.store.afterContractRead = func(id uuid.UUID) {
		require.NoError(t, f.store.Store.Contracts().UpdateStatus(ctx, id, leasing.ContractStatusArchived))
		require.NoError(t, f.store.Store.Contracts().SetReminderContacted(ctx, id, true))
	}

	c, err := f.leases.UpdateDates(ctx, result.Contract.ID, date(2024, 2, 1), date(2026, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, leasing.ContractStatusArchived, c.Status)
	assert.True(t, c.ReminderContacted)
	assert.True(t, c.StartDate.Equal(date(2024, 2, 1)))
	assert.True(t, c.EndDate.Equal(date(2026, 2, 1)))
}

func TestTenantService_DeleteGuard(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, nil)
	result, err := f.leases.Provision(ctx, leaseRequest(property.ID))
	require.NoError(t, err)

	err = f.tenants.Delete(ctx, result.Tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantHasActiveContract)

	_, err = f.leases.Deactivate(ctx, result.Contract.ID, leasing.ContractStatusInactive)
	require.NoError(t, err)
	require.NoError(t, f.tenants.Delete(ctx, result.Tenant.ID))

	_, err = f.tenants.Get(ctx, result.Tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound)
	_, err = f.leases.Get(ctx, result.Contract.ID)
	assert.ErrorIs(t, err, leasing.ErrContractNotFound)
}

func TestTenantService_DeleteUnknown(t *testing.T) {
	f := newServicesFixture(t)
	assert.ErrorIs(t, f.tenants.Delete(context.Background(), uuid.New()), leasing.ErrTenantNotFound)
}

func TestPropertyService_CreateAndUpdateMatchOnce(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	inq := seedInquiry(t, f.store, nil)

	created, err := f.properties.Create(ctx, leasing.PropertyDraft{
		Title:       "Sea view flat",
		City:        strPtr("Istanbul"),
		ListingType: leasing.ListingRental,
		RentAmount:  decPtr(18000),
	})
	require.NoError(t, err)
	require.NotNil(t, created.Matches)
	assert.Len(t, created.Matches.Created, 1)

	updated, err := f.properties.Update(ctx, created.Property.ID, leasing.PropertyDraft{
		Title:       "Sea view flat, renovated",
		City:        strPtr("Istanbul"),
		ListingType: leasing.ListingRental,
		RentAmount:  decPtr(19000),
	})
	require.NoError(t, err)
	assert.Equal(t, leasing.PropertyStatusEmpty, updated.Property.Status)

	matches, err := f.matches.ListByInquiry(ctx, inq.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPropertyService_ChangeStatus(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	property := seedProperty(t, f.store, func(d *leasing.PropertyDraft) { d.Status = leasing.PropertyStatusInactive })
	seedInquiry(t, f.store, nil)

	result, err := f.properties.ChangeStatus(ctx, property.ID, leasing.PropertyStatusEmpty)
	require.NoError(t, err)
	require.NotNil(t, result.Matches)
	assert.Len(t, result.Matches.Created, 1)

	result, err = f.properties.ChangeStatus(ctx, property.ID, leasing.PropertyStatusInactive)
	require.NoError(t, err)
	assert.Nil(t, result.Matches)

	_, err = f.properties.ChangeStatus(ctx, property.ID, leasing.PropertyStatus("sold"))
	assert.Error(t, err)
	_, err = f.properties.ChangeStatus(ctx, uuid.New(), leasing.PropertyStatusEmpty)
	assert.ErrorIs(t, err, leasing.ErrPropertyNotFound)
}

func TestInquiryService_Lifecycle(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	seedProperty(t, f.store, nil)

	filed, err := f.inquiries.File(ctx, leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Type:          leasing.ListingRental,
		MaxRentBudget: decPtr(20000),
	})
	require.NoError(t, err)
	assert.Equal(t, leasing.InquiryStatusMatched, filed.Inquiry.Status)
	require.Len(t, filed.Matches.Created, 1)

	inq, err := f.inquiries.MarkContacted(ctx, filed.Inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, leasing.InquiryStatusContacted, inq.Status)

	inq, err = f.inquiries.Close(ctx, filed.Inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, leasing.InquiryStatusClosed, inq.Status)

	_, err = f.inquiries.Close(ctx, filed.Inquiry.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestInquiryService_FileRejectsInvalidDraft(t *testing.T) {
	f := newServicesFixture(t)
	_, err := f.inquiries.File(context.Background(), leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Type:          leasing.ListingRental,
		MinRentBudget: decPtr(30000),
		MaxRentBudget: decPtr(20000),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, leasing.CodeInvalidBudget, de.Code)
}

func TestInquiryService_TransitionLosesToConcurrentClose(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	inq := seedInquiry(t, f.store, nil)
	f.store.afterInquiryRead = func(id uuid.UUID) {
		applied, err := f.store.Store.Inquiries().TransitionStatus(ctx, id,
			leasing.TransitionSources(leasing.InquiryStatusClosed), leasing.InquiryStatusClosed)
		require.NoError(t, err)
		require.True(t, applied)
	}

	_, err := f.inquiries.MarkContacted(ctx, inq.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, leasing.InquiryStatusClosed, inquiryStatus(t, f.store, inq))
}

func TestMatchService_MarkContactedLeavesClosedInquiry(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	inq := seedInquiry(t, f.store, nil)
	property := seedProperty(t, f.store, nil)
	result, err := f.properties.Rematch(ctx, property.ID)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	_, err = f.inquiries.Close(ctx, inq.ID)
	require.NoError(t, err)

	m, err := f.matches.MarkContacted(ctx, result.Created[0].ID)
	require.NoError(t, err)
	assert.True(t, m.Contacted)
	assert.Equal(t, leasing.InquiryStatusClosed, inquiryStatus(t, f.store, inq))
}

func TestMatchService_MarkContactedMovesInquiry(t *testing.T) {
	f := newServicesFixture(t)
	ctx := context.Background()
	inq := seedInquiry(t, f.store, nil)
	property := seedProperty(t, f.store, nil)

	result, err := f.properties.Rematch(ctx, property.ID)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	m, err := f.matches.MarkContacted(ctx, result.Created[0].ID)
	require.NoError(t, err)
	assert.True(t, m.Contacted)
	assert.Equal(t, leasing.InquiryStatusContacted, inquiryStatus(t, f.store, inq))

	byProperty, err := f.matches.ListByProperty(ctx, property.ID)
	require.NoError(t, err)
	require.Len(t, byProperty, 1)
	assert.True(t, byProperty[0].Contacted)

	_, err = f.matches.MarkContacted(ctx, uuid.New())
	assert.ErrorIs(t, err, leasing.ErrMatchNotFound)
}
