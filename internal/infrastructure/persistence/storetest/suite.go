// Package storetest holds the behaviour every leasing.RecordStore must share.
// Store implementations run it from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for one subtest
type Factory func(t *testing.T) leasing.RecordStore

// Run executes the shared RecordStore behaviour against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store leasing.RecordStore)
	}{
		{"CreateTenantAndContract", testCreateTenantAndContract},
		{"CreateUnknownPropertyWritesNothing", testCreateUnknownProperty},
		{"SecondActiveContractConflicts", testSecondActiveConflict},
		{"ActivateConflicts", testActivateConflict},
		{"RollbackRemovesBoth", testRollback},
		{"RollbackMissingRowsIsNoop", testRollbackMissing},
		{"DocumentPathAndReminderFlag", testContractFlags},
		{"ReminderCandidates", testReminderCandidates},
		{"DeleteTenantGuard", testDeleteTenantGuard},
		{"PropertyRoundTripAndAvailability", testProperties},
		{"InquiryStatus", testInquiries},
		{"InquiryTransitionIsConditional", testInquiryTransition},
		{"ColumnScopedContractWrites", testColumnScopedWrites},
		{"StoredRowsAreDetached", testDetachedRows},
		{"MatchCreateIfAbsent", testMatchCreateIfAbsent},
		{"ConcurrentMatchInserts", testConcurrentMatches},
		{"MatchFlags", testMatchFlags},
		{"NotFound", testNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// SeedProperty saves an empty Istanbul rental
func SeedProperty(t *testing.T, store leasing.RecordStore) *leasing.Property {
	t.Helper()
	p, err := leasing.NewProperty(leasing.PropertyDraft{
		OwnerID:     uuid.New(),
		Title:       "2+1 near the ferry",
		Address:     "Moda Cd. 12",
		City:        ptr("Istanbul"),
		District:    ptr("Kadikoy"),
		ListingType: leasing.ListingRental,
		RentAmount:  ptr(decimal.NewFromInt(18000)),
	})
	require.NoError(t, err)
	require.NoError(t, store.Properties().Save(context.Background(), p))
	return p
}

func newLease(t *testing.T, propertyID uuid.UUID, status leasing.ContractStatus) (*leasing.Tenant, *leasing.Contract) {
	t.Helper()
	tenant, err := leasing.NewTenant(leasing.TenantDraft{Name: "Ahmet Kaya", Email: "ahmet@example.com"})
	require.NoError(t, err)
	contract, err := leasing.NewContract(tenant.ID, leasing.LeaseDraft{
		PropertyID: propertyID,
		StartDate:  day(2024, 1, 1),
		EndDate:    day(2025, 1, 1),
		RentAmount: decimal.NewFromInt(18000),
		Status:     status,
	}, leasing.DefaultReminderLeadDays)
	require.NoError(t, err)
	return tenant, contract
}

func seedLease(t *testing.T, store leasing.RecordStore, propertyID uuid.UUID, status leasing.ContractStatus) (*leasing.Tenant, *leasing.Contract) {
	t.Helper()
	tenant, contract := newLease(t, propertyID, status)
	require.NoError(t, store.CreateTenantAndContract(context.Background(), tenant, contract))
	return tenant, contract
}

func seedInquiry(t *testing.T, store leasing.RecordStore) *leasing.Inquiry {
	t.Helper()
	inq, err := leasing.NewInquiry(leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Type:          leasing.ListingRental,
		PreferredCity: ptr("istanbul"),
		MaxRentBudget: ptr(decimal.NewFromInt(20000)),
	})
	require.NoError(t, err)
	require.NoError(t, store.Inquiries().Save(context.Background(), inq))
	return inq
}

func testCreateTenantAndContract(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	tenant, contract := seedLease(t, store, property.ID, leasing.ContractStatusActive)

	gotTenant, err := store.Tenants().FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ahmet Kaya", gotTenant.Name)
	assert.Equal(t, "ahmet@example.com", gotTenant.Email)

	got, err := store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.TenantID)
	assert.Equal(t, property.ID, got.PropertyID)
	assert.True(t, got.StartDate.Equal(day(2024, 1, 1)))
	assert.True(t, got.EndDate.Equal(day(2025, 1, 1)))
	assert.True(t, got.RentAmount.Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, leasing.ContractStatusActive, got.Status)
	assert.True(t, got.ReminderEnabled)
	assert.Equal(t, leasing.DefaultReminderLeadDays, got.ReminderLeadDays)
	assert.Nil(t, got.DocumentPath)

	active, err := store.Contracts().FindActiveByProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ID, active.ID)

	byTenant, err := store.Contracts().FindByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, byTenant, 1)
}

func testCreateUnknownProperty(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	tenant, contract := newLease(t, uuid.New(), leasing.ContractStatusActive)

	err := store.CreateTenantAndContract(ctx, tenant, contract)
	assert.ErrorIs(t, err, leasing.ErrPropertyNotFound)

	_, err = store.Tenants().FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound)
}

func testSecondActiveConflict(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	seedLease(t, store, property.ID, leasing.ContractStatusActive)

	tenant, contract := newLease(t, property.ID, leasing.ContractStatusActive)
	err := store.CreateTenantAndContract(ctx, tenant, contract)
	assert.ErrorIs(t, err, leasing.ErrActiveContractConflict)

	_, err = store.Tenants().FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound, "the tenant row must not survive a failed compound insert")

	// Inactive contracts on the same property are fine.
	seedLease(t, store, property.ID, leasing.ContractStatusInactive)
}

func testActivateConflict(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	_, first := seedLease(t, store, property.ID, leasing.ContractStatusActive)
	_, second := seedLease(t, store, property.ID, leasing.ContractStatusInactive)

	err := store.Contracts().UpdateStatus(ctx, second.ID, leasing.ContractStatusActive)
	assert.ErrorIs(t, err, leasing.ErrActiveContractConflict)

	second.Status = leasing.ContractStatusActive
	assert.ErrorIs(t, store.Contracts().Save(ctx, second), leasing.ErrActiveContractConflict)

	require.NoError(t, store.Contracts().UpdateStatus(ctx, first.ID, leasing.ContractStatusArchived))
	require.NoError(t, store.Contracts().UpdateStatus(ctx, second.ID, leasing.ContractStatusActive))

	active, err := store.Contracts().FindActiveByProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func testRollback(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	tenant, contract := seedLease(t, store, property.ID, leasing.ContractStatusActive)

	require.NoError(t, store.RollbackTenantAndContract(ctx, tenant.ID, contract.ID))

	_, err := store.Tenants().FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound)
	_, err = store.Contracts().FindByID(ctx, contract.ID)
	assert.ErrorIs(t, err, leasing.ErrContractNotFound)

	// The property is free for a new active lease.
	seedLease(t, store, property.ID, leasing.ContractStatusActive)
}

func testRollbackMissing(t *testing.T, store leasing.RecordStore) {
	assert.NoError(t, store.RollbackTenantAndContract(context.Background(), uuid.New(), uuid.New()))
}

func testContractFlags(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	_, contract := seedLease(t, store, property.ID, leasing.ContractStatusActive)

	require.NoError(t, store.Contracts().SetDocumentPath(ctx, contract.ID, "contracts/lease.pdf"))
	require.NoError(t, store.Contracts().SetReminderContacted(ctx, contract.ID, true))

	got, err := store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DocumentPath)
	assert.Equal(t, "contracts/lease.pdf", *got.DocumentPath)
	assert.True(t, got.ReminderContacted)

	require.NoError(t, store.Contracts().SetReminderContacted(ctx, contract.ID, false))
	got, err = store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderContacted)

	require.NoError(t, store.Contracts().SetDates(ctx, contract.ID, day(2024, 2, 1), day(2026, 2, 1)))
	got, err = store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(day(2024, 2, 1)))
	assert.True(t, got.EndDate.Equal(day(2026, 2, 1)))

	assert.ErrorIs(t, store.Contracts().SetDates(ctx, contract.ID, day(2026, 2, 1), day(2026, 2, 1)), leasing.ErrInvalidDateRange)
	got, err = store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, got.EndDate.Equal(day(2026, 2, 1)))
}

func testReminderCandidates(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	_, keep := seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusActive)
	_, contacted := seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusActive)
	_, disabled := seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusActive)
	seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusInactive)

	require.NoError(t, store.Contracts().SetReminderContacted(ctx, contacted.ID, true))
	require.NoError(t, disabled.ApplyReminderSettings(leasing.ReminderSettings{LeadDays: 30}))
	require.NoError(t, store.Contracts().Save(ctx, disabled))

	got, err := store.Contracts().FindReminderCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func testDeleteTenantGuard(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	tenant, contract := seedLease(t, store, property.ID, leasing.ContractStatusActive)

	assert.ErrorIs(t, store.Tenants().DeleteIfNoActiveContract(ctx, tenant.ID), leasing.ErrTenantHasActiveContract)

	require.NoError(t, store.Contracts().UpdateStatus(ctx, contract.ID, leasing.ContractStatusArchived))
	require.NoError(t, store.Tenants().DeleteIfNoActiveContract(ctx, tenant.ID))

	_, err := store.Tenants().FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound)
	_, err = store.Contracts().FindByID(ctx, contract.ID)
	assert.ErrorIs(t, err, leasing.ErrContractNotFound)

	assert.ErrorIs(t, store.Tenants().DeleteIfNoActiveContract(ctx, tenant.ID), leasing.ErrTenantNotFound)
}

func testProperties(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	empty := SeedProperty(t, store)
	occupied := SeedProperty(t, store)
	require.NoError(t, store.Properties().UpdateStatus(ctx, occupied.ID, leasing.PropertyStatusOccupied))

	got, err := store.Properties().FindByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, "2+1 near the ferry", got.Title)
	require.NotNil(t, got.City)
	assert.Equal(t, "Istanbul", *got.City)
	require.NotNil(t, got.RentAmount)
	assert.True(t, got.RentAmount.Equal(decimal.NewFromInt(18000)))
	assert.Nil(t, got.SalePrice)
	assert.Equal(t, leasing.PropertyStatusEmpty, got.Status)

	available, err := store.Properties().FindAvailable(ctx, leasing.ListingRental)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, empty.ID, available[0].ID)

	sale, err := store.Properties().FindAvailable(ctx, leasing.ListingSale)
	require.NoError(t, err)
	assert.Empty(t, sale)

	require.NoError(t, got.Edit(leasing.PropertyDraft{
		Title:       "Renovated",
		ListingType: leasing.ListingRental,
		Status:      leasing.PropertyStatusEmpty,
		RentAmount:  ptr(decimal.NewFromInt(19500)),
	}))
	require.NoError(t, store.Properties().Save(ctx, got))
	got, err = store.Properties().FindByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renovated", got.Title)
	assert.True(t, got.RentAmount.Equal(decimal.NewFromInt(19500)))
}

func testInquiries(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	open := seedInquiry(t, store)
	matched := seedInquiry(t, store)
	applied, err := store.Inquiries().TransitionStatus(ctx, matched.ID,
		[]leasing.InquiryStatus{leasing.InquiryStatusActive}, leasing.InquiryStatusMatched)
	require.NoError(t, err)
	require.True(t, applied)

	got, err := store.Inquiries().FindByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elif Demir", got.RequesterName)
	require.NotNil(t, got.MaxRentBudget)
	assert.True(t, got.MaxRentBudget.Equal(decimal.NewFromInt(20000)))
	assert.Nil(t, got.MinRentBudget)

	active, err := store.Inquiries().FindActiveByType(ctx, leasing.ListingRental)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)
}

func testInquiryTransition(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	inq := seedInquiry(t, store)
	closed := leasing.InquiryStatusClosed

	applied, err := store.Inquiries().TransitionStatus(ctx, inq.ID, leasing.TransitionSources(closed), closed)
	require.NoError(t, err)
	assert.True(t, applied)

	for _, next := range []leasing.InquiryStatus{leasing.InquiryStatusMatched, leasing.InquiryStatusContacted, closed} {
		applied, err = store.Inquiries().TransitionStatus(ctx, inq.ID, leasing.TransitionSources(next), next)
		require.NoError(t, err)
		assert.False(t, applied, "closed must not move to %s", next)
	}

	got, err := store.Inquiries().FindByID(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, closed, got.Status)
}

func testColumnScopedWrites(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	_, contract := seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusActive)
	require.NoError(t, store.Contracts().UpdateStatus(ctx, contract.ID, leasing.ContractStatusArchived))
	require.NoError(t, store.Contracts().SetReminderContacted(ctx, contract.ID, true))
	require.NoError(t, store.Contracts().SetDocumentPath(ctx, contract.ID, "contracts/lease.pdf"))

	rent := decimal.NewFromInt(21000)
	require.NoError(t, store.Contracts().SetReminderSettings(ctx, contract.ID, leasing.ReminderSettings{
		Enabled:         false,
		LeadDays:        45,
		ExpectedNewRent: &rent,
		Notes:           "raise",
	}))
	require.NoError(t, store.Contracts().SetDates(ctx, contract.ID, day(2024, 3, 1), day(2025, 3, 1)))

	got, err := store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, leasing.ContractStatusArchived, got.Status)
	assert.True(t, got.ReminderContacted)
	require.NotNil(t, got.DocumentPath)
	assert.Equal(t, "contracts/lease.pdf", *got.DocumentPath)
	assert.False(t, got.ReminderEnabled)
	assert.Equal(t, 45, got.ReminderLeadDays)
	require.NotNil(t, got.ExpectedNewRent)
	assert.True(t, got.ExpectedNewRent.Equal(rent))
	assert.Equal(t, "raise", got.ReminderNotes)
	assert.True(t, got.StartDate.Equal(day(2024, 3, 1)))
	assert.True(t, got.EndDate.Equal(day(2025, 3, 1)))

	assert.ErrorIs(t, store.Contracts().SetReminderSettings(ctx, contract.ID, leasing.ReminderSettings{LeadDays: -1}), leasing.ErrInvalidLeadDays)
	require.NoError(t, store.Contracts().SetReminderSettings(ctx, contract.ID, leasing.ReminderSettings{Enabled: true, LeadDays: 30}))
	got, err = store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ExpectedNewRent, "clearing the expected rent writes NULL")
}

func testDetachedRows(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	*property.City = "Ankara"
	*property.RentAmount = decimal.NewFromInt(1)

	got, err := store.Properties().FindByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Istanbul", *got.City)
	assert.True(t, got.RentAmount.Equal(decimal.NewFromInt(18000)))

	*got.District = "Besiktas"
	again, err := store.Properties().FindByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kadikoy", *again.District)

	inq := seedInquiry(t, store)
	*inq.PreferredCity = "izmir"
	*inq.MaxRentBudget = decimal.NewFromInt(1)
	gotInq, err := store.Inquiries().FindByID(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, "istanbul", *gotInq.PreferredCity)
	assert.True(t, gotInq.MaxRentBudget.Equal(decimal.NewFromInt(20000)))

	_, contract := seedLease(t, store, SeedProperty(t, store).ID, leasing.ContractStatusActive)
	require.NoError(t, store.Contracts().SetDocumentPath(ctx, contract.ID, "contracts/lease.pdf"))
	gotContract, err := store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	*gotContract.DocumentPath = "contracts/other.pdf"
	gotContract, err = store.Contracts().FindByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "contracts/lease.pdf", *gotContract.DocumentPath)
}

func testMatchCreateIfAbsent(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	inq := seedInquiry(t, store)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first := leasing.NewMatch(inq.ID, property.ID, at)
	created, err := store.Matches().CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Matches().CreateIfAbsent(ctx, leasing.NewMatch(inq.ID, property.ID, at))
	require.NoError(t, err)
	assert.False(t, created)

	exists, err := store.Matches().Exists(ctx, inq.ID, property.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	byInquiry, err := store.Matches().FindByInquiry(ctx, inq.ID)
	require.NoError(t, err)
	require.Len(t, byInquiry, 1)
	assert.Equal(t, first.ID, byInquiry[0].ID)
	assert.True(t, byInquiry[0].MatchedAt.Equal(at))

	byProperty, err := store.Matches().FindByProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Len(t, byProperty, 1)
}

func testConcurrentMatches(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	property := SeedProperty(t, store)
	inq := seedInquiry(t, store)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Matches().CreateIfAbsent(ctx, leasing.NewMatch(inq.ID, property.ID, time.Now()))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	matches, err := store.Matches().FindByInquiry(ctx, inq.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func testMatchFlags(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	m := leasing.NewMatch(seedInquiry(t, store).ID, SeedProperty(t, store).ID, time.Now())
	_, err := store.Matches().CreateIfAbsent(ctx, m)
	require.NoError(t, err)

	require.NoError(t, store.Matches().MarkNotificationSent(ctx, m.ID))
	require.NoError(t, store.Matches().MarkContacted(ctx, m.ID))

	got, err := store.Matches().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.NotificationSent)
	assert.True(t, got.Contacted)
}

func testNotFound(t *testing.T, store leasing.RecordStore) {
	ctx := context.Background()
	id := uuid.New()

	_, err := store.Properties().FindByID(ctx, id)
	assert.ErrorIs(t, err, leasing.ErrPropertyNotFound)
	assert.ErrorIs(t, store.Properties().UpdateStatus(ctx, id, leasing.PropertyStatusEmpty), leasing.ErrPropertyNotFound)
	_, err = store.Contracts().FindActiveByProperty(ctx, id)
	assert.ErrorIs(t, err, leasing.ErrContractNotFound)
	assert.ErrorIs(t, store.Contracts().SetDocumentPath(ctx, id, "x"), leasing.ErrContractNotFound)
	assert.ErrorIs(t, store.Contracts().SetReminderContacted(ctx, id, true), leasing.ErrContractNotFound)
	_, err = store.Inquiries().FindByID(ctx, id)
	assert.ErrorIs(t, err, leasing.ErrInquiryNotFound)
	assert.ErrorIs(t, store.Contracts().SetDates(ctx, id, day(2024, 1, 1), day(2025, 1, 1)), leasing.ErrContractNotFound)
	assert.ErrorIs(t, store.Contracts().SetReminderSettings(ctx, id, leasing.ReminderSettings{LeadDays: 30}), leasing.ErrContractNotFound)
	_, err = store.Inquiries().TransitionStatus(ctx, id, []leasing.InquiryStatus{leasing.InquiryStatusActive}, leasing.InquiryStatusClosed)
	assert.ErrorIs(t, err, leasing.ErrInquiryNotFound)
	_, err = store.Matches().FindByID(ctx, id)
	assert.ErrorIs(t, err, leasing.ErrMatchNotFound)
	assert.ErrorIs(t, store.Matches().MarkContacted(ctx, id), leasing.ErrMatchNotFound)
}
