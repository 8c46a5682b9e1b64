package leasing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentStore is a testify mock of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	args := m.Called(ctx, data, suggestedName)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockDocumentStore) PublicURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

// faultyStore wraps the in-memory store with injectable failures
type faultyStore struct {
	*memory.Store

	createErr   error
	rollbackErr error
	attachErr   error

	failMatchFor   uuid.UUID
	matchErr       error
	failPromoteFor uuid.UUID
	promoteErr     error

	// beforeMatchWrite and afterContractRead let a test interleave another writer
	beforeMatchWrite  func(m *leasing.Match)
	afterContractRead func(id uuid.UUID)
	afterInquiryRead  func(id uuid.UUID)

	rollbackCalls int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.NewStore()}
}

func (f *faultyStore) CreateTenantAndContract(ctx context.Context, t *leasing.Tenant, c *leasing.Contract) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.CreateTenantAndContract(ctx, t, c)
}

func (f *faultyStore) RollbackTenantAndContract(ctx context.Context, tenantID, contractID uuid.UUID) error {
	f.rollbackCalls++
	if f.rollbackErr != nil {
		return f.rollbackErr
	}
	return f.Store.RollbackTenantAndContract(ctx, tenantID, contractID)
}

func (f *faultyStore) Contracts() leasing.ContractRepository {
	return faultyContracts{ContractRepository: f.Store.Contracts(), f: f}
}

func (f *faultyStore) Matches() leasing.MatchRepository {
	return faultyMatches{MatchRepository: f.Store.Matches(), f: f}
}

func (f *faultyStore) Inquiries() leasing.InquiryRepository {
	return faultyInquiries{InquiryRepository: f.Store.Inquiries(), f: f}
}

type faultyContracts struct {
	leasing.ContractRepository
	f *faultyStore
}

func (c faultyContracts) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	contract, err := c.ContractRepository.FindByID(ctx, id)
	if err == nil && c.f.afterContractRead != nil {
		hook := c.f.afterContractRead
		c.f.afterContractRead = nil
		hook(id)
	}
	return contract, err
}

func (c faultyContracts) SetDocumentPath(ctx context.Context, id uuid.UUID, path string) error {
	if c.f.attachErr != nil {
		return c.f.attachErr
	}
	return c.ContractRepository.SetDocumentPath(ctx, id, path)
}

type faultyMatches struct {
	leasing.MatchRepository
	f *faultyStore
}

func (m faultyMatches) CreateIfAbsent(ctx context.Context, match *leasing.Match) (bool, error) {
	if m.f.matchErr != nil && match.InquiryID == m.f.failMatchFor {
		return false, m.f.matchErr
	}
	if m.f.beforeMatchWrite != nil {
		m.f.beforeMatchWrite(match)
	}
	return m.MatchRepository.CreateIfAbsent(ctx, match)
}

type faultyInquiries struct {
	leasing.InquiryRepository
	f *faultyStore
}

func (r faultyInquiries) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	inq, err := r.InquiryRepository.FindByID(ctx, id)
	if err == nil && r.f.afterInquiryRead != nil {
		hook := r.f.afterInquiryRead
		r.f.afterInquiryRead = nil
		hook(id)
	}
	return inq, err
}

func (r faultyInquiries) TransitionStatus(ctx context.Context, id uuid.UUID, from []leasing.InquiryStatus, to leasing.InquiryStatus) (bool, error) {
	if r.f.promoteErr != nil && id == r.f.failPromoteFor {
		return false, r.f.promoteErr
	}
	return r.InquiryRepository.TransitionStatus(ctx, id, from, to)
}

// mapGuard is an in-process IdempotencyStore for sweep tests
type mapGuard struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (g *mapGuard) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.keys == nil {
		g.keys = map[string]bool{}
	}
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *mapGuard) IsProcessed(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[key], nil
}

func (g *mapGuard) Close() error { return nil }

type recordingNotifier struct {
	mu      sync.Mutex
	matches []uuid.UUID
	err     error
}

func (n *recordingNotifier) NotifyMatch(ctx context.Context, m *leasing.Match, inq *leasing.Inquiry, p *leasing.Property) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.matches = append(n.matches, m.ID)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func seedProperty(t *testing.T, store leasing.RecordStore, mutate func(*leasing.PropertyDraft)) *leasing.Property {
	t.Helper()
	d := leasing.PropertyDraft{
		OwnerID:     uuid.New(),
		Title:       "2+1 near the ferry",
		Address:     "Moda Cd. 12",
		City:        strPtr("Istanbul"),
		District:    strPtr("Kadikoy"),
		ListingType: leasing.ListingRental,
		RentAmount:  decPtr(18000),
	}
	if mutate != nil {
		mutate(&d)
	}
	p, err := leasing.NewProperty(d)
	require.NoError(t, err)
	require.NoError(t, store.Properties().Save(context.Background(), p))
	return p
}

func seedInquiry(t *testing.T, store leasing.RecordStore, mutate func(*leasing.InquiryDraft)) *leasing.Inquiry {
	t.Helper()
	d := leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Phone:         "+90 555 000 0000",
		Type:          leasing.ListingRental,
		PreferredCity: strPtr("istanbul"),
		MaxRentBudget: decPtr(20000),
	}
	if mutate != nil {
		mutate(&d)
	}
	inq, err := leasing.NewInquiry(d)
	require.NoError(t, err)
	require.NoError(t, store.Inquiries().Save(context.Background(), inq))
	return inq
}

func leaseRequest(propertyID uuid.UUID) ProvisionRequest {
	return ProvisionRequest{
		Tenant: leasing.TenantDraft{Name: "Ahmet Kaya", Phone: "+90 532 111 2233", Email: "ahmet@example.com"},
		Lease: leasing.LeaseDraft{
			PropertyID: propertyID,
			StartDate:  date(2024, 1, 1),
			EndDate:    date(2025, 1, 1),
			RentAmount: decimal.NewFromInt(18000),
		},
	}
}
