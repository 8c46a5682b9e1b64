// Package memory provides an in-process RecordStore. It enforces the same
// uniqueness and atomicity guarantees as the database-backed store so that
// services behave identically against either one.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
)

// Store is an in-memory leasing.RecordStore guarded by a single mutex
type Store struct {
	mu         sync.RWMutex
	tenants    map[uuid.UUID]leasing.Tenant
	properties map[uuid.UUID]leasing.Property
	contracts  map[uuid.UUID]leasing.Contract
	inquiries  map[uuid.UUID]leasing.Inquiry
	matches    map[uuid.UUID]leasing.Match
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		tenants:    make(map[uuid.UUID]leasing.Tenant),
		properties: make(map[uuid.UUID]leasing.Property),
		contracts:  make(map[uuid.UUID]leasing.Contract),
		inquiries:  make(map[uuid.UUID]leasing.Inquiry),
		matches:    make(map[uuid.UUID]leasing.Match),
	}
}

var _ leasing.RecordStore = (*Store)(nil)

// Tenants returns the tenant repository view
func (s *Store) Tenants() leasing.TenantRepository { return tenantRepo{s} }

// Properties returns the property repository view
func (s *Store) Properties() leasing.PropertyRepository { return propertyRepo{s} }

// Contracts returns the contract repository view
func (s *Store) Contracts() leasing.ContractRepository { return contractRepo{s} }

// Inquiries returns the inquiry repository view
func (s *Store) Inquiries() leasing.InquiryRepository { return inquiryRepo{s} }

// Matches returns the match repository view
func (s *Store) Matches() leasing.MatchRepository { return matchRepo{s} }

// CreateTenantAndContract inserts both rows under one lock; any failed check leaves both absent
func (s *Store) CreateTenantAndContract(ctx context.Context, tenant *leasing.Tenant, contract *leasing.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contract.TenantID != tenant.ID {
		contract.TenantID = tenant.ID
	}
	if _, ok := s.properties[contract.PropertyID]; !ok {
		return leasing.ErrPropertyNotFound
	}
	if contract.IsActive() && s.activeContractForLocked(contract.PropertyID, uuid.Nil) {
		return leasing.ErrActiveContractConflict
	}

	now := time.Now()
	stamp(&tenant.CreatedAt, &tenant.UpdatedAt, now)
	stamp(&contract.CreatedAt, &contract.UpdatedAt, now)
	s.tenants[tenant.ID] = *tenant
	s.contracts[contract.ID] = cloneContract(*contract)
	return nil
}

// RollbackTenantAndContract removes both rows under one lock
func (s *Store) RollbackTenantAndContract(ctx context.Context, tenantID, contractID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contracts, contractID)
	delete(s.tenants, tenantID)
	return nil
}

// activeContractForLocked reports whether propertyID holds an Active contract other than except.
// Caller must hold s.mu.
func (s *Store) activeContractForLocked(propertyID, except uuid.UUID) bool {
	for id, c := range s.contracts {
		if id != except && c.PropertyID == propertyID && c.IsActive() {
			return true
		}
	}
	return false
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// Reset drops all rows
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = make(map[uuid.UUID]leasing.Tenant)
	s.properties = make(map[uuid.UUID]leasing.Property)
	s.contracts = make(map[uuid.UUID]leasing.Contract)
	s.inquiries = make(map[uuid.UUID]leasing.Inquiry)
	s.matches = make(map[uuid.UUID]leasing.Match)
}

// Counts reports row counts per entity
func (s *Store) Counts() (tenants, contracts, matches int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants), len(s.contracts), len(s.matches)
}

type tenantRepo struct{ s *Store }

func (r tenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, leasing.ErrTenantNotFound
	}
	return &t, nil
}

func (r tenantRepo) Save(ctx context.Context, tenant *leasing.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&tenant.CreatedAt, &tenant.UpdatedAt, time.Now())
	r.s.tenants[tenant.ID] = *tenant
	return nil
}

func (r tenantRepo) DeleteIfNoActiveContract(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[id]; !ok {
		return leasing.ErrTenantNotFound
	}
	for _, c := range r.s.contracts {
		if c.TenantID == id && c.IsActive() {
			return leasing.ErrTenantHasActiveContract
		}
	}
	for cid, c := range r.s.contracts {
		if c.TenantID == id {
			delete(r.s.contracts, cid)
		}
	}
	delete(r.s.tenants, id)
	return nil
}

type propertyRepo struct{ s *Store }

func (r propertyRepo) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, leasing.ErrPropertyNotFound
	}
	p = cloneProperty(p)
	return &p, nil
}

func (r propertyRepo) FindAvailable(ctx context.Context, listingType leasing.ListingType) ([]leasing.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]leasing.Property, 0)
	for _, p := range r.s.properties {
		if p.ListingType == listingType && p.Status == leasing.PropertyStatusEmpty {
			out = append(out, cloneProperty(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r propertyRepo) Save(ctx context.Context, property *leasing.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&property.CreatedAt, &property.UpdatedAt, time.Now())
	r.s.properties[property.ID] = cloneProperty(*property)
	return nil
}

func (r propertyRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status leasing.PropertyStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return leasing.ErrPropertyNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.s.properties[id] = p
	return nil
}

type contractRepo struct{ s *Store }

func (r contractRepo) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, leasing.ErrContractNotFound
	}
	c = cloneContract(c)
	return &c, nil
}

func (r contractRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]leasing.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]leasing.Contract, 0)
	for _, c := range r.s.contracts {
		if c.TenantID == tenantID {
			out = append(out, cloneContract(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r contractRepo) FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*leasing.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.contracts {
		if c.PropertyID == propertyID && c.IsActive() {
			c = cloneContract(c)
			return &c, nil
		}
	}
	return nil, leasing.ErrContractNotFound
}

func (r contractRepo) FindReminderCandidates(ctx context.Context) ([]leasing.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]leasing.Contract, 0)
	for _, c := range r.s.contracts {
		if c.IsActive() && c.ReminderEnabled && !c.ReminderContacted {
			out = append(out, cloneContract(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r contractRepo) Save(ctx context.Context, contract *leasing.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !contract.EndDate.After(contract.StartDate) {
		return leasing.ValidateDateRange(contract.StartDate, contract.EndDate)
	}
	if contract.IsActive() && r.s.activeContractForLocked(contract.PropertyID, contract.ID) {
		return leasing.ErrActiveContractConflict
	}
	stamp(&contract.CreatedAt, &contract.UpdatedAt, time.Now())
	r.s.contracts[contract.ID] = cloneContract(*contract)
	return nil
}

func (r contractRepo) SetDates(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	if err := leasing.ValidateDateRange(start, end); err != nil {
		return err
	}
	return r.mutate(id, func(c *leasing.Contract) error {
		c.StartDate = leasing.DateOf(start)
		c.EndDate = leasing.DateOf(end)
		return nil
	})
}

func (r contractRepo) SetReminderSettings(ctx context.Context, id uuid.UUID, settings leasing.ReminderSettings) error {
	if settings.LeadDays < 0 {
		return leasing.ErrInvalidLeadDays
	}
	return r.mutate(id, func(c *leasing.Contract) error {
		c.ReminderEnabled = settings.Enabled
		c.ReminderLeadDays = settings.LeadDays
		c.ExpectedNewRent = clonePtr(settings.ExpectedNewRent)
		c.ReminderNotes = settings.Notes
		return nil
	})
}

func (r contractRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status leasing.ContractStatus) error {
	return r.mutate(id, func(c *leasing.Contract) error {
		if status == leasing.ContractStatusActive && r.s.activeContractForLocked(c.PropertyID, id) {
			return leasing.ErrActiveContractConflict
		}
		c.Status = status
		return nil
	})
}

func (r contractRepo) SetDocumentPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.mutate(id, func(c *leasing.Contract) error {
		c.DocumentPath = &path
		return nil
	})
}

func (r contractRepo) SetReminderContacted(ctx context.Context, id uuid.UUID, contacted bool) error {
	return r.mutate(id, func(c *leasing.Contract) error {
		c.ReminderContacted = contacted
		return nil
	})
}

func (r contractRepo) mutate(id uuid.UUID, fn func(c *leasing.Contract) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return leasing.ErrContractNotFound
	}
	if err := fn(&c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	r.s.contracts[id] = c
	return nil
}

type inquiryRepo struct{ s *Store }

func (r inquiryRepo) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.inquiries[id]
	if !ok {
		return nil, leasing.ErrInquiryNotFound
	}
	i = cloneInquiry(i)
	return &i, nil
}

func (r inquiryRepo) FindActiveByType(ctx context.Context, listingType leasing.ListingType) ([]leasing.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]leasing.Inquiry, 0)
	for _, i := range r.s.inquiries {
		if i.Type == listingType && i.Status == leasing.InquiryStatusActive {
			out = append(out, cloneInquiry(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (r inquiryRepo) Save(ctx context.Context, inquiry *leasing.Inquiry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&inquiry.CreatedAt, &inquiry.UpdatedAt, time.Now())
	r.s.inquiries[inquiry.ID] = cloneInquiry(*inquiry)
	return nil
}

// TransitionStatus checks the stored status and writes under one lock
func (r inquiryRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []leasing.InquiryStatus, to leasing.InquiryStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.inquiries[id]
	if !ok {
		return false, leasing.ErrInquiryNotFound
	}
	if !slices.Contains(from, i.Status) {
		return false, nil
	}
	i.Status = to
	i.UpdatedAt = time.Now()
	r.s.inquiries[id] = i
	return true, nil
}

type matchRepo struct{ s *Store }

func (r matchRepo) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, leasing.ErrMatchNotFound
	}
	return &m, nil
}

func (r matchRepo) Exists(ctx context.Context, inquiryID, propertyID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.existsLocked(inquiryID, propertyID), nil
}

func (r matchRepo) existsLocked(inquiryID, propertyID uuid.UUID) bool {
	for _, m := range r.s.matches {
		if m.InquiryID == inquiryID && m.PropertyID == propertyID {
			return true
		}
	}
	return false
}

func (r matchRepo) CreateIfAbsent(ctx context.Context, m *leasing.Match) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.existsLocked(m.InquiryID, m.PropertyID) {
		return false, nil
	}
	if m.MatchedAt.IsZero() {
		m.MatchedAt = time.Now()
	}
	r.s.matches[m.ID] = *m
	return true, nil
}

func (r matchRepo) FindByInquiry(ctx context.Context, inquiryID uuid.UUID) ([]leasing.Match, error) {
	return r.filter(func(m leasing.Match) bool { return m.InquiryID == inquiryID }), nil
}

func (r matchRepo) FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]leasing.Match, error) {
	return r.filter(func(m leasing.Match) bool { return m.PropertyID == propertyID }), nil
}

func (r matchRepo) filter(keep func(leasing.Match) bool) []leasing.Match {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]leasing.Match, 0)
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.Before(out[j].MatchedAt) })
	return out
}

func (r matchRepo) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(m *leasing.Match) { m.NotificationSent = true })
}

func (r matchRepo) MarkContacted(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(m *leasing.Match) { m.Contacted = true })
}

func (r matchRepo) mutate(id uuid.UUID, fn func(m *leasing.Match)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return leasing.ErrMatchNotFound
	}
	fn(&m)
	r.s.matches[id] = m
	return nil
}
