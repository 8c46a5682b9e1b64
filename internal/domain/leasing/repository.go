package leasing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantRepository persists tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
	// DeleteIfNoActiveContract removes the tenant unless it holds an Active contract,
	// in which case ErrTenantHasActiveContract is returned and nothing changes.
	DeleteIfNoActiveContract(ctx context.Context, id uuid.UUID) error
}

// PropertyRepository persists properties
type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	// FindAvailable lists properties of the listing type whose status is Empty
	FindAvailable(ctx context.Context, listingType ListingType) ([]Property, error)
	Save(ctx context.Context, property *Property) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status PropertyStatus) error
}

// ContractRepository persists contracts.
// Every write that can produce a second Active contract for a property returns
// ErrActiveContractConflict instead of overwriting.
type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Contract, error)
	FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*Contract, error)
	// FindReminderCandidates lists Active, reminder-enabled, not yet contacted contracts
	FindReminderCandidates(ctx context.Context) ([]Contract, error)
	Save(ctx context.Context, contract *Contract) error
	// SetDates writes only the lease dates; end must fall after start
	SetDates(ctx context.Context, id uuid.UUID, start, end time.Time) error
	// SetReminderSettings writes only the reminder settings columns
	SetReminderSettings(ctx context.Context, id uuid.UUID, settings ReminderSettings) error
	// UpdateStatus is the conditional status change; the single-Active-per-property
	// rule is checked by the store, not by the caller.
	UpdateStatus(ctx context.Context, id uuid.UUID, status ContractStatus) error
	SetDocumentPath(ctx context.Context, id uuid.UUID, path string) error
	SetReminderContacted(ctx context.Context, id uuid.UUID, contacted bool) error
}

// InquiryRepository persists inquiries
type InquiryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Inquiry, error)
	FindActiveByType(ctx context.Context, listingType ListingType) ([]Inquiry, error)
	Save(ctx context.Context, inquiry *Inquiry) error
	// TransitionStatus sets the status to `to` only while the stored status is one of from.
	// It reports false, without error, when the row exists in another status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []InquiryStatus, to InquiryStatus) (bool, error)
}

// MatchRepository persists matches
type MatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Match, error)
	Exists(ctx context.Context, inquiryID, propertyID uuid.UUID) (bool, error)
	// CreateIfAbsent inserts m unless a match for the same pair exists.
	// It reports whether a row was written; an existing pair is not an error.
	CreateIfAbsent(ctx context.Context, m *Match) (bool, error)
	FindByInquiry(ctx context.Context, inquiryID uuid.UUID) ([]Match, error)
	FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]Match, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
	MarkContacted(ctx context.Context, id uuid.UUID) error
}

// RecordStore is the durable store behind the leasing core. Besides per-entity
// access it offers the two server-side compound procedures provisioning relies on.
type RecordStore interface {
	Tenants() TenantRepository
	Properties() PropertyRepository
	Contracts() ContractRepository
	Inquiries() InquiryRepository
	Matches() MatchRepository

	// CreateTenantAndContract inserts both rows as one indivisible unit.
	// On error neither row exists.
	CreateTenantAndContract(ctx context.Context, tenant *Tenant, contract *Contract) error

	// RollbackTenantAndContract deletes a tenant and contract created together,
	// as one unit. Missing rows are not an error.
	RollbackTenantAndContract(ctx context.Context, tenantID, contractID uuid.UUID) error
}
