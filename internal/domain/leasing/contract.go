package leasing

import (
	"time"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the lifecycle state of a lease
type ContractStatus string

const (
	ContractStatusActive   ContractStatus = "active"
	ContractStatusInactive ContractStatus = "inactive"
	ContractStatusArchived ContractStatus = "archived"
)

// IsValid reports whether s is a known status
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusActive, ContractStatusInactive, ContractStatusArchived:
		return true
	}
	return false
}

// DefaultReminderLeadDays is used when neither the draft nor configuration supplies a lead time
const DefaultReminderLeadDays = 90

// Contract is a lease between a tenant and a property
type Contract struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	PropertyID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	RentAmount decimal.Decimal
	Status     ContractStatus

	ReminderEnabled   bool
	ReminderLeadDays  int
	ReminderContacted bool
	ExpectedNewRent   *decimal.Decimal
	ReminderNotes     string

	// DocumentPath is a weak reference into the document store
	DocumentPath *string
}

// LeaseDraft carries the caller-supplied lease fields before the row exists
type LeaseDraft struct {
	PropertyID       uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	RentAmount       decimal.Decimal
	Status           ContractStatus
	ReminderEnabled  *bool
	ReminderLeadDays *int
	ExpectedNewRent  *decimal.Decimal
	ReminderNotes    string
}

// Validate checks the draft without touching any store
func (d LeaseDraft) Validate() error {
	if d.PropertyID == uuid.Nil {
		return shared.NewDomainError(CodeMissingProperty, "Lease must reference a property")
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return shared.NewDomainError(CodeMissingDates, "Lease start and end dates are required")
	}
	if err := ValidateDateRange(d.StartDate, d.EndDate); err != nil {
		return err
	}
	if d.RentAmount.IsNegative() {
		return shared.NewDomainError(CodeInvalidRent, "Rent amount cannot be negative")
	}
	if d.Status != "" && !d.Status.IsValid() {
		return shared.NewDomainError(CodeInvalidStatus, "Unknown contract status")
	}
	if d.ReminderLeadDays != nil && *d.ReminderLeadDays < 0 {
		return ErrInvalidLeadDays
	}
	return nil
}

// ValidateDateRange enforces end_date > start_date on calendar days
func ValidateDateRange(start, end time.Time) error {
	if !DateOf(end).After(DateOf(start)) {
		return ErrInvalidDateRange
	}
	return nil
}

// NewContract builds a contract for tenantID from a validated draft.
// defaultLeadDays applies when the draft leaves the lead time unset.
func NewContract(tenantID uuid.UUID, d LeaseDraft, defaultLeadDays int) (*Contract, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Contract must reference a tenant")
	}

	status := d.Status
	if status == "" {
		status = ContractStatusActive
	}
	enabled := true
	if d.ReminderEnabled != nil {
		enabled = *d.ReminderEnabled
	}
	lead := defaultLeadDays
	if d.ReminderLeadDays != nil {
		lead = *d.ReminderLeadDays
	}
	if lead < 0 {
		lead = DefaultReminderLeadDays
	}

	return &Contract{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		PropertyID:       d.PropertyID,
		StartDate:        DateOf(d.StartDate),
		EndDate:          DateOf(d.EndDate),
		RentAmount:       d.RentAmount,
		Status:           status,
		ReminderEnabled:  enabled,
		ReminderLeadDays: lead,
		ExpectedNewRent:  d.ExpectedNewRent,
		ReminderNotes:    d.ReminderNotes,
	}, nil
}

// IsActive reports whether the contract currently holds its property
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// Reschedule replaces the lease dates, keeping end_date > start_date
func (c *Contract) Reschedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return shared.NewDomainError(CodeMissingDates, "Lease start and end dates are required")
	}
	if err := ValidateDateRange(start, end); err != nil {
		return err
	}
	c.StartDate = DateOf(start)
	c.EndDate = DateOf(end)
	c.Touch()
	return nil
}

// ReminderSettings groups the mutable reminder fields of a contract
type ReminderSettings struct {
	Enabled         bool
	LeadDays        int
	ExpectedNewRent *decimal.Decimal
	Notes           string
}

// Reminder returns the contract's current reminder settings
func (c *Contract) Reminder() ReminderSettings {
	return ReminderSettings{
		Enabled:         c.ReminderEnabled,
		LeadDays:        c.ReminderLeadDays,
		ExpectedNewRent: c.ExpectedNewRent,
		Notes:           c.ReminderNotes,
	}
}

// ApplyReminderSettings validates and applies s
func (c *Contract) ApplyReminderSettings(s ReminderSettings) error {
	if s.LeadDays < 0 {
		return ErrInvalidLeadDays
	}
	c.ReminderEnabled = s.Enabled
	c.ReminderLeadDays = s.LeadDays
	c.ExpectedNewRent = s.ExpectedNewRent
	c.ReminderNotes = s.Notes
	c.Touch()
	return nil
}

// Snooze pushes the reminder date later by days without moving the end date.
// The effective lead time never drops below zero.
func (c *Contract) Snooze(days int) error {
	if days <= 0 {
		return shared.NewDomainError(CodeInvalidLeadDays, "Snooze days must be positive")
	}
	c.ReminderLeadDays -= days
	if c.ReminderLeadDays < 0 {
		c.ReminderLeadDays = 0
	}
	c.Touch()
	return nil
}

// ReminderState computes the renewal reminder state as of today
func (c *Contract) ReminderState(today time.Time) ReminderState {
	return ComputeReminderState(today, c.EndDate, c.ReminderLeadDays, c.ReminderContacted)
}
