package models

import (
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Constraint names shared with the SQL migrations. Error translation keys on them.
const (
	ActiveContractIndex = "idx_contracts_one_active_per_property"
	MatchPairIndex      = "idx_matches_inquiry_property"
	ContractDatesCheck  = "chk_contracts_dates"
)

// TenantModel is the persistence model for the Tenant domain entity.
type TenantModel struct {
	BaseModel
	Name       string `gorm:"type:varchar(200);not null"`
	Phone      string `gorm:"type:varchar(50)"`
	Email      string `gorm:"type:varchar(200);index"`
	NationalID string `gorm:"type:varchar(50)"`
	Note       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *leasing.Tenant {
	return &leasing.Tenant{
		BaseEntity: m.entity(),
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		NationalID: m.NationalID,
		Note:       m.Note,
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t *leasing.Tenant) *TenantModel {
	m := &TenantModel{
		Name:       t.Name,
		Phone:      t.Phone,
		Email:      t.Email,
		NationalID: t.NationalID,
		Note:       t.Note,
	}
	m.BaseModel = baseFrom(t.BaseEntity)
	return m
}

// PropertyModel is the persistence model for the Property domain entity.
type PropertyModel struct {
	BaseModel
	OwnerID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Title       string                 `gorm:"type:varchar(200);not null"`
	Address     string                 `gorm:"type:text"`
	City        *string                `gorm:"type:varchar(100)"`
	District    *string                `gorm:"type:varchar(100)"`
	ListingType leasing.ListingType    `gorm:"type:varchar(20);not null;index:idx_properties_availability,priority:1"`
	Status      leasing.PropertyStatus `gorm:"type:varchar(20);not null;default:'empty';index:idx_properties_availability,priority:2"`
	RentAmount  decimal.NullDecimal    `gorm:"type:decimal(14,2)"`
	SalePrice   decimal.NullDecimal    `gorm:"type:decimal(16,2)"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property.
func (m *PropertyModel) ToDomain() *leasing.Property {
	return &leasing.Property{
		BaseEntity:  m.entity(),
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Address:     m.Address,
		City:        m.City,
		District:    m.District,
		ListingType: m.ListingType,
		Status:      m.Status,
		RentAmount:  fromNull(m.RentAmount),
		SalePrice:   fromNull(m.SalePrice),
	}
}

// PropertyModelFromDomain creates a persistence model from a domain Property.
func PropertyModelFromDomain(p *leasing.Property) *PropertyModel {
	m := &PropertyModel{
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Address:     p.Address,
		City:        p.City,
		District:    p.District,
		ListingType: p.ListingType,
		Status:      p.Status,
		RentAmount:  toNull(p.RentAmount),
		SalePrice:   toNull(p.SalePrice),
	}
	m.BaseModel = baseFrom(p.BaseEntity)
	return m
}

// ContractModel is the persistence model for the Contract domain entity.
// At most one row per property may have status 'active'.
type ContractModel struct {
	BaseModel
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	PropertyID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_contracts_one_active_per_property,where:status = 'active'"`
	StartDate  time.Time              `gorm:"type:date;not null"`
	EndDate    time.Time              `gorm:"type:date;not null;check:chk_contracts_dates,end_date > start_date"`
	RentAmount decimal.Decimal        `gorm:"type:decimal(14,2);not null"`
	Status     leasing.ContractStatus `gorm:"type:varchar(20);not null;default:'active';index"`

	ReminderEnabled   bool                `gorm:"not null"`
	ReminderLeadDays  int                 `gorm:"not null"`
	ReminderContacted bool                `gorm:"not null;default:false"`
	ExpectedNewRent   decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	ReminderNotes     string              `gorm:"type:text"`
	DocumentPath      *string             `gorm:"type:varchar(500)"`

	Tenant   *TenantModel   `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	Property *PropertyModel `gorm:"foreignKey:PropertyID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *leasing.Contract {
	return &leasing.Contract{
		BaseEntity:        m.entity(),
		TenantID:          m.TenantID,
		PropertyID:        m.PropertyID,
		StartDate:         dateOnly(m.StartDate),
		EndDate:           dateOnly(m.EndDate),
		RentAmount:        m.RentAmount,
		Status:            m.Status,
		ReminderEnabled:   m.ReminderEnabled,
		ReminderLeadDays:  m.ReminderLeadDays,
		ReminderContacted: m.ReminderContacted,
		ExpectedNewRent:   fromNull(m.ExpectedNewRent),
		ReminderNotes:     m.ReminderNotes,
		DocumentPath:      m.DocumentPath,
	}
}

// ContractModelFromDomain creates a persistence model from a domain Contract.
func ContractModelFromDomain(c *leasing.Contract) *ContractModel {
	m := &ContractModel{
		TenantID:          c.TenantID,
		PropertyID:        c.PropertyID,
		StartDate:         dateOnly(c.StartDate),
		EndDate:           dateOnly(c.EndDate),
		RentAmount:        c.RentAmount,
		Status:            c.Status,
		ReminderEnabled:   c.ReminderEnabled,
		ReminderLeadDays:  c.ReminderLeadDays,
		ReminderContacted: c.ReminderContacted,
		ExpectedNewRent:   toNull(c.ExpectedNewRent),
		ReminderNotes:     c.ReminderNotes,
		DocumentPath:      c.DocumentPath,
	}
	m.BaseModel = baseFrom(c.BaseEntity)
	return m
}

// InquiryModel is the persistence model for the Inquiry domain entity.
type InquiryModel struct {
	BaseModel
	RequesterName     string                `gorm:"type:varchar(200);not null"`
	Phone             string                `gorm:"type:varchar(50)"`
	Email             string                `gorm:"type:varchar(200)"`
	Type              leasing.ListingType   `gorm:"type:varchar(20);not null;index:idx_inquiries_open,priority:1"`
	PreferredCity     *string               `gorm:"type:varchar(100)"`
	PreferredDistrict *string               `gorm:"type:varchar(100)"`
	MinRentBudget     decimal.NullDecimal   `gorm:"type:decimal(14,2)"`
	MaxRentBudget     decimal.NullDecimal   `gorm:"type:decimal(14,2)"`
	MinSaleBudget     decimal.NullDecimal   `gorm:"type:decimal(16,2)"`
	MaxSaleBudget     decimal.NullDecimal   `gorm:"type:decimal(16,2)"`
	Status            leasing.InquiryStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_inquiries_open,priority:2"`
	Notes             string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InquiryModel) TableName() string {
	return "inquiries"
}

// ToDomain converts the persistence model to a domain Inquiry.
func (m *InquiryModel) ToDomain() *leasing.Inquiry {
	return &leasing.Inquiry{
		BaseEntity:        m.entity(),
		RequesterName:     m.RequesterName,
		Phone:             m.Phone,
		Email:             m.Email,
		Type:              m.Type,
		PreferredCity:     m.PreferredCity,
		PreferredDistrict: m.PreferredDistrict,
		MinRentBudget:     fromNull(m.MinRentBudget),
		MaxRentBudget:     fromNull(m.MaxRentBudget),
		MinSaleBudget:     fromNull(m.MinSaleBudget),
		MaxSaleBudget:     fromNull(m.MaxSaleBudget),
		Status:            m.Status,
		Notes:             m.Notes,
	}
}

// InquiryModelFromDomain creates a persistence model from a domain Inquiry.
func InquiryModelFromDomain(i *leasing.Inquiry) *InquiryModel {
	m := &InquiryModel{
		RequesterName:     i.RequesterName,
		Phone:             i.Phone,
		Email:             i.Email,
		Type:              i.Type,
		PreferredCity:     i.PreferredCity,
		PreferredDistrict: i.PreferredDistrict,
		MinRentBudget:     toNull(i.MinRentBudget),
		MaxRentBudget:     toNull(i.MaxRentBudget),
		MinSaleBudget:     toNull(i.MinSaleBudget),
		MaxSaleBudget:     toNull(i.MaxSaleBudget),
		Status:            i.Status,
		Notes:             i.Notes,
	}
	m.BaseModel = baseFrom(i.BaseEntity)
	return m
}

// MatchModel is the persistence model for a Match. The (inquiry, property)
// pair is unique.
type MatchModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	InquiryID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_inquiry_property,priority:1"`
	PropertyID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_inquiry_property,priority:2;index"`
	MatchedAt        time.Time `gorm:"not null"`
	NotificationSent bool      `gorm:"not null;default:false"`
	Contacted        bool      `gorm:"not null;default:false"`

	Inquiry  *InquiryModel  `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"`
	Property *PropertyModel `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (MatchModel) TableName() string {
	return "matches"
}

// ToDomain converts the persistence model to a domain Match.
func (m *MatchModel) ToDomain() *leasing.Match {
	return &leasing.Match{
		ID:               m.ID,
		InquiryID:        m.InquiryID,
		PropertyID:       m.PropertyID,
		MatchedAt:        m.MatchedAt.UTC(),
		NotificationSent: m.NotificationSent,
		Contacted:        m.Contacted,
	}
}

// MatchModelFromDomain creates a persistence model from a domain Match.
func MatchModelFromDomain(m *leasing.Match) *MatchModel {
	return &MatchModel{
		ID:               m.ID,
		InquiryID:        m.InquiryID,
		PropertyID:       m.PropertyID,
		MatchedAt:        m.MatchedAt,
		NotificationSent: m.NotificationSent,
		Contacted:        m.Contacted,
	}
}

// ReminderSettingsColumns maps reminder settings to their contract columns
func ReminderSettingsColumns(s leasing.ReminderSettings) map[string]any {
	return map[string]any{
		"reminder_enabled":   s.Enabled,
		"reminder_lead_days": s.LeadDays,
		"expected_new_rent":  toNull(s.ExpectedNewRent),
		"reminder_notes":     s.Notes,
	}
}

// DateColumns maps lease dates to their contract columns
func DateColumns(start, end time.Time) map[string]any {
	return map[string]any{
		"start_date": dateOnly(start),
		"end_date":   dateOnly(end),
	}
}

// AllModels lists every leasing model in dependency order for AutoMigrate.
func AllModels() []any {
	return []any{
		&TenantModel{},
		&PropertyModel{},
		&ContractModel{},
		&InquiryModel{},
		&MatchModel{},
	}
}

func toNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNull(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// dateOnly drops the clock and location so a DATE column reads back equal to what was written.
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
