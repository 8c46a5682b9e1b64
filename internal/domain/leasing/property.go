package leasing

import (
	"strings"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyStatus represents the occupancy status of a property
type PropertyStatus string

const (
	PropertyStatusEmpty    PropertyStatus = "empty"
	PropertyStatusOccupied PropertyStatus = "occupied"
	PropertyStatusInactive PropertyStatus = "inactive"
)

// IsValid reports whether s is a known status
func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusEmpty, PropertyStatusOccupied, PropertyStatusInactive:
		return true
	}
	return false
}

// ListingType distinguishes rentals from sales. Inquiries use the same values.
type ListingType string

const (
	ListingRental ListingType = "rental"
	ListingSale   ListingType = "sale"
)

// IsValid reports whether t is a known listing type
func (t ListingType) IsValid() bool {
	return t == ListingRental || t == ListingSale
}

// Property is a unit that can be leased or sold
type Property struct {
	shared.BaseEntity
	OwnerID     uuid.UUID
	Title       string
	Address     string
	City        *string
	District    *string
	ListingType ListingType
	Status      PropertyStatus
	RentAmount  *decimal.Decimal
	SalePrice   *decimal.Decimal
}

// IsAvailable reports whether the property can currently be offered for its listing type
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusEmpty && p.ListingType.IsValid()
}

// PriceFor returns the numeric field compared against an inquiry budget of the given type
func (p *Property) PriceFor(t ListingType) *decimal.Decimal {
	switch t {
	case ListingRental:
		return p.RentAmount
	case ListingSale:
		return p.SalePrice
	}
	return nil
}

// PropertyDraft carries the editable fields of a property
type PropertyDraft struct {
	OwnerID     uuid.UUID
	Title       string
	Address     string
	City        *string
	District    *string
	ListingType ListingType
	Status      PropertyStatus
	RentAmount  *decimal.Decimal
	SalePrice   *decimal.Decimal
}

// Validate checks the draft without touching any store
func (d PropertyDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Property title cannot be empty")
	}
	if !d.ListingType.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Listing type must be rental or sale")
	}
	if d.Status != "" && !d.Status.IsValid() {
		return shared.NewDomainError(CodeInvalidStatus, "Unknown property status")
	}
	if d.RentAmount != nil && d.RentAmount.IsNegative() || d.SalePrice != nil && d.SalePrice.IsNegative() {
		return shared.NewDomainError(CodeInvalidRent, "Prices cannot be negative")
	}
	return nil
}

// NewProperty builds a property from a draft; status defaults to Empty
func NewProperty(d PropertyDraft) (*Property, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	p := &Property{BaseEntity: shared.NewBaseEntity()}
	p.apply(d)
	return p, nil
}

// Edit replaces the editable fields with d
func (p *Property) Edit(d PropertyDraft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	p.apply(d)
	p.Touch()
	return nil
}

func (p *Property) apply(d PropertyDraft) {
	status := d.Status
	if status == "" {
		status = PropertyStatusEmpty
	}
	p.OwnerID = d.OwnerID
	p.Title = strings.TrimSpace(d.Title)
	p.Address = d.Address
	p.City = d.City
	p.District = d.District
	p.ListingType = d.ListingType
	p.Status = status
	p.RentAmount = d.RentAmount
	p.SalePrice = d.SalePrice
}
