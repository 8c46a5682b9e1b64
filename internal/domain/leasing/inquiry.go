package leasing

import (
	"strings"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InquiryStatus represents where an inquiry is in its lifecycle
type InquiryStatus string

const (
	InquiryStatusActive    InquiryStatus = "active"
	InquiryStatusMatched   InquiryStatus = "matched"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusClosed    InquiryStatus = "closed"
)

// Inquiry is a prospective renter's or buyer's stated requirements
type Inquiry struct {
	shared.BaseEntity
	RequesterName     string
	Phone             string
	Email             string
	Type              ListingType
	PreferredCity     *string
	PreferredDistrict *string
	MinRentBudget     *decimal.Decimal
	MaxRentBudget     *decimal.Decimal
	MinSaleBudget     *decimal.Decimal
	MaxSaleBudget     *decimal.Decimal
	Status            InquiryStatus
	Notes             string
}

// InquiryDraft carries the fields of a new inquiry
type InquiryDraft struct {
	RequesterName     string
	Phone             string
	Email             string
	Type              ListingType
	PreferredCity     *string
	PreferredDistrict *string
	MinRentBudget     *decimal.Decimal
	MaxRentBudget     *decimal.Decimal
	MinSaleBudget     *decimal.Decimal
	MaxSaleBudget     *decimal.Decimal
	Notes             string
}

// NewInquiry validates d and returns an active inquiry
func NewInquiry(d InquiryDraft) (*Inquiry, error) {
	if strings.TrimSpace(d.RequesterName) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Requester name cannot be empty")
	}
	if !d.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inquiry type must be rental or sale")
	}
	if d.Email != "" {
		if err := validateEmail(d.Email); err != nil {
			return nil, err
		}
	}
	if err := validateBounds(d.MinRentBudget, d.MaxRentBudget); err != nil {
		return nil, err
	}
	if err := validateBounds(d.MinSaleBudget, d.MaxSaleBudget); err != nil {
		return nil, err
	}

	return &Inquiry{
		BaseEntity:        shared.NewBaseEntity(),
		RequesterName:     strings.TrimSpace(d.RequesterName),
		Phone:             d.Phone,
		Email:             d.Email,
		Type:              d.Type,
		PreferredCity:     d.PreferredCity,
		PreferredDistrict: d.PreferredDistrict,
		MinRentBudget:     d.MinRentBudget,
		MaxRentBudget:     d.MaxRentBudget,
		MinSaleBudget:     d.MinSaleBudget,
		MaxSaleBudget:     d.MaxSaleBudget,
		Status:            InquiryStatusActive,
		Notes:             d.Notes,
	}, nil
}

func validateBounds(min, max *decimal.Decimal) error {
	if min != nil && min.IsNegative() || max != nil && max.IsNegative() {
		return shared.NewDomainError(CodeInvalidBudget, "Budget bounds cannot be negative")
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		return shared.NewDomainError(CodeInvalidBudget, "Minimum budget cannot exceed maximum budget")
	}
	return nil
}

// Budget returns the bounds that apply to the inquiry's own type
func (i *Inquiry) Budget() (min, max *decimal.Decimal) {
	if i.Type == ListingSale {
		return i.MinSaleBudget, i.MaxSaleBudget
	}
	return i.MinRentBudget, i.MaxRentBudget
}

// IsOpen reports whether the inquiry can still receive matches
func (i *Inquiry) IsOpen() bool {
	return i.Status == InquiryStatusActive
}

// TransitionTo moves the inquiry along its lifecycle.
// active -> matched -> contacted -> closed; closed is terminal.
func (i *Inquiry) TransitionTo(next InquiryStatus) error {
	if !canTransition(i.Status, next) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Inquiry cannot move from "+string(i.Status)+" to "+string(next))
	}
	i.Status = next
	i.Touch()
	return nil
}

// TransitionSources lists the statuses from which next can be reached.
// Stores use it to make a status write conditional on the row's current status.
func TransitionSources(next InquiryStatus) []InquiryStatus {
	out := make([]InquiryStatus, 0, 3)
	for _, from := range []InquiryStatus{InquiryStatusActive, InquiryStatusMatched, InquiryStatusContacted, InquiryStatusClosed} {
		if canTransition(from, next) {
			out = append(out, from)
		}
	}
	return out
}

func canTransition(from, to InquiryStatus) bool {
	switch to {
	case InquiryStatusMatched:
		return from == InquiryStatusActive
	case InquiryStatusContacted:
		return from == InquiryStatusActive || from == InquiryStatusMatched
	case InquiryStatusClosed:
		return from != InquiryStatusClosed
	}
	return false
}
