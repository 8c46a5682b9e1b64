package leasing

import (
	"regexp"
	"strings"

	"github.com/estate/backend/internal/domain/shared"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Tenant is a person renting a property
type Tenant struct {
	shared.BaseEntity
	Name       string
	Phone      string
	Email      string
	NationalID string
	Note       string
}

// TenantDraft carries the caller-supplied tenant fields before the row exists
type TenantDraft struct {
	Name       string
	Phone      string
	Email      string
	NationalID string
	Note       string
}

// Validate checks the draft without touching any store
func (d TenantDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return shared.NewDomainError(CodeInvalidTenantName, "Tenant name cannot be empty")
	}
	if len(d.Name) > 200 {
		return shared.NewDomainError(CodeInvalidTenantName, "Tenant name cannot exceed 200 characters")
	}
	if d.Email != "" {
		if err := validateEmail(d.Email); err != nil {
			return err
		}
	}
	return nil
}

// NewTenant builds a tenant with a fresh identity from a validated draft
func NewTenant(d TenantDraft) (*Tenant, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(d.Name),
		Phone:      strings.TrimSpace(d.Phone),
		Email:      strings.TrimSpace(d.Email),
		NationalID: strings.TrimSpace(d.NationalID),
		Note:       d.Note,
	}, nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError(CodeInvalidEmail, "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return shared.NewDomainError(CodeInvalidEmail, "Invalid email format")
	}
	return nil
}
