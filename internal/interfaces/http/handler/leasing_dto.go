package handler

import (
	"time"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantRequest carries the tenant half of a provisioning request
type TenantRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Phone      string `json:"phone" binding:"max=50"`
	Email      string `json:"email" binding:"omitempty,email,max=200"`
	NationalID string `json:"national_id" binding:"max=50"`
	Note       string `json:"note"`
}

func (r TenantRequest) draft() leasing.TenantDraft {
	return leasing.TenantDraft{
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		NationalID: r.NationalID,
		Note:       r.Note,
	}
}

// LeaseRequest carries the lease half of a provisioning request
type LeaseRequest struct {
	PropertyID       string           `json:"property_id" binding:"required,uuid"`
	StartDate        string           `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate          string           `json:"end_date" binding:"required,datetime=2006-01-02"`
	RentAmount       decimal.Decimal  `json:"rent_amount"`
	Status           string           `json:"status" binding:"omitempty,oneof=active inactive archived"`
	ReminderEnabled  *bool            `json:"reminder_enabled"`
	ReminderLeadDays *int             `json:"reminder_lead_days" binding:"omitempty,gte=0"`
	ExpectedNewRent  *decimal.Decimal `json:"expected_new_rent"`
	ReminderNotes    string           `json:"reminder_notes"`
}

func (r LeaseRequest) draft() leasing.LeaseDraft {
	return leasing.LeaseDraft{
		PropertyID:       uuid.MustParse(r.PropertyID),
		StartDate:        parseDate(r.StartDate),
		EndDate:          parseDate(r.EndDate),
		RentAmount:       r.RentAmount,
		Status:           leasing.ContractStatus(r.Status),
		ReminderEnabled:  r.ReminderEnabled,
		ReminderLeadDays: r.ReminderLeadDays,
		ExpectedNewRent:  r.ExpectedNewRent,
		ReminderNotes:    r.ReminderNotes,
	}
}

// ProvisionLeaseRequest creates a tenant together with their lease
type ProvisionLeaseRequest struct {
	Tenant TenantRequest `json:"tenant"`
	Lease  LeaseRequest  `json:"lease"`
}

// UpdateLeaseDatesRequest reschedules a lease
type UpdateLeaseDatesRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// DeactivateLeaseRequest ends a lease
type DeactivateLeaseRequest struct {
	Status string `json:"status" binding:"required,oneof=inactive archived"`
}

// PropertyRequest carries the editable fields of a property
type PropertyRequest struct {
	OwnerID     string           `json:"owner_id" binding:"omitempty,uuid"`
	Title       string           `json:"title" binding:"required,max=200"`
	Address     string           `json:"address" binding:"max=500"`
	City        string           `json:"city" binding:"max=100"`
	District    string           `json:"district" binding:"max=100"`
	ListingType string           `json:"listing_type" binding:"required,oneof=rental sale"`
	Status      string           `json:"status" binding:"omitempty,oneof=empty occupied inactive"`
	RentAmount  *decimal.Decimal `json:"rent_amount"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
}

func (r PropertyRequest) draft() leasing.PropertyDraft {
	var owner uuid.UUID
	if r.OwnerID != "" {
		owner = uuid.MustParse(r.OwnerID)
	}
	return leasing.PropertyDraft{
		OwnerID:     owner,
		Title:       r.Title,
		Address:     r.Address,
		City:        optionalString(r.City),
		District:    optionalString(r.District),
		ListingType: leasing.ListingType(r.ListingType),
		Status:      leasing.PropertyStatus(r.Status),
		RentAmount:  r.RentAmount,
		SalePrice:   r.SalePrice,
	}
}

// PropertyStatusRequest changes the status of a property
type PropertyStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=empty occupied inactive"`
}

// InquiryRequest files a new inquiry
type InquiryRequest struct {
	RequesterName     string           `json:"requester_name" binding:"required,max=200"`
	Phone             string           `json:"phone" binding:"max=50"`
	Email             string           `json:"email" binding:"omitempty,email,max=200"`
	Type              string           `json:"type" binding:"required,oneof=rental sale"`
	PreferredCity     string           `json:"preferred_city" binding:"max=100"`
	PreferredDistrict string           `json:"preferred_district" binding:"max=100"`
	MinRentBudget     *decimal.Decimal `json:"min_rent_budget"`
	MaxRentBudget     *decimal.Decimal `json:"max_rent_budget"`
	MinSaleBudget     *decimal.Decimal `json:"min_sale_budget"`
	MaxSaleBudget     *decimal.Decimal `json:"max_sale_budget"`
	Notes             string           `json:"notes"`
}

func (r InquiryRequest) draft() leasing.InquiryDraft {
	return leasing.InquiryDraft{
		RequesterName:     r.RequesterName,
		Phone:             r.Phone,
		Email:             r.Email,
		Type:              leasing.ListingType(r.Type),
		PreferredCity:     optionalString(r.PreferredCity),
		PreferredDistrict: optionalString(r.PreferredDistrict),
		MinRentBudget:     r.MinRentBudget,
		MaxRentBudget:     r.MaxRentBudget,
		MinSaleBudget:     r.MinSaleBudget,
		MaxSaleBudget:     r.MaxSaleBudget,
		Notes:             r.Notes,
	}
}

// ReminderSettingsRequest replaces the reminder settings of a lease
type ReminderSettingsRequest struct {
	Enabled         *bool            `json:"reminder_enabled" binding:"required"`
	LeadDays        *int             `json:"reminder_lead_days" binding:"required,gte=0"`
	ExpectedNewRent *decimal.Decimal `json:"expected_new_rent"`
	Notes           string           `json:"reminder_notes"`
}

// SnoozeRequest pushes a reminder later
type SnoozeRequest struct {
	Days int `json:"days" binding:"required,gt=0"`
}

// TenantResponse is the API view of a tenant
type TenantResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toTenantResponse(t *leasing.Tenant) TenantResponse {
	return TenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		Phone:      t.Phone,
		Email:      t.Email,
		NationalID: t.NationalID,
		Note:       t.Note,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// ContractResponse is the API view of a lease
type ContractResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	PropertyID        uuid.UUID        `json:"property_id"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	RentAmount        decimal.Decimal  `json:"rent_amount"`
	Status            string           `json:"status"`
	ReminderEnabled   bool             `json:"reminder_enabled"`
	ReminderLeadDays  int              `json:"reminder_lead_days"`
	ReminderContacted bool             `json:"reminder_contacted"`
	ExpectedNewRent   *decimal.Decimal `json:"expected_new_rent,omitempty"`
	ReminderNotes     string           `json:"reminder_notes,omitempty"`
	DocumentPath      string           `json:"document_path,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toContractResponse(c *leasing.Contract) ContractResponse {
	return ContractResponse{
		ID:                c.ID,
		TenantID:          c.TenantID,
		PropertyID:        c.PropertyID,
		StartDate:         formatDate(c.StartDate),
		EndDate:           formatDate(c.EndDate),
		RentAmount:        c.RentAmount,
		Status:            string(c.Status),
		ReminderEnabled:   c.ReminderEnabled,
		ReminderLeadDays:  c.ReminderLeadDays,
		ReminderContacted: c.ReminderContacted,
		ExpectedNewRent:   copyDecimal(c.ExpectedNewRent),
		ReminderNotes:     c.ReminderNotes,
		DocumentPath:      derefString(c.DocumentPath),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func toContractResponses(contracts []leasing.Contract) []ContractResponse {
	out := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, toContractResponse(&contracts[i]))
	}
	return out
}

// ProvisionResponse is the committed tenant and lease
type ProvisionResponse struct {
	Tenant      TenantResponse   `json:"tenant"`
	Contract    ContractResponse `json:"contract"`
	DocumentURL string           `json:"document_url,omitempty"`
}

func toProvisionResponse(r *appleasing.ProvisionResult) ProvisionResponse {
	return ProvisionResponse{
		Tenant:      toTenantResponse(r.Tenant),
		Contract:    toContractResponse(r.Contract),
		DocumentURL: r.DocumentURL,
	}
}

// PropertyResponse is the API view of a property
type PropertyResponse struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     *uuid.UUID       `json:"owner_id,omitempty"`
	Title       string           `json:"title"`
	Address     string           `json:"address,omitempty"`
	City        string           `json:"city,omitempty"`
	District    string           `json:"district,omitempty"`
	ListingType string           `json:"listing_type"`
	Status      string           `json:"status"`
	RentAmount  *decimal.Decimal `json:"rent_amount,omitempty"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toPropertyResponse(p *leasing.Property) PropertyResponse {
	resp := PropertyResponse{
		ID:          p.ID,
		Title:       p.Title,
		Address:     p.Address,
		City:        derefString(p.City),
		District:    derefString(p.District),
		ListingType: string(p.ListingType),
		Status:      string(p.Status),
		RentAmount:  copyDecimal(p.RentAmount),
		SalePrice:   copyDecimal(p.SalePrice),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.OwnerID != uuid.Nil {
		owner := p.OwnerID
		resp.OwnerID = &owner
	}
	return resp
}

// InquiryResponse is the API view of an inquiry
type InquiryResponse struct {
	ID                uuid.UUID        `json:"id"`
	RequesterName     string           `json:"requester_name"`
	Phone             string           `json:"phone,omitempty"`
	Email             string           `json:"email,omitempty"`
	Type              string           `json:"type"`
	PreferredCity     string           `json:"preferred_city,omitempty"`
	PreferredDistrict string           `json:"preferred_district,omitempty"`
	MinRentBudget     *decimal.Decimal `json:"min_rent_budget,omitempty"`
	MaxRentBudget     *decimal.Decimal `json:"max_rent_budget,omitempty"`
	MinSaleBudget     *decimal.Decimal `json:"min_sale_budget,omitempty"`
	MaxSaleBudget     *decimal.Decimal `json:"max_sale_budget,omitempty"`
	Status            string           `json:"status"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toInquiryResponse(i *leasing.Inquiry) InquiryResponse {
	return InquiryResponse{
		ID:                i.ID,
		RequesterName:     i.RequesterName,
		Phone:             i.Phone,
		Email:             i.Email,
		Type:              string(i.Type),
		PreferredCity:     derefString(i.PreferredCity),
		PreferredDistrict: derefString(i.PreferredDistrict),
		MinRentBudget:     copyDecimal(i.MinRentBudget),
		MaxRentBudget:     copyDecimal(i.MaxRentBudget),
		MinSaleBudget:     copyDecimal(i.MinSaleBudget),
		MaxSaleBudget:     copyDecimal(i.MaxSaleBudget),
		Status:            string(i.Status),
		Notes:             i.Notes,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// MatchResponse is the API view of a match
type MatchResponse struct {
	ID               uuid.UUID `json:"id"`
	InquiryID        uuid.UUID `json:"inquiry_id"`
	PropertyID       uuid.UUID `json:"property_id"`
	MatchedAt        time.Time `json:"matched_at"`
	NotificationSent bool      `json:"notification_sent"`
	Contacted        bool      `json:"contacted"`
}

func toMatchResponse(m *leasing.Match) MatchResponse {
	return MatchResponse{
		ID:               m.ID,
		InquiryID:        m.InquiryID,
		PropertyID:       m.PropertyID,
		MatchedAt:        m.MatchedAt,
		NotificationSent: m.NotificationSent,
		Contacted:        m.Contacted,
	}
}

func toMatchResponses(matches []leasing.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for i := range matches {
		out = append(out, toMatchResponse(&matches[i]))
	}
	return out
}

// MatchFailureResponse is one pair a matching run could not record
type MatchFailureResponse struct {
	InquiryID  uuid.UUID `json:"inquiry_id"`
	PropertyID uuid.UUID `json:"property_id"`
	Error      string    `json:"error"`
}

// MatchRunResponse summarizes a matching run
type MatchRunResponse struct {
	Evaluated int                    `json:"evaluated"`
	Created   []MatchResponse        `json:"created"`
	Existing  int                    `json:"existing"`
	Rejected  map[string]int         `json:"rejected,omitempty"`
	Failures  []MatchFailureResponse `json:"failures,omitempty"`
}

func toMatchRunResponse(r *appleasing.MatchResult) *MatchRunResponse {
	if r == nil {
		return nil
	}
	resp := &MatchRunResponse{
		Evaluated: r.Evaluated,
		Created:   toMatchResponses(r.Created),
		Existing:  r.Existing,
	}
	if len(r.Rejected) > 0 {
		resp.Rejected = make(map[string]int, len(r.Rejected))
		for reason, n := range r.Rejected {
			resp.Rejected[string(reason)] = n
		}
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, MatchFailureResponse{
			InquiryID:  f.InquiryID,
			PropertyID: f.PropertyID,
			Error:      f.Err.Error(),
		})
	}
	return resp
}

// PropertySaveResponse is a saved property and the matching run it triggered
type PropertySaveResponse struct {
	Property PropertyResponse  `json:"property"`
	Matches  *MatchRunResponse `json:"matches,omitempty"`
}

// InquiryFileResponse is a filed inquiry and the matching run it triggered
type InquiryFileResponse struct {
	Inquiry InquiryResponse   `json:"inquiry"`
	Matches *MatchRunResponse `json:"matches,omitempty"`
}
