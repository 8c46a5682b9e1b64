package leasing

import "github.com/estate/backend/internal/domain/shared"

// Validation codes raised before any write
const (
	CodeInvalidTenantName = "INVALID_TENANT_NAME"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeMissingProperty   = "MISSING_PROPERTY"
	CodeMissingDates      = "MISSING_DATES"
	CodeInvalidDateRange  = "INVALID_DATE_RANGE"
	CodeInvalidRent       = "INVALID_RENT"
	CodeInvalidLeadDays   = "INVALID_REMINDER_LEAD_DAYS"
	CodeInvalidBudget     = "INVALID_BUDGET"
	CodeInvalidStatus     = "INVALID_STATUS"

	// CodeActiveContractConflict marks a second Active contract for a property.
	CodeActiveContractConflict = "ACTIVE_CONTRACT_CONFLICT"
)

var (
	// ErrActiveContractConflict is returned when a property already has an Active contract.
	ErrActiveContractConflict = shared.NewDomainError(CodeActiveContractConflict, "Property already has an active contract")

	// ErrTenantHasActiveContract is returned when deleting a tenant that still holds an Active contract.
	ErrTenantHasActiveContract = shared.NewDomainError(shared.CodeInvalidState, "Tenant has an active contract and cannot be deleted")

	// ErrInvalidDateRange is returned when a lease does not end after it starts.
	ErrInvalidDateRange = shared.NewDomainError(CodeInvalidDateRange, "Lease end date must be after start date")

	// ErrInvalidLeadDays is returned for a negative reminder lead time.
	ErrInvalidLeadDays = shared.NewDomainError(CodeInvalidLeadDays, "Reminder lead days cannot be negative")

	ErrTenantNotFound   = shared.NewDomainError(shared.CodeNotFound, "Tenant not found")
	ErrPropertyNotFound = shared.NewDomainError(shared.CodeNotFound, "Property not found")
	ErrContractNotFound = shared.NewDomainError(shared.CodeNotFound, "Contract not found")
	ErrInquiryNotFound  = shared.NewDomainError(shared.CodeNotFound, "Inquiry not found")
	ErrMatchNotFound    = shared.NewDomainError(shared.CodeNotFound, "Match not found")
)
