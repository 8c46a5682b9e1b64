package leasing

import (
	"errors"
	"fmt"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProvisionOutcome states what was left behind by a failed provisioning run
type ProvisionOutcome string

const (
	// OutcomeNothingCommitted means the atomic tenant+contract write did not happen
	OutcomeNothingCommitted ProvisionOutcome = "nothing_committed"
	// OutcomeRolledBack means the rows were written and then removed again
	OutcomeRolledBack ProvisionOutcome = "rolled_back"
	// OutcomeRollbackFailed means the rows may still exist and need manual cleanup
	OutcomeRollbackFailed ProvisionOutcome = "rollback_failed"
)

// Provisioning steps reported in ProvisionError.Step
const (
	StepCreate = "create_tenant_and_contract"
	StepUpload = "upload_document"
	StepAttach = "attach_document"
)

var (
	// ErrDocumentAttachFailed marks a document failure after tenant and contract were committed
	ErrDocumentAttachFailed = shared.NewDomainError("DOCUMENT_ATTACH_FAILED", "Document attach failed, transaction rolled back")

	// ErrRollbackFailed marks a compensation that did not complete
	ErrRollbackFailed = shared.NewDomainError("ROLLBACK_FAILED", "Rollback failed, manual cleanup required")
)

// ProvisionError is returned by ProvisionTenantWithLease for every failure after validation.
// errors.Is reaches the cause, the rollback error and the matching sentinels.
type ProvisionError struct {
	Outcome ProvisionOutcome
	Step    string

	// TenantID and ContractID are set once the first step committed
	TenantID   uuid.UUID
	ContractID uuid.UUID

	Cause       error
	RollbackErr error
}

func (e *ProvisionError) Error() string {
	switch e.Outcome {
	case OutcomeRolledBack:
		return fmt.Sprintf("%s: %s: %v", ErrDocumentAttachFailed.Message, e.Step, e.Cause)
	case OutcomeRollbackFailed:
		return fmt.Sprintf("%s: %s: %v (tenant %s, contract %s): %v",
			ErrRollbackFailed.Message, e.Step, e.Cause, e.TenantID, e.ContractID, e.RollbackErr)
	default:
		return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Cause)
	}
}

// Unwrap exposes the sentinels for the outcome followed by the underlying errors
func (e *ProvisionError) Unwrap() []error {
	errs := make([]error, 0, 4)
	switch e.Outcome {
	case OutcomeRolledBack:
		errs = append(errs, ErrDocumentAttachFailed)
	case OutcomeRollbackFailed:
		errs = append(errs, ErrDocumentAttachFailed, ErrRollbackFailed)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.RollbackErr != nil {
		errs = append(errs, e.RollbackErr)
	}
	return errs
}

// ManualCleanupRequired reports whether an operator has to reconcile the store
func (e *ProvisionError) ManualCleanupRequired() bool {
	return e.Outcome == OutcomeRollbackFailed
}

// AsProvisionError extracts a *ProvisionError from err
func AsProvisionError(err error) (*ProvisionError, bool) {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
