package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// class marks the per-code sentinels below, which match any error of their code
	class bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches a class sentinel such as ErrNotFound by code alone, so a
// DomainError built with a custom message still matches it. Any other target
// must carry the same code and message: ErrContractNotFound is not ErrTenantNotFound.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || e.Code != t.Code {
		return false
	}
	return t.class || e.Message == t.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
)

func classError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, class: true}
}

// Common domain errors; each matches every DomainError of its code
var (
	ErrNotFound     = classError(CodeNotFound, "Resource not found")
	ErrInvalidInput = classError(CodeInvalidInput, "Invalid input provided")
	ErrConflict     = classError(CodeConflict, "Resource conflicts with existing state")
	ErrInvalidState = classError(CodeInvalidState, "Operation not allowed in current state")
)
