package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := NewDomainError(CodeNotFound, "contract not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrConflict))
	})

	t.Run("entity sentinels sharing a code stay distinct", func(t *testing.T) {
		contract := NewDomainError(CodeNotFound, "Contract not found")
		tenant := NewDomainError(CodeNotFound, "Tenant not found")

		assert.False(t, errors.Is(contract, tenant))
		assert.False(t, errors.Is(fmt.Errorf("rollback: %w", tenant), contract))
		assert.True(t, errors.Is(contract, NewDomainError(CodeNotFound, "Contract not found")))
		assert.True(t, errors.Is(contract, ErrNotFound))
		assert.True(t, errors.Is(tenant, ErrNotFound))
	})

	t.Run("class sentinel does not match a specific one", func(t *testing.T) {
		tenant := NewDomainError(CodeNotFound, "Tenant not found")
		assert.False(t, errors.Is(ErrNotFound, tenant))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load contract: %w", NewDomainError(CodeConflict, "dup"))
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("errors.As extracts code", func(t *testing.T) {
		var de *DomainError
		err := fmt.Errorf("wrapped: %w", ErrInvalidState)
		assert.True(t, errors.As(err, &de))
		assert.Equal(t, CodeInvalidState, de.Code)
	})
}
