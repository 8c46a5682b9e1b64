package leasing

import (
	"errors"
	"testing"
	"time"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLease() LeaseDraft {
	return LeaseDraft{
		PropertyID: uuid.New(),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		RentAmount: decimal.NewFromInt(18000),
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de.Code
}

func TestNewContract(t *testing.T) {
	tenantID := uuid.New()

	t.Run("applies defaults", func(t *testing.T) {
		c, err := NewContract(tenantID, validLease(), 90)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, tenantID, c.TenantID)
		assert.Equal(t, ContractStatusActive, c.Status)
		assert.True(t, c.ReminderEnabled)
		assert.Equal(t, 90, c.ReminderLeadDays)
		assert.False(t, c.ReminderContacted)
		assert.Nil(t, c.DocumentPath)
	})

	t.Run("explicit reminder settings win over defaults", func(t *testing.T) {
		d := validLease()
		off := false
		lead := 30
		d.ReminderEnabled = &off
		d.ReminderLeadDays = &lead

		c, err := NewContract(tenantID, d, 90)
		require.NoError(t, err)
		assert.False(t, c.ReminderEnabled)
		assert.Equal(t, 30, c.ReminderLeadDays)
	})

	t.Run("rejects end before or equal to start", func(t *testing.T) {
		d := validLease()
		d.EndDate = d.StartDate
		_, err := NewContract(tenantID, d, 90)
		assert.Equal(t, CodeInvalidDateRange, domainCode(t, err))

		d.EndDate = d.StartDate.AddDate(0, 0, -1)
		_, err = NewContract(tenantID, d, 90)
		assert.Equal(t, CodeInvalidDateRange, domainCode(t, err))
	})

	t.Run("rejects missing property and dates", func(t *testing.T) {
		d := validLease()
		d.PropertyID = uuid.Nil
		_, err := NewContract(tenantID, d, 90)
		assert.Equal(t, CodeMissingProperty, domainCode(t, err))

		d = validLease()
		d.EndDate = time.Time{}
		_, err = NewContract(tenantID, d, 90)
		assert.Equal(t, CodeMissingDates, domainCode(t, err))
	})

	t.Run("rejects negative lead days", func(t *testing.T) {
		d := validLease()
		lead := -1
		d.ReminderLeadDays = &lead
		_, err := NewContract(tenantID, d, 90)
		assert.Equal(t, CodeInvalidLeadDays, domainCode(t, err))
	})
}

func TestContract_Reschedule(t *testing.T) {
	c, err := NewContract(uuid.New(), validLease(), 90)
	require.NoError(t, err)

	err = c.Reschedule(c.EndDate, c.StartDate)
	assert.Equal(t, CodeInvalidDateRange, domainCode(t, err))
	assert.True(t, c.EndDate.After(c.StartDate), "failed reschedule must not change dates")

	newEnd := c.EndDate.AddDate(1, 0, 0)
	require.NoError(t, c.Reschedule(c.StartDate, newEnd))
	assert.Equal(t, newEnd, c.EndDate)
}

func TestContract_Snooze(t *testing.T) {
	c, err := NewContract(uuid.New(), validLease(), 90)
	require.NoError(t, err)
	end := c.EndDate

	require.NoError(t, c.Snooze(30))
	assert.Equal(t, 60, c.ReminderLeadDays)
	assert.Equal(t, end, c.EndDate)

	require.NoError(t, c.Snooze(100))
	assert.Equal(t, 0, c.ReminderLeadDays)

	assert.Error(t, c.Snooze(0))
}

func TestTenantDraft_Validate(t *testing.T) {
	assert.NoError(t, TenantDraft{Name: "Ahmet Kaya"}.Validate())
	assert.NoError(t, TenantDraft{Name: "Ahmet Kaya", Email: "ahmet@example.com"}.Validate())
	assert.Equal(t, CodeInvalidTenantName, domainCode(t, TenantDraft{Name: "   "}.Validate()))
	assert.Equal(t, CodeInvalidEmail, domainCode(t, TenantDraft{Name: "A", Email: "not-an-email"}.Validate()))
}
