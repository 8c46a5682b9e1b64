package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationTenant struct {
	Name  string `json:"name" binding:"required,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
}

type validationRequest struct {
	Tenant     validationTenant `json:"tenant"`
	PropertyID string           `json:"property_id" binding:"required,uuid"`
	StartDate  string           `json:"start_date" binding:"required,datetime=2006-01-02"`
	Status     string           `json:"status" binding:"omitempty,oneof=active inactive archived"`
	LeadDays   *int             `json:"reminder_lead_days" binding:"omitempty,gte=0"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	negative := -1
	req := validationRequest{
		Tenant:     validationTenant{Email: "not-an-email"},
		PropertyID: "nope",
		StartDate:  "01/02/2026",
		Status:     "pending",
		LeadDays:   &negative,
	}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	details := ValidationDetails(err)
	got := map[string]string{}
	for _, d := range details {
		got[d.Field] = d.Message
	}

	assert.Equal(t, "This field is required", got["tenant.name"])
	assert.Equal(t, "Invalid email format", got["tenant.email"])
	assert.Equal(t, "Invalid UUID format", got["property_id"])
	assert.Equal(t, "Invalid date, expected 2006-01-02", got["start_date"])
	assert.Equal(t, "Must be one of: active inactive archived", got["status"])
	assert.Equal(t, "Must be greater than or equal to 0", got["reminder_lead_days"])
}

func TestValidationDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
