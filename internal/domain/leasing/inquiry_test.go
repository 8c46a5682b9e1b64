package leasing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInquiry(t *testing.T) {
	t.Run("creates active inquiry", func(t *testing.T) {
		inq, err := NewInquiry(InquiryDraft{RequesterName: "Elif", Type: ListingRental, MaxRentBudget: decPtr(20000)})
		require.NoError(t, err)
		assert.Equal(t, InquiryStatusActive, inq.Status)

		min, max := inq.Budget()
		assert.Nil(t, min)
		assert.True(t, max.Equal(*decPtr(20000)))
	})

	t.Run("rejects inverted budget", func(t *testing.T) {
		_, err := NewInquiry(InquiryDraft{RequesterName: "Elif", Type: ListingRental,
			MinRentBudget: decPtr(30000), MaxRentBudget: decPtr(20000)})
		assert.Equal(t, CodeInvalidBudget, domainCode(t, err))
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewInquiry(InquiryDraft{RequesterName: "Elif", Type: "lease"})
		assert.Error(t, err)
	})
}

func TestInquiry_TransitionTo(t *testing.T) {
	inq := &Inquiry{Status: InquiryStatusActive}

	require.NoError(t, inq.TransitionTo(InquiryStatusMatched))
	assert.Error(t, inq.TransitionTo(InquiryStatusMatched))
	require.NoError(t, inq.TransitionTo(InquiryStatusContacted))
	require.NoError(t, inq.TransitionTo(InquiryStatusClosed))

	assert.Error(t, inq.TransitionTo(InquiryStatusContacted), "closed is terminal")
	assert.Error(t, inq.TransitionTo(InquiryStatusClosed))
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []InquiryStatus{InquiryStatusActive}, TransitionSources(InquiryStatusMatched))
	assert.Equal(t, []InquiryStatus{InquiryStatusActive, InquiryStatusMatched}, TransitionSources(InquiryStatusContacted))
	assert.Equal(t, []InquiryStatus{InquiryStatusActive, InquiryStatusMatched, InquiryStatusContacted}, TransitionSources(InquiryStatusClosed))
	assert.Empty(t, TransitionSources(InquiryStatusActive))
	assert.NotContains(t, TransitionSources(InquiryStatusClosed), InquiryStatusClosed, "closed is terminal")
}
