package leasing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var matchedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, store leasing.RecordStore, opts ...MatchingEngineOption) *MatchingEngine {
	opts = append([]MatchingEngineOption{WithMatchClock(func() time.Time { return matchedAt })}, opts...)
	return NewMatchingEngine(store, zaptest.NewLogger(t), opts...)
}

func inquiryStatus(t *testing.T, store leasing.RecordStore, inq *leasing.Inquiry) leasing.InquiryStatus {
	t.Helper()
	stored, err := store.Inquiries().FindByID(context.Background(), inq.ID)
	require.NoError(t, err)
	return stored.Status
}

func TestMatchProperty_CaseInsensitiveCityWithinBudget(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)

	result, err := newEngine(t, store).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	require.Len(t, result.Created, 1)
	assert.Equal(t, inq.ID, result.Created[0].InquiryID)
	assert.Equal(t, property.ID, result.Created[0].PropertyID)
	assert.Equal(t, matchedAt, result.Created[0].MatchedAt)
	assert.Equal(t, 1, result.Evaluated)
	assert.Equal(t, leasing.InquiryStatusMatched, inquiryStatus(t, store, inq))

	matches, err := store.Matches().FindByInquiry(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMatchProperty_RetriggerKeepsOneMatch(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	engine := newEngine(t, store)

	for i := 0; i < 3; i++ {
		_, err := engine.MatchPropertyAgainstInquiries(context.Background(), property)
		require.NoError(t, err)
	}

	matches, err := store.Matches().FindByProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, inq.ID, matches[0].InquiryID)
}

func TestMatchProperty_ConcurrentTriggersKeepOneMatch(t *testing.T) {
	store := newFaultyStore()
	seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	engine := newEngine(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.MatchPropertyAgainstInquiries(context.Background(), property)
		}()
	}
	wg.Wait()

	_, _, matches := store.Counts()
	assert.Equal(t, 1, matches)
}

func TestMatchProperty_Rejections(t *testing.T) {
	store := newFaultyStore()
	seedInquiry(t, store, func(d *leasing.InquiryDraft) { d.PreferredCity = strPtr("Ankara") })
	seedInquiry(t, store, func(d *leasing.InquiryDraft) { d.PreferredDistrict = strPtr("Besiktas") })
	seedInquiry(t, store, func(d *leasing.InquiryDraft) { d.MaxRentBudget = decPtr(15000) })
	seedInquiry(t, store, func(d *leasing.InquiryDraft) { d.MinRentBudget = decPtr(19000) })
	// Blank preferences are no constraint.
	open := seedInquiry(t, store, func(d *leasing.InquiryDraft) {
		d.PreferredCity = strPtr("   ")
		d.PreferredDistrict = strPtr(" KADIKOY ")
		d.MaxRentBudget = nil
	})
	// Sale inquiries are not candidates for a rental.
	seedInquiry(t, store, func(d *leasing.InquiryDraft) {
		d.Type = leasing.ListingSale
		d.MaxRentBudget = nil
	})
	property := seedProperty(t, store, nil)

	result, err := newEngine(t, store).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Evaluated)
	assert.Equal(t, 1, result.Rejected[leasing.RejectCity])
	assert.Equal(t, 1, result.Rejected[leasing.RejectDistrict])
	assert.Equal(t, 2, result.Rejected[leasing.RejectBudget])
	require.Len(t, result.Created, 1)
	assert.Equal(t, open.ID, result.Created[0].InquiryID)
}

func TestMatchProperty_UnavailablePropertyIsSkipped(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	property := seedProperty(t, store, func(d *leasing.PropertyDraft) { d.Status = leasing.PropertyStatusOccupied })

	result, err := newEngine(t, store).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	assert.Zero(t, result.Evaluated)
	assert.Empty(t, result.Created)
	assert.Equal(t, leasing.InquiryStatusActive, inquiryStatus(t, store, inq))
}

func TestMatchProperty_PropertyWithoutPriceNeverMatchesBudget(t *testing.T) {
	store := newFaultyStore()
	seedInquiry(t, store, nil)
	property := seedProperty(t, store, func(d *leasing.PropertyDraft) { d.RentAmount = nil })

	result, err := newEngine(t, store).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Equal(t, 1, result.Rejected[leasing.RejectBudget])
}

func TestMatchProperty_FailureDoesNotStopRun(t *testing.T) {
	store := newFaultyStore()
	broken := seedInquiry(t, store, nil)
	healthy := seedInquiry(t, store, func(d *leasing.InquiryDraft) { d.RequesterName = "Can Yilmaz" })
	store.failMatchFor = broken.ID
	store.matchErr = errors.New("write timeout")
	property := seedProperty(t, store, nil)

	result, err := newEngine(t, store).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, broken.ID, result.Failures[0].InquiryID)
	assert.ErrorIs(t, result.Err(), store.matchErr)
	require.Len(t, result.Created, 1)
	assert.Equal(t, healthy.ID, result.Created[0].InquiryID)
	assert.Equal(t, leasing.InquiryStatusActive, inquiryStatus(t, store, broken))
	assert.Equal(t, leasing.InquiryStatusMatched, inquiryStatus(t, store, healthy))
}

func TestMatchProperty_ExistingMatchHealsInquiryStatus(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	store.failPromoteFor = inq.ID
	store.promoteErr = errors.New("connection reset")
	engine := newEngine(t, store)

	first, err := engine.MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	require.Len(t, first.Failures, 1)
	require.Len(t, first.Created, 1, "the match row is kept even though promotion failed")
	assert.Equal(t, leasing.InquiryStatusActive, inquiryStatus(t, store, inq))

	store.promoteErr = nil
	second, err := engine.MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, 1, second.Existing)
	assert.Equal(t, leasing.InquiryStatusMatched, inquiryStatus(t, store, inq))

	_, _, matches := store.Counts()
	assert.Equal(t, 1, matches)
}

func TestMatchProperty_InquiryClosedMidRunStaysClosed(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	inquiries := NewInquiryService(store, nil, zaptest.NewLogger(t))
	notifier := &recordingNotifier{}
	store.beforeMatchWrite = func(m *leasing.Match) {
		store.beforeMatchWrite = nil
		_, err := inquiries.Close(context.Background(), m.InquiryID)
		require.NoError(t, err)
	}

	result, err := newEngine(t, store, WithMatchNotifier(notifier)).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)

	assert.Empty(t, result.Failures)
	require.Len(t, result.Created, 1)
	assert.Equal(t, leasing.InquiryStatusClosed, inquiryStatus(t, store, inq))
	assert.Empty(t, notifier.matches, "a closed inquiry is not notified")
}

func TestMatchInquiry_ClosedMidRunIsNotReopened(t *testing.T) {
	store := newFaultyStore()
	inq := seedInquiry(t, store, nil)
	seedProperty(t, store, nil)
	seedProperty(t, store, func(d *leasing.PropertyDraft) { d.Title = "3+1 with garden" })
	store.beforeMatchWrite = func(m *leasing.Match) {
		store.beforeMatchWrite = nil
		_, err := store.Store.Inquiries().TransitionStatus(context.Background(), m.InquiryID,
			leasing.TransitionSources(leasing.InquiryStatusClosed), leasing.InquiryStatusClosed)
		require.NoError(t, err)
	}

	result, err := newEngine(t, store).MatchInquiryAgainstProperties(context.Background(), inq)
	require.NoError(t, err)

	assert.Len(t, result.Created, 2)
	assert.Equal(t, leasing.InquiryStatusClosed, inq.Status)
	assert.Equal(t, leasing.InquiryStatusClosed, inquiryStatus(t, store, inq))
}

func TestMatchProperty_NotifierFlagsNotificationSent(t *testing.T) {
	store := newFaultyStore()
	seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	notifier := &recordingNotifier{}

	result, err := newEngine(t, store, WithMatchNotifier(notifier)).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.True(t, result.Created[0].NotificationSent)
	assert.Equal(t, []uuid.UUID{result.Created[0].ID}, notifier.matches)

	stored, err := store.Matches().FindByID(context.Background(), result.Created[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.NotificationSent)
}

func TestMatchProperty_NotifierFailureKeepsMatch(t *testing.T) {
	store := newFaultyStore()
	seedInquiry(t, store, nil)
	property := seedProperty(t, store, nil)
	notifier := &recordingNotifier{err: errors.New("smtp down")}

	result, err := newEngine(t, store, WithMatchNotifier(notifier)).MatchPropertyAgainstInquiries(context.Background(), property)
	require.NoError(t, err)
	assert.NoError(t, result.Err())

	require.Len(t, result.Created, 1)
	assert.False(t, result.Created[0].NotificationSent)
	stored, err := store.Matches().FindByID(context.Background(), result.Created[0].ID)
	require.NoError(t, err)
	assert.False(t, stored.NotificationSent)
}

func TestMatchInquiry_AgainstAvailableProperties(t *testing.T) {
	store := newFaultyStore()
	cheap := seedProperty(t, store, nil)
	seedProperty(t, store, func(d *leasing.PropertyDraft) { d.RentAmount = decPtr(25000) })
	seedProperty(t, store, func(d *leasing.PropertyDraft) { d.Status = leasing.PropertyStatusOccupied })
	second := seedProperty(t, store, func(d *leasing.PropertyDraft) {
		d.District = nil
		d.RentAmount = decPtr(20000)
	})

	inq, err := leasing.NewInquiry(leasing.InquiryDraft{
		RequesterName: "Elif Demir",
		Type:          leasing.ListingRental,
		PreferredCity: strPtr("ISTANBUL"),
		MaxRentBudget: decPtr(20000),
	})
	require.NoError(t, err)
	require.NoError(t, store.Inquiries().Save(context.Background(), inq))

	result, err := newEngine(t, store).MatchInquiryAgainstProperties(context.Background(), inq)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Evaluated)
	assert.Equal(t, 1, result.Rejected[leasing.RejectBudget])
	require.Len(t, result.Created, 2, "every qualifying property gets a match, not only the first")
	assert.ElementsMatch(t,
		[]uuid.UUID{cheap.ID, second.ID},
		[]uuid.UUID{result.Created[0].PropertyID, result.Created[1].PropertyID},
	)
	assert.Equal(t, leasing.InquiryStatusMatched, inq.Status)
	assert.Equal(t, leasing.InquiryStatusMatched, inquiryStatus(t, store, inq))
}

func TestMatchInquiry_ClosedInquiryIsSkipped(t *testing.T) {
	store := newFaultyStore()
	seedProperty(t, store, nil)
	inq := seedInquiry(t, store, nil)
	require.NoError(t, inq.TransitionTo(leasing.InquiryStatusClosed))

	result, err := newEngine(t, store).MatchInquiryAgainstProperties(context.Background(), inq)
	require.NoError(t, err)
	assert.Zero(t, result.Evaluated)
}

func TestMatchInquiry_SaleBudgetUsesSalePrice(t *testing.T) {
	store := newFaultyStore()
	property := seedProperty(t, store, func(d *leasing.PropertyDraft) {
		d.ListingType = leasing.ListingSale
		d.RentAmount = nil
		price := decimal.RequireFromString("4500000")
		d.SalePrice = &price
	})
	inq := seedInquiry(t, store, func(d *leasing.InquiryDraft) {
		d.Type = leasing.ListingSale
		d.MaxRentBudget = decPtr(1)
		d.MaxSaleBudget = decPtr(5000000)
	})

	result, err := newEngine(t, store).MatchInquiryAgainstProperties(context.Background(), inq)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, property.ID, result.Created[0].PropertyID)
}

func TestMatchResult_ErrNilWithoutFailures(t *testing.T) {
	var r *MatchResult
	assert.NoError(t, r.Err())
	assert.NoError(t, newMatchResult().Err())
}
