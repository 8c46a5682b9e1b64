package leasing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sweepKeyTTL outlives a calendar day so the guard holds across clock skew
const sweepKeyTTL = 48 * time.Hour

// ReminderView is a contract's reminder settings together with its computed state
type ReminderView struct {
	ContractID      uuid.UUID             `json:"contract_id"`
	TenantID        uuid.UUID             `json:"tenant_id"`
	PropertyID      uuid.UUID             `json:"property_id"`
	EndDate         time.Time             `json:"end_date"`
	Enabled         bool                  `json:"reminder_enabled"`
	LeadDays        int                   `json:"reminder_lead_days"`
	ExpectedNewRent *decimal.Decimal      `json:"expected_new_rent,omitempty"`
	Notes           string                `json:"reminder_notes,omitempty"`
	State           leasing.ReminderState `json:"state"`
}

func newReminderView(c *leasing.Contract, today time.Time) ReminderView {
	return ReminderView{
		ContractID:      c.ID,
		TenantID:        c.TenantID,
		PropertyID:      c.PropertyID,
		EndDate:         c.EndDate,
		Enabled:         c.ReminderEnabled,
		LeadDays:        c.ReminderLeadDays,
		ExpectedNewRent: c.ExpectedNewRent,
		Notes:           c.ReminderNotes,
		State:           c.ReminderState(today),
	}
}

// SweepResult reports one daily reminder sweep
type SweepResult struct {
	Day string         `json:"day"`
	Ran bool           `json:"ran"`
	Due []ReminderView `json:"due"`
}

// ReminderService exposes renewal reminder state and its two flag mutations.
// State is always computed on read; only reminder_contacted is stored.
type ReminderService struct {
	store  leasing.RecordStore
	guard  shared.IdempotencyStore
	logger *zap.Logger
	now    func() time.Time
}

// ReminderServiceOption configures a ReminderService
type ReminderServiceOption func(*ReminderService)

// WithReminderClock overrides the source of "today"
func WithReminderClock(now func() time.Time) ReminderServiceOption {
	return func(s *ReminderService) {
		s.now = now
	}
}

// NewReminderService creates a new ReminderService.
// guard may be nil, in which case RunDailySweep runs on every call.
func NewReminderService(
	store leasing.RecordStore,
	guard shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...ReminderServiceOption,
) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReminderService{
		store:  store,
		guard:  guard,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the service's current calendar day
func (s *ReminderService) Today() time.Time {
	return leasing.DateOf(s.now())
}

// State computes the reminder state of one contract as of today
func (s *ReminderService) State(ctx context.Context, contractID uuid.UUID) (*ReminderView, error) {
	c, err := s.store.Contracts().FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	view := newReminderView(c, s.Today())
	return &view, nil
}

// MarkContacted sets reminder_contacted. Store errors are returned unmodified.
func (s *ReminderService) MarkContacted(ctx context.Context, contractID uuid.UUID) error {
	return s.store.Contracts().SetReminderContacted(ctx, contractID, true)
}

// MarkNotContacted clears reminder_contacted to reopen a renewal conversation
func (s *ReminderService) MarkNotContacted(ctx context.Context, contractID uuid.UUID) error {
	return s.store.Contracts().SetReminderContacted(ctx, contractID, false)
}

// Snooze shortens the effective lead time by days; the end date is untouched
func (s *ReminderService) Snooze(ctx context.Context, contractID uuid.UUID, days int) (*ReminderView, error) {
	return s.mutate(ctx, contractID, func(c *leasing.Contract) error {
		return c.Snooze(days)
	})
}

// UpdateSettings replaces the reminder settings of a contract
func (s *ReminderService) UpdateSettings(ctx context.Context, contractID uuid.UUID, settings leasing.ReminderSettings) (*ReminderView, error) {
	return s.mutate(ctx, contractID, func(c *leasing.Contract) error {
		return c.ApplyReminderSettings(settings)
	})
}

// mutate applies fn to the reminder settings and writes back only those columns,
// so a status or contacted change made meanwhile survives
func (s *ReminderService) mutate(ctx context.Context, contractID uuid.UUID, fn func(*leasing.Contract) error) (*ReminderView, error) {
	c, err := s.store.Contracts().FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Contracts().SetReminderSettings(ctx, contractID, c.Reminder()); err != nil {
		return nil, err
	}
	return s.State(ctx, contractID)
}

// ListDue returns the reminders to surface as of today: Active, enabled,
// not contacted and overdue, soonest lease end first.
func (s *ReminderService) ListDue(ctx context.Context, today time.Time) ([]ReminderView, error) {
	candidates, err := s.store.Contracts().FindReminderCandidates(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]ReminderView, 0, len(candidates))
	for i := range candidates {
		view := newReminderView(&candidates[i], today)
		if view.State.NeedsAttention() {
			due = append(due, view)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].State.DaysUntilEnd < due[j].State.DaysUntilEnd
	})
	return due, nil
}

// CountDueByUrgency groups the due reminders by urgency
func (s *ReminderService) CountDueByUrgency(ctx context.Context, today time.Time) (map[string]int64, error) {
	due, err := s.ListDue(ctx, leasing.DateOf(today))
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{
		string(leasing.UrgencyExpired):  0,
		string(leasing.UrgencyUrgent):   0,
		string(leasing.UrgencySoon):     0,
		string(leasing.UrgencyUpcoming): 0,
	}
	for _, v := range due {
		counts[string(v.State.Urgency)]++
	}
	return counts, nil
}

// SweepKey is the idempotency key guarding the sweep for day
func SweepKey(day time.Time) string {
	return "reminder-sweep:" + leasing.DateOf(day).Format("2006-01-02")
}

// RunDailySweep logs the due reminders at most once per calendar day.
// A guard failure is returned without sweeping.
func (s *ReminderService) RunDailySweep(ctx context.Context, today time.Time) (*SweepResult, error) {
	day := leasing.DateOf(today)
	result := &SweepResult{Day: day.Format("2006-01-02"), Due: []ReminderView{}}

	if s.guard != nil {
		fresh, err := s.guard.MarkProcessed(ctx, SweepKey(day), sweepKeyTTL)
		if err != nil {
			return nil, fmt.Errorf("reminder sweep guard: %w", err)
		}
		if !fresh {
			s.logger.Debug("reminder sweep already ran today", zap.String("day", result.Day))
			return result, nil
		}
	}

	due, err := s.ListDue(ctx, day)
	if err != nil {
		return nil, err
	}
	result.Ran = true
	result.Due = due

	for _, v := range due {
		s.logger.Info("renewal reminder due",
			zap.String("contract_id", v.ContractID.String()),
			zap.String("tenant_id", v.TenantID.String()),
			zap.Int("days_until_end", v.State.DaysUntilEnd),
			zap.String("urgency", string(v.State.Urgency)),
		)
	}
	s.logger.Info("reminder sweep completed", zap.String("day", result.Day), zap.Int("due", len(due)))
	return result, nil
}
