package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LeasingMetrics tracks provisioning outcomes, match creation and reminder backlog.
// A nil *LeasingMetrics is valid and records nothing.
type LeasingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	provisionTotal    *Counter
	provisionDuration *Histogram
	matchCreatedTotal *Counter
	matchFailureTotal *Counter
	remindersDue      *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	reminderProvider DueReminderProvider
}

// DueReminderProvider reports how many reminders are due per urgency as of today
type DueReminderProvider interface {
	CountDueByUrgency(ctx context.Context, today time.Time) (map[string]int64, error)
}

// LeasingMetricsConfig holds configuration for leasing metrics.
type LeasingMetricsConfig struct {
	Meter            metric.Meter
	Logger           *zap.Logger
	ReminderProvider DueReminderProvider
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLeasingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewLeasingMetrics registers the leasing instruments on cfg.Meter.
func NewLeasingMetrics(cfg LeasingMetricsConfig) (*LeasingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LeasingMetrics{
		meter:            cfg.Meter,
		logger:           logger,
		stopChan:         make(chan struct{}),
		reminderProvider: cfg.ReminderProvider,
	}

	var err error
	if lm.provisionTotal, err = NewCounter(cfg.Meter,
		"estate_provision_total", "Tenant and lease provisioning attempts by outcome", "{runs}"); err != nil {
		return nil, err
	}
	if lm.provisionDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "estate_provision_duration_seconds",
		Description: "Duration of tenant and lease provisioning",
		Unit:        "s",
		Boundaries:  []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}); err != nil {
		return nil, err
	}
	if lm.matchCreatedTotal, err = NewCounter(cfg.Meter,
		"estate_match_created_total", "Matches recorded between inquiries and properties", "{matches}"); err != nil {
		return nil, err
	}
	if lm.matchFailureTotal, err = NewCounter(cfg.Meter,
		"estate_match_failure_total", "Inquiry evaluations that failed while matching", "{failures}"); err != nil {
		return nil, err
	}
	if lm.remindersDue, err = NewGauge(cfg.Meter,
		"estate_reminders_due", "Renewal reminders currently due", "{contracts}"); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordProvision records one provisioning run and its outcome.
func (lm *LeasingMetrics) RecordProvision(ctx context.Context, outcome string, d time.Duration) {
	if lm == nil {
		return
	}
	lm.provisionTotal.Inc(ctx, AttrOutcome.String(outcome))
	lm.provisionDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// RecordMatches records created matches and failures for one matching run.
func (lm *LeasingMetrics) RecordMatches(ctx context.Context, trigger, listingType string, created, failed int) {
	if lm == nil {
		return
	}
	if created > 0 {
		lm.matchCreatedTotal.Add(ctx, int64(created), AttrTrigger.String(trigger), AttrListingType.String(listingType))
	}
	if failed > 0 {
		lm.matchFailureTotal.Add(ctx, int64(failed), AttrTrigger.String(trigger), AttrListingType.String(listingType))
	}
}

// RecordRemindersDue records the due count for one urgency.
func (lm *LeasingMetrics) RecordRemindersDue(ctx context.Context, urgency string, count int64) {
	if lm == nil {
		return
	}
	lm.remindersDue.Record(ctx, count, AttrUrgency.String(urgency))
}

// StartPeriodicCollection samples the reminder backlog every interval (default 5 minutes).
// It is non-blocking; call Stop to end collection.
func (lm *LeasingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if lm == nil {
		return
	}
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LeasingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectReminderMetrics(ctx)
	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic leasing metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			lm.collectReminderMetrics(ctx)
		}
	}
}

func (lm *LeasingMetrics) collectReminderMetrics(ctx context.Context) {
	if lm.reminderProvider == nil {
		return
	}
	counts, err := lm.reminderProvider.CountDueByUrgency(ctx, time.Now())
	if err != nil {
		lm.logger.Warn("Failed to count due reminders", zap.Error(err))
		return
	}
	for urgency, n := range counts {
		lm.RecordRemindersDue(ctx, urgency, n)
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (lm *LeasingMetrics) Stop() {
	if lm == nil {
		return
	}
	lm.stopOnce.Do(func() { close(lm.stopChan) })
}
