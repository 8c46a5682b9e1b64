package leasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Match triggers
const (
	TriggerProperty = "property"
	TriggerInquiry  = "inquiry"
)

// MatchFailure is one pair whose evaluation or recording failed
type MatchFailure struct {
	InquiryID  uuid.UUID
	PropertyID uuid.UUID
	Err        error
}

// MatchResult summarizes one matching run. Matches recorded before a failure are kept.
type MatchResult struct {
	Evaluated int
	Created   []leasing.Match
	// Existing counts qualifying pairs that already had a match
	Existing int
	Rejected map[leasing.Rejection]int
	Failures []MatchFailure
}

func newMatchResult() *MatchResult {
	return &MatchResult{Rejected: make(map[leasing.Rejection]int)}
}

// Err joins the per-pair failures, or returns nil
func (r *MatchResult) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("inquiry %s / property %s: %w", f.InquiryID, f.PropertyID, f.Err))
	}
	return errors.Join(errs...)
}

// MatchingEngine evaluates inquiries against properties and records each
// qualifying pair once. Every run re-evaluates in full; nothing is deleted.
type MatchingEngine struct {
	store    leasing.RecordStore
	notifier MatchNotifier
	logger   *zap.Logger
	metrics  *telemetry.LeasingMetrics
	now      func() time.Time
}

// MatchingEngineOption configures a MatchingEngine
type MatchingEngineOption func(*MatchingEngine)

// WithMatchNotifier sets the notifier told about new matches
func WithMatchNotifier(n MatchNotifier) MatchingEngineOption {
	return func(e *MatchingEngine) {
		e.notifier = n
	}
}

// WithMatchClock overrides the match timestamp source
func WithMatchClock(now func() time.Time) MatchingEngineOption {
	return func(e *MatchingEngine) {
		e.now = now
	}
}

// NewMatchingEngine creates a new MatchingEngine
func NewMatchingEngine(store leasing.RecordStore, logger *zap.Logger, opts ...MatchingEngineOption) *MatchingEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &MatchingEngine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMetrics sets the leasing metrics recorder
func (e *MatchingEngine) SetMetrics(m *telemetry.LeasingMetrics) {
	e.metrics = m
}

// MatchPropertyAgainstInquiries evaluates every active inquiry of the property's
// listing type. A property that is not available yields an empty result.
// The returned error covers only loading candidates; per-inquiry failures are
// collected in the result and do not stop the run.
func (e *MatchingEngine) MatchPropertyAgainstInquiries(ctx context.Context, property *leasing.Property) (*MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "matching", "property_against_inquiries",
		telemetry.WithAttribute(telemetry.SpanAttrPropertyID, property.ID.String()),
	)
	defer span.End()

	result := newMatchResult()
	if !property.IsAvailable() {
		e.logger.Debug("matching skipped, property not available",
			zap.String("property_id", property.ID.String()),
			zap.String("status", string(property.Status)),
		)
		return result, nil
	}

	inquiries, err := e.store.Inquiries().FindActiveByType(ctx, property.ListingType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load active inquiries: %w", err)
	}

	for i := range inquiries {
		inq := &inquiries[i]
		result.Evaluated++
		if rej := leasing.EvaluateMatch(inq, property); rej != leasing.RejectNone {
			result.Rejected[rej]++
			continue
		}
		e.record(ctx, result, inq, property)
	}

	e.finish(ctx, span, result, TriggerProperty, property.ListingType,
		zap.String("property_id", property.ID.String()))
	return result, nil
}

// MatchInquiryAgainstProperties is the symmetric run for one inquiry against
// every available property of its type.
func (e *MatchingEngine) MatchInquiryAgainstProperties(ctx context.Context, inquiry *leasing.Inquiry) (*MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "matching", "inquiry_against_properties",
		telemetry.WithAttribute(telemetry.SpanAttrInquiryID, inquiry.ID.String()),
	)
	defer span.End()

	result := newMatchResult()
	if !inquiry.IsOpen() {
		return result, nil
	}

	properties, err := e.store.Properties().FindAvailable(ctx, inquiry.Type)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load available properties: %w", err)
	}

	// Filters run against the inquiry as it was when the run started;
	// current tracks its status as matches are recorded.
	snapshot := *inquiry
	current := *inquiry
	for i := range properties {
		p := &properties[i]
		result.Evaluated++
		if rej := leasing.EvaluateMatch(&snapshot, p); rej != leasing.RejectNone {
			result.Rejected[rej]++
			continue
		}
		e.record(ctx, result, &current, p)
	}
	inquiry.Status = current.Status

	e.finish(ctx, span, result, TriggerInquiry, inquiry.Type,
		zap.String("inquiry_id", inquiry.ID.String()))
	return result, nil
}

// record writes the match for a qualifying pair and promotes the inquiry.
// An existing match is the no-op case; the inquiry is still promoted so that a
// run interrupted between the two writes heals on the next trigger.
func (e *MatchingEngine) record(ctx context.Context, result *MatchResult, inq *leasing.Inquiry, p *leasing.Property) {
	fail := func(err error) {
		result.Failures = append(result.Failures, MatchFailure{InquiryID: inq.ID, PropertyID: p.ID, Err: err})
		e.logger.Warn("matching: pair failed",
			zap.String("inquiry_id", inq.ID.String()),
			zap.String("property_id", p.ID.String()),
			zap.Error(err),
		)
	}

	m := leasing.NewMatch(inq.ID, p.ID, e.now())
	created, err := e.store.Matches().CreateIfAbsent(ctx, m)
	if err != nil {
		fail(fmt.Errorf("record match: %w", err))
		return
	}
	if !created {
		result.Existing++
	}

	if inq.Status == leasing.InquiryStatusActive {
		promoted, err := e.store.Inquiries().TransitionStatus(ctx, inq.ID,
			leasing.TransitionSources(leasing.InquiryStatusMatched), leasing.InquiryStatusMatched)
		if err != nil {
			fail(fmt.Errorf("mark inquiry matched: %w", err))
			if created {
				result.Created = append(result.Created, *m)
			}
			return
		}
		if promoted {
			inq.Status = leasing.InquiryStatusMatched
		} else {
			e.refreshStatus(ctx, inq)
		}
	}

	if created {
		if inq.Status != leasing.InquiryStatusClosed {
			e.notify(ctx, m, inq, p)
		}
		result.Created = append(result.Created, *m)
	}
}

// refreshStatus reloads the status of an inquiry another writer moved on
func (e *MatchingEngine) refreshStatus(ctx context.Context, inq *leasing.Inquiry) {
	fresh, err := e.store.Inquiries().FindByID(ctx, inq.ID)
	if err != nil {
		e.logger.Warn("matching: could not reload inquiry",
			zap.String("inquiry_id", inq.ID.String()),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("matching: inquiry left active during the run",
		zap.String("inquiry_id", inq.ID.String()),
		zap.String("status", string(fresh.Status)),
	)
	inq.Status = fresh.Status
}

// notify is best-effort; notification_sent is only set after the notifier succeeds
func (e *MatchingEngine) notify(ctx context.Context, m *leasing.Match, inq *leasing.Inquiry, p *leasing.Property) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyMatch(ctx, m, inq, p); err != nil {
		e.logger.Warn("matching: notification failed",
			zap.String("match_id", m.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := e.store.Matches().MarkNotificationSent(ctx, m.ID); err != nil {
		e.logger.Warn("matching: could not flag notification as sent",
			zap.String("match_id", m.ID.String()),
			zap.Error(err),
		)
		return
	}
	m.NotificationSent = true
}

func (e *MatchingEngine) finish(
	ctx context.Context,
	span trace.Span,
	result *MatchResult,
	trigger string,
	listingType leasing.ListingType,
	subject zap.Field,
) {
	telemetry.SetAttributes(span,
		"evaluated", result.Evaluated,
		"created", len(result.Created),
		"existing", result.Existing,
		"failed", len(result.Failures),
	)
	if err := result.Err(); err != nil {
		telemetry.RecordError(span, err)
	}
	e.metrics.RecordMatches(ctx, trigger, string(listingType), len(result.Created), len(result.Failures))

	e.logger.Info("matching run completed",
		subject,
		zap.String("trigger", trigger),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("created", len(result.Created)),
		zap.Int("existing", result.Existing),
		zap.Int("failed", len(result.Failures)),
	)
}
