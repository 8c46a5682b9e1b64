package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks the clock
const cronTickerInterval = time.Minute

// SweepRunner runs one reminder sweep for the calendar day of now.
// Implementations are expected to be idempotent per day.
type SweepRunner interface {
	Sweep(ctx context.Context, now time.Time) error
}

// SweepRunnerFunc adapts a function to SweepRunner
type SweepRunnerFunc func(ctx context.Context, now time.Time) error

// Sweep calls f(ctx, now)
func (f SweepRunnerFunc) Sweep(ctx context.Context, now time.Time) error {
	return f(ctx, now)
}

// SweepSchedulerConfig holds configuration for the daily reminder sweep
type SweepSchedulerConfig struct {
	Enabled bool
	// Schedule is a cron expression of the form "minute hour * * *"
	Schedule string
	// RunOnStart sweeps once as soon as the scheduler starts
	RunOnStart bool
	// Timeout bounds a single sweep
	Timeout time.Duration
}

// DefaultSweepSchedulerConfig runs the sweep daily at 06:00 UTC
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Enabled:    true,
		Schedule:   "0 6 * * *",
		RunOnStart: true,
		Timeout:    2 * time.Minute,
	}
}

// ParseDailySchedule extracts hour and minute from a "minute hour * * *" expression.
// An empty expression yields 06:00.
func ParseDailySchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 6, 0
	if strings.TrimSpace(cronExpr) == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: schedule %q needs minute and hour fields", ErrInvalidConfig, cronExpr)
	}
	if minute, err = parseField(parts[0], 0, 59); err != nil {
		return 0, 0, fmt.Errorf("%w: minute: %v", ErrInvalidConfig, err)
	}
	if hour, err = parseField(parts[1], 0, 23); err != nil {
		return 0, 0, fmt.Errorf("%w: hour: %v", ErrInvalidConfig, err)
	}
	return hour, minute, nil
}

func parseField(s string, lo, hi int) (int, error) {
	if s == "*" {
		return lo, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be %d-%d, got %d", lo, hi, v)
	}
	return v, nil
}

// SweepScheduler triggers the renewal reminder sweep once a day
type SweepScheduler struct {
	config SweepSchedulerConfig
	runner SweepRunner
	logger *zap.Logger
	now    func() time.Time
	hour   int
	minute int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
	nextRunAt *time.Time
	lastErr   error
}

// SweepOption customizes a SweepScheduler
type SweepOption func(*SweepScheduler)

// WithSweepClock overrides the scheduler clock
func WithSweepClock(now func() time.Time) SweepOption {
	return func(s *SweepScheduler) {
		s.now = now
	}
}

// NewSweepScheduler creates a daily sweep scheduler. It fails on a malformed schedule.
func NewSweepScheduler(config SweepSchedulerConfig, runner SweepRunner, logger *zap.Logger, opts ...SweepOption) (*SweepScheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("%w: runner is required", ErrInvalidConfig)
	}
	hour, minute, err := ParseDailySchedule(config.Schedule)
	if err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSweepSchedulerConfig().Timeout
	}
	s := &SweepScheduler{
		config: config,
		runner: runner,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		hour:   hour,
		minute: minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the scheduling loop. A disabled scheduler does nothing.
func (s *SweepScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Reminder sweep scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.calculateNextRunTime()

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx)
		}()
	}

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Reminder sweep scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.Timep("next_run_at", s.GetNextRunAt()),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, bounded by ctx
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reminder sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reminder sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SweepScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.shouldRun(s.now()) {
				s.run(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

func (s *SweepScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.hour && now.Minute() == s.minute
}

func (s *SweepScheduler) calculateNextRunTime() {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// run performs one sweep; errors are logged and kept for GetStatus
func (s *SweepScheduler) run(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	err := s.runner.Sweep(runCtx, now)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Reminder sweep failed", zap.Time("at", now), zap.Error(err))
		return
	}
	s.logger.Debug("Reminder sweep finished", zap.Time("at", now))
}

// TriggerManualRun sweeps now in the background.
// The sweep is detached from ctx so an HTTP request ending does not cancel it.
func (s *SweepScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx))
	}()
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *SweepScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"hour":        s.hour,
		"minute":      s.minute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *SweepScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run started
func (s *SweepScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
