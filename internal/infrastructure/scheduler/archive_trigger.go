package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	payoutapp "github.com/royalty/backend/internal/application/payout"
)

// Archiver writes a month of payout instructions to object storage
type Archiver interface {
	Archive(ctx context.Context, req payoutapp.ExportRequest) (*payoutapp.ArchiveResponse, error)
}

// ArchiveTriggerConfig holds configuration for the monthly archive trigger
type ArchiveTriggerConfig struct {
	Schedule Schedule
	// CheckInterval is how often the clock is compared against the schedule
	CheckInterval time.Duration
	// JobTimeout bounds a single archive run
	JobTimeout time.Duration
}

// DefaultArchiveTriggerConfig returns default trigger configuration
func DefaultArchiveTriggerConfig() ArchiveTriggerConfig {
	return ArchiveTriggerConfig{
		Schedule:      DefaultSchedule(),
		CheckInterval: time.Minute,
		JobTimeout:    5 * time.Minute,
	}
}

// ArchiveTrigger archives the previous month's payout export once a month
type ArchiveTrigger struct {
	config   ArchiveTriggerConfig
	archiver Archiver
	logger   *zap.Logger
	now      func() time.Time

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
	lastRunMonth string
}

// NewArchiveTrigger creates a new archive trigger
func NewArchiveTrigger(config ArchiveTriggerConfig, archiver Archiver, logger *zap.Logger) *ArchiveTrigger {
	defaults := DefaultArchiveTriggerConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.Schedule == (Schedule{}) {
		config.Schedule = defaults.Schedule
	}
	return &ArchiveTrigger{
		config:   config,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Start starts the trigger loop
func (t *ArchiveTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Archive trigger started",
		zap.Int("day", t.config.Schedule.Day),
		zap.Int("hour", t.config.Schedule.Hour),
		zap.Int("minute", t.config.Schedule.Minute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger and waits for an in-flight run
func (t *ArchiveTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Archive trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ArchiveTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger archives the previous month once the current month's
// scheduled instant has passed. A process started late in the month
// catches up on its first tick.
func (t *ArchiveTrigger) checkAndTrigger(ctx context.Context) {
	now := t.now().UTC()
	currentMonth := now.Format("2006-01")

	t.mu.Lock()
	if t.lastRunMonth == currentMonth {
		t.mu.Unlock()
		return
	}
	s := t.config.Schedule
	due := time.Date(now.Year(), now.Month(), s.Day, s.Hour, s.Minute, 0, 0, time.UTC)
	if now.Before(due) {
		t.mu.Unlock()
		return
	}
	t.lastRunMonth = currentMonth
	t.mu.Unlock()

	if _, err := t.RunFor(ctx, PreviousMonth(now)); err != nil {
		t.logger.Error("Scheduled payout archive failed", zap.Error(err))
	}
}

// RunFor archives one month ("YYYY-MM") immediately
func (t *ArchiveTrigger) RunFor(ctx context.Context, month string) (*payoutapp.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.JobTimeout)
	defer cancel()

	start := time.Now()
	archive, err := t.archiver.Archive(ctx, payoutapp.ExportRequest{Month: month})
	if err != nil {
		return nil, fmt.Errorf("%w: month %s: %w", ErrArchiveFailed, month, err)
	}
	t.logger.Info("Payout archive written",
		zap.String("month", month),
		zap.String("key", archive.Key),
		zap.Int("rows", archive.Rows),
		zap.Duration("duration", time.Since(start)),
	)
	return archive, nil
}

// PreviousMonth returns the "YYYY-MM" label of the month before t
func PreviousMonth(t time.Time) string {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
