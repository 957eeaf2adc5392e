package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// ChannelSyncCronTriggerConfig
// ---------------------------------------------------------------------------

// ChannelSyncCronTriggerConfig holds the cron schedules for periodic sync
type ChannelSyncCronTriggerConfig struct {
	// CheckInterval is how often to check whether a schedule is due
	CheckInterval time.Duration

	// LearnerSchedule is the cron expression for learner data sync
	LearnerSchedule string
	// ContentSchedule is the cron expression for content metadata sync
	ContentSchedule string
	// UnlinkSchedule is the cron expression for the inactive learner sweep
	UnlinkSchedule string
}

// DefaultChannelSyncCronTriggerConfig returns default configuration
func DefaultChannelSyncCronTriggerConfig() ChannelSyncCronTriggerConfig {
	return ChannelSyncCronTriggerConfig{
		CheckInterval:   time.Minute,
		LearnerSchedule: "0 2 * * *",
		ContentSchedule: "0 3 * * *",
		UnlinkSchedule:  "0 4 * * 0",
	}
}

// ---------------------------------------------------------------------------
// ChannelSyncCronTrigger
// ---------------------------------------------------------------------------

// cronEntry tracks one schedule and its next due time
type cronEntry struct {
	kind     SyncJobKind
	schedule cron.Schedule
	next     time.Time
}

// ChannelSyncCronTrigger fires channel sync jobs on cron schedules. Learner
// and content schedules enqueue one job per channel; the unlink schedule
// enqueues a single sweep. Jobs still queued or running when a schedule
// fires again are skipped, not stacked.
type ChannelSyncCronTrigger struct {
	config    ChannelSyncCronTriggerConfig
	scheduler *ChannelSyncScheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	entries   []*cronEntry
}

// NewChannelSyncCronTrigger creates a new cron trigger. Each schedule is a
// standard five-field cron expression.
func NewChannelSyncCronTrigger(
	config ChannelSyncCronTriggerConfig,
	scheduler *ChannelSyncScheduler,
	logger *zap.Logger,
) (*ChannelSyncCronTrigger, error) {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}

	schedules := []struct {
		kind SyncJobKind
		expr string
	}{
		{SyncJobKindLearnerData, config.LearnerSchedule},
		{SyncJobKindContentMetadata, config.ContentSchedule},
		{SyncJobKindUnlinkInactive, config.UnlinkSchedule},
	}

	now := time.Now()
	entries := make([]*cronEntry, 0, len(schedules))
	for _, s := range schedules {
		if s.expr == "" {
			continue
		}
		schedule, err := cron.ParseStandard(s.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidSchedule, s.kind, s.expr, err)
		}
		entries = append(entries, &cronEntry{
			kind:     s.kind,
			schedule: schedule,
			next:     schedule.Next(now),
		})
	}

	return &ChannelSyncCronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		entries:   entries,
	}, nil
}

// Start starts the cron trigger
func (c *ChannelSyncCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Channel sync cron trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.String("learner_schedule", c.config.LearnerSchedule),
		zap.String("content_schedule", c.config.ContentSchedule),
		zap.String("unlink_schedule", c.config.UnlinkSchedule),
	)

	return nil
}

// Stop stops the cron trigger
func (c *ChannelSyncCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Channel sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks whether a schedule is due
func (c *ChannelSyncCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(time.Now())
		}
	}
}

// checkAndTrigger fires every entry whose due time has passed
func (c *ChannelSyncCronTrigger) checkAndTrigger(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if entry.next.After(now) {
			continue
		}
		entry.next = entry.schedule.Next(now)
		c.fire(entry.kind)
	}
}

// fire enqueues the jobs a schedule produces
func (c *ChannelSyncCronTrigger) fire(kind SyncJobKind) {
	if kind == SyncJobKindUnlinkInactive {
		c.submit(kind, "")
		return
	}
	for _, code := range channel.AllCodes() {
		c.submit(kind, code)
	}
}

func (c *ChannelSyncCronTrigger) submit(kind SyncJobKind, code channel.Code) {
	err := c.scheduler.ScheduleSync(kind, code)
	switch err {
	case nil:
		c.logger.Info("Scheduled channel sync job",
			zap.String("kind", string(kind)),
			zap.String("channel_code", code.String()),
		)
	case ErrSyncAlreadyInProgress:
		c.logger.Debug("Channel sync still in progress, skipping run",
			zap.String("kind", string(kind)),
			zap.String("channel_code", code.String()),
		)
	default:
		c.logger.Error("Failed to schedule channel sync job",
			zap.String("kind", string(kind)),
			zap.String("channel_code", code.String()),
			zap.Error(err),
		)
	}
}

// TriggerManualSync enqueues an immediate sync run outside the schedule
func (c *ChannelSyncCronTrigger) TriggerManualSync(kind SyncJobKind, code channel.Code) error {
	c.logger.Info("Manual channel sync triggered",
		zap.String("kind", string(kind)),
		zap.String("channel_code", code.String()),
	)
	return c.scheduler.ScheduleSync(kind, code)
}

// GetTriggerStats returns statistics about the trigger schedules
func (c *ChannelSyncCronTrigger) GetTriggerStats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	nextRuns := make(map[string]string)
	for _, entry := range c.entries {
		nextRuns[string(entry.kind)] = entry.next.Format(time.RFC3339)
	}

	stats := make(map[string]interface{})
	stats["is_running"] = c.isRunning
	stats["check_interval"] = c.config.CheckInterval.String()
	stats["next_runs"] = nextRuns
	return stats
}
