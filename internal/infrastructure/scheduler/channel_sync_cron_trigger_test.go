package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
)

func newTestTrigger(t *testing.T, executor SyncExecutor) (*ChannelSyncCronTrigger, *ChannelSyncScheduler) {
	t.Helper()

	s := newTestScheduler(t, executor, nil)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	trigger, err := NewChannelSyncCronTrigger(DefaultChannelSyncCronTriggerConfig(), s, zap.NewNop())
	require.NoError(t, err)
	return trigger, s
}

func TestNewChannelSyncCronTrigger_InvalidSchedule(t *testing.T) {
	config := DefaultChannelSyncCronTriggerConfig()
	config.ContentSchedule = "not a cron expression"

	_, err := NewChannelSyncCronTrigger(config, nil, zap.NewNop())

	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNewChannelSyncCronTrigger_EmptyScheduleIsSkipped(t *testing.T) {
	config := DefaultChannelSyncCronTriggerConfig()
	config.UnlinkSchedule = ""

	trigger, err := NewChannelSyncCronTrigger(config, nil, zap.NewNop())

	require.NoError(t, err)
	assert.Len(t, trigger.entries, 2)
}

func TestChannelSyncCronTrigger_FiresDueLearnerSchedule(t *testing.T) {
	executor := &countingExecutor{}
	trigger, _ := newTestTrigger(t, executor)

	// Force the learner schedule due, keep the others in the future
	past := time.Now().Add(-time.Minute)
	for _, entry := range trigger.entries {
		if entry.kind == SyncJobKindLearnerData {
			entry.next = past
		}
	}

	trigger.checkAndTrigger(time.Now())

	// One job per channel
	require.Eventually(t, func() bool {
		return executor.executions() == len(channel.AllCodes())
	}, 2*time.Second, 10*time.Millisecond)

	for _, kind := range executor.kinds {
		assert.Equal(t, SyncJobKindLearnerData, kind)
	}

	// The schedule advances past now, so the next tick does not refire
	for _, entry := range trigger.entries {
		assert.True(t, entry.next.After(time.Now().Add(-time.Second)))
	}
}

func TestChannelSyncCronTrigger_FiresDueUnlinkSchedule(t *testing.T) {
	executor := &countingExecutor{}
	trigger, _ := newTestTrigger(t, executor)

	past := time.Now().Add(-time.Minute)
	for _, entry := range trigger.entries {
		if entry.kind == SyncJobKindUnlinkInactive {
			entry.next = past
		}
	}

	trigger.checkAndTrigger(time.Now())

	// The sweep is a single job, not one per channel
	require.Eventually(t, func() bool {
		return executor.executions() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, SyncJobKindUnlinkInactive, executor.kinds[0])
	assert.Equal(t, channel.Code(""), executor.codes[0])
}

func TestChannelSyncCronTrigger_FutureSchedulesDoNotFire(t *testing.T) {
	executor := &countingExecutor{}
	trigger, _ := newTestTrigger(t, executor)

	trigger.checkAndTrigger(time.Now())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, executor.executions())
}

func TestChannelSyncCronTrigger_ManualSync(t *testing.T) {
	executor := &countingExecutor{}
	trigger, _ := newTestTrigger(t, executor)

	require.NoError(t, trigger.TriggerManualSync(SyncJobKindContentMetadata, channel.CodeSAPSuccessFactors))

	require.Eventually(t, func() bool {
		return executor.executions() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, SyncJobKindContentMetadata, executor.kinds[0])
	assert.Equal(t, channel.CodeSAPSuccessFactors, executor.codes[0])
}

func TestChannelSyncCronTrigger_ManualSyncSkipsBusySlot(t *testing.T) {
	executor := &countingExecutor{block: make(chan struct{})}
	trigger, _ := newTestTrigger(t, executor)

	require.NoError(t, trigger.TriggerManualSync(SyncJobKindLearnerData, channel.CodeMoodle))

	err := trigger.TriggerManualSync(SyncJobKindLearnerData, channel.CodeMoodle)
	assert.ErrorIs(t, err, ErrSyncAlreadyInProgress)

	close(executor.block)
}

func TestChannelSyncCronTrigger_StartStop(t *testing.T) {
	executor := &countingExecutor{}
	trigger, _ := newTestTrigger(t, executor)

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background())) // idempotent

	stats := trigger.GetTriggerStats()
	assert.Equal(t, true, stats["is_running"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.Stop(ctx))
}
