package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/telemetry"
)

// ---------------------------------------------------------------------------
// ChannelSyncExecutor
// ---------------------------------------------------------------------------

// ChannelSyncer runs the export-and-transmit pipeline for one channel
type ChannelSyncer interface {
	SyncLearnerData(ctx context.Context, code channel.Code) (*channel.TransmissionSummary, error)
	SyncContentMetadata(ctx context.Context, code channel.Code) (*channel.TransmissionSummary, error)
}

// InactiveLearnerSweeper unlinks learners the channel reports as inactive
type InactiveLearnerSweeper interface {
	UnlinkInactiveLearners(ctx context.Context) (int, error)
}

// ChannelSyncExecutor dispatches sync jobs to the application services
type ChannelSyncExecutor struct {
	syncer  ChannelSyncer
	sweeper InactiveLearnerSweeper
	metrics *telemetry.SyncMetrics
	logger  *zap.Logger
}

// NewChannelSyncExecutor creates a new channel sync executor
func NewChannelSyncExecutor(syncer ChannelSyncer, sweeper InactiveLearnerSweeper, logger *zap.Logger) *ChannelSyncExecutor {
	return &ChannelSyncExecutor{
		syncer:  syncer,
		sweeper: sweeper,
		logger:  logger,
	}
}

// SetMetrics attaches sync metrics recording to executed jobs
func (e *ChannelSyncExecutor) SetMetrics(metrics *telemetry.SyncMetrics) {
	e.metrics = metrics
}

// Execute runs the job's sync against the channel and records its results
func (e *ChannelSyncExecutor) Execute(ctx context.Context, job *ChannelSyncJob) error {
	started := time.Now()

	switch job.Kind {
	case SyncJobKindLearnerData:
		summary, err := e.syncer.SyncLearnerData(ctx, job.ChannelCode)
		if err != nil {
			return e.wrapTimeout(ctx, err)
		}
		job.Complete(summary)
		e.recordRun(ctx, job, started)
		return nil

	case SyncJobKindContentMetadata:
		summary, err := e.syncer.SyncContentMetadata(ctx, job.ChannelCode)
		if err != nil {
			return e.wrapTimeout(ctx, err)
		}
		job.Complete(summary)
		e.recordRun(ctx, job, started)
		return nil

	case SyncJobKindUnlinkInactive:
		unlinked, err := e.sweeper.UnlinkInactiveLearners(ctx)
		if err != nil {
			return e.wrapTimeout(ctx, err)
		}
		job.CompleteSweep(unlinked)
		if e.metrics != nil {
			e.metrics.RecordLearnersUnlinked(ctx, unlinked)
		}
		return nil

	default:
		return ErrUnknownJobKind
	}
}

func (e *ChannelSyncExecutor) recordRun(ctx context.Context, job *ChannelSyncJob, started time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordSyncRun(ctx,
		job.ChannelCode.String(),
		string(job.Kind),
		string(job.Status),
		job.SentCount,
		job.FailedCount,
		job.SkippedCount,
		time.Since(started),
	)
}

// wrapTimeout surfaces job-timeout cancellations as ErrSyncTimeout
func (e *ChannelSyncExecutor) wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrSyncTimeout
	}
	return err
}

// Ensure ChannelSyncExecutor implements SyncExecutor
var _ SyncExecutor = (*ChannelSyncExecutor)(nil)
