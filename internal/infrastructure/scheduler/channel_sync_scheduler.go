package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// Channel Sync Job Types
// ---------------------------------------------------------------------------

// SyncJobKind identifies what a sync job transmits
type SyncJobKind string

const (
	// SyncJobKindLearnerData transmits completion and assessment records
	SyncJobKindLearnerData SyncJobKind = "LEARNER_DATA"
	// SyncJobKindContentMetadata reconciles catalog content with the channel
	SyncJobKindContentMetadata SyncJobKind = "CONTENT_METADATA"
	// SyncJobKindUnlinkInactive sweeps channel-inactive learners
	SyncJobKindUnlinkInactive SyncJobKind = "UNLINK_INACTIVE"
)

// SyncJobStatus represents the status of a channel sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// ChannelSyncJob represents a scheduled channel sync run
type ChannelSyncJob struct {
	ID   uuid.UUID
	Kind SyncJobKind
	// ChannelCode is empty for the unlink sweep, which is SAP-only
	ChannelCode channel.Code
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	// Transmission results
	TotalCount   int
	SentCount    int
	FailedCount  int
	SkippedCount int

	// UnlinkedCount is set by unlink sweep jobs
	UnlinkedCount int
}

// NewChannelSyncJob creates a new channel sync job
func NewChannelSyncJob(kind SyncJobKind, code channel.Code, maxRetries int) *ChannelSyncJob {
	return &ChannelSyncJob{
		ID:          uuid.New(),
		Kind:        kind,
		ChannelCode: code,
		Status:      SyncJobStatusPending,
		MaxRetries:  maxRetries,
	}
}

// Key identifies the kind/channel slot a job occupies. Two jobs with the
// same key never run concurrently.
func (j *ChannelSyncJob) Key() string {
	return string(j.Kind) + ":" + j.ChannelCode.String()
}

// Start marks the job as running
func (j *ChannelSyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the transmission summary and derives the final status
func (j *ChannelSyncJob) Complete(summary *channel.TransmissionSummary) {
	now := time.Now()
	j.CompletedAt = &now
	if summary != nil {
		j.TotalCount = summary.TotalCount
		j.SentCount = summary.SentCount
		j.FailedCount = summary.FailedCount
		j.SkippedCount = summary.SkippedCount
	}

	if j.FailedCount == 0 {
		j.Status = SyncJobStatusSuccess
	} else if j.SentCount > 0 {
		j.Status = SyncJobStatusPartial
	} else {
		j.Status = SyncJobStatusFailed
	}
}

// CompleteSweep marks an unlink sweep job as successful
func (j *ChannelSyncJob) CompleteSweep(unlinked int) {
	now := time.Now()
	j.Status = SyncJobStatusSuccess
	j.CompletedAt = &now
	j.UnlinkedCount = unlinked
}

// Fail marks the job as failed
func (j *ChannelSyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *ChannelSyncJob) ShouldRetry() bool {
	return j.Status == SyncJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *ChannelSyncJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = SyncJobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// SyncExecutor Interface
// ---------------------------------------------------------------------------

// SyncExecutor executes channel sync jobs
type SyncExecutor interface {
	Execute(ctx context.Context, job *ChannelSyncJob) error
}

// ---------------------------------------------------------------------------
// ChannelSyncSchedulerConfig
// ---------------------------------------------------------------------------

// ChannelSyncSchedulerConfig holds configuration for the channel sync scheduler
type ChannelSyncSchedulerConfig struct {
	// MaxConcurrentJobs is the maximum number of concurrent sync jobs
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
}

// DefaultChannelSyncSchedulerConfig returns default configuration
func DefaultChannelSyncSchedulerConfig() ChannelSyncSchedulerConfig {
	return ChannelSyncSchedulerConfig{
		MaxConcurrentJobs: 4,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

// Validate validates the configuration
func (c *ChannelSyncSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ChannelSyncScheduler
// ---------------------------------------------------------------------------

// ChannelSyncScheduler runs channel sync jobs on a bounded worker pool. Jobs
// occupying the same kind/channel slot are rejected while one is queued or
// running, so overlapping runs of the same export never race on audit rows.
type ChannelSyncScheduler struct {
	config   ChannelSyncSchedulerConfig
	executor SyncExecutor
	logger   *zap.Logger

	jobs      chan *ChannelSyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	inFlightMu sync.Mutex
	inFlight   map[string]bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*ChannelSyncJob
	maxHistory int
}

// NewChannelSyncScheduler creates a new channel sync scheduler
func NewChannelSyncScheduler(config ChannelSyncSchedulerConfig, executor SyncExecutor, logger *zap.Logger) (*ChannelSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ChannelSyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *ChannelSyncJob, 100),
		inFlight:   make(map[string]bool),
		history:    make([]*ChannelSyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the scheduler
func (s *ChannelSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Channel sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *ChannelSyncScheduler) Stop(ctx context.Context) error {
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

	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Channel sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Channel sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution. A job whose kind/channel slot is
// already occupied is rejected with ErrSyncAlreadyInProgress.
func (s *ChannelSyncScheduler) SubmitJob(job *ChannelSyncJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	key := job.Key()
	s.inFlightMu.Lock()
	if s.inFlight[key] {
		s.inFlightMu.Unlock()
		return ErrSyncAlreadyInProgress
	}
	s.inFlight[key] = true
	s.inFlightMu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Channel sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("channel_code", job.ChannelCode.String()),
		)
		return nil
	default:
		s.clearInFlight(key)
		return ErrJobQueueFull
	}
}

// ScheduleSync creates and submits a sync job for a channel
func (s *ChannelSyncScheduler) ScheduleSync(kind SyncJobKind, code channel.Code) error {
	job := NewChannelSyncJob(kind, code, s.config.RetryAttempts)
	return s.SubmitJob(job)
}

// worker processes jobs from the queue
func (s *ChannelSyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Channel sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Channel sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Channel sync job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *ChannelSyncScheduler) processJob(ctx context.Context, job *ChannelSyncJob, workerID int) {
	// Not yet due for retry, re-queue
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue channel sync job for retry",
				zap.String("job_id", job.ID.String()),
			)
			s.clearInFlight(job.Key())
		}
		return
	}

	job.Start()
	s.logger.Info("Processing channel sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("channel_code", job.ChannelCode.String()),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Channel sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("channel_code", job.ChannelCode.String()),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Channel sync job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			// Retries keep the slot occupied so nothing overlaps in between
			select {
			case s.jobs <- job:
				return
			default:
				s.logger.Warn("Failed to re-queue channel sync job for retry",
					zap.String("job_id", job.ID.String()),
				)
			}
		}

		s.clearInFlight(job.Key())
		s.addToHistory(job)
		return
	}

	s.logger.Info("Channel sync job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("channel_code", job.ChannelCode.String()),
		zap.String("status", string(job.Status)),
		zap.Int("total_count", job.TotalCount),
		zap.Int("sent_count", job.SentCount),
		zap.Int("failed_count", job.FailedCount),
		zap.Int("skipped_count", job.SkippedCount),
		zap.Int("unlinked_count", job.UnlinkedCount),
	)

	s.clearInFlight(job.Key())
	s.addToHistory(job)
}

func (s *ChannelSyncScheduler) clearInFlight(key string) {
	s.inFlightMu.Lock()
	delete(s.inFlight, key)
	s.inFlightMu.Unlock()
}

// addToHistory adds a completed job to history
func (s *ChannelSyncScheduler) addToHistory(job *ChannelSyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ChannelSyncJob{job}, s.history...)

	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *ChannelSyncScheduler) GetJobHistory(limit int) []*ChannelSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ChannelSyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByChannel returns job history for a specific channel
func (s *ChannelSyncScheduler) GetJobHistoryByChannel(code channel.Code, limit int) []*ChannelSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*ChannelSyncJob, 0, limit)
	for _, job := range s.history {
		if job.ChannelCode == code {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
