package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrInvalidSchedule is returned when a cron expression cannot be parsed
	ErrInvalidSchedule = errors.New("invalid cron schedule")

	// ErrSyncTimeout is returned when a sync job exceeds its timeout
	ErrSyncTimeout = errors.New("channel sync timed out")

	// ErrSyncAlreadyInProgress is returned when a run for the same kind and
	// channel is already queued or running
	ErrSyncAlreadyInProgress = errors.New("channel sync already in progress")

	// ErrUnknownJobKind is returned for job kinds the executor does not handle
	ErrUnknownJobKind = errors.New("unknown sync job kind")
)
