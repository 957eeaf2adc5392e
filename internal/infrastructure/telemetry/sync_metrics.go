// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks channel synchronization activity: how many records each
// run sent, skipped or failed, and how long runs take per channel.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	syncRunsTotal      *Counter
	recordsSentTotal   *Counter
	recordsFailedTotal *Counter
	recordsSkipped     *Counter
	learnersUnlinked   *Counter

	// Histogram metrics
	syncDuration *Histogram
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	sm.syncRunsTotal, err = NewCounter(
		cfg.Meter,
		"enterprise_channel_sync_runs_total",
		"Total number of channel sync runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.recordsSentTotal, err = NewCounter(
		cfg.Meter,
		"enterprise_channel_records_sent_total",
		"Total number of records transmitted to channels",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.recordsFailedTotal, err = NewCounter(
		cfg.Meter,
		"enterprise_channel_records_failed_total",
		"Total number of records the channel rejected",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.recordsSkipped, err = NewCounter(
		cfg.Meter,
		"enterprise_channel_records_skipped_total",
		"Total number of records skipped as unchanged or incomplete",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.learnersUnlinked, err = NewCounter(
		cfg.Meter,
		"enterprise_learners_unlinked_total",
		"Total number of learners unlinked by the inactive sweep",
		"{learners}",
	)
	if err != nil {
		return nil, err
	}

	sm.syncDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "enterprise_channel_sync_duration_seconds",
		Description: "Duration of channel sync runs",
		Unit:        "s",
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// syncLabels builds the shared label set for sync metrics
func syncLabels(channelCode, kind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrChannelCode.String(channelCode),
		AttrSyncKind.String(kind),
	}
}

// RecordSyncRun records one completed sync run with its outcome counts.
func (sm *SyncMetrics) RecordSyncRun(ctx context.Context, channelCode, kind, status string, sent, failed, skipped int, duration time.Duration) {
	labels := syncLabels(channelCode, kind)

	sm.syncRunsTotal.Inc(ctx, append(labels, AttrSyncStatus.String(status))...)
	if sent > 0 {
		sm.recordsSentTotal.Add(ctx, int64(sent), labels...)
	}
	if failed > 0 {
		sm.recordsFailedTotal.Add(ctx, int64(failed), labels...)
	}
	if skipped > 0 {
		sm.recordsSkipped.Add(ctx, int64(skipped), labels...)
	}
	sm.syncDuration.RecordDuration(ctx, duration, labels...)
}

// RecordLearnersUnlinked records learners removed by the inactive sweep.
func (sm *SyncMetrics) RecordLearnersUnlinked(ctx context.Context, count int) {
	if count <= 0 {
		return
	}
	sm.learnersUnlinked.Add(ctx, int64(count))
}
