package channel

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
)

// LearnerTransmitter sends completion and assessment records to a channel and
// keeps the transmission audit trail. Audits make the pipeline idempotent: a
// record whose last transmission succeeded with the same grade is skipped.
type LearnerTransmitter struct {
	registry  channel.Registry
	auditRepo channel.LearnerAuditRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewLearnerTransmitter creates a learner data transmitter
func NewLearnerTransmitter(registry channel.Registry, auditRepo channel.LearnerAuditRepository, logger *zap.Logger) *LearnerTransmitter {
	return &LearnerTransmitter{
		registry:  registry,
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// TransmitCompletions sends every completed record that is not already on the
// channel. Per-record failures are logged and counted, never fatal to the run.
func (t *LearnerTransmitter) TransmitCompletions(ctx context.Context, config *channel.Configuration, records []channel.LearnerCompletionRecord) (*channel.TransmissionSummary, error) {
	client, err := t.registry.GetClient(config.ChannelCode)
	if err != nil {
		return nil, err
	}

	summary := &channel.TransmissionSummary{
		Status:     channel.TransmissionStatusInProgress,
		TotalCount: len(records),
	}
	for i := range records {
		record := &records[i]
		if !record.CourseCompleted {
			t.logger.Debug("Skipping in-progress enrollment",
				zap.String("enrollment_id", record.EnterpriseEnrollmentID.String()),
				zap.String("course_run_id", record.CourseID),
			)
			summary.SkippedCount++
			continue
		}

		prior, err := t.findPriorAudit(ctx, record.EnterpriseEnrollmentID, config.ChannelCode, "")
		if err != nil {
			t.fail(summary, record.EnterpriseEnrollmentID.String(), 0, err)
			continue
		}
		// Cornerstone learners report their own completions at launch time;
		// we only refresh records the channel already knows about.
		if prior == nil && config.ChannelCode == channel.CodeCornerstone {
			summary.SkippedCount++
			continue
		}
		if prior != nil && prior.Succeeded() && prior.Grade.Equal(record.Grade) {
			t.logger.Debug("Skipping already-transmitted completion",
				zap.String("enrollment_id", record.EnterpriseEnrollmentID.String()),
				zap.String("grade", record.Grade.String()),
			)
			summary.SkippedCount++
			continue
		}

		payload, err := buildCompletionPayload(config.ChannelCode, record)
		if err != nil {
			t.fail(summary, record.EnterpriseEnrollmentID.String(), 0, err)
			continue
		}

		audit := t.newAudit(prior, config.ChannelCode, record)
		t.send(ctx, summary, audit, func() (*channel.Response, error) {
			return client.CreateCourseCompletion(ctx, config.EnterpriseCustomerID, record.RemoteUserID, payload)
		})
	}
	summary.Finalize()
	return summary, nil
}

// TransmitAssessments sends per-subsection grade records, deduplicated per
// subsection against the audit trail.
func (t *LearnerTransmitter) TransmitAssessments(ctx context.Context, config *channel.Configuration, records []channel.AssessmentGradeRecord) (*channel.TransmissionSummary, error) {
	client, err := t.registry.GetClient(config.ChannelCode)
	if err != nil {
		return nil, err
	}

	summary := &channel.TransmissionSummary{
		Status:     channel.TransmissionStatusInProgress,
		TotalCount: len(records),
	}
	for i := range records {
		record := &records[i]
		prior, err := t.findPriorAudit(ctx, record.EnterpriseEnrollmentID, config.ChannelCode, record.SubsectionID)
		if err != nil {
			t.fail(summary, record.SubsectionID, 0, err)
			continue
		}
		if prior != nil && prior.Succeeded() && prior.Grade.Equal(record.Grade) {
			summary.SkippedCount++
			continue
		}

		payload, err := buildAssessmentPayload(config.ChannelCode, record)
		if err != nil {
			t.fail(summary, record.SubsectionID, 0, err)
			continue
		}

		audit := &channel.LearnerTransmissionAudit{
			EnterpriseEnrollmentID: record.EnterpriseEnrollmentID,
			ChannelCode:            config.ChannelCode,
			CourseID:               record.CourseID,
			SubsectionID:           record.SubsectionID,
			Grade:                  record.Grade,
		}
		if prior != nil {
			audit.ID = prior.ID
			audit.CreatedAt = prior.CreatedAt
		} else {
			audit.ID = uuid.New()
		}
		t.send(ctx, summary, audit, func() (*channel.Response, error) {
			return client.CreateAssessmentReporting(ctx, config.EnterpriseCustomerID, record.RemoteUserID, payload)
		})
	}
	summary.Finalize()
	return summary, nil
}

// findPriorAudit loads the latest audit, mapping "never transmitted" to nil
func (t *LearnerTransmitter) findPriorAudit(ctx context.Context, enrollmentID uuid.UUID, code channel.Code, subsectionID string) (*channel.LearnerTransmissionAudit, error) {
	prior, err := t.auditRepo.FindLatest(ctx, enrollmentID, code, subsectionID)
	if errors.Is(err, channel.ErrAuditNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// newAudit builds the audit row for a completion transmission, carrying the
// prior row's identity forward so the repository updates in place.
func (t *LearnerTransmitter) newAudit(prior *channel.LearnerTransmissionAudit, code channel.Code, record *channel.LearnerCompletionRecord) *channel.LearnerTransmissionAudit {
	audit := &channel.LearnerTransmissionAudit{
		EnterpriseEnrollmentID: record.EnterpriseEnrollmentID,
		ChannelCode:            code,
		CourseID:               record.CourseID,
		Grade:                  record.Grade,
		CourseCompleted:        record.CourseCompleted,
		CompletedAt:            record.CompletedAt,
	}
	if prior != nil {
		audit.ID = prior.ID
		audit.CreatedAt = prior.CreatedAt
	} else {
		audit.ID = uuid.New()
	}
	return audit
}

// send performs the channel call, records the outcome on the audit row and
// updates the summary counters. Channel rejections become audit rows with the
// returned status and body so the next run can retry them.
func (t *LearnerTransmitter) send(ctx context.Context, summary *channel.TransmissionSummary, audit *channel.LearnerTransmissionAudit, call func() (*channel.Response, error)) {
	resp, err := call()
	switch {
	case err == nil:
		audit.Status = strconv.Itoa(resp.StatusCode)
		if resp.StatusCode >= http.StatusBadRequest {
			audit.ErrorMessage = resp.Body
		}
	default:
		var clientErr *channel.ClientError
		if !errors.As(err, &clientErr) {
			// transport-level failure, nothing to audit
			t.fail(summary, audit.EnterpriseEnrollmentID.String(), 0, err)
			return
		}
		audit.Status = strconv.Itoa(clientErr.StatusCode)
		audit.ErrorMessage = clientErr.Message
	}
	audit.UpdatedAt = t.now().UTC()
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = audit.UpdatedAt
	}

	if err := t.auditRepo.Save(ctx, audit); err != nil {
		t.logger.Error("Failed to save transmission audit",
			zap.String("enrollment_id", audit.EnterpriseEnrollmentID.String()),
			zap.String("channel_code", audit.ChannelCode.String()),
			zap.Error(err),
		)
	}

	if audit.Succeeded() {
		summary.SentCount++
		return
	}
	code, _ := strconv.Atoi(audit.Status)
	t.fail(summary, audit.EnterpriseEnrollmentID.String(), code, errors.New(audit.ErrorMessage))
}

// fail records a per-record failure without aborting the run
func (t *LearnerTransmitter) fail(summary *channel.TransmissionSummary, recordID string, statusCode int, err error) {
	t.logger.Error("Failed to transmit learner data record",
		zap.String("record_id", recordID),
		zap.Int("status_code", statusCode),
		zap.Error(err),
	)
	summary.FailedCount++
	summary.Failures = append(summary.Failures, channel.TransmissionFailure{
		RecordID:     recordID,
		StatusCode:   statusCode,
		ErrorMessage: err.Error(),
	})
}
