package channel

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/telemetry"
)

// SyncService drives the export-and-transmit pipeline across every active
// configuration of a channel. It is what the scheduler and the sync command
// invoke; per-customer failures are logged and the run moves on.
type SyncService struct {
	configRepo   channel.ConfigurationRepository
	customerRepo enterprise.CustomerRepository
	learnerExp   *LearnerExporter
	learnerTx    *LearnerTransmitter
	contentExp   *ContentMetadataExporter
	contentTx    *ContentMetadataTransmitter
	logger       *zap.Logger
}

// NewSyncService creates the channel sync orchestrator
func NewSyncService(
	configRepo channel.ConfigurationRepository,
	customerRepo enterprise.CustomerRepository,
	learnerExp *LearnerExporter,
	learnerTx *LearnerTransmitter,
	contentExp *ContentMetadataExporter,
	contentTx *ContentMetadataTransmitter,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		configRepo:   configRepo,
		customerRepo: customerRepo,
		learnerExp:   learnerExp,
		learnerTx:    learnerTx,
		contentExp:   contentExp,
		contentTx:    contentTx,
		logger:       logger,
	}
}

// SyncLearnerData exports and transmits completion records for every active
// configuration on the channel, plus assessment grades where the channel
// accepts them.
func (s *SyncService) SyncLearnerData(ctx context.Context, code channel.Code) (*channel.TransmissionSummary, error) {
	return s.syncLearnerData(ctx, code, uuid.Nil)
}

// SyncLearnerDataForCustomer restricts the learner data run to one enterprise customer
func (s *SyncService) SyncLearnerDataForCustomer(ctx context.Context, code channel.Code, customerID uuid.UUID) (*channel.TransmissionSummary, error) {
	return s.syncLearnerData(ctx, code, customerID)
}

func (s *SyncService) syncLearnerData(ctx context.Context, code channel.Code, customerID uuid.UUID) (*channel.TransmissionSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "channel_sync", "learner_data",
		telemetry.WithAttribute(telemetry.SpanAttrChannelCode, code.String()))
	defer span.End()

	summary, err := s.syncEach(ctx, code, customerID, func(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) (*channel.TransmissionSummary, error) {
		records, err := s.learnerExp.ExportCompletions(ctx, customer, config)
		if err != nil {
			return nil, err
		}
		summary, err := s.learnerTx.TransmitCompletions(ctx, config, records)
		if err != nil {
			return nil, err
		}

		if supportsAssessments(code) {
			assessments, err := s.learnerExp.ExportAssessments(ctx, customer, config)
			if err != nil {
				return nil, err
			}
			assessmentSummary, err := s.learnerTx.TransmitAssessments(ctx, config, assessments)
			if err != nil {
				return nil, err
			}
			mergeSummary(summary, assessmentSummary)
		}
		return summary, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return summary, err
}

// SyncContentMetadata exports and reconciles catalog content for every active
// configuration on the channel.
func (s *SyncService) SyncContentMetadata(ctx context.Context, code channel.Code) (*channel.TransmissionSummary, error) {
	return s.syncContentMetadata(ctx, code, uuid.Nil)
}

// SyncContentMetadataForCustomer restricts the content run to one enterprise customer
func (s *SyncService) SyncContentMetadataForCustomer(ctx context.Context, code channel.Code, customerID uuid.UUID) (*channel.TransmissionSummary, error) {
	return s.syncContentMetadata(ctx, code, customerID)
}

func (s *SyncService) syncContentMetadata(ctx context.Context, code channel.Code, customerID uuid.UUID) (*channel.TransmissionSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "channel_sync", "content_metadata",
		telemetry.WithAttribute(telemetry.SpanAttrChannelCode, code.String()))
	defer span.End()

	summary, err := s.syncEach(ctx, code, customerID, func(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) (*channel.TransmissionSummary, error) {
		export, err := s.contentExp.ExportContent(ctx, customer, config)
		if err != nil {
			return nil, err
		}
		return s.contentTx.Transmit(ctx, config, export)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return summary, err
}

// SyncAll runs learner data and content metadata for every channel
func (s *SyncService) SyncAll(ctx context.Context) error {
	for _, code := range channel.AllCodes() {
		if _, err := s.SyncLearnerData(ctx, code); err != nil {
			s.logger.Error("Learner data sync failed for channel",
				zap.String("channel_code", code.String()),
				zap.Error(err),
			)
		}
		if _, err := s.SyncContentMetadata(ctx, code); err != nil {
			s.logger.Error("Content metadata sync failed for channel",
				zap.String("channel_code", code.String()),
				zap.Error(err),
			)
		}
	}
	return ctx.Err()
}

// syncEach runs fn once per active configuration, aggregating summaries.
// A non-nil customerID restricts the run to that customer's configuration.
func (s *SyncService) syncEach(ctx context.Context, code channel.Code, customerID uuid.UUID, fn func(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) (*channel.TransmissionSummary, error)) (*channel.TransmissionSummary, error) {
	configs, err := s.configRepo.FindActiveByChannel(ctx, code)
	if err != nil {
		return nil, err
	}

	total := &channel.TransmissionSummary{Status: channel.TransmissionStatusInProgress}
	for i := range configs {
		config := &configs[i]
		if customerID != uuid.Nil && config.EnterpriseCustomerID != customerID {
			continue
		}
		customer, err := s.customerRepo.FindByID(ctx, config.EnterpriseCustomerID)
		if err != nil {
			s.logger.Error("Failed to load customer for channel configuration",
				zap.String("configuration_id", config.ID.String()),
				zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
				zap.Error(err),
			)
			continue
		}
		if !customer.Active {
			s.logger.Debug("Skipping inactive customer",
				zap.String("enterprise_customer_id", customer.ID.String()),
			)
			continue
		}

		summary, err := fn(ctx, customer, config)
		if err != nil {
			s.logger.Error("Channel sync failed for customer",
				zap.String("enterprise_customer_id", customer.ID.String()),
				zap.String("channel_code", code.String()),
				zap.Error(err),
			)
			continue
		}
		mergeSummary(total, summary)

		s.logger.Info("Channel sync finished for customer",
			zap.String("enterprise_customer_id", customer.ID.String()),
			zap.String("channel_code", code.String()),
			zap.String("status", summary.Status.String()),
			zap.Int("sent", summary.SentCount),
			zap.Int("skipped", summary.SkippedCount),
			zap.Int("failed", summary.FailedCount),
		)
	}
	total.Finalize()
	return total, nil
}

// supportsAssessments reports whether the channel ingests per-subsection grades
func supportsAssessments(code channel.Code) bool {
	return code == channel.CodeSAPSuccessFactors
}

func mergeSummary(into, from *channel.TransmissionSummary) {
	into.TotalCount += from.TotalCount
	into.SentCount += from.SentCount
	into.SkippedCount += from.SkippedCount
	into.FailedCount += from.FailedCount
	into.Failures = append(into.Failures, from.Failures...)
}
