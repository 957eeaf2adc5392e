package channel

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ContentMetadataTransmitter reconciles a customer's catalog export against
// what the channel already holds. The audit trail is the source of truth for
// the channel side: items transmitted before and gone from the export are
// deleted, new items are created, items whose payload changed are updated.
type ContentMetadataTransmitter struct {
	registry  channel.Registry
	auditRepo channel.ContentAuditRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewContentMetadataTransmitter creates a content metadata transmitter
func NewContentMetadataTransmitter(registry channel.Registry, auditRepo channel.ContentAuditRepository, logger *zap.Logger) *ContentMetadataTransmitter {
	return &ContentMetadataTransmitter{
		registry:  registry,
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// contentPartition buckets an export against the audit trail
type contentPartition struct {
	creates   []channel.ContentMetadataItem
	updates   []channel.ContentMetadataItem
	deletes   []channel.ContentMetadataItem
	unchanged int
	// priorByID carries existing audit rows forward for updates
	priorByID map[string]*channel.ContentTransmissionAudit
}

// Transmit reconciles the export with the channel, in delete, create, update
// order so renamed keys free their slot before the new one lands. Audit rows
// move only for chunks the channel accepted, so a failed chunk is retried on
// the next run.
func (t *ContentMetadataTransmitter) Transmit(ctx context.Context, config *channel.Configuration, export map[string]channel.ContentMetadataItem) (*channel.TransmissionSummary, error) {
	client, err := t.registry.GetClient(config.ChannelCode)
	if err != nil {
		return nil, err
	}

	prior, err := t.auditRepo.FindByCustomerAndChannel(ctx, config.EnterpriseCustomerID, config.ChannelCode)
	if err != nil {
		return nil, err
	}
	partition := partitionContent(prior, export)

	summary := &channel.TransmissionSummary{
		Status: channel.TransmissionStatusInProgress,
		TotalCount: len(partition.creates) + len(partition.updates) +
			len(partition.deletes) + partition.unchanged,
		SkippedCount: partition.unchanged,
	}

	chunkSize := config.ChunkSize()
	if config.ChannelCode == channel.CodeMoodle {
		// Moodle's update and delete functions address one course per call
		chunkSize = 1
	}

	for _, chunk := range chunkItems(partition.deletes, chunkSize) {
		t.transmitChunk(ctx, summary, chunk, client.DeleteContentMetadata, config, func(chunk []channel.ContentMetadataItem) error {
			return t.auditRepo.DeleteByContentIDs(ctx, config.EnterpriseCustomerID, config.ChannelCode, contentIDs(chunk))
		})
	}
	for _, chunk := range chunkItems(partition.creates, chunkSize) {
		t.transmitChunk(ctx, summary, chunk, client.CreateContentMetadata, config, func(chunk []channel.ContentMetadataItem) error {
			return t.auditRepo.CreateBatch(ctx, t.newAudits(config, chunk))
		})
	}
	for _, chunk := range chunkItems(partition.updates, chunkSize) {
		t.transmitChunk(ctx, summary, chunk, client.UpdateContentMetadata, config, func(chunk []channel.ContentMetadataItem) error {
			return t.updateAudits(ctx, partition.priorByID, chunk)
		})
	}

	summary.Finalize()
	return summary, nil
}

// partitionContent diffs the export against the audit trail
func partitionContent(prior []channel.ContentTransmissionAudit, export map[string]channel.ContentMetadataItem) *contentPartition {
	partition := &contentPartition{
		priorByID: make(map[string]*channel.ContentTransmissionAudit, len(prior)),
	}
	for i := range prior {
		audit := &prior[i]
		partition.priorByID[audit.ContentID] = audit
		item, exported := export[audit.ContentID]
		switch {
		case !exported:
			partition.deletes = append(partition.deletes, channel.ContentMetadataItem{
				ContentID:          audit.ContentID,
				Metadata:           audit.Metadata,
				ContentLastChanged: audit.ContentLastChanged,
			})
		case item.MetadataEquals(audit.Metadata):
			partition.unchanged++
		default:
			partition.updates = append(partition.updates, item)
		}
	}
	for contentID, item := range export {
		if _, exists := partition.priorByID[contentID]; !exists {
			partition.creates = append(partition.creates, item)
		}
	}
	// map iteration order is random; keep runs reproducible
	sortItems(partition.creates)
	sortItems(partition.updates)
	sortItems(partition.deletes)
	return partition
}

// transmitChunk sends one chunk and moves the audit trail only if the channel
// accepted it. A failed chunk fails all its items and the run continues.
func (t *ContentMetadataTransmitter) transmitChunk(
	ctx context.Context,
	summary *channel.TransmissionSummary,
	chunk []channel.ContentMetadataItem,
	send func(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error),
	config *channel.Configuration,
	recordAudits func(chunk []channel.ContentMetadataItem) error,
) {
	payload, err := buildContentPayload(config.ChannelCode, chunk)
	if err != nil {
		t.failChunk(summary, chunk, 0, err)
		return
	}

	if _, err := send(ctx, config.EnterpriseCustomerID, payload); err != nil {
		statusCode := 0
		var clientErr *channel.ClientError
		if errors.As(err, &clientErr) {
			statusCode = clientErr.StatusCode
		}
		t.failChunk(summary, chunk, statusCode, err)
		return
	}
	summary.SentCount += len(chunk)

	if err := recordAudits(chunk); err != nil {
		t.logger.Error("Failed to record content transmission audits",
			zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
			zap.String("channel_code", config.ChannelCode.String()),
			zap.Error(err),
		)
	}
}

func (t *ContentMetadataTransmitter) failChunk(summary *channel.TransmissionSummary, chunk []channel.ContentMetadataItem, statusCode int, err error) {
	t.logger.Error("Failed to transmit content metadata chunk",
		zap.Int("chunk_size", len(chunk)),
		zap.Int("status_code", statusCode),
		zap.Error(err),
	)
	summary.FailedCount += len(chunk)
	for _, item := range chunk {
		summary.Failures = append(summary.Failures, channel.TransmissionFailure{
			RecordID:     item.ContentID,
			StatusCode:   statusCode,
			ErrorMessage: err.Error(),
		})
	}
}

// newAudits builds fresh audit rows for a created chunk
func (t *ContentMetadataTransmitter) newAudits(config *channel.Configuration, chunk []channel.ContentMetadataItem) []channel.ContentTransmissionAudit {
	now := t.now().UTC()
	audits := make([]channel.ContentTransmissionAudit, 0, len(chunk))
	for _, item := range chunk {
		audits = append(audits, channel.ContentTransmissionAudit{
			ID:                   uuid.New(),
			EnterpriseCustomerID: config.EnterpriseCustomerID,
			ChannelCode:          config.ChannelCode,
			ContentID:            item.ContentID,
			Metadata:             item.Metadata,
			ContentLastChanged:   item.ContentLastChanged,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
	}
	return audits
}

// updateAudits replaces stored payloads for an updated chunk
func (t *ContentMetadataTransmitter) updateAudits(ctx context.Context, priorByID map[string]*channel.ContentTransmissionAudit, chunk []channel.ContentMetadataItem) error {
	now := t.now().UTC()
	for _, item := range chunk {
		audit, ok := priorByID[item.ContentID]
		if !ok {
			continue
		}
		audit.Metadata = item.Metadata
		audit.ContentLastChanged = item.ContentLastChanged
		audit.UpdatedAt = now
		if err := t.auditRepo.Update(ctx, audit); err != nil {
			return err
		}
	}
	return nil
}

func chunkItems(items []channel.ContentMetadataItem, size int) [][]channel.ContentMetadataItem {
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]channel.ContentMetadataItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func contentIDs(items []channel.ContentMetadataItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ContentID)
	}
	return ids
}

func sortItems(items []channel.ContentMetadataItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ContentID < items[j].ContentID
	})
}
