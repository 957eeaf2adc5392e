package channel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/channels"
)

func contentItem(contentID, title string) channel.ContentMetadataItem {
	metadata, _ := json.Marshal(map[string]string{"contentId": contentID, "title": title})
	return channel.ContentMetadataItem{ContentID: contentID, Metadata: metadata}
}

func contentAudit(customerID uuid.UUID, code channel.Code, item channel.ContentMetadataItem) channel.ContentTransmissionAudit {
	return channel.ContentTransmissionAudit{
		ID:                   uuid.New(),
		EnterpriseCustomerID: customerID,
		ChannelCode:          code,
		ContentID:            item.ContentID,
		Metadata:             item.Metadata,
	}
}

func newTestContentTransmitter(code channel.Code) (*ContentMetadataTransmitter, *mockChannelClient, *mockContentAuditRepository) {
	client := &mockChannelClient{code: code}
	auditRepo := &mockContentAuditRepository{}
	transmitter := NewContentMetadataTransmitter(channels.NewClientRegistry(client), auditRepo, zap.NewNop())
	return transmitter, client, auditRepo
}

func TestContentMetadataTransmitter_Transmit(t *testing.T) {
	ctx := context.Background()

	t.Run("partitions into delete, create and update in that order", func(t *testing.T) {
		transmitter, client, auditRepo := newTestContentTransmitter(channel.CodeDegreed)
		config := testConfiguration(channel.CodeDegreed)

		unchanged := contentItem("course-keep", "Kept Course")
		changed := contentItem("course-changed", "Old Title")
		removed := contentItem("course-removed", "Removed Course")
		added := contentItem("course-added", "New Course")
		changedNow := contentItem("course-changed", "New Title")

		auditRepo.On("FindByCustomerAndChannel", ctx, config.EnterpriseCustomerID, channel.CodeDegreed).
			Return([]channel.ContentTransmissionAudit{
				contentAudit(config.EnterpriseCustomerID, channel.CodeDegreed, unchanged),
				contentAudit(config.EnterpriseCustomerID, channel.CodeDegreed, changed),
				contentAudit(config.EnterpriseCustomerID, channel.CodeDegreed, removed),
			}, nil)

		var order []string
		client.On("DeleteContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Run(func(mock.Arguments) { order = append(order, "delete") }).
			Return(&channel.Response{StatusCode: 200}, nil)
		client.On("CreateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Run(func(mock.Arguments) { order = append(order, "create") }).
			Return(&channel.Response{StatusCode: 200}, nil)
		client.On("UpdateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Run(func(mock.Arguments) { order = append(order, "update") }).
			Return(&channel.Response{StatusCode: 200}, nil)

		auditRepo.On("DeleteByContentIDs", ctx, config.EnterpriseCustomerID, channel.CodeDegreed, []string{"course-removed"}).
			Return(nil)
		auditRepo.On("CreateBatch", ctx, mock.MatchedBy(func(audits []channel.ContentTransmissionAudit) bool {
			return len(audits) == 1 && audits[0].ContentID == "course-added"
		})).Return(nil)
		auditRepo.On("Update", ctx, mock.MatchedBy(func(audit *channel.ContentTransmissionAudit) bool {
			return audit.ContentID == "course-changed" && string(audit.Metadata) == string(changedNow.Metadata)
		})).Return(nil)

		export := map[string]channel.ContentMetadataItem{
			unchanged.ContentID:  unchanged,
			changedNow.ContentID: changedNow,
			added.ContentID:      added,
		}
		summary, err := transmitter.Transmit(ctx, config, export)

		require.NoError(t, err)
		assert.Equal(t, []string{"delete", "create", "update"}, order)
		assert.Equal(t, 3, summary.SentCount)
		assert.Equal(t, 1, summary.SkippedCount)
		assert.Equal(t, 4, summary.TotalCount)
		assert.Equal(t, channel.TransmissionStatusSuccess, summary.Status)
		auditRepo.AssertExpectations(t)
	})

	t.Run("does not move audits for a rejected chunk", func(t *testing.T) {
		transmitter, client, auditRepo := newTestContentTransmitter(channel.CodeDegreed)
		config := testConfiguration(channel.CodeDegreed)

		added := contentItem("course-added", "New Course")
		auditRepo.On("FindByCustomerAndChannel", ctx, config.EnterpriseCustomerID, channel.CodeDegreed).
			Return([]channel.ContentTransmissionAudit{}, nil)
		client.On("CreateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Return(nil, channel.NewClientError(400, "bad payload"))

		summary, err := transmitter.Transmit(ctx, config, map[string]channel.ContentMetadataItem{
			added.ContentID: added,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.FailedCount)
		assert.Equal(t, channel.TransmissionStatusFailed, summary.Status)
		require.Len(t, summary.Failures, 1)
		assert.Equal(t, 400, summary.Failures[0].StatusCode)
		auditRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("splits creates into chunks of the configured size", func(t *testing.T) {
		transmitter, client, auditRepo := newTestContentTransmitter(channel.CodeSAPSuccessFactors)
		config := testConfiguration(channel.CodeSAPSuccessFactors)
		config.TransmissionChunkSize = 2

		auditRepo.On("FindByCustomerAndChannel", ctx, config.EnterpriseCustomerID, channel.CodeSAPSuccessFactors).
			Return([]channel.ContentTransmissionAudit{}, nil)
		client.On("CreateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Return(&channel.Response{StatusCode: 200}, nil)
		auditRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)

		export := map[string]channel.ContentMetadataItem{}
		for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
			export[id] = contentItem(id, "Course "+id)
		}
		summary, err := transmitter.Transmit(ctx, config, export)

		require.NoError(t, err)
		assert.Equal(t, 5, summary.SentCount)
		client.AssertNumberOfCalls(t, "CreateContentMetadata", 3)
	})

	t.Run("assigns created audit rows their own identity", func(t *testing.T) {
		transmitter, client, auditRepo := newTestContentTransmitter(channel.CodeDegreed)
		config := testConfiguration(channel.CodeDegreed)

		auditRepo.On("FindByCustomerAndChannel", ctx, config.EnterpriseCustomerID, channel.CodeDegreed).
			Return([]channel.ContentTransmissionAudit{}, nil)
		client.On("CreateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Return(&channel.Response{StatusCode: 200}, nil)
		auditRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)

		_, err := transmitter.Transmit(ctx, config, map[string]channel.ContentMetadataItem{
			"course-a": contentItem("course-a", "Course A"),
			"course-b": contentItem("course-b", "Course B"),
		})

		require.NoError(t, err)
		seen := map[uuid.UUID]bool{}
		for _, call := range auditRepo.Calls {
			if call.Method != "CreateBatch" {
				continue
			}
			for _, audit := range call.Arguments.Get(1).([]channel.ContentTransmissionAudit) {
				assert.NotEqual(t, uuid.Nil, audit.ID)
				assert.False(t, seen[audit.ID])
				seen[audit.ID] = true
			}
		}
		assert.Len(t, seen, 2)
	})

	t.Run("moodle transmits one course per call", func(t *testing.T) {
		transmitter, client, auditRepo := newTestContentTransmitter(channel.CodeMoodle)
		config := testConfiguration(channel.CodeMoodle)
		config.TransmissionChunkSize = 100

		auditRepo.On("FindByCustomerAndChannel", ctx, config.EnterpriseCustomerID, channel.CodeMoodle).
			Return([]channel.ContentTransmissionAudit{}, nil)
		client.On("CreateContentMetadata", ctx, config.EnterpriseCustomerID, mock.Anything).
			Return(&channel.Response{StatusCode: 200}, nil)
		auditRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)

		first, _ := json.Marshal(map[string]string{"shortname": "c1", "fullname": "Course 1"})
		second, _ := json.Marshal(map[string]string{"shortname": "c2", "fullname": "Course 2"})
		export := map[string]channel.ContentMetadataItem{
			"c1": {ContentID: "c1", Metadata: first},
			"c2": {ContentID: "c2", Metadata: second},
		}
		_, err := transmitter.Transmit(ctx, config, export)

		require.NoError(t, err)
		client.AssertNumberOfCalls(t, "CreateContentMetadata", 2)
	})
}

func TestPartitionContent(t *testing.T) {
	customerID := uuid.New()

	unchanged := contentItem("course-keep", "Kept")
	changedOld := contentItem("course-changed", "Old")
	changedNew := contentItem("course-changed", "New")
	removed := contentItem("course-removed", "Removed")
	added := contentItem("course-added", "Added")

	prior := []channel.ContentTransmissionAudit{
		contentAudit(customerID, channel.CodeDegreed, unchanged),
		contentAudit(customerID, channel.CodeDegreed, changedOld),
		contentAudit(customerID, channel.CodeDegreed, removed),
	}
	export := map[string]channel.ContentMetadataItem{
		unchanged.ContentID:  unchanged,
		changedNew.ContentID: changedNew,
		added.ContentID:      added,
	}

	partition := partitionContent(prior, export)

	require.Len(t, partition.creates, 1)
	assert.Equal(t, "course-added", partition.creates[0].ContentID)
	require.Len(t, partition.updates, 1)
	assert.Equal(t, "course-changed", partition.updates[0].ContentID)
	require.Len(t, partition.deletes, 1)
	assert.Equal(t, "course-removed", partition.deletes[0].ContentID)
	assert.Equal(t, 1, partition.unchanged)
}

func TestPartitionContent_KeyOrderDoesNotForceUpdates(t *testing.T) {
	customerID := uuid.New()

	stored := channel.ContentTransmissionAudit{
		ID:                   uuid.New(),
		EnterpriseCustomerID: customerID,
		ChannelCode:          channel.CodeDegreed,
		ContentID:            "course-1",
		Metadata:             json.RawMessage(`{"title": "Course", "contentId": "course-1"}`),
	}
	exported := channel.ContentMetadataItem{
		ContentID: "course-1",
		Metadata:  json.RawMessage(`{"contentId": "course-1", "title": "Course"}`),
	}

	partition := partitionContent([]channel.ContentTransmissionAudit{stored}, map[string]channel.ContentMetadataItem{
		"course-1": exported,
	})

	assert.Empty(t, partition.updates)
	assert.Equal(t, 1, partition.unchanged)
}
