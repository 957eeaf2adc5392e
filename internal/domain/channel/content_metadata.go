package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Content Metadata Types
// ---------------------------------------------------------------------------

// ContentMetadataItem is a channel-ready metadata payload for one piece of
// catalog content (a course, course run or program).
type ContentMetadataItem struct {
	// ContentID uniquely identifies the content item (course key, course run
	// id or program uuid)
	ContentID string
	// Metadata is the channel-specific JSON payload for the item
	Metadata json.RawMessage
	// ContentLastChanged is when the item last changed in the catalog
	ContentLastChanged *time.Time
}

// MetadataEquals reports whether the item's payload matches other, comparing
// canonical JSON so key ordering does not produce spurious diffs.
func (i ContentMetadataItem) MetadataEquals(other json.RawMessage) bool {
	a, err := canonicalJSON(i.Metadata)
	if err != nil {
		return false
	}
	b, err := canonicalJSON(other)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// canonicalJSON re-marshals raw JSON so maps serialize with sorted keys
func canonicalJSON(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// ---------------------------------------------------------------------------
// ContentTransmissionAudit
// ---------------------------------------------------------------------------

// ContentTransmissionAudit records a content metadata item that was
// transmitted to a channel for a customer. The set of audits is diffed
// against each export to decide what to create, update and delete.
type ContentTransmissionAudit struct {
	ID uuid.UUID
	// EnterpriseCustomerID is the customer the item was transmitted for
	EnterpriseCustomerID uuid.UUID
	// ChannelCode is the channel the item was sent to
	ChannelCode Code
	// ContentID identifies the content item
	ContentID string
	// Metadata is the payload that was last sent
	Metadata json.RawMessage
	// ContentLastChanged is the catalog timestamp at transmission time
	ContentLastChanged *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// ContentAuditRepository provides access to content transmission audits
type ContentAuditRepository interface {
	// FindByCustomerAndChannel returns every audit for the customer on the channel
	FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code Code) ([]ContentTransmissionAudit, error)

	// CreateBatch inserts audit rows for newly transmitted items
	CreateBatch(ctx context.Context, audits []ContentTransmissionAudit) error

	// Update replaces the payload and catalog timestamp of an existing audit
	Update(ctx context.Context, audit *ContentTransmissionAudit) error

	// DeleteByContentIDs removes audits for items deleted from the channel
	DeleteByContentIDs(ctx context.Context, customerID uuid.UUID, code Code, contentIDs []string) error
}
