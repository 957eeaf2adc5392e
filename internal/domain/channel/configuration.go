package channel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// defaultTransmissionChunkSize bounds how many content items go in one request
const defaultTransmissionChunkSize = 500

// Configuration holds a customer's settings for one integrated channel.
// Channel-specific credentials and endpoints live in Settings as JSON and are
// parsed by the matching infrastructure adapter.
type Configuration struct {
	ID uuid.UUID
	// EnterpriseCustomerID is the customer this configuration belongs to
	EnterpriseCustomerID uuid.UUID
	// ChannelCode identifies which channel this configuration is for
	ChannelCode Code
	// Active indicates whether transmissions should run for this channel
	Active bool
	// TransmissionChunkSize is the maximum number of content items per request
	TransmissionChunkSize int
	// IdentityProvider is the SSO provider slug used to resolve remote user IDs
	IdentityProvider string
	// Settings holds channel-specific configuration (credentials, URLs)
	Settings  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks configuration invariants
func (c *Configuration) Validate() error {
	if c.EnterpriseCustomerID == uuid.Nil {
		return ErrConfigInvalidCustomerID
	}
	if !c.ChannelCode.IsValid() {
		return ErrConfigInvalidCode
	}
	return nil
}

// ChunkSize returns the configured chunk size, falling back to the default
func (c *Configuration) ChunkSize() int {
	if c.TransmissionChunkSize > 0 {
		return c.TransmissionChunkSize
	}
	return defaultTransmissionChunkSize
}

// ConfigurationRepository provides access to channel configurations
type ConfigurationRepository interface {
	// FindByID finds a configuration by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Configuration, error)

	// FindByCustomerAndChannel finds the configuration for a customer on a channel
	FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code Code) (*Configuration, error)

	// FindActiveByChannel returns every active configuration for a channel
	FindActiveByChannel(ctx context.Context, code Code) ([]Configuration, error)

	// FindByCustomer returns every configuration for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Configuration, error)

	// Save persists a configuration, inserting or updating as needed
	Save(ctx context.Context, config *Configuration) error

	// Delete removes a configuration
	Delete(ctx context.Context, id uuid.UUID) error
}
