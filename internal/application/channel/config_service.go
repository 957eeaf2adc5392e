package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
)

// ConfigurationApplier pushes stored settings into the live channel client
// so new credentials take effect without a restart
type ConfigurationApplier interface {
	ApplyConfiguration(config *channel.Configuration) error
}

// CreateConfigurationRequest carries the fields for a new channel configuration
type CreateConfigurationRequest struct {
	EnterpriseCustomerID  uuid.UUID       `json:"enterprise_customer_id"`
	ChannelCode           channel.Code    `json:"channel_code"`
	Active                bool            `json:"active"`
	TransmissionChunkSize int             `json:"transmission_chunk_size"`
	IdentityProvider      string          `json:"identity_provider"`
	Settings              json.RawMessage `json:"settings"`
}

// UpdateConfigurationRequest carries a partial update; nil fields keep their value
type UpdateConfigurationRequest struct {
	Active                *bool           `json:"active"`
	TransmissionChunkSize *int            `json:"transmission_chunk_size"`
	IdentityProvider      *string         `json:"identity_provider"`
	Settings              json.RawMessage `json:"settings"`
}

// ConfigurationResponse is the outward view of a channel configuration.
// Settings are omitted because they hold channel credentials.
type ConfigurationResponse struct {
	ID                    uuid.UUID    `json:"id"`
	EnterpriseCustomerID  uuid.UUID    `json:"enterprise_customer_id"`
	ChannelCode           channel.Code `json:"channel_code"`
	Active                bool         `json:"active"`
	TransmissionChunkSize int          `json:"transmission_chunk_size"`
	IdentityProvider      string       `json:"identity_provider"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// ToConfigurationResponse converts a domain configuration to a response
func ToConfigurationResponse(config *channel.Configuration) *ConfigurationResponse {
	return &ConfigurationResponse{
		ID:                    config.ID,
		EnterpriseCustomerID:  config.EnterpriseCustomerID,
		ChannelCode:           config.ChannelCode,
		Active:                config.Active,
		TransmissionChunkSize: config.TransmissionChunkSize,
		IdentityProvider:      config.IdentityProvider,
		CreatedAt:             config.CreatedAt,
		UpdatedAt:             config.UpdatedAt,
	}
}

// ConfigurationService manages per-customer channel configurations. Saving a
// configuration also applies its settings to the live client, which doubles as
// validation of the channel credentials payload.
type ConfigurationService struct {
	configRepo   channel.ConfigurationRepository
	customerRepo enterprise.CustomerRepository
	applier      ConfigurationApplier
	logger       *zap.Logger
}

// NewConfigurationService creates a configuration service
func NewConfigurationService(
	configRepo channel.ConfigurationRepository,
	customerRepo enterprise.CustomerRepository,
	applier ConfigurationApplier,
	logger *zap.Logger,
) *ConfigurationService {
	return &ConfigurationService{
		configRepo:   configRepo,
		customerRepo: customerRepo,
		applier:      applier,
		logger:       logger,
	}
}

// Create registers a channel configuration for a customer. A customer may have
// at most one configuration per channel.
func (s *ConfigurationService) Create(ctx context.Context, req CreateConfigurationRequest) (*ConfigurationResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.EnterpriseCustomerID); err != nil {
		return nil, err
	}
	existing, err := s.configRepo.FindByCustomerAndChannel(ctx, req.EnterpriseCustomerID, req.ChannelCode)
	if err != nil && !errors.Is(err, channel.ErrConfigNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, channel.ErrConfigAlreadyExists
	}

	config := &channel.Configuration{
		ID:                    uuid.New(),
		EnterpriseCustomerID:  req.EnterpriseCustomerID,
		ChannelCode:           req.ChannelCode,
		Active:                req.Active,
		TransmissionChunkSize: req.TransmissionChunkSize,
		IdentityProvider:      req.IdentityProvider,
		Settings:              req.Settings,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := s.apply(config); err != nil {
		return nil, err
	}
	if err := s.configRepo.Save(ctx, config); err != nil {
		return nil, err
	}

	s.logger.Info("Created channel configuration",
		zap.String("configuration_id", config.ID.String()),
		zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
		zap.String("channel_code", string(config.ChannelCode)),
	)
	return ToConfigurationResponse(config), nil
}

// GetByID returns a configuration by its ID
func (s *ConfigurationService) GetByID(ctx context.Context, id uuid.UUID) (*ConfigurationResponse, error) {
	config, err := s.configRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToConfigurationResponse(config), nil
}

// ListByCustomer returns every configuration for a customer
func (s *ConfigurationService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]ConfigurationResponse, error) {
	configs, err := s.configRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]ConfigurationResponse, 0, len(configs))
	for i := range configs {
		responses = append(responses, *ToConfigurationResponse(&configs[i]))
	}
	return responses, nil
}

// Update patches a configuration and re-applies its settings to the client
func (s *ConfigurationService) Update(ctx context.Context, id uuid.UUID, req UpdateConfigurationRequest) (*ConfigurationResponse, error) {
	config, err := s.configRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Active != nil {
		config.Active = *req.Active
	}
	if req.TransmissionChunkSize != nil {
		config.TransmissionChunkSize = *req.TransmissionChunkSize
	}
	if req.IdentityProvider != nil {
		config.IdentityProvider = *req.IdentityProvider
	}
	if req.Settings != nil {
		config.Settings = req.Settings
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := s.apply(config); err != nil {
		return nil, err
	}
	if err := s.configRepo.Save(ctx, config); err != nil {
		return nil, err
	}

	s.logger.Info("Updated channel configuration",
		zap.String("configuration_id", config.ID.String()),
		zap.String("channel_code", string(config.ChannelCode)),
	)
	return ToConfigurationResponse(config), nil
}

// Delete removes a configuration
func (s *ConfigurationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.configRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.configRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted channel configuration", zap.String("configuration_id", id.String()))
	return nil
}

// ApplyAll loads every active configuration into the channel clients. Called
// once at startup so clients have customer credentials before the first sync.
// Bad rows are logged and skipped so one customer cannot block the rest.
func (s *ConfigurationService) ApplyAll(ctx context.Context) (int, error) {
	applied := 0
	for _, code := range channel.AllCodes() {
		configs, err := s.configRepo.FindActiveByChannel(ctx, code)
		if err != nil {
			return applied, err
		}
		for i := range configs {
			if err := s.apply(&configs[i]); err != nil {
				s.logger.Error("Failed to apply channel configuration",
					zap.String("configuration_id", configs[i].ID.String()),
					zap.String("channel_code", string(code)),
					zap.Error(err),
				)
				continue
			}
			applied++
		}
	}
	return applied, ctx.Err()
}

func (s *ConfigurationService) apply(config *channel.Configuration) error {
	if len(config.Settings) == 0 {
		return nil
	}
	return s.applier.ApplyConfiguration(config)
}
