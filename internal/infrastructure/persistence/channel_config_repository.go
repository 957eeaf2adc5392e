package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormChannelConfigRepository implements ConfigurationRepository using GORM
type GormChannelConfigRepository struct {
	db *gorm.DB
}

// NewGormChannelConfigRepository creates a new GormChannelConfigRepository
func NewGormChannelConfigRepository(db *gorm.DB) *GormChannelConfigRepository {
	return &GormChannelConfigRepository{db: db}
}

// FindByID finds a configuration by its ID
func (r *GormChannelConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Configuration, error) {
	var model models.ChannelConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerAndChannel finds the configuration for a customer on a channel
func (r *GormChannelConfigRepository) FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code channel.Code) (*channel.Configuration, error) {
	var model models.ChannelConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND channel_code = ?", customerID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByChannel returns every active configuration for a channel
func (r *GormChannelConfigRepository) FindActiveByChannel(ctx context.Context, code channel.Code) ([]channel.Configuration, error) {
	var configModels []models.ChannelConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("channel_code = ? AND active = ?", code, true).
		Order("created_at asc").
		Find(&configModels).Error; err != nil {
		return nil, err
	}
	return toConfigurations(configModels), nil
}

// FindByCustomer returns every configuration for a customer
func (r *GormChannelConfigRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]channel.Configuration, error) {
	var configModels []models.ChannelConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ?", customerID).
		Order("channel_code asc").
		Find(&configModels).Error; err != nil {
		return nil, err
	}
	return toConfigurations(configModels), nil
}

// Save persists a configuration, inserting or updating as needed
func (r *GormChannelConfigRepository) Save(ctx context.Context, config *channel.Configuration) error {
	model := models.ChannelConfigurationModelFromDomain(config)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a configuration
func (r *GormChannelConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ChannelConfigurationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrConfigNotFound
	}
	return nil
}

func toConfigurations(configModels []models.ChannelConfigurationModel) []channel.Configuration {
	configs := make([]channel.Configuration, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs
}

var _ channel.ConfigurationRepository = (*GormChannelConfigRepository)(nil)
