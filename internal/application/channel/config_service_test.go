package channel

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
)

type configServiceFixture struct {
	configRepo   *mockConfigurationRepository
	customerRepo *mockCustomerRepository
	applier      *mockConfigurationApplier
	service      *ConfigurationService
	customer     *enterprise.Customer
}

func newConfigServiceFixture(t *testing.T) *configServiceFixture {
	t.Helper()
	customer, err := enterprise.NewCustomer("Acme Corp", "acme-corp")
	require.NoError(t, err)

	f := &configServiceFixture{
		configRepo:   new(mockConfigurationRepository),
		customerRepo: new(mockCustomerRepository),
		applier:      new(mockConfigurationApplier),
		customer:     customer,
	}
	f.service = NewConfigurationService(f.configRepo, f.customerRepo, f.applier, zap.NewNop())
	return f
}

func TestConfigurationService_Create(t *testing.T) {
	settings := json.RawMessage(`{"base_url":"https://acme.plateau.com","client_id":"id","client_secret":"secret","company_id":"ACME","user_id":"admin"}`)

	t.Run("registers configuration and applies settings", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		f.customerRepo.On("FindByID", mock.Anything, f.customer.ID).Return(f.customer, nil)
		f.configRepo.On("FindByCustomerAndChannel", mock.Anything, f.customer.ID, channel.CodeSAPSuccessFactors).
			Return(nil, channel.ErrConfigNotFound)
		f.applier.On("ApplyConfiguration", mock.MatchedBy(func(config *channel.Configuration) bool {
			return config.EnterpriseCustomerID == f.customer.ID &&
				config.ChannelCode == channel.CodeSAPSuccessFactors
		})).Return(nil)
		f.configRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Create(context.Background(), CreateConfigurationRequest{
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeSAPSuccessFactors,
			Active:               true,
			IdentityProvider:     "saml-acme",
			Settings:             settings,
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, channel.CodeSAPSuccessFactors, resp.ChannelCode)
		assert.True(t, resp.Active)
		f.configRepo.AssertExpectations(t)
		f.applier.AssertExpectations(t)
	})

	t.Run("rejects a second configuration for the same channel", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		f.customerRepo.On("FindByID", mock.Anything, f.customer.ID).Return(f.customer, nil)
		f.configRepo.On("FindByCustomerAndChannel", mock.Anything, f.customer.ID, channel.CodeDegreed).
			Return(&channel.Configuration{ID: uuid.New()}, nil)

		_, err := f.service.Create(context.Background(), CreateConfigurationRequest{
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeDegreed,
			Settings:             settings,
		})

		assert.ErrorIs(t, err, channel.ErrConfigAlreadyExists)
		f.configRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects settings the client cannot parse", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		parseErr := errors.New("channels: sapsf config missing base_url")
		f.customerRepo.On("FindByID", mock.Anything, f.customer.ID).Return(f.customer, nil)
		f.configRepo.On("FindByCustomerAndChannel", mock.Anything, f.customer.ID, channel.CodeSAPSuccessFactors).
			Return(nil, channel.ErrConfigNotFound)
		f.applier.On("ApplyConfiguration", mock.Anything).Return(parseErr)

		_, err := f.service.Create(context.Background(), CreateConfigurationRequest{
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeSAPSuccessFactors,
			Settings:             json.RawMessage(`{}`),
		})

		assert.ErrorIs(t, err, parseErr)
		f.configRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestConfigurationService_Update(t *testing.T) {
	t.Run("patches fields and reapplies settings", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		config := &channel.Configuration{
			ID:                   uuid.New(),
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeMoodle,
			Active:               true,
			Settings:             json.RawMessage(`{"base_url":"https://moodle.acme.example.com","token":"abc"}`),
		}
		f.configRepo.On("FindByID", mock.Anything, config.ID).Return(config, nil)
		f.applier.On("ApplyConfiguration", config).Return(nil)
		f.configRepo.On("Save", mock.Anything, config).Return(nil)

		active := false
		chunkSize := 50
		resp, err := f.service.Update(context.Background(), config.ID, UpdateConfigurationRequest{
			Active:                &active,
			TransmissionChunkSize: &chunkSize,
		})

		require.NoError(t, err)
		assert.False(t, resp.Active)
		assert.Equal(t, 50, resp.TransmissionChunkSize)
		f.configRepo.AssertExpectations(t)
	})

	t.Run("returns not found for an unknown configuration", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		id := uuid.New()
		f.configRepo.On("FindByID", mock.Anything, id).Return(nil, channel.ErrConfigNotFound)

		_, err := f.service.Update(context.Background(), id, UpdateConfigurationRequest{})

		assert.ErrorIs(t, err, channel.ErrConfigNotFound)
	})
}

func TestConfigurationService_Delete(t *testing.T) {
	f := newConfigServiceFixture(t)
	config := &channel.Configuration{ID: uuid.New(), EnterpriseCustomerID: f.customer.ID, ChannelCode: channel.CodeDegreed}
	f.configRepo.On("FindByID", mock.Anything, config.ID).Return(config, nil)
	f.configRepo.On("Delete", mock.Anything, config.ID).Return(nil)

	err := f.service.Delete(context.Background(), config.ID)

	require.NoError(t, err)
	f.configRepo.AssertExpectations(t)
}

func TestConfigurationService_ApplyAll(t *testing.T) {
	t.Run("loads every active configuration into the clients", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		sapConfig := channel.Configuration{
			ID:                   uuid.New(),
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeSAPSuccessFactors,
			Active:               true,
			Settings:             json.RawMessage(`{"base_url":"https://acme.plateau.com"}`),
		}
		for _, code := range channel.AllCodes() {
			if code == channel.CodeSAPSuccessFactors {
				f.configRepo.On("FindActiveByChannel", mock.Anything, code).
					Return([]channel.Configuration{sapConfig}, nil)
				continue
			}
			f.configRepo.On("FindActiveByChannel", mock.Anything, code).
				Return([]channel.Configuration{}, nil)
		}
		f.applier.On("ApplyConfiguration", mock.MatchedBy(func(config *channel.Configuration) bool {
			return config.ID == sapConfig.ID
		})).Return(nil)

		applied, err := f.service.ApplyAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, applied)
		f.applier.AssertExpectations(t)
	})

	t.Run("skips rows that fail to apply", func(t *testing.T) {
		f := newConfigServiceFixture(t)
		good := channel.Configuration{
			ID:                   uuid.New(),
			EnterpriseCustomerID: f.customer.ID,
			ChannelCode:          channel.CodeDegreed,
			Active:               true,
			Settings:             json.RawMessage(`{"base_url":"https://degreed.com"}`),
		}
		bad := channel.Configuration{
			ID:                   uuid.New(),
			EnterpriseCustomerID: uuid.New(),
			ChannelCode:          channel.CodeDegreed,
			Active:               true,
			Settings:             json.RawMessage(`{}`),
		}
		for _, code := range channel.AllCodes() {
			if code == channel.CodeDegreed {
				f.configRepo.On("FindActiveByChannel", mock.Anything, code).
					Return([]channel.Configuration{bad, good}, nil)
				continue
			}
			f.configRepo.On("FindActiveByChannel", mock.Anything, code).
				Return([]channel.Configuration{}, nil)
		}
		f.applier.On("ApplyConfiguration", mock.MatchedBy(func(config *channel.Configuration) bool {
			return config.ID == bad.ID
		})).Return(errors.New("channels: degreed config missing base_url"))
		f.applier.On("ApplyConfiguration", mock.MatchedBy(func(config *channel.Configuration) bool {
			return config.ID == good.ID
		})).Return(nil)

		applied, err := f.service.ApplyAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, applied)
	})
}
