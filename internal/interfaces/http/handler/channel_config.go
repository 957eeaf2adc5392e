package handler

import (
	"encoding/json"

	channelapp "github.com/enterprise/backend/internal/application/channel"
	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChannelConfigHandler handles integrated channel configuration API endpoints
type ChannelConfigHandler struct {
	BaseHandler
	configService *channelapp.ConfigurationService
}

// NewChannelConfigHandler creates a new ChannelConfigHandler
func NewChannelConfigHandler(configService *channelapp.ConfigurationService) *ChannelConfigHandler {
	return &ChannelConfigHandler{
		configService: configService,
	}
}

// CreateChannelConfigRequest represents a request to create a channel configuration
// @Description Request body for configuring an integrated channel. Settings hold
// @Description channel credentials and endpoints and are never echoed back.
type CreateChannelConfigRequest struct {
	EnterpriseCustomerID  uuid.UUID       `json:"enterprise_customer_id" binding:"required" format:"uuid"`
	ChannelCode           string          `json:"channel_code" binding:"required,oneof=SAP DEGREED MOODLE CSOD" example:"SAP"`
	Active                bool            `json:"active" example:"true"`
	TransmissionChunkSize int             `json:"transmission_chunk_size" binding:"omitempty,min=1,max=1000" example:"500"`
	IdentityProvider      string          `json:"identity_provider" binding:"max=100" example:"saml-acme"`
	Settings              json.RawMessage `json:"settings" swaggertype:"object"`
}

// UpdateChannelConfigRequest represents a partial channel configuration update
// @Description Request body for updating an integrated channel configuration
type UpdateChannelConfigRequest struct {
	Active                *bool           `json:"active"`
	TransmissionChunkSize *int            `json:"transmission_chunk_size" binding:"omitempty,min=1,max=1000"`
	IdentityProvider      *string         `json:"identity_provider" binding:"omitempty,max=100"`
	Settings              json.RawMessage `json:"settings" swaggertype:"object"`
}

// Create godoc
// @ID           createChannelConfiguration
// @Summary      Configure an integrated channel for a customer
// @Description  A customer may have at most one configuration per channel. Settings are applied to the live client immediately.
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        request body CreateChannelConfigRequest true "Configuration request"
// @Success      201 {object} APIResponse[channelapp.ConfigurationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/configurations [post]
func (h *ChannelConfigHandler) Create(c *gin.Context) {
	var req CreateChannelConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	config, err := h.configService.Create(c.Request.Context(), channelapp.CreateConfigurationRequest{
		EnterpriseCustomerID:  req.EnterpriseCustomerID,
		ChannelCode:           channel.Code(req.ChannelCode),
		Active:                req.Active,
		TransmissionChunkSize: req.TransmissionChunkSize,
		IdentityProvider:      req.IdentityProvider,
		Settings:              req.Settings,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, config)
}

// GetByID godoc
// @ID           getChannelConfigurationById
// @Summary      Get a channel configuration
// @Description  Settings are omitted from the response because they hold credentials
// @Tags         channels
// @Produce      json
// @Param        id path string true "Configuration UUID" format(uuid)
// @Success      200 {object} APIResponse[channelapp.ConfigurationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/configurations/{id} [get]
func (h *ChannelConfigHandler) GetByID(c *gin.Context) {
	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	config, err := h.configService.GetByID(c.Request.Context(), configID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, config)
}

// ListByCustomer godoc
// @ID           listChannelConfigurations
// @Summary      List channel configurations for a customer
// @Tags         channels
// @Produce      json
// @Param        customer_id query string true "Customer UUID" format(uuid)
// @Success      200 {object} APIResponse[[]channelapp.ConfigurationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/configurations [get]
func (h *ChannelConfigHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing customer_id")
		return
	}

	configs, err := h.configService.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, configs)
}

// Update godoc
// @ID           updateChannelConfiguration
// @Summary      Update a channel configuration
// @Description  New settings are applied to the live client as part of the update
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id path string true "Configuration UUID" format(uuid)
// @Param        request body UpdateChannelConfigRequest true "Configuration update request"
// @Success      200 {object} APIResponse[channelapp.ConfigurationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/configurations/{id} [put]
func (h *ChannelConfigHandler) Update(c *gin.Context) {
	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	var req UpdateChannelConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	config, err := h.configService.Update(c.Request.Context(), configID, channelapp.UpdateConfigurationRequest{
		Active:                req.Active,
		TransmissionChunkSize: req.TransmissionChunkSize,
		IdentityProvider:      req.IdentityProvider,
		Settings:              req.Settings,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, config)
}

// Delete godoc
// @ID           deleteChannelConfiguration
// @Summary      Delete a channel configuration
// @Tags         channels
// @Param        id path string true "Configuration UUID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/configurations/{id} [delete]
func (h *ChannelConfigHandler) Delete(c *gin.Context) {
	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	if err := h.configService.Delete(c.Request.Context(), configID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all channel configuration routes
func (h *ChannelConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	configs := rg.Group("/channels/configurations")
	{
		configs.POST("", h.Create)
		configs.GET("", h.ListByCustomer)
		configs.GET("/:id", h.GetByID)
		configs.PUT("/:id", h.Update)
		configs.DELETE("/:id", h.Delete)
	}
}
