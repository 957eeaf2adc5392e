package handler

import (
	"encoding/json"

	enterpriseapp "github.com/enterprise/backend/internal/application/enterprise"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler handles enterprise catalog API endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService *enterpriseapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *enterpriseapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// CreateCatalogRequest represents a request to create a catalog
// @Description Request body for creating an enterprise catalog
type CreateCatalogRequest struct {
	Title                      string          `json:"title" binding:"required,min=1,max=255" example:"All Open Courses"`
	ContentFilter              json.RawMessage `json:"content_filter" swaggertype:"object"`
	EnabledCourseModes         []string        `json:"enabled_course_modes" example:"verified,audit"`
	PublishAuditEnrollmentURLs bool            `json:"publish_audit_enrollment_urls" example:"false"`
}

// UpdateCatalogRequest represents a partial catalog update
// @Description Request body for updating an enterprise catalog
type UpdateCatalogRequest struct {
	Title                      *string         `json:"title" binding:"omitempty,min=1,max=255" example:"All Open Courses"`
	ContentFilter              json.RawMessage `json:"content_filter" swaggertype:"object"`
	EnabledCourseModes         []string        `json:"enabled_course_modes"`
	PublishAuditEnrollmentURLs *bool           `json:"publish_audit_enrollment_urls"`
}

// Create godoc
// @ID           createEnterpriseCatalog
// @Summary      Create a catalog for a customer
// @Tags         catalogs
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Param        request body CreateCatalogRequest true "Catalog creation request"
// @Success      201 {object} APIResponse[enterpriseapp.CatalogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/catalogs [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req CreateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	catalog, err := h.catalogService.Create(c.Request.Context(), customerID, enterpriseapp.CreateCatalogRequest{
		Title:                      req.Title,
		ContentFilter:              req.ContentFilter,
		EnabledCourseModes:         req.EnabledCourseModes,
		PublishAuditEnrollmentURLs: req.PublishAuditEnrollmentURLs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, catalog)
}

// ListByCustomer godoc
// @ID           listEnterpriseCatalogs
// @Summary      List a customer's catalogs
// @Tags         catalogs
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Success      200 {object} APIResponse[[]enterpriseapp.CatalogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/catalogs [get]
func (h *CatalogHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	catalogs, err := h.catalogService.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, catalogs)
}

// GetByID godoc
// @ID           getEnterpriseCatalogById
// @Summary      Get catalog by UUID
// @Tags         catalogs
// @Produce      json
// @Param        id path string true "Catalog UUID" format(uuid)
// @Success      200 {object} APIResponse[enterpriseapp.CatalogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/catalogs/{id} [get]
func (h *CatalogHandler) GetByID(c *gin.Context) {
	catalogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	catalog, err := h.catalogService.GetByID(c.Request.Context(), catalogID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, catalog)
}

// Update godoc
// @ID           updateEnterpriseCatalog
// @Summary      Update a catalog
// @Tags         catalogs
// @Accept       json
// @Produce      json
// @Param        id path string true "Catalog UUID" format(uuid)
// @Param        request body UpdateCatalogRequest true "Catalog update request"
// @Success      200 {object} APIResponse[enterpriseapp.CatalogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/catalogs/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	catalogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	var req UpdateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	catalog, err := h.catalogService.Update(c.Request.Context(), catalogID, enterpriseapp.UpdateCatalogRequest{
		Title:                      req.Title,
		ContentFilter:              req.ContentFilter,
		EnabledCourseModes:         req.EnabledCourseModes,
		PublishAuditEnrollmentURLs: req.PublishAuditEnrollmentURLs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, catalog)
}

// Delete godoc
// @ID           deleteEnterpriseCatalog
// @Summary      Delete a catalog
// @Tags         catalogs
// @Param        id path string true "Catalog UUID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/catalogs/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	catalogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), catalogID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ContainsContentItems godoc
// @ID           catalogContainsContentItems
// @Summary      Check content keys against one catalog
// @Description  Returns true only when every content key is present in the catalog
// @Tags         catalogs
// @Accept       json
// @Produce      json
// @Param        id path string true "Catalog UUID" format(uuid)
// @Param        request body ContainsContentItemsRequest true "Content keys"
// @Success      200 {object} APIResponse[ContainsContentData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/catalogs/{id}/contains-content-items [post]
func (h *CatalogHandler) ContainsContentItems(c *gin.Context) {
	catalogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	var req ContainsContentItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contains, err := h.catalogService.ContainsContentItems(c.Request.Context(), catalogID, req.ContentIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ContainsContentData{ContainsContentItems: contains})
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/enterprise/customers/:id/catalogs", h.Create)
	rg.GET("/enterprise/customers/:id/catalogs", h.ListByCustomer)

	catalogs := rg.Group("/enterprise/catalogs")
	{
		catalogs.GET("/:id", h.GetByID)
		catalogs.PUT("/:id", h.Update)
		catalogs.DELETE("/:id", h.Delete)
		catalogs.POST("/:id/contains-content-items", h.ContainsContentItems)
	}
}
