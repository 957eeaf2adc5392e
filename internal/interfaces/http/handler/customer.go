package handler

import (
	enterpriseapp "github.com/enterprise/backend/internal/application/enterprise"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler handles enterprise customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *enterpriseapp.CustomerService
	catalogService  *enterpriseapp.CatalogService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(
	customerService *enterpriseapp.CustomerService,
	catalogService *enterpriseapp.CatalogService,
) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		catalogService:  catalogService,
	}
}

// CreateEnterpriseCustomerRequest represents a request to register a customer
// @Description Request body for creating an enterprise customer
type CreateEnterpriseCustomerRequest struct {
	Name                  string `json:"name" binding:"required,min=1,max=255" example:"Acme Corp"`
	Slug                  string `json:"slug" binding:"required,min=1,max=100" example:"acme-corp"`
	IdentityProvider      string `json:"identity_provider" binding:"max=100" example:"saml-acme"`
	SiteDomain            string `json:"site_domain" binding:"max=255" example:"courses.example.com"`
	EnableAuditEnrollment bool   `json:"enable_audit_enrollment" example:"false"`
}

// UpdateEnterpriseCustomerRequest represents a partial customer update
// @Description Request body for updating an enterprise customer
type UpdateEnterpriseCustomerRequest struct {
	Name                  *string `json:"name" binding:"omitempty,min=1,max=255" example:"Acme Corporation"`
	Active                *bool   `json:"active" example:"true"`
	IdentityProvider      *string `json:"identity_provider" binding:"omitempty,max=100" example:"saml-acme"`
	SiteDomain            *string `json:"site_domain" binding:"omitempty,max=255" example:"courses.example.com"`
	EnableAuditEnrollment *bool   `json:"enable_audit_enrollment" example:"true"`
}

// LinkUserRequest represents a request to link an LMS user to a customer
// @Description Request body for linking a learner
type LinkUserRequest struct {
	UserID    int64  `json:"user_id" binding:"required,gt=0" example:"42"`
	Username  string `json:"username" binding:"max=150" example:"jdoe"`
	UserEmail string `json:"user_email" binding:"omitempty,email,max=254" example:"jdoe@example.com"`
}

// ContainsContentItemsRequest carries the content keys to check
// @Description Request body for catalog containment checks
type ContainsContentItemsRequest struct {
	ContentIDs []string `json:"content_ids" binding:"required,min=1,dive,required"`
}

// ListCustomersRequest represents customer list query parameters
type ListCustomersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Active   *bool  `form:"active"`
	Search   string `form:"search"`
}

// Create godoc
// @ID           createEnterpriseCustomer
// @Summary      Create an enterprise customer
// @Description  Register a new enterprise customer with a unique slug
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateEnterpriseCustomerRequest true "Customer creation request"
// @Success      201 {object} APIResponse[enterpriseapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateEnterpriseCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), enterpriseapp.CreateCustomerRequest{
		Name:                  req.Name,
		Slug:                  req.Slug,
		IdentityProvider:      req.IdentityProvider,
		SiteDomain:            req.SiteDomain,
		EnableAuditEnrollment: req.EnableAuditEnrollment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID godoc
// @ID           getEnterpriseCustomerById
// @Summary      Get customer by UUID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Success      200 {object} APIResponse[enterpriseapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// GetBySlug godoc
// @ID           getEnterpriseCustomerBySlug
// @Summary      Get customer by slug
// @Tags         customers
// @Produce      json
// @Param        slug path string true "Customer slug"
// @Success      200 {object} APIResponse[enterpriseapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/slug/{slug} [get]
func (h *CustomerHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		h.BadRequest(c, "Customer slug is required")
		return
	}

	customer, err := h.customerService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// List godoc
// @ID           listEnterpriseCustomers
// @Summary      List enterprise customers
// @Description  List customers with pagination, optionally filtered by active state and name
// @Tags         customers
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        active query bool false "Filter by active state"
// @Param        search query string false "Filter by name substring"
// @Success      200 {object} APIResponse[[]enterpriseapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	req := ListCustomersRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	customers, total, err := h.customerService.List(c.Request.Context(), enterpriseapp.CustomerListFilter{
		Active:       req.Active,
		NameContains: req.Search,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, customers, total, req.Page, req.PageSize)
}

// Update godoc
// @ID           updateEnterpriseCustomer
// @Summary      Update an enterprise customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Param        request body UpdateEnterpriseCustomerRequest true "Customer update request"
// @Success      200 {object} APIResponse[enterpriseapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req UpdateEnterpriseCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), customerID, enterpriseapp.UpdateCustomerRequest{
		Name:                  req.Name,
		Active:                req.Active,
		IdentityProvider:      req.IdentityProvider,
		SiteDomain:            req.SiteDomain,
		EnableAuditEnrollment: req.EnableAuditEnrollment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Delete godoc
// @ID           deleteEnterpriseCustomer
// @Summary      Delete an enterprise customer
// @Tags         customers
// @Param        id path string true "Customer UUID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), customerID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// LinkUser godoc
// @ID           linkEnterpriseCustomerUser
// @Summary      Link an LMS user to a customer
// @Description  Creates or reactivates the learner link for the given LMS user
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Param        request body LinkUserRequest true "Link request"
// @Success      201 {object} APIResponse[enterpriseapp.CustomerUserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/users [post]
func (h *CustomerHandler) LinkUser(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req LinkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	link, err := h.customerService.LinkUser(c.Request.Context(), customerID, enterpriseapp.LinkUserRequest{
		UserID:    req.UserID,
		Username:  req.Username,
		UserEmail: req.UserEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, link)
}

// UnlinkUser godoc
// @ID           unlinkEnterpriseCustomerUser
// @Summary      Unlink an LMS user from a customer
// @Description  Marks the learner link inactive; enrollments and audits are kept
// @Tags         customers
// @Param        id path string true "Customer UUID" format(uuid)
// @Param        user_id path int true "LMS user ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/users/{user_id} [delete]
func (h *CustomerHandler) UnlinkUser(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	userID, err := parseInt64Param(c, "user_id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.customerService.UnlinkUser(c.Request.Context(), customerID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListUsers godoc
// @ID           listEnterpriseCustomerUsers
// @Summary      List learners linked to a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Success      200 {object} APIResponse[[]enterpriseapp.CustomerUserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/users [get]
func (h *CustomerHandler) ListUsers(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	users, err := h.customerService.ListLinkedUsers(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, users)
}

// ContainsContentItems godoc
// @ID           customerContainsContentItems
// @Summary      Check content keys against all customer catalogs
// @Description  Returns true only when every content key is found in at least one of the customer's catalogs
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Param        request body ContainsContentItemsRequest true "Content keys"
// @Success      200 {object} APIResponse[ContainsContentData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/contains-content-items [post]
func (h *CustomerHandler) ContainsContentItems(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req ContainsContentItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contains, err := h.catalogService.CustomerContainsContentItems(c.Request.Context(), customerID, req.ContentIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ContainsContentData{ContainsContentItems: contains})
}

// CatalogRefreshData reports the outcome of a catalog refresh run
// @Description Per-catalog refresh outcome
type CatalogRefreshData struct {
	Refreshed map[uuid.UUID]string `json:"refreshed"`
	Failed    []uuid.UUID          `json:"failed"`
}

// RefreshCatalogs godoc
// @ID           refreshEnterpriseCustomerCatalogs
// @Summary      Refresh content metadata for all customer catalogs
// @Description  Re-resolves each catalog's content filter against the discovery service
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer UUID" format(uuid)
// @Success      200 {object} APIResponse[CatalogRefreshData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customers/{id}/refresh-catalogs [post]
func (h *CustomerHandler) RefreshCatalogs(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	refreshed, failed, err := h.catalogService.RefreshCatalogs(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CatalogRefreshData{Refreshed: refreshed, Failed: failed})
}

// RegisterRoutes registers all enterprise customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/enterprise/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/slug/:slug", h.GetBySlug)
		customers.GET("/:id", h.GetByID)
		customers.PUT("/:id", h.Update)
		customers.DELETE("/:id", h.Delete)
		customers.POST("/:id/users", h.LinkUser)
		customers.GET("/:id/users", h.ListUsers)
		customers.DELETE("/:id/users/:user_id", h.UnlinkUser)
		customers.POST("/:id/contains-content-items", h.ContainsContentItems)
		customers.POST("/:id/refresh-catalogs", h.RefreshCatalogs)
	}
}
