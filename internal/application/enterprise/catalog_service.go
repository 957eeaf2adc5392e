package enterprise

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// CatalogAPI is the slice of the catalog service client the catalog service
// consumes. The catalog service owns content resolution; we mirror the
// catalog rows locally and proxy content queries to it.
type CatalogAPI interface {
	CreateCatalog(ctx context.Context, details *lmsapi.CatalogDetails) (*lmsapi.CatalogDetails, error)
	UpdateCatalog(ctx context.Context, catalogUUID uuid.UUID, details *lmsapi.CatalogDetails) (*lmsapi.CatalogDetails, error)
	DeleteCatalog(ctx context.Context, catalogUUID uuid.UUID) error
	RefreshCatalogs(ctx context.Context, catalogUUIDs []uuid.UUID) (map[uuid.UUID]string, []uuid.UUID, error)
	ContainsContentItems(ctx context.Context, catalogUUID uuid.UUID, contentIDs []string) (bool, error)
	CustomerContainsContentItems(ctx context.Context, customerUUID uuid.UUID, contentIDs []string) (bool, error)
}

// CatalogService handles enterprise catalog operations, keeping the local
// rows and the host catalog service in step.
type CatalogService struct {
	catalogRepo  enterprise.CatalogRepository
	customerRepo enterprise.CustomerRepository
	catalogAPI   CatalogAPI
	logger       *zap.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(
	catalogRepo enterprise.CatalogRepository,
	customerRepo enterprise.CustomerRepository,
	catalogAPI CatalogAPI,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		catalogRepo:  catalogRepo,
		customerRepo: customerRepo,
		catalogAPI:   catalogAPI,
		logger:       logger,
	}
}

// Create makes a catalog for the customer and registers it with the host
// catalog service. The local row is saved first; registration failure is
// logged and left for the next refresh rather than rolling back.
func (s *CatalogService) Create(ctx context.Context, customerID uuid.UUID, req CreateCatalogRequest) (*CatalogResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	catalog, err := enterprise.NewCatalog(customer.ID, req.Title, req.ContentFilter)
	if err != nil {
		return nil, err
	}
	if len(req.EnabledCourseModes) > 0 {
		catalog.EnabledCourseModes = req.EnabledCourseModes
	}
	catalog.PublishAuditEnrollmentURLs = req.PublishAuditEnrollmentURLs

	if err := s.catalogRepo.Save(ctx, catalog); err != nil {
		return nil, err
	}

	if _, err := s.catalogAPI.CreateCatalog(ctx, catalogDetails(customer, catalog)); err != nil {
		s.logger.Error("Failed to register catalog with the catalog service",
			zap.String("catalog_uuid", catalog.ID.String()),
			zap.Error(err),
		)
	}
	return ToCatalogResponse(catalog), nil
}

// GetByID retrieves a catalog by uuid
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*CatalogResponse, error) {
	catalog, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCatalogResponse(catalog), nil
}

// ListByCustomer returns the customer's catalogs
func (s *CatalogService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]CatalogResponse, error) {
	catalogs, err := s.catalogRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]CatalogResponse, len(catalogs))
	for i := range catalogs {
		responses[i] = *ToCatalogResponse(&catalogs[i])
	}
	return responses, nil
}

// Update applies the non-nil fields and pushes the change to the catalog service
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, req UpdateCatalogRequest) (*CatalogResponse, error) {
	catalog, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByID(ctx, catalog.EnterpriseCustomerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, enterprise.ErrCatalogInvalidTitle
		}
		catalog.Title = *req.Title
	}
	if len(req.ContentFilter) > 0 {
		catalog.ContentFilter = req.ContentFilter
	}
	if len(req.EnabledCourseModes) > 0 {
		catalog.EnabledCourseModes = req.EnabledCourseModes
	}
	if req.PublishAuditEnrollmentURLs != nil {
		catalog.PublishAuditEnrollmentURLs = *req.PublishAuditEnrollmentURLs
	}

	if err := s.catalogRepo.Save(ctx, catalog); err != nil {
		return nil, err
	}

	if _, err := s.catalogAPI.UpdateCatalog(ctx, catalog.ID, catalogDetails(customer, catalog)); err != nil {
		s.logger.Error("Failed to update catalog in the catalog service",
			zap.String("catalog_uuid", catalog.ID.String()),
			zap.Error(err),
		)
	}
	return ToCatalogResponse(catalog), nil
}

// Delete removes the catalog locally and from the catalog service
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.catalogRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.catalogRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.catalogAPI.DeleteCatalog(ctx, id); err != nil {
		s.logger.Error("Failed to delete catalog from the catalog service",
			zap.String("catalog_uuid", id.String()),
			zap.Error(err),
		)
	}
	return nil
}

// ContainsContentItems asks the catalog service whether the catalog holds
// every listed content item.
func (s *CatalogService) ContainsContentItems(ctx context.Context, catalogID uuid.UUID, contentIDs []string) (bool, error) {
	if _, err := s.catalogRepo.FindByID(ctx, catalogID); err != nil {
		return false, err
	}
	return s.catalogAPI.ContainsContentItems(ctx, catalogID, contentIDs)
}

// CustomerContainsContentItems asks across all of the customer's catalogs
func (s *CatalogService) CustomerContainsContentItems(ctx context.Context, customerID uuid.UUID, contentIDs []string) (bool, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return false, err
	}
	return s.catalogAPI.CustomerContainsContentItems(ctx, customerID, contentIDs)
}

// RefreshCatalogs asks the catalog service to recompute the customer's
// catalogs, returning the per-catalog task IDs and the uuids that failed.
func (s *CatalogService) RefreshCatalogs(ctx context.Context, customerID uuid.UUID) (map[uuid.UUID]string, []uuid.UUID, error) {
	catalogs, err := s.catalogRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	uuids := make([]uuid.UUID, 0, len(catalogs))
	for _, catalog := range catalogs {
		uuids = append(uuids, catalog.ID)
	}
	return s.catalogAPI.RefreshCatalogs(ctx, uuids)
}

func catalogDetails(customer *enterprise.Customer, catalog *enterprise.Catalog) *lmsapi.CatalogDetails {
	return &lmsapi.CatalogDetails{
		UUID:                       catalog.ID.String(),
		Title:                      catalog.Title,
		EnterpriseCustomer:         customer.ID.String(),
		EnterpriseCustomerName:     customer.Name,
		ContentFilter:              catalog.ContentFilter,
		EnabledCourseModes:         catalog.EnabledCourseModes,
		PublishAuditEnrollmentURLs: catalog.PublishAuditEnrollmentURLs,
	}
}
