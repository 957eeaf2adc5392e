package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormEnterpriseCatalogRepository implements CatalogRepository using GORM
type GormEnterpriseCatalogRepository struct {
	db *gorm.DB
}

// NewGormEnterpriseCatalogRepository creates a new GormEnterpriseCatalogRepository
func NewGormEnterpriseCatalogRepository(db *gorm.DB) *GormEnterpriseCatalogRepository {
	return &GormEnterpriseCatalogRepository{db: db}
}

// FindByID finds a catalog by uuid
func (r *GormEnterpriseCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.Catalog, error) {
	var model models.EnterpriseCatalogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCatalogNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns every catalog owned by the customer
func (r *GormEnterpriseCatalogRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.Catalog, error) {
	var catalogModels []models.EnterpriseCatalogModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ?", customerID).
		Order("title asc").
		Find(&catalogModels).Error; err != nil {
		return nil, err
	}

	catalogs := make([]enterprise.Catalog, len(catalogModels))
	for i, model := range catalogModels {
		catalogs[i] = *model.ToDomain()
	}
	return catalogs, nil
}

// Save persists a catalog, inserting or updating as needed
func (r *GormEnterpriseCatalogRepository) Save(ctx context.Context, catalog *enterprise.Catalog) error {
	model := models.EnterpriseCatalogModelFromDomain(catalog)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a catalog
func (r *GormEnterpriseCatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.EnterpriseCatalogModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return enterprise.ErrCatalogNotFound
	}
	return nil
}

var _ enterprise.CatalogRepository = (*GormEnterpriseCatalogRepository)(nil)
