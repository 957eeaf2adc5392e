package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormEnterpriseCustomerRepository implements CustomerRepository using GORM
type GormEnterpriseCustomerRepository struct {
	db *gorm.DB
}

// NewGormEnterpriseCustomerRepository creates a new GormEnterpriseCustomerRepository
func NewGormEnterpriseCustomerRepository(db *gorm.DB) *GormEnterpriseCustomerRepository {
	return &GormEnterpriseCustomerRepository{db: db}
}

// FindByID finds a customer by uuid
func (r *GormEnterpriseCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.Customer, error) {
	var model models.EnterpriseCustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a customer by its slug
func (r *GormEnterpriseCustomerRepository) FindBySlug(ctx context.Context, slug string) (*enterprise.Customer, error) {
	var model models.EnterpriseCustomerModel
	if err := r.db.WithContext(ctx).First(&model, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists customers matching the filter
func (r *GormEnterpriseCustomerRepository) FindAll(ctx context.Context, filter enterprise.CustomerFilter) ([]enterprise.Customer, error) {
	var customerModels []models.EnterpriseCustomerModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EnterpriseCustomerModel{}), filter)
	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("name asc").Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]enterprise.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers, nil
}

// Count counts customers matching the filter
func (r *GormEnterpriseCustomerRepository) Count(ctx context.Context, filter enterprise.CustomerFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EnterpriseCustomerModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists a customer, inserting or updating as needed
func (r *GormEnterpriseCustomerRepository) Save(ctx context.Context, customer *enterprise.Customer) error {
	model := models.EnterpriseCustomerModelFromDomain(customer)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a customer
func (r *GormEnterpriseCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.EnterpriseCustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return enterprise.ErrCustomerNotFound
	}
	return nil
}

func (r *GormEnterpriseCustomerRepository) applyFilter(query *gorm.DB, filter enterprise.CustomerFilter) *gorm.DB {
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.NameContains != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.NameContains)+"%")
	}
	return query
}

var _ enterprise.CustomerRepository = (*GormEnterpriseCustomerRepository)(nil)
