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

// GormCustomerUserRepository implements CustomerUserRepository using GORM
type GormCustomerUserRepository struct {
	db *gorm.DB
}

// NewGormCustomerUserRepository creates a new GormCustomerUserRepository
func NewGormCustomerUserRepository(db *gorm.DB) *GormCustomerUserRepository {
	return &GormCustomerUserRepository{db: db}
}

// FindByID finds a customer user by uuid
func (r *GormCustomerUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.CustomerUser, error) {
	var model models.EnterpriseCustomerUserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerAndUserID finds the link row for a learner under a customer
func (r *GormCustomerUserRepository) FindByCustomerAndUserID(ctx context.Context, customerID uuid.UUID, userID int64) (*enterprise.CustomerUser, error) {
	var model models.EnterpriseCustomerUserModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND user_id = ?", customerID, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerAndUsername finds the link row by platform username
func (r *GormCustomerUserRepository) FindByCustomerAndUsername(ctx context.Context, customerID uuid.UUID, username string) (*enterprise.CustomerUser, error) {
	var model models.EnterpriseCustomerUserModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND username = ?", customerID, username).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerAndEmail finds the link row by learner email
func (r *GormCustomerUserRepository) FindByCustomerAndEmail(ctx context.Context, customerID uuid.UUID, email string) (*enterprise.CustomerUser, error) {
	var model models.EnterpriseCustomerUserModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND LOWER(user_email) = ?", customerID, strings.ToLower(email)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrCustomerUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLinkedByCustomer returns every linked learner under a customer
func (r *GormCustomerUserRepository) FindLinkedByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.CustomerUser, error) {
	var userModels []models.EnterpriseCustomerUserModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND linked = ?", customerID, true).
		Order("username asc").
		Find(&userModels).Error; err != nil {
		return nil, err
	}

	users := make([]enterprise.CustomerUser, len(userModels))
	for i, model := range userModels {
		users[i] = *model.ToDomain()
	}
	return users, nil
}

// Save persists a customer user, inserting or updating as needed
func (r *GormCustomerUserRepository) Save(ctx context.Context, user *enterprise.CustomerUser) error {
	model := models.EnterpriseCustomerUserModelFromDomain(user)
	return r.db.WithContext(ctx).Save(model).Error
}

var _ enterprise.CustomerUserRepository = (*GormCustomerUserRepository)(nil)
