package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormEnrollmentRepository implements EnrollmentRepository using GORM
type GormEnrollmentRepository struct {
	db *gorm.DB
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db}
}

// FindByID finds an enrollment by uuid
func (r *GormEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.CourseEnrollment, error) {
	var model models.CourseEnrollmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserAndCourse finds the enrollment for a learner in a course run
func (r *GormEnrollmentRepository) FindByUserAndCourse(ctx context.Context, customerUserID uuid.UUID, courseRunID string) (*enterprise.CourseEnrollment, error) {
	var model models.CourseEnrollmentModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_user_id = ? AND course_run_id = ?", customerUserID, courseRunID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, enterprise.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns every enrollment under a customer, joining through
// the customer user link. Unlinked learners are excluded so their data stops
// flowing to channels once they leave the enterprise.
func (r *GormEnrollmentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.CourseEnrollment, error) {
	var enrollmentModels []models.CourseEnrollmentModel
	if err := r.db.WithContext(ctx).
		Model(&models.CourseEnrollmentModel{}).
		Joins("JOIN enterprise_customer_users ON enterprise_customer_users.id = enterprise_course_enrollments.enterprise_customer_user_id").
		Where("enterprise_customer_users.enterprise_customer_id = ? AND enterprise_customer_users.linked = ?", customerID, true).
		Order("enterprise_course_enrollments.created_at asc").
		Find(&enrollmentModels).Error; err != nil {
		return nil, err
	}

	enrollments := make([]enterprise.CourseEnrollment, len(enrollmentModels))
	for i, model := range enrollmentModels {
		enrollments[i] = *model.ToDomain()
	}
	return enrollments, nil
}

// FindAll lists enrollments matching the filter
func (r *GormEnrollmentRepository) FindAll(ctx context.Context, filter enterprise.EnrollmentFilter) ([]enterprise.CourseEnrollment, error) {
	var enrollmentModels []models.CourseEnrollmentModel
	query := r.db.WithContext(ctx).Model(&models.CourseEnrollmentModel{})
	if filter.CustomerUserID != nil {
		query = query.Where("enterprise_customer_user_id = ?", *filter.CustomerUserID)
	}
	if filter.CourseRunID != "" {
		query = query.Where("course_run_id = ?", filter.CourseRunID)
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("created_at asc").Find(&enrollmentModels).Error; err != nil {
		return nil, err
	}

	enrollments := make([]enterprise.CourseEnrollment, len(enrollmentModels))
	for i, model := range enrollmentModels {
		enrollments[i] = *model.ToDomain()
	}
	return enrollments, nil
}

// Save persists an enrollment, inserting or updating as needed
func (r *GormEnrollmentRepository) Save(ctx context.Context, enrollment *enterprise.CourseEnrollment) error {
	model := models.CourseEnrollmentModelFromDomain(enrollment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an enrollment
func (r *GormEnrollmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CourseEnrollmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return enterprise.ErrEnrollmentNotFound
	}
	return nil
}

var _ enterprise.EnrollmentRepository = (*GormEnrollmentRepository)(nil)
