package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormLearnerAuditRepository implements LearnerAuditRepository using GORM
type GormLearnerAuditRepository struct {
	db *gorm.DB
}

// NewGormLearnerAuditRepository creates a new GormLearnerAuditRepository
func NewGormLearnerAuditRepository(db *gorm.DB) *GormLearnerAuditRepository {
	return &GormLearnerAuditRepository{db: db}
}

// FindLatest returns the most recent audit for the enrollment on the channel,
// scoped to a subsection for assessment-level audits
func (r *GormLearnerAuditRepository) FindLatest(ctx context.Context, enrollmentID uuid.UUID, code channel.Code, subsectionID string) (*channel.LearnerTransmissionAudit, error) {
	var model models.LearnerTransmissionAuditModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_enrollment_id = ? AND channel_code = ? AND subsection_id = ?", enrollmentID, code, subsectionID).
		Order("updated_at desc").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrAuditNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEnrollment returns every audit for the enrollment on the channel
func (r *GormLearnerAuditRepository) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID, code channel.Code) ([]channel.LearnerTransmissionAudit, error) {
	var auditModels []models.LearnerTransmissionAuditModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_enrollment_id = ? AND channel_code = ?", enrollmentID, code).
		Order("updated_at desc").
		Find(&auditModels).Error; err != nil {
		return nil, err
	}

	audits := make([]channel.LearnerTransmissionAudit, len(auditModels))
	for i, model := range auditModels {
		audits[i] = *model.ToDomain()
	}
	return audits, nil
}

// Save persists an audit row, inserting or updating as needed
func (r *GormLearnerAuditRepository) Save(ctx context.Context, audit *channel.LearnerTransmissionAudit) error {
	model := models.LearnerTransmissionAuditModelFromDomain(audit)
	return r.db.WithContext(ctx).Save(model).Error
}

var _ channel.LearnerAuditRepository = (*GormLearnerAuditRepository)(nil)
