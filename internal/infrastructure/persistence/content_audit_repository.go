package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

// GormContentAuditRepository implements ContentAuditRepository using GORM
type GormContentAuditRepository struct {
	db *gorm.DB
}

// NewGormContentAuditRepository creates a new GormContentAuditRepository
func NewGormContentAuditRepository(db *gorm.DB) *GormContentAuditRepository {
	return &GormContentAuditRepository{db: db}
}

// FindByCustomerAndChannel returns every audit for the customer on the channel
func (r *GormContentAuditRepository) FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code channel.Code) ([]channel.ContentTransmissionAudit, error) {
	var auditModels []models.ContentTransmissionAuditModel
	if err := r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND channel_code = ?", customerID, code).
		Order("content_id asc").
		Find(&auditModels).Error; err != nil {
		return nil, err
	}

	audits := make([]channel.ContentTransmissionAudit, len(auditModels))
	for i, model := range auditModels {
		audits[i] = *model.ToDomain()
	}
	return audits, nil
}

// CreateBatch inserts audit rows for newly transmitted items
func (r *GormContentAuditRepository) CreateBatch(ctx context.Context, audits []channel.ContentTransmissionAudit) error {
	if len(audits) == 0 {
		return nil
	}
	auditModels := make([]*models.ContentTransmissionAuditModel, len(audits))
	for i := range audits {
		auditModels[i] = models.ContentTransmissionAuditModelFromDomain(&audits[i])
	}
	return r.db.WithContext(ctx).Create(auditModels).Error
}

// Update replaces the payload and catalog timestamp of an existing audit
func (r *GormContentAuditRepository) Update(ctx context.Context, audit *channel.ContentTransmissionAudit) error {
	model := models.ContentTransmissionAuditModelFromDomain(audit)
	result := r.db.WithContext(ctx).
		Model(&models.ContentTransmissionAuditModel{}).
		Where("id = ?", audit.ID).
		Updates(map[string]interface{}{
			"metadata":             model.Metadata,
			"content_last_changed": model.ContentLastChanged,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrAuditNotFound
	}
	return nil
}

// DeleteByContentIDs removes audits for items deleted from the channel
func (r *GormContentAuditRepository) DeleteByContentIDs(ctx context.Context, customerID uuid.UUID, code channel.Code, contentIDs []string) error {
	if len(contentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("enterprise_customer_id = ? AND channel_code = ? AND content_id IN ?", customerID, code, contentIDs).
		Delete(&models.ContentTransmissionAuditModel{}).Error
}

var _ channel.ContentAuditRepository = (*GormContentAuditRepository)(nil)
