package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ChannelConfigurationModel is the persistence model for a customer's channel
// configuration. A customer has at most one configuration per channel.
type ChannelConfigurationModel struct {
	BaseModel
	EnterpriseCustomerID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_channel_config,priority:1;index"`
	ChannelCode           channel.Code    `gorm:"type:varchar(10);not null;uniqueIndex:idx_channel_config,priority:2;index"`
	Active                bool            `gorm:"not null;default:false;index"`
	TransmissionChunkSize int             `gorm:"not null;default:0"`
	IdentityProvider      string          `gorm:"type:varchar(100)"`
	Settings              json.RawMessage `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ChannelConfigurationModel) TableName() string {
	return "channel_configurations"
}

// ToDomain converts the persistence model to a domain Configuration.
func (m *ChannelConfigurationModel) ToDomain() *channel.Configuration {
	return &channel.Configuration{
		ID:                    m.ID,
		EnterpriseCustomerID:  m.EnterpriseCustomerID,
		ChannelCode:           m.ChannelCode,
		Active:                m.Active,
		TransmissionChunkSize: m.TransmissionChunkSize,
		IdentityProvider:      m.IdentityProvider,
		Settings:              m.Settings,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Configuration.
func (m *ChannelConfigurationModel) FromDomain(c *channel.Configuration) {
	m.ID = c.ID
	m.EnterpriseCustomerID = c.EnterpriseCustomerID
	m.ChannelCode = c.ChannelCode
	m.Active = c.Active
	m.TransmissionChunkSize = c.TransmissionChunkSize
	m.IdentityProvider = c.IdentityProvider
	m.Settings = c.Settings
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ChannelConfigurationModelFromDomain creates a persistence model from a domain Configuration.
func ChannelConfigurationModelFromDomain(c *channel.Configuration) *ChannelConfigurationModel {
	m := &ChannelConfigurationModel{}
	m.FromDomain(c)
	return m
}

// LearnerTransmissionAuditModel is the persistence model for learner
// transmission audits. One row per enrollment, channel and subsection
// drives the pipeline's dedupe check.
type LearnerTransmissionAuditModel struct {
	BaseModel
	EnterpriseEnrollmentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_learner_audit_lookup,priority:1"`
	ChannelCode            channel.Code    `gorm:"type:varchar(10);not null;uniqueIndex:idx_learner_audit_lookup,priority:2"`
	CourseID               string          `gorm:"type:varchar(255);not null"`
	SubsectionID           string          `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_learner_audit_lookup,priority:3"`
	Grade                  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	CourseCompleted        bool            `gorm:"not null;default:false"`
	CompletedAt            *time.Time
	Status                 string `gorm:"type:varchar(10);not null;default:''"`
	ErrorMessage           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LearnerTransmissionAuditModel) TableName() string {
	return "learner_transmission_audits"
}

// ToDomain converts the persistence model to a domain LearnerTransmissionAudit.
func (m *LearnerTransmissionAuditModel) ToDomain() *channel.LearnerTransmissionAudit {
	return &channel.LearnerTransmissionAudit{
		ID:                     m.ID,
		EnterpriseEnrollmentID: m.EnterpriseEnrollmentID,
		ChannelCode:            m.ChannelCode,
		CourseID:               m.CourseID,
		SubsectionID:           m.SubsectionID,
		Grade:                  m.Grade,
		CourseCompleted:        m.CourseCompleted,
		CompletedAt:            m.CompletedAt,
		Status:                 m.Status,
		ErrorMessage:           m.ErrorMessage,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain LearnerTransmissionAudit.
func (m *LearnerTransmissionAuditModel) FromDomain(a *channel.LearnerTransmissionAudit) {
	m.ID = a.ID
	m.EnterpriseEnrollmentID = a.EnterpriseEnrollmentID
	m.ChannelCode = a.ChannelCode
	m.CourseID = a.CourseID
	m.SubsectionID = a.SubsectionID
	m.Grade = a.Grade
	m.CourseCompleted = a.CourseCompleted
	m.CompletedAt = a.CompletedAt
	m.Status = a.Status
	m.ErrorMessage = a.ErrorMessage
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// LearnerTransmissionAuditModelFromDomain creates a persistence model from a domain audit.
func LearnerTransmissionAuditModelFromDomain(a *channel.LearnerTransmissionAudit) *LearnerTransmissionAuditModel {
	m := &LearnerTransmissionAuditModel{}
	m.FromDomain(a)
	return m
}

// ContentTransmissionAuditModel is the persistence model for content
// transmission audits. One row per customer, channel and content item records
// the payload last accepted by the channel.
type ContentTransmissionAuditModel struct {
	BaseModel
	EnterpriseCustomerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_content_audit,priority:1;index"`
	ChannelCode          channel.Code    `gorm:"type:varchar(10);not null;uniqueIndex:idx_content_audit,priority:2"`
	ContentID            string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_content_audit,priority:3"`
	Metadata             json.RawMessage `gorm:"type:jsonb"`
	ContentLastChanged   *time.Time
}

// TableName returns the table name for GORM
func (ContentTransmissionAuditModel) TableName() string {
	return "content_transmission_audits"
}

// ToDomain converts the persistence model to a domain ContentTransmissionAudit.
func (m *ContentTransmissionAuditModel) ToDomain() *channel.ContentTransmissionAudit {
	return &channel.ContentTransmissionAudit{
		ID:                   m.ID,
		EnterpriseCustomerID: m.EnterpriseCustomerID,
		ChannelCode:          m.ChannelCode,
		ContentID:            m.ContentID,
		Metadata:             m.Metadata,
		ContentLastChanged:   m.ContentLastChanged,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ContentTransmissionAudit.
func (m *ContentTransmissionAuditModel) FromDomain(a *channel.ContentTransmissionAudit) {
	m.ID = a.ID
	m.EnterpriseCustomerID = a.EnterpriseCustomerID
	m.ChannelCode = a.ChannelCode
	m.ContentID = a.ContentID
	m.Metadata = a.Metadata
	m.ContentLastChanged = a.ContentLastChanged
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// ContentTransmissionAuditModelFromDomain creates a persistence model from a domain audit.
func ContentTransmissionAuditModelFromDomain(a *channel.ContentTransmissionAudit) *ContentTransmissionAuditModel {
	m := &ContentTransmissionAuditModel{}
	m.FromDomain(a)
	return m
}
