package models

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/enterprise"
)

// EnterpriseCustomerModel is the persistence model for the Customer domain entity.
type EnterpriseCustomerModel struct {
	BaseModel
	Name                  string `gorm:"type:varchar(255);not null"`
	Slug                  string `gorm:"type:varchar(100);not null;uniqueIndex:idx_enterprise_customer_slug"`
	Active                bool   `gorm:"not null;default:true;index"`
	IdentityProvider      string `gorm:"type:varchar(100)"`
	SiteDomain            string `gorm:"type:varchar(255)"`
	EnableAuditEnrollment bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (EnterpriseCustomerModel) TableName() string {
	return "enterprise_customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *EnterpriseCustomerModel) ToDomain() *enterprise.Customer {
	return &enterprise.Customer{
		ID:                    m.ID,
		Name:                  m.Name,
		Slug:                  m.Slug,
		Active:                m.Active,
		IdentityProvider:      m.IdentityProvider,
		SiteDomain:            m.SiteDomain,
		EnableAuditEnrollment: m.EnableAuditEnrollment,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *EnterpriseCustomerModel) FromDomain(c *enterprise.Customer) {
	m.ID = c.ID
	m.Name = c.Name
	m.Slug = c.Slug
	m.Active = c.Active
	m.IdentityProvider = c.IdentityProvider
	m.SiteDomain = c.SiteDomain
	m.EnableAuditEnrollment = c.EnableAuditEnrollment
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// EnterpriseCustomerModelFromDomain creates a persistence model from a domain Customer.
func EnterpriseCustomerModelFromDomain(c *enterprise.Customer) *EnterpriseCustomerModel {
	m := &EnterpriseCustomerModel{}
	m.FromDomain(c)
	return m
}

// EnterpriseCustomerUserModel is the persistence model for the CustomerUser link row.
// A learner links to a customer at most once.
type EnterpriseCustomerUserModel struct {
	BaseModel
	EnterpriseCustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_user_link,priority:1;index"`
	UserID               int64     `gorm:"not null;uniqueIndex:idx_customer_user_link,priority:2"`
	UserEmail            string    `gorm:"type:varchar(254);not null;index"`
	Username             string    `gorm:"type:varchar(150);not null;index"`
	Active               bool      `gorm:"not null;default:true"`
	Linked               bool      `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (EnterpriseCustomerUserModel) TableName() string {
	return "enterprise_customer_users"
}

// ToDomain converts the persistence model to a domain CustomerUser entity.
func (m *EnterpriseCustomerUserModel) ToDomain() *enterprise.CustomerUser {
	return &enterprise.CustomerUser{
		ID:                   m.ID,
		EnterpriseCustomerID: m.EnterpriseCustomerID,
		UserID:               m.UserID,
		UserEmail:            m.UserEmail,
		Username:             m.Username,
		Active:               m.Active,
		Linked:               m.Linked,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CustomerUser entity.
func (m *EnterpriseCustomerUserModel) FromDomain(u *enterprise.CustomerUser) {
	m.ID = u.ID
	m.EnterpriseCustomerID = u.EnterpriseCustomerID
	m.UserID = u.UserID
	m.UserEmail = u.UserEmail
	m.Username = u.Username
	m.Active = u.Active
	m.Linked = u.Linked
	m.CreatedAt = u.CreatedAt
	m.UpdatedAt = u.UpdatedAt
}

// EnterpriseCustomerUserModelFromDomain creates a persistence model from a domain CustomerUser.
func EnterpriseCustomerUserModelFromDomain(u *enterprise.CustomerUser) *EnterpriseCustomerUserModel {
	m := &EnterpriseCustomerUserModel{}
	m.FromDomain(u)
	return m
}

// EnterpriseCatalogModel is the persistence model for the Catalog domain entity.
type EnterpriseCatalogModel struct {
	BaseModel
	EnterpriseCustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title                      string          `gorm:"type:varchar(255);not null"`
	ContentFilter              json.RawMessage `gorm:"type:jsonb;not null"`
	EnabledCourseModes         string          `gorm:"type:jsonb;not null;default:'[]'"`
	PublishAuditEnrollmentURLs bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (EnterpriseCatalogModel) TableName() string {
	return "enterprise_catalogs"
}

// ToDomain converts the persistence model to a domain Catalog entity.
func (m *EnterpriseCatalogModel) ToDomain() *enterprise.Catalog {
	var modes []string
	if m.EnabledCourseModes != "" {
		// stored as a JSON array string
		_ = json.Unmarshal([]byte(m.EnabledCourseModes), &modes)
	}
	return &enterprise.Catalog{
		ID:                         m.ID,
		EnterpriseCustomerID:       m.EnterpriseCustomerID,
		Title:                      m.Title,
		ContentFilter:              m.ContentFilter,
		EnabledCourseModes:         modes,
		PublishAuditEnrollmentURLs: m.PublishAuditEnrollmentURLs,
		CreatedAt:                  m.CreatedAt,
		UpdatedAt:                  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Catalog entity.
func (m *EnterpriseCatalogModel) FromDomain(c *enterprise.Catalog) {
	modes := c.EnabledCourseModes
	if modes == nil {
		modes = []string{}
	}
	encoded, _ := json.Marshal(modes)

	m.ID = c.ID
	m.EnterpriseCustomerID = c.EnterpriseCustomerID
	m.Title = c.Title
	m.ContentFilter = c.ContentFilter
	m.EnabledCourseModes = string(encoded)
	m.PublishAuditEnrollmentURLs = c.PublishAuditEnrollmentURLs
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// EnterpriseCatalogModelFromDomain creates a persistence model from a domain Catalog.
func EnterpriseCatalogModelFromDomain(c *enterprise.Catalog) *EnterpriseCatalogModel {
	m := &EnterpriseCatalogModel{}
	m.FromDomain(c)
	return m
}

// CourseEnrollmentModel is the persistence model for the CourseEnrollment entity.
// A learner enrolls in a course run at most once per customer link.
type CourseEnrollmentModel struct {
	BaseModel
	EnterpriseCustomerUserID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_enterprise_enrollment,priority:1;index"`
	CourseRunID              string                      `gorm:"type:varchar(255);not null;uniqueIndex:idx_enterprise_enrollment,priority:2;index"`
	SavedForLater            bool                        `gorm:"not null;default:false"`
	Source                   enterprise.EnrollmentSource `gorm:"type:varchar(30);not null;default:'api'"`
}

// TableName returns the table name for GORM
func (CourseEnrollmentModel) TableName() string {
	return "enterprise_course_enrollments"
}

// ToDomain converts the persistence model to a domain CourseEnrollment entity.
func (m *CourseEnrollmentModel) ToDomain() *enterprise.CourseEnrollment {
	return &enterprise.CourseEnrollment{
		ID:                       m.ID,
		EnterpriseCustomerUserID: m.EnterpriseCustomerUserID,
		CourseRunID:              m.CourseRunID,
		SavedForLater:            m.SavedForLater,
		Source:                   m.Source,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CourseEnrollment entity.
func (m *CourseEnrollmentModel) FromDomain(e *enterprise.CourseEnrollment) {
	m.ID = e.ID
	m.EnterpriseCustomerUserID = e.EnterpriseCustomerUserID
	m.CourseRunID = e.CourseRunID
	m.SavedForLater = e.SavedForLater
	m.Source = e.Source
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// CourseEnrollmentModelFromDomain creates a persistence model from a domain CourseEnrollment.
func CourseEnrollmentModelFromDomain(e *enterprise.CourseEnrollment) *CourseEnrollmentModel {
	m := &CourseEnrollmentModel{}
	m.FromDomain(e)
	return m
}
