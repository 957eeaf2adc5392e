package enterprise

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/enterprise"
)

// CreateCustomerRequest carries the fields for registering a customer
type CreateCustomerRequest struct {
	Name                  string `json:"name"`
	Slug                  string `json:"slug"`
	IdentityProvider      string `json:"identity_provider"`
	SiteDomain            string `json:"site_domain"`
	EnableAuditEnrollment bool   `json:"enable_audit_enrollment"`
}

// UpdateCustomerRequest carries the mutable customer fields; nil means keep
type UpdateCustomerRequest struct {
	Name                  *string `json:"name"`
	Active                *bool   `json:"active"`
	IdentityProvider      *string `json:"identity_provider"`
	SiteDomain            *string `json:"site_domain"`
	EnableAuditEnrollment *bool   `json:"enable_audit_enrollment"`
}

// CustomerResponse is the API view of a customer
type CustomerResponse struct {
	ID                    uuid.UUID `json:"uuid"`
	Name                  string    `json:"name"`
	Slug                  string    `json:"slug"`
	Active                bool      `json:"active"`
	IdentityProvider      string    `json:"identity_provider"`
	SiteDomain            string    `json:"site_domain"`
	EnableAuditEnrollment bool      `json:"enable_audit_enrollment"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ToCustomerResponse maps a domain customer to its API view
func ToCustomerResponse(c *enterprise.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		Slug:                  c.Slug,
		Active:                c.Active,
		IdentityProvider:      c.IdentityProvider,
		SiteDomain:            c.SiteDomain,
		EnableAuditEnrollment: c.EnableAuditEnrollment,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// CustomerListFilter narrows customer listings
type CustomerListFilter struct {
	Active       *bool
	NameContains string
	Page         int
	PageSize     int
}

// CustomerUserResponse is the API view of a learner link
type CustomerUserResponse struct {
	ID                   uuid.UUID `json:"id"`
	EnterpriseCustomerID uuid.UUID `json:"enterprise_customer"`
	UserID               int64     `json:"user_id"`
	UserEmail            string    `json:"user_email"`
	Username             string    `json:"username"`
	Active               bool      `json:"active"`
	Linked               bool      `json:"linked"`
	CreatedAt            time.Time `json:"created_at"`
}

// ToCustomerUserResponse maps a domain customer user to its API view
func ToCustomerUserResponse(u *enterprise.CustomerUser) *CustomerUserResponse {
	return &CustomerUserResponse{
		ID:                   u.ID,
		EnterpriseCustomerID: u.EnterpriseCustomerID,
		UserID:               u.UserID,
		UserEmail:            u.UserEmail,
		Username:             u.Username,
		Active:               u.Active,
		Linked:               u.Linked,
		CreatedAt:            u.CreatedAt,
	}
}

// LinkUserRequest carries the fields for linking a learner to a customer
type LinkUserRequest struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	UserEmail string `json:"user_email"`
}

// CreateCatalogRequest carries the fields for creating a catalog
type CreateCatalogRequest struct {
	Title                      string          `json:"title"`
	ContentFilter              json.RawMessage `json:"content_filter"`
	EnabledCourseModes         []string        `json:"enabled_course_modes"`
	PublishAuditEnrollmentURLs bool            `json:"publish_audit_enrollment_urls"`
}

// UpdateCatalogRequest carries the mutable catalog fields; nil means keep
type UpdateCatalogRequest struct {
	Title                      *string         `json:"title"`
	ContentFilter              json.RawMessage `json:"content_filter"`
	EnabledCourseModes         []string        `json:"enabled_course_modes"`
	PublishAuditEnrollmentURLs *bool           `json:"publish_audit_enrollment_urls"`
}

// CatalogResponse is the API view of a catalog
type CatalogResponse struct {
	ID                         uuid.UUID       `json:"uuid"`
	EnterpriseCustomerID       uuid.UUID       `json:"enterprise_customer"`
	Title                      string          `json:"title"`
	ContentFilter              json.RawMessage `json:"content_filter"`
	EnabledCourseModes         []string        `json:"enabled_course_modes"`
	PublishAuditEnrollmentURLs bool            `json:"publish_audit_enrollment_urls"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

// ToCatalogResponse maps a domain catalog to its API view
func ToCatalogResponse(c *enterprise.Catalog) *CatalogResponse {
	return &CatalogResponse{
		ID:                         c.ID,
		EnterpriseCustomerID:       c.EnterpriseCustomerID,
		Title:                      c.Title,
		ContentFilter:              c.ContentFilter,
		EnabledCourseModes:         c.EnabledCourseModes,
		PublishAuditEnrollmentURLs: c.PublishAuditEnrollmentURLs,
		CreatedAt:                  c.CreatedAt,
		UpdatedAt:                  c.UpdatedAt,
	}
}

// EnrollRequest carries the fields for enrolling a linked learner
type EnrollRequest struct {
	CourseRunID string `json:"course_run_id"`
	CourseMode  string `json:"course_mode"`
	Cohort      string `json:"cohort"`
	Source      string `json:"source"`
}

// EnrollmentResponse is the API view of an enterprise enrollment
type EnrollmentResponse struct {
	ID                       uuid.UUID `json:"id"`
	EnterpriseCustomerUserID uuid.UUID `json:"enterprise_customer_user"`
	CourseRunID              string    `json:"course_run_id"`
	SavedForLater            bool      `json:"saved_for_later"`
	Source                   string    `json:"source"`
	CreatedAt                time.Time `json:"created_at"`
}

// ToEnrollmentResponse maps a domain enrollment to its API view
func ToEnrollmentResponse(e *enterprise.CourseEnrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:                       e.ID,
		EnterpriseCustomerUserID: e.EnterpriseCustomerUserID,
		CourseRunID:              e.CourseRunID,
		SavedForLater:            e.SavedForLater,
		Source:                   string(e.Source),
		CreatedAt:                e.CreatedAt,
	}
}
