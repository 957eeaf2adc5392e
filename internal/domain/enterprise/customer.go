package enterprise

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Enterprise Errors
// ---------------------------------------------------------------------------

var (
	// Customer errors
	ErrCustomerNotFound      = errors.New("enterprise: customer not found")
	ErrCustomerInactive      = errors.New("enterprise: customer not active")
	ErrCustomerInvalidName   = errors.New("enterprise: customer name is required")
	ErrCustomerInvalidSlug   = errors.New("enterprise: customer slug must be lowercase letters, digits and hyphens")
	ErrCustomerSlugTaken     = errors.New("enterprise: customer slug already in use")
	ErrCustomerAlreadyExists = errors.New("enterprise: customer already exists")

	// Customer user errors
	ErrCustomerUserNotFound      = errors.New("enterprise: customer user not found")
	ErrCustomerUserNotLinked     = errors.New("enterprise: customer user not linked")
	ErrCustomerUserAlreadyLinked = errors.New("enterprise: user already linked to customer")
	ErrCustomerUserInvalidUserID = errors.New("enterprise: invalid LMS user ID")

	// Catalog errors
	ErrCatalogNotFound     = errors.New("enterprise: catalog not found")
	ErrCatalogInvalidTitle = errors.New("enterprise: catalog title is required")

	// Enrollment errors
	ErrEnrollmentNotFound       = errors.New("enterprise: course enrollment not found")
	ErrEnrollmentAlreadyExists  = errors.New("enterprise: course enrollment already exists")
	ErrEnrollmentInvalidCourse  = errors.New("enterprise: course run ID is required")
	ErrEnrollmentNotInCatalog   = errors.New("enterprise: course not in customer catalogs")
	ErrEnrollmentModeNotOffered = errors.New("enterprise: course does not offer the requested mode")
	ErrEnrollmentAuditDisabled  = errors.New("enterprise: audit enrollment disabled for customer")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ---------------------------------------------------------------------------
// Customer
// ---------------------------------------------------------------------------

// Customer is an organizational tenant of the learning platform with its own
// catalogs, learners and integrated-channel configurations.
type Customer struct {
	// ID is the customer uuid, shared with the host platform
	ID uuid.UUID
	// Name is the customer's display name
	Name string
	// Slug is the URL-safe identifier used in learner-facing links
	Slug string
	// Active indicates whether the customer is enabled
	Active bool
	// IdentityProvider is the default SSO provider slug for the customer
	IdentityProvider string
	// SiteDomain is the host platform site the customer is attached to
	SiteDomain string
	// EnableAuditEnrollment allows audit-mode enrollments through catalogs
	EnableAuditEnrollment bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewCustomer creates a customer with a fresh uuid after validating inputs
func NewCustomer(name, slug string) (*Customer, error) {
	c := &Customer{
		ID:     uuid.New(),
		Name:   name,
		Slug:   slug,
		Active: true,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks customer invariants
func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrCustomerInvalidName
	}
	if !slugPattern.MatchString(c.Slug) {
		return ErrCustomerInvalidSlug
	}
	return nil
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// CustomerFilter provides filters for listing customers
type CustomerFilter struct {
	// Active filters by active flag when non-nil
	Active *bool
	// NameContains matches a substring of the customer name
	NameContains string
	Page         int
	PageSize     int
}

// CustomerRepository provides access to enterprise customers
type CustomerRepository interface {
	// FindByID finds a customer by uuid
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindBySlug finds a customer by its slug
	FindBySlug(ctx context.Context, slug string) (*Customer, error)

	// FindAll lists customers matching the filter
	FindAll(ctx context.Context, filter CustomerFilter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter CustomerFilter) (int64, error)

	// Save persists a customer, inserting or updating as needed
	Save(ctx context.Context, customer *Customer) error

	// Delete removes a customer
	Delete(ctx context.Context, id uuid.UUID) error
}
