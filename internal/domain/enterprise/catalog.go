package enterprise

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Catalog is a curated subset of the platform course catalog made available
// to a customer's learners. The content filter is interpreted by the host
// platform's catalog service, not locally.
type Catalog struct {
	// ID is the catalog uuid, shared with the host catalog service
	ID uuid.UUID
	// EnterpriseCustomerID is the owning customer
	EnterpriseCustomerID uuid.UUID
	// Title is the catalog's display title
	Title string
	// ContentFilter is the catalog service query, stored verbatim as JSON
	ContentFilter json.RawMessage
	// EnabledCourseModes restricts which enrollment modes the catalog offers
	EnabledCourseModes []string
	// PublishAuditEnrollmentURLs exposes audit enrollment links for the catalog
	PublishAuditEnrollmentURLs bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// NewCatalog creates a catalog with a fresh uuid after validating inputs
func NewCatalog(customerID uuid.UUID, title string, contentFilter json.RawMessage) (*Catalog, error) {
	if title == "" {
		return nil, ErrCatalogInvalidTitle
	}
	if len(contentFilter) == 0 {
		contentFilter = json.RawMessage("{}")
	}
	return &Catalog{
		ID:                   uuid.New(),
		EnterpriseCustomerID: customerID,
		Title:                title,
		ContentFilter:        contentFilter,
		EnabledCourseModes:   []string{"verified", "audit"},
	}, nil
}

// CatalogRepository provides access to enterprise customer catalogs
type CatalogRepository interface {
	// FindByID finds a catalog by uuid
	FindByID(ctx context.Context, id uuid.UUID) (*Catalog, error)

	// FindByCustomer returns every catalog owned by the customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Catalog, error)

	// Save persists a catalog, inserting or updating as needed
	Save(ctx context.Context, catalog *Catalog) error

	// Delete removes a catalog
	Delete(ctx context.Context, id uuid.UUID) error
}
