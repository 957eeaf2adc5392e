package lmsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// contentMetadataPageSize is the page size used when pulling catalog content
const contentMetadataPageSize = 50

// CatalogContentItem is one content metadata item from the catalog service.
// The raw payload is kept alongside the commonly used fields because channel
// exporters transform the full item.
type CatalogContentItem struct {
	// ContentKey uniquely identifies the item (course key, course run id or
	// program uuid)
	ContentKey string
	// ContentType is "course", "courserun" or "program"
	ContentType string
	// ContentLastModified is when the item last changed in the catalog
	ContentLastModified *time.Time
	// Raw is the item as returned by the catalog service
	Raw json.RawMessage
}

type catalogContentEnvelope struct {
	Key          string     `json:"key"`
	UUID         string     `json:"uuid"`
	ContentType  string     `json:"content_type"`
	LastModified *time.Time `json:"content_last_modified"`
}

// CatalogDetails is the catalog service's view of an enterprise catalog
type CatalogDetails struct {
	UUID                       string          `json:"uuid"`
	Title                      string          `json:"title"`
	EnterpriseCustomer         string          `json:"enterprise_customer"`
	EnterpriseCustomerName     string          `json:"enterprise_customer_name"`
	ContentFilter              json.RawMessage `json:"content_filter"`
	EnabledCourseModes         []string        `json:"enabled_course_modes"`
	PublishAuditEnrollmentURLs bool            `json:"publish_audit_enrollment_urls"`
	CatalogQueryUUID           string          `json:"catalog_query_uuid"`
}

// CatalogClient calls the enterprise catalog service
type CatalogClient struct {
	api *httpAPI
}

// NewCatalogClient creates an enterprise catalog service client
func NewCatalogClient(cfg *Config, tokens *TokenSource) *CatalogClient {
	base := cfg.CatalogBaseURL
	if base == "" {
		base = cfg.LMSBaseURL
	}
	return &CatalogClient{api: newHTTPAPI(base, cfg, tokens)}
}

// CreateCatalog registers an enterprise catalog with the catalog service
func (c *CatalogClient) CreateCatalog(ctx context.Context, details *CatalogDetails) (*CatalogDetails, error) {
	var created CatalogDetails
	if err := c.api.post(ctx, "/api/v1/enterprise-catalogs/", details, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCatalog fetches an enterprise catalog by uuid
func (c *CatalogClient) GetCatalog(ctx context.Context, catalogUUID uuid.UUID) (*CatalogDetails, error) {
	var details CatalogDetails
	path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/", catalogUUID)
	if err := c.api.get(ctx, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// UpdateCatalog updates an enterprise catalog in the catalog service
func (c *CatalogClient) UpdateCatalog(ctx context.Context, catalogUUID uuid.UUID, details *CatalogDetails) (*CatalogDetails, error) {
	var updated CatalogDetails
	path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/", catalogUUID)
	if err := c.api.put(ctx, path, details, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCatalog removes an enterprise catalog from the catalog service.
// Deleting a catalog the service never had is not an error.
func (c *CatalogClient) DeleteCatalog(ctx context.Context, catalogUUID uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/", catalogUUID)
	err := c.api.delete(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// GetContentMetadata returns every content metadata item in the given
// catalogs, deduplicated by content key with first occurrence winning.
func (c *CatalogClient) GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]CatalogContentItem, error) {
	seen := make(map[string]bool)
	var items []CatalogContentItem

	for _, catalogUUID := range catalogUUIDs {
		path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/get_content_metadata/", catalogUUID)
		query := url.Values{"page_size": []string{strconv.Itoa(contentMetadataPageSize)}}

		raw, err := c.api.getAllPages(ctx, path, query)
		if err != nil {
			return nil, fmt.Errorf("lmsapi: failed to get content metadata for catalog %s: %w", catalogUUID, err)
		}

		for _, item := range raw {
			var envelope catalogContentEnvelope
			if err := json.Unmarshal(item, &envelope); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
			}
			contentKey := envelope.Key
			if envelope.ContentType == "program" {
				contentKey = envelope.UUID
			}
			if contentKey == "" || seen[contentKey] {
				continue
			}
			seen[contentKey] = true
			items = append(items, CatalogContentItem{
				ContentKey:          contentKey,
				ContentType:         envelope.ContentType,
				ContentLastModified: envelope.LastModified,
				Raw:                 item,
			})
		}
	}
	return items, nil
}

// RefreshCatalogs kicks off async metadata refreshes for the given catalogs.
// Returns the task id per refreshed catalog and the uuids that failed.
func (c *CatalogClient) RefreshCatalogs(ctx context.Context, catalogUUIDs []uuid.UUID) (map[uuid.UUID]string, []uuid.UUID, error) {
	refreshed := make(map[uuid.UUID]string)
	var failed []uuid.UUID

	for _, catalogUUID := range catalogUUIDs {
		path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/refresh_metadata/", catalogUUID)
		var resp struct {
			AsyncTaskID string `json:"async_task_id"`
		}
		if err := c.api.post(ctx, path, nil, &resp); err != nil {
			failed = append(failed, catalogUUID)
			continue
		}
		refreshed[catalogUUID] = resp.AsyncTaskID
	}
	return refreshed, failed, nil
}

// ContainsContentItems reports whether the catalog contains all given content ids
func (c *CatalogClient) ContainsContentItems(ctx context.Context, catalogUUID uuid.UUID, contentIDs []string) (bool, error) {
	path := fmt.Sprintf("/api/v1/enterprise-catalogs/%s/contains_content_items/", catalogUUID)
	return c.containsContentItems(ctx, path, contentIDs)
}

// CustomerContainsContentItems reports whether any of the customer's catalogs
// contains all given content ids.
func (c *CatalogClient) CustomerContainsContentItems(ctx context.Context, customerUUID uuid.UUID, contentIDs []string) (bool, error) {
	path := fmt.Sprintf("/api/v1/enterprise-customer/%s/contains_content_items/", customerUUID)
	return c.containsContentItems(ctx, path, contentIDs)
}

func (c *CatalogClient) containsContentItems(ctx context.Context, path string, contentIDs []string) (bool, error) {
	query := url.Values{"course_run_ids": contentIDs}
	var resp struct {
		ContainsContentItems bool `json:"contains_content_items"`
	}
	if err := c.api.get(ctx, path, query, &resp); err != nil {
		return false, err
	}
	return resp.ContainsContentItems, nil
}

// GetHealth checks the catalog service health endpoint
func (c *CatalogClient) GetHealth(ctx context.Context) error {
	return c.api.get(ctx, "/health/", nil, nil)
}
