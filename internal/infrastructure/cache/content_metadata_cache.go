package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

const contentMetadataKeyPrefix = "enterprise:catalog:content:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ContentMetadataCache caches exported catalog content per catalog uuid so
// back-to-back channel syncs do not re-pull the full catalog from the
// enterprise catalog service.
type ContentMetadataCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewContentMetadataCache creates a cache backed by a new Redis connection
func NewContentMetadataCache(cfg RedisConfig, ttl time.Duration) (*ContentMetadataCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewContentMetadataCacheWithClient(client, ttl), nil
}

// NewContentMetadataCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewContentMetadataCacheWithClient(client *redis.Client, ttl time.Duration) *ContentMetadataCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ContentMetadataCache{
		client:    client,
		keyPrefix: contentMetadataKeyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached content items for the catalog. The second return is
// false on a cache miss.
func (c *ContentMetadataCache) Get(ctx context.Context, catalogUUID uuid.UUID) ([]lmsapi.CatalogContentItem, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+catalogUUID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached content metadata: %w", err)
	}

	var items []lmsapi.CatalogContentItem
	if err := json.Unmarshal(payload, &items); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it
		return nil, false, nil
	}
	return items, true, nil
}

// Set stores the content items for the catalog with the configured TTL
func (c *ContentMetadataCache) Set(ctx context.Context, catalogUUID uuid.UUID, items []lmsapi.CatalogContentItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode content metadata: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+catalogUUID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache content metadata: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries for the given catalogs
func (c *ContentMetadataCache) Invalidate(ctx context.Context, catalogUUIDs ...uuid.UUID) error {
	if len(catalogUUIDs) == 0 {
		return nil
	}
	keys := make([]string, len(catalogUUIDs))
	for i, id := range catalogUUIDs {
		keys[i] = c.keyPrefix + id.String()
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate content metadata cache: %w", err)
	}
	return nil
}

// CatalogContentGetter fetches content metadata for catalogs
type CatalogContentGetter interface {
	GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]lmsapi.CatalogContentItem, error)
}

// contentCache is the slice of ContentMetadataCache the fetcher needs
type contentCache interface {
	Get(ctx context.Context, catalogUUID uuid.UUID) ([]lmsapi.CatalogContentItem, bool, error)
	Set(ctx context.Context, catalogUUID uuid.UUID, items []lmsapi.CatalogContentItem) error
}

// CachingContentFetcher wraps a catalog content fetcher with the per-catalog
// Redis cache. Cache failures degrade to direct fetches.
type CachingContentFetcher struct {
	inner CatalogContentGetter
	cache contentCache
}

// NewCachingContentFetcher creates a caching fetcher
func NewCachingContentFetcher(inner CatalogContentGetter, cache contentCache) *CachingContentFetcher {
	return &CachingContentFetcher{inner: inner, cache: cache}
}

// GetContentMetadata returns the union of content across the catalogs,
// deduplicated by content key, serving each catalog from cache when possible.
func (f *CachingContentFetcher) GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]lmsapi.CatalogContentItem, error) {
	var merged []lmsapi.CatalogContentItem
	seen := make(map[string]struct{})

	appendItems := func(items []lmsapi.CatalogContentItem) {
		for _, item := range items {
			if _, ok := seen[item.ContentKey]; ok {
				continue
			}
			seen[item.ContentKey] = struct{}{}
			merged = append(merged, item)
		}
	}

	for _, catalogUUID := range catalogUUIDs {
		items, hit, err := f.cache.Get(ctx, catalogUUID)
		if err == nil && hit {
			appendItems(items)
			continue
		}

		items, err = f.inner.GetContentMetadata(ctx, []uuid.UUID{catalogUUID})
		if err != nil {
			return nil, err
		}
		// Best effort: a failed cache write must not fail the export
		_ = f.cache.Set(ctx, catalogUUID, items)
		appendItems(items)
	}
	return merged, nil
}
