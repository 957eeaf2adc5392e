package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

type fakeContentCache struct {
	entries map[uuid.UUID][]lmsapi.CatalogContentItem
	sets    int
}

func newFakeContentCache() *fakeContentCache {
	return &fakeContentCache{entries: make(map[uuid.UUID][]lmsapi.CatalogContentItem)}
}

func (c *fakeContentCache) Get(_ context.Context, catalogUUID uuid.UUID) ([]lmsapi.CatalogContentItem, bool, error) {
	items, ok := c.entries[catalogUUID]
	return items, ok, nil
}

func (c *fakeContentCache) Set(_ context.Context, catalogUUID uuid.UUID, items []lmsapi.CatalogContentItem) error {
	c.entries[catalogUUID] = items
	c.sets++
	return nil
}

type mockContentGetter struct {
	mock.Mock
}

func (m *mockContentGetter) GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]lmsapi.CatalogContentItem, error) {
	args := m.Called(ctx, catalogUUIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lmsapi.CatalogContentItem), args.Error(1)
}

func contentItemFixture(key string) lmsapi.CatalogContentItem {
	return lmsapi.CatalogContentItem{
		ContentKey:  key,
		ContentType: "courserun",
		Raw:         json.RawMessage(`{"key":"` + key + `"}`),
	}
}

func TestCachingContentFetcher(t *testing.T) {
	catalogA := uuid.New()
	catalogB := uuid.New()

	t.Run("fetches misses and fills the cache", func(t *testing.T) {
		inner := new(mockContentGetter)
		store := newFakeContentCache()
		fetcher := NewCachingContentFetcher(inner, store)

		inner.On("GetContentMetadata", mock.Anything, []uuid.UUID{catalogA}).
			Return([]lmsapi.CatalogContentItem{contentItemFixture("course-v1:acme+GO101+2024")}, nil).Once()

		items, err := fetcher.GetContentMetadata(context.Background(), []uuid.UUID{catalogA})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 1, store.sets)

		// Second call is served from cache
		items, err = fetcher.GetContentMetadata(context.Background(), []uuid.UUID{catalogA})
		require.NoError(t, err)
		require.Len(t, items, 1)
		inner.AssertNumberOfCalls(t, "GetContentMetadata", 1)
	})

	t.Run("deduplicates content shared between catalogs", func(t *testing.T) {
		inner := new(mockContentGetter)
		store := newFakeContentCache()
		fetcher := NewCachingContentFetcher(inner, store)

		shared := contentItemFixture("course-v1:acme+GO101+2024")
		inner.On("GetContentMetadata", mock.Anything, []uuid.UUID{catalogA}).
			Return([]lmsapi.CatalogContentItem{shared, contentItemFixture("course-v1:acme+GO102+2024")}, nil).Once()
		inner.On("GetContentMetadata", mock.Anything, []uuid.UUID{catalogB}).
			Return([]lmsapi.CatalogContentItem{shared}, nil).Once()

		items, err := fetcher.GetContentMetadata(context.Background(), []uuid.UUID{catalogA, catalogB})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		inner := new(mockContentGetter)
		store := newFakeContentCache()
		fetcher := NewCachingContentFetcher(inner, store)

		inner.On("GetContentMetadata", mock.Anything, []uuid.UUID{catalogA}).
			Return(nil, assert.AnError).Once()

		_, err := fetcher.GetContentMetadata(context.Background(), []uuid.UUID{catalogA})
		assert.ErrorIs(t, err, assert.AnError)
	})
}
