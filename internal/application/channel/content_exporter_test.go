package channel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

func catalogContentItem(t *testing.T, key string, fields map[string]any) lmsapi.CatalogContentItem {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return lmsapi.CatalogContentItem{
		ContentKey:  key,
		ContentType: "course",
		Raw:         raw,
	}
}

func TestContentMetadataExporter_ExportContent(t *testing.T) {
	ctx := context.Background()
	customer := &enterprise.Customer{ID: uuid.New(), Name: "Acme Corp", Slug: "acme", Active: true}
	catalog := enterprise.Catalog{ID: uuid.New(), EnterpriseCustomerID: customer.ID, Title: "All Courses"}

	newFixture := func() (*ContentMetadataExporter, *mockCatalogRepository, *mockCatalogContentFetcher) {
		catalogRepo := &mockCatalogRepository{}
		content := &mockCatalogContentFetcher{}
		return NewContentMetadataExporter(catalogRepo, content, zap.NewNop()), catalogRepo, content
	}

	t.Run("degreed items keyed by content key", func(t *testing.T) {
		exporter, catalogRepo, content := newFixture()

		catalogRepo.On("FindByCustomer", ctx, customer.ID).Return([]enterprise.Catalog{catalog}, nil)
		content.On("GetContentMetadata", ctx, []uuid.UUID{catalog.ID}).
			Return([]lmsapi.CatalogContentItem{
				catalogContentItem(t, "edX+DemoX", map[string]any{
					"key":              "edX+DemoX",
					"title":            "Demonstration Course",
					"full_description": "A tour of the platform.",
					"enrollment_url":   "https://portal.example.com/enroll/edX+DemoX",
					"image_url":        "https://cdn.example.com/demo.jpg",
					"languages":        []string{"English"},
				}),
			}, nil)

		export, err := exporter.ExportContent(ctx, customer, testConfiguration(channel.CodeDegreed))

		require.NoError(t, err)
		require.Len(t, export, 1)
		item, ok := export["edX+DemoX"]
		require.True(t, ok)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(item.Metadata, &doc))
		assert.Equal(t, "edX+DemoX", doc["contentId"])
		assert.Equal(t, "Demonstration Course", doc["title"])
		assert.Equal(t, "A tour of the platform.", doc["description"])
		assert.Equal(t, "https://portal.example.com/enroll/edX+DemoX", doc["url"])
		assert.Equal(t, "English", doc["language"])
	})

	t.Run("sap items carry the OCN structure", func(t *testing.T) {
		exporter, catalogRepo, content := newFixture()

		catalogRepo.On("FindByCustomer", ctx, customer.ID).Return([]enterprise.Catalog{catalog}, nil)
		content.On("GetContentMetadata", ctx, []uuid.UUID{catalog.ID}).
			Return([]lmsapi.CatalogContentItem{
				catalogContentItem(t, "edX+DemoX", map[string]any{
					"key":           "edX+DemoX",
					"title":         "Demonstration Course",
					"marketing_url": "https://example.com/demo",
				}),
			}, nil)

		export, err := exporter.ExportContent(ctx, customer, testConfiguration(channel.CodeSAPSuccessFactors))

		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(export["edX+DemoX"].Metadata, &doc))
		assert.Equal(t, "edX+DemoX", doc["courseID"])
		assert.Equal(t, "ACTIVE", doc["status"])
		titles, ok := doc["title"].([]any)
		require.True(t, ok)
		require.Len(t, titles, 1)
		assert.Equal(t, "Demonstration Course", titles[0].(map[string]any)["value"])
		contentList, ok := doc["content"].([]any)
		require.True(t, ok)
		require.Len(t, contentList, 1)
		assert.Equal(t, "https://example.com/demo", contentList[0].(map[string]any)["launchURL"])
	})

	t.Run("moodle items are flat course field maps", func(t *testing.T) {
		exporter, catalogRepo, content := newFixture()
		start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

		catalogRepo.On("FindByCustomer", ctx, customer.ID).Return([]enterprise.Catalog{catalog}, nil)
		content.On("GetContentMetadata", ctx, []uuid.UUID{catalog.ID}).
			Return([]lmsapi.CatalogContentItem{
				catalogContentItem(t, "edX+DemoX", map[string]any{
					"key":   "edX+DemoX",
					"title": "Demonstration Course",
					"start": start.Format(time.RFC3339),
				}),
			}, nil)

		export, err := exporter.ExportContent(ctx, customer, testConfiguration(channel.CodeMoodle))

		require.NoError(t, err)
		var fields map[string]string
		require.NoError(t, json.Unmarshal(export["edX+DemoX"].Metadata, &fields))
		assert.Equal(t, "Demonstration Course", fields["fullname"])
		assert.Equal(t, "edX+DemoX", fields["shortname"])
		assert.Equal(t, "edX+DemoX", fields["idnumber"])
		assert.Equal(t, "1704672000", fields["startdate"])
	})

	t.Run("undecodable catalog items are skipped", func(t *testing.T) {
		exporter, catalogRepo, content := newFixture()

		catalogRepo.On("FindByCustomer", ctx, customer.ID).Return([]enterprise.Catalog{catalog}, nil)
		content.On("GetContentMetadata", ctx, []uuid.UUID{catalog.ID}).
			Return([]lmsapi.CatalogContentItem{
				{ContentKey: "broken", Raw: json.RawMessage(`"not an object"`)},
				catalogContentItem(t, "edX+DemoX", map[string]any{"key": "edX+DemoX", "title": "Demo"}),
			}, nil)

		export, err := exporter.ExportContent(ctx, customer, testConfiguration(channel.CodeDegreed))

		require.NoError(t, err)
		assert.Len(t, export, 1)
		_, ok := export["edX+DemoX"]
		assert.True(t, ok)
	})
}
