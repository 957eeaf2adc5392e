package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// catalogItemFields is the slice of a catalog service item the channel
// transforms read. The raw document carries much more; only these travel on.
type catalogItemFields struct {
	Key              string     `json:"key"`
	UUID             string     `json:"uuid"`
	Title            string     `json:"title"`
	FullDescription  string     `json:"full_description"`
	ShortDescription string     `json:"short_description"`
	MarketingURL     string     `json:"marketing_url"`
	EnrollmentURL    string     `json:"enrollment_url"`
	ImageURL         string     `json:"image_url"`
	CardImageURL     string     `json:"card_image_url"`
	Start            *time.Time `json:"start"`
	End              *time.Time `json:"end"`
	Languages        []string   `json:"languages"`
}

func (f *catalogItemFields) description() string {
	if f.FullDescription != "" {
		return f.FullDescription
	}
	return f.ShortDescription
}

func (f *catalogItemFields) image() string {
	if f.ImageURL != "" {
		return f.ImageURL
	}
	return f.CardImageURL
}

func (f *catalogItemFields) launchURL() string {
	if f.EnrollmentURL != "" {
		return f.EnrollmentURL
	}
	return f.MarketingURL
}

func (f *catalogItemFields) language() string {
	if len(f.Languages) > 0 {
		return f.Languages[0]
	}
	return "English"
}

// ContentMetadataExporter assembles channel-ready metadata for everything in
// a customer's catalogs, keyed by content ID for diffing against the audit
// trail of what the channel already has.
type ContentMetadataExporter struct {
	catalogRepo enterprise.CatalogRepository
	content     CatalogContentFetcher
	logger      *zap.Logger
}

// NewContentMetadataExporter creates a content metadata exporter
func NewContentMetadataExporter(catalogRepo enterprise.CatalogRepository, content CatalogContentFetcher, logger *zap.Logger) *ContentMetadataExporter {
	return &ContentMetadataExporter{
		catalogRepo: catalogRepo,
		content:     content,
		logger:      logger,
	}
}

// ExportContent returns the channel-shaped metadata for every item in the
// customer's catalogs. Items the channel transform cannot handle are logged
// and left out.
func (e *ContentMetadataExporter) ExportContent(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) (map[string]channel.ContentMetadataItem, error) {
	catalogs, err := e.catalogRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	catalogUUIDs := make([]uuid.UUID, 0, len(catalogs))
	for _, catalog := range catalogs {
		catalogUUIDs = append(catalogUUIDs, catalog.ID)
	}

	items, err := e.content.GetContentMetadata(ctx, catalogUUIDs)
	if err != nil {
		return nil, err
	}

	export := make(map[string]channel.ContentMetadataItem, len(items))
	for _, item := range items {
		metadata, err := transformContentItem(config.ChannelCode, &item)
		if err != nil {
			e.logger.Warn("Skipping catalog item the channel cannot represent",
				zap.String("content_key", item.ContentKey),
				zap.String("channel_code", config.ChannelCode.String()),
				zap.Error(err),
			)
			continue
		}
		export[item.ContentKey] = channel.ContentMetadataItem{
			ContentID:          item.ContentKey,
			Metadata:           metadata,
			ContentLastChanged: item.ContentLastModified,
		}
	}
	return export, nil
}

// transformContentItem shapes one catalog item the way the channel ingests it
func transformContentItem(code channel.Code, item *lmsapi.CatalogContentItem) (json.RawMessage, error) {
	var fields catalogItemFields
	if err := json.Unmarshal(item.Raw, &fields); err != nil {
		return nil, fmt.Errorf("channel: invalid catalog item %s: %w", item.ContentKey, err)
	}
	if fields.Key == "" {
		fields.Key = item.ContentKey
	}

	switch code {
	case channel.CodeSAPSuccessFactors:
		return json.Marshal(sapsfCourseDoc(&fields))
	case channel.CodeDegreed:
		return json.Marshal(degreedCourseDoc(&fields))
	case channel.CodeMoodle:
		return json.Marshal(moodleCourseFields(&fields))
	case channel.CodeCornerstone:
		return json.Marshal(cornerstoneCourseDoc(&fields, item))
	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrChannelUnknownCode, code)
	}
}

// localized wraps a value the way OCN localized fields expect
type localized struct {
	Locale string `json:"locale"`
	Value  string `json:"value"`
}

// sapsfCourseDoc builds the OCN course document for SAP SuccessFactors
func sapsfCourseDoc(fields *catalogItemFields) map[string]any {
	return map[string]any{
		"courseID":     fields.Key,
		"providerID":   sapsfProviderID,
		"status":       "ACTIVE",
		"title":        []localized{{Locale: fields.language(), Value: fields.Title}},
		"description":  []localized{{Locale: fields.language(), Value: fields.description()}},
		"thumbnailURI": fields.image(),
		"content": []map[string]any{{
			"providerID":    sapsfProviderID,
			"contentID":     fields.Key,
			"contentTitle":  fields.Title,
			"launchURL":     fields.launchURL(),
			"launchType":    3,
			"mobileEnabled": true,
		}},
		"schedule": []any{},
	}
}

// degreedCourseDoc builds the provider content document for Degreed
func degreedCourseDoc(fields *catalogItemFields) map[string]any {
	return map[string]any{
		"contentId":   fields.Key,
		"title":       fields.Title,
		"description": fields.description(),
		"url":         fields.launchURL(),
		"imageUrl":    fields.image(),
		"language":    fields.language(),
	}
}

// moodleCourseFields builds the flat field map the Moodle adapter flattens
// into courses[i][field] parameters. The course shell is matched back to the
// platform course run through idnumber.
func moodleCourseFields(fields *catalogItemFields) map[string]string {
	course := map[string]string{
		"fullname":  fields.Title,
		"shortname": fields.Key,
		"idnumber":  fields.Key,
		"summary":   fields.description(),
		"format":    "singleactivity",
		"activity":  "lti",
	}
	if fields.Start != nil {
		course["startdate"] = strconv.FormatInt(fields.Start.Unix(), 10)
	}
	if fields.End != nil {
		course["enddate"] = strconv.FormatInt(fields.End.Unix(), 10)
	}
	return course
}

// cornerstoneCourseDoc builds the course feed entry Cornerstone pulls
func cornerstoneCourseDoc(fields *catalogItemFields, item *lmsapi.CatalogContentItem) map[string]any {
	doc := map[string]any{
		"ID":          fields.Key,
		"Title":       fields.Title,
		"Description": fields.description(),
		"Thumbnail":   fields.image(),
		"URL":         fields.launchURL(),
		"IsActive":    true,
		"Languages":   fields.Languages,
	}
	if item.ContentLastModified != nil {
		doc["LastModifiedUTC"] = item.ContentLastModified.UTC().Format(time.RFC3339)
	}
	return doc
}
