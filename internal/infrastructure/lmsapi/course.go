package lmsapi

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// CourseDetails is the course API's metadata for one course run
type CourseDetails struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Number           string     `json:"number"`
	Org              string     `json:"org"`
	ShortDescription string     `json:"short_description"`
	Start            *time.Time `json:"start"`
	End              *time.Time `json:"end"`
	Pacing           string     `json:"pacing"`
	Effort           string     `json:"effort"`
	Media            struct {
		CourseImage struct {
			URI string `json:"uri"`
		} `json:"course_image"`
	} `json:"media"`
}

// SelfPaced reports whether the course run is self-paced
func (d *CourseDetails) SelfPaced() bool {
	return d.Pacing == "self"
}

// CourseClient calls the LMS Course API. No authentication required.
type CourseClient struct {
	api *httpAPI
}

// NewCourseClient creates a course API client
func NewCourseClient(cfg *Config) *CourseClient {
	return &CourseClient{api: newHTTPAPI(cfg.LMSBaseURL, cfg, nil)}
}

// GetCourseDetails returns all available details about a course run
func (c *CourseClient) GetCourseDetails(ctx context.Context, courseID string) (*CourseDetails, error) {
	path := fmt.Sprintf("/api/courses/v1/courses/%s/", url.PathEscape(courseID))
	var details CourseDetails
	if err := c.api.get(ctx, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetHealth checks the LMS heartbeat endpoint
func (c *CourseClient) GetHealth(ctx context.Context) error {
	return c.api.get(ctx, "/heartbeat", nil, nil)
}
