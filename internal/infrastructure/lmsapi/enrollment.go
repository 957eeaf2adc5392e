package lmsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// courseModeSortOrder ranks enrollment modes by preference when enrolling
// enterprise learners. Earlier is better.
var courseModeSortOrder = []string{"verified", "professional", "no-id-professional", "audit", "honor"}

// excludedCourseModes are modes enterprise learners are never enrolled in
var excludedCourseModes = map[string]bool{"credit": true}

// CourseMode is one entry of a course run's enrollment modes
type CourseMode struct {
	Slug                  string  `json:"slug"`
	Name                  string  `json:"name"`
	MinPrice              float64 `json:"min_price"`
	CurrencyCode          string  `json:"currency"`
	ExpirationDatetime    string  `json:"expiration_datetime"`
	SKU                   string  `json:"sku"`
	AndroidSKU            string  `json:"android_sku"`
	IOSSKU                string  `json:"ios_sku"`
	Description           string  `json:"description"`
	SupportsCertificates  bool    `json:"supports_certificates,omitempty"`
	SuggestedPrices       string  `json:"suggested_prices,omitempty"`
	BulkSKU               string  `json:"bulk_sku,omitempty"`
	ExpirationFixedFuture bool    `json:"expiration_datetime_is_explicit,omitempty"`
}

// EnrollmentCourseDetails is the enrollment API's view of a course run
type EnrollmentCourseDetails struct {
	CourseID        string       `json:"course_id"`
	CourseName      string       `json:"course_name"`
	EnrollmentStart string       `json:"enrollment_start"`
	EnrollmentEnd   string       `json:"enrollment_end"`
	CourseStart     string       `json:"course_start"`
	CourseEnd       string       `json:"course_end"`
	InviteOnly      bool         `json:"invite_only"`
	CourseModes     []CourseMode `json:"course_modes"`
	PacingType      string       `json:"pacing_type"`
}

// Enrollment is one platform course enrollment
type Enrollment struct {
	CourseDetails EnrollmentCourseDetails `json:"course_details"`
	User          string                  `json:"user"`
	Mode          string                  `json:"mode"`
	IsActive      bool                    `json:"is_active"`
	Created       string                  `json:"created"`
}

// EnrollmentClient calls the platform Enrollment API
type EnrollmentClient struct {
	api *httpAPI
}

// NewEnrollmentClient creates an enrollment API client
func NewEnrollmentClient(cfg *Config, tokens *TokenSource) *EnrollmentClient {
	return &EnrollmentClient{api: newHTTPAPI(cfg.LMSBaseURL, cfg, tokens)}
}

// GetCourseDetails returns the enrollment-context details of a course run.
// Lookup failures are not fatal for callers assembling optional metadata, so
// they surface as ErrNotFound rather than panics or empty structs.
func (c *EnrollmentClient) GetCourseDetails(ctx context.Context, courseID string) (*EnrollmentCourseDetails, error) {
	var details EnrollmentCourseDetails
	path := fmt.Sprintf("/api/enrollment/v1/course/%s", url.PathEscape(courseID))
	if err := c.api.get(ctx, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetCourseModes returns the course run's enrollment modes, best first,
// with excluded modes filtered out.
func (c *EnrollmentClient) GetCourseModes(ctx context.Context, courseID string) ([]CourseMode, error) {
	details, err := c.GetCourseDetails(ctx, courseID)
	if err != nil {
		return nil, err
	}

	modes := make([]CourseMode, 0, len(details.CourseModes))
	for _, mode := range details.CourseModes {
		if !excludedCourseModes[mode.Slug] {
			modes = append(modes, mode)
		}
	}
	sort.SliceStable(modes, func(i, j int) bool {
		return modeRank(modes[i].Slug) < modeRank(modes[j].Slug)
	})
	return modes, nil
}

func modeRank(slug string) int {
	for i, s := range courseModeSortOrder {
		if s == slug {
			return i
		}
	}
	return len(courseModeSortOrder)
}

// HasCourseMode reports whether the course run offers the given mode
func (c *EnrollmentClient) HasCourseMode(ctx context.Context, courseRunID, mode string) (bool, error) {
	modes, err := c.GetCourseModes(ctx, courseRunID)
	if err != nil {
		return false, err
	}
	for _, m := range modes {
		if m.Slug == mode {
			return true, nil
		}
	}
	return false, nil
}

type enrollmentRequest struct {
	User           string            `json:"user"`
	CourseDetails  map[string]string `json:"course_details"`
	IsActive       *bool             `json:"is_active,omitempty"`
	Mode           string            `json:"mode,omitempty"`
	Cohort         string            `json:"cohort,omitempty"`
	EnterpriseUUID string            `json:"enterprise_uuid,omitempty"`
}

// EnrollUserInCourse enrolls the user in the course run with the given mode
func (c *EnrollmentClient) EnrollUserInCourse(ctx context.Context, username, courseID, mode, cohort, enterpriseUUID string) (*Enrollment, error) {
	active := true
	req := enrollmentRequest{
		User:           username,
		CourseDetails:  map[string]string{"course_id": courseID},
		IsActive:       &active,
		Mode:           mode,
		Cohort:         cohort,
		EnterpriseUUID: enterpriseUUID,
	}
	var enrollment Enrollment
	if err := c.api.post(ctx, "/api/enrollment/v1/enrollment", req, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UnenrollUserFromCourse deactivates an active enrollment. Returns true when
// the platform confirmed the enrollment is no longer active.
func (c *EnrollmentClient) UnenrollUserFromCourse(ctx context.Context, username, courseID string) (bool, error) {
	enrollment, err := c.GetCourseEnrollment(ctx, username, courseID)
	if err != nil {
		return false, err
	}
	if enrollment == nil || !enrollment.IsActive {
		return false, nil
	}

	inactive := false
	req := enrollmentRequest{
		User:          username,
		CourseDetails: map[string]string{"course_id": courseID},
		IsActive:      &inactive,
		Mode:          enrollment.Mode,
	}
	var updated Enrollment
	if err := c.api.post(ctx, "/api/enrollment/v1/enrollment", req, &updated); err != nil {
		return false, err
	}
	return !updated.IsActive, nil
}

// UpdateCourseEnrollmentMode switches an enrollment to the given mode
func (c *EnrollmentClient) UpdateCourseEnrollmentMode(ctx context.Context, username, courseID, mode string) (*Enrollment, error) {
	req := enrollmentRequest{
		User:          username,
		CourseDetails: map[string]string{"course_id": courseID},
		Mode:          mode,
	}
	var enrollment Enrollment
	if err := c.api.post(ctx, "/api/enrollment/v1/enrollment", req, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetCourseEnrollment returns the user's enrollment in the course run, or nil
// when the platform has no matching enrollment.
func (c *EnrollmentClient) GetCourseEnrollment(ctx context.Context, username, courseID string) (*Enrollment, error) {
	path := fmt.Sprintf("/api/enrollment/v1/enrollment/%s,%s", url.PathEscape(username), url.PathEscape(courseID))
	var enrollment Enrollment
	err := c.api.get(ctx, path, nil, &enrollment)
	switch {
	case errors.Is(err, ErrNotFound):
		// Invalid username or course ID
		return nil, nil
	case err != nil:
		return nil, err
	}
	// The endpoint returns an empty body for a valid user with no enrollment
	if enrollment.User == "" && enrollment.CourseDetails.CourseID == "" {
		return nil, nil
	}
	return &enrollment, nil
}

// IsEnrolled reports whether the user has an active enrollment in the course run
func (c *EnrollmentClient) IsEnrolled(ctx context.Context, username, courseRunID string) (bool, error) {
	enrollment, err := c.GetCourseEnrollment(ctx, username, courseRunID)
	if err != nil {
		return false, err
	}
	return enrollment != nil && enrollment.IsActive, nil
}

// GetEnrolledCourses lists the user's enrollments
func (c *EnrollmentClient) GetEnrolledCourses(ctx context.Context, username string) ([]Enrollment, error) {
	query := url.Values{"user": []string{username}}
	var enrollments []Enrollment
	if err := c.api.get(ctx, "/api/enrollment/v1/enrollment", query, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}
