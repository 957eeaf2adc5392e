package channels

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Moodle webservice paths and functions
const (
	moodleAPIPath   = "/webservice/rest/server.php"
	moodleTokenPath = "/login/token.php"

	moodleFuncEnrolledUsers  = "core_enrol_get_enrolled_users"
	moodleFuncCourseContents = "core_course_get_contents"
	moodleFuncCoursesByField = "core_course_get_courses_by_field"
	moodleFuncUpdateGrades   = "core_grades_update_grades"
	moodleFuncCreateCourses  = "core_course_create_courses"
	moodleFuncUpdateCourses  = "core_course_update_courses"
	moodleFuncDeleteCourses  = "core_course_delete_courses"
)

// moodleFinalGradeModuleName is the shell assignment the customer creates in
// each course to receive the final grade.
const moodleFinalGradeModuleName = "(edX integration) Final Grade"

var (
	ErrMoodleConfigMissingBaseURL  = errors.New("channels: moodle config missing base URL")
	ErrMoodleConfigMissingUsername = errors.New("channels: moodle config missing webservice username")
	ErrMoodleConfigMissingPassword = errors.New("channels: moodle config missing webservice password")
	ErrMoodleConfigMissingService  = errors.New("channels: moodle config missing service short name")
)

// MoodleConfig holds the credentials for one customer's Moodle instance
type MoodleConfig struct {
	// BaseURL is the customer's Moodle instance root URL
	BaseURL string `json:"moodle_base_url"`
	// Username is the webservice user tokens are issued for
	Username string `json:"username"`
	// Password is the webservice user's password
	Password string `json:"password"`
	// ServiceShortName identifies the webservice tokens are scoped to
	ServiceShortName string `json:"service_short_name"`
	// Token is an optional pre-issued webservice token; when empty a token is
	// obtained with the username and password
	Token string `json:"token"`
	// CategoryID is the Moodle course category new courses land in
	CategoryID int `json:"category_id"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks required fields and applies defaults. Credentials may be
// omitted when a pre-issued token is configured.
func (c *MoodleConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrMoodleConfigMissingBaseURL
	}
	if c.Token == "" {
		if c.Username == "" {
			return ErrMoodleConfigMissingUsername
		}
		if c.Password == "" {
			return ErrMoodleConfigMissingPassword
		}
		if c.ServiceShortName == "" {
			return ErrMoodleConfigMissingService
		}
	}
	if c.CategoryID <= 0 {
		c.CategoryID = 1
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// ParseMoodleConfig decodes a channel configuration settings document
func ParseMoodleConfig(settings json.RawMessage) (*MoodleConfig, error) {
	var config MoodleConfig
	if err := json.Unmarshal(settings, &config); err != nil {
		return nil, fmt.Errorf("channels: invalid moodle settings: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
