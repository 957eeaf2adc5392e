package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/enterprise/backend/internal/domain/channel"
)

// MoodleAdapter implements channel.Client for Moodle.
// Moodle's webservice API takes every call as a POST with url-encoded
// parameters and reports errors inside a 200 body, so responses are inspected
// for errorcode/warnings fields. A token rejected with "invalidtoken" is
// refreshed once and the call retried.
type MoodleAdapter struct {
	config     *MoodleConfig
	httpClient *http.Client

	customerConfigs map[uuid.UUID]*MoodleConfig
	tokens          map[uuid.UUID]string
	mu              sync.RWMutex
}

// NewMoodleAdapter creates a Moodle adapter with the given default
// configuration. A nil default is allowed when every customer carries its own.
func NewMoodleAdapter(config *MoodleConfig) (*MoodleAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &MoodleAdapter{
		config:          config,
		httpClient:      &http.Client{Timeout: timeout},
		customerConfigs: make(map[uuid.UUID]*MoodleConfig),
		tokens:          make(map[uuid.UUID]string),
	}, nil
}

// SetCustomerConfig sets the configuration for a specific enterprise customer
func (a *MoodleAdapter) SetCustomerConfig(customerID uuid.UUID, config *MoodleConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customerConfigs[customerID] = config
	delete(a.tokens, customerID)
	return nil
}

// Configure parses raw configuration settings and installs them for the customer
func (a *MoodleAdapter) Configure(customerID uuid.UUID, settings json.RawMessage) error {
	config, err := ParseMoodleConfig(settings)
	if err != nil {
		return err
	}
	return a.SetCustomerConfig(customerID, config)
}

func (a *MoodleAdapter) getCustomerConfig(customerID uuid.UUID) (*MoodleConfig, error) {
	a.mu.RLock()
	config, ok := a.customerConfigs[customerID]
	a.mu.RUnlock()
	if ok {
		return config, nil
	}
	if a.config != nil {
		return a.config, nil
	}
	return nil, channel.ErrChannelNotConfigured
}

// ChannelCode returns the channel code this adapter handles
func (a *MoodleAdapter) ChannelCode() channel.Code {
	return channel.CodeMoodle
}

// IsActive returns true if Moodle is configured for the customer
func (a *MoodleAdapter) IsActive(_ context.Context, customerID uuid.UUID) (bool, error) {
	_, err := a.getCustomerConfig(customerID)
	return err == nil, nil
}

// ---------------------------------------------------------------------------
// Token Handling
// ---------------------------------------------------------------------------

// getToken returns the webservice token for the customer, obtaining one with
// the configured credentials when none is cached.
func (a *MoodleAdapter) getToken(ctx context.Context, customerID uuid.UUID, config *MoodleConfig) (string, error) {
	a.mu.RLock()
	token := a.tokens[customerID]
	a.mu.RUnlock()
	if token != "" {
		return token, nil
	}
	if config.Token != "" {
		a.mu.Lock()
		a.tokens[customerID] = config.Token
		a.mu.Unlock()
		return config.Token, nil
	}
	return a.refreshToken(ctx, customerID, config)
}

// refreshToken obtains a new webservice token from the Moodle login endpoint
func (a *MoodleAdapter) refreshToken(ctx context.Context, customerID uuid.UUID, config *MoodleConfig) (string, error) {
	form := url.Values{
		"username": []string{config.Username},
		"password": []string{config.Password},
	}
	tokenURL := config.BaseURL + moodleTokenPath + "?service=" + url.QueryEscape(config.ServiceShortName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("channels: failed to create moodle token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	body, err := drainResponse(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelAuthFailed, err)
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(body.Body), &tokenResp); err != nil || tokenResp.Token == "" {
		return "", fmt.Errorf("%w: moodle token response missing token: %s",
			channel.ErrChannelAuthFailed, truncateBody(body.Body))
	}

	a.mu.Lock()
	a.tokens[customerID] = tokenResp.Token
	a.mu.Unlock()
	return tokenResp.Token, nil
}

// ---------------------------------------------------------------------------
// Webservice Calls
// ---------------------------------------------------------------------------

// call posts a webservice function and inspects the body for Moodle's in-band
// errors. An invalidtoken error triggers one token refresh and retry.
func (a *MoodleAdapter) call(ctx context.Context, customerID uuid.UUID, wsfunction string, params map[string]string) (*channel.Response, error) {
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}
	token, err := a.getToken(ctx, customerID, config)
	if err != nil {
		return nil, err
	}

	resp, errorCode, err := a.post(ctx, config, token, wsfunction, params)
	if errorCode == "invalidtoken" {
		token, err = a.refreshToken(ctx, customerID, config)
		if err != nil {
			return nil, err
		}
		resp, _, err = a.post(ctx, config, token, wsfunction, params)
	}
	return resp, err
}

func (a *MoodleAdapter) post(ctx context.Context, config *MoodleConfig, token, wsfunction string, params map[string]string) (*channel.Response, string, error) {
	form := url.Values{
		"wstoken":            []string{token},
		"wsfunction":         []string{wsfunction},
		"moodlewsrestformat": []string{"json"},
	}
	for key, value := range params {
		form.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.BaseURL+moodleAPIPath+"?"+form.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("channels: failed to create moodle request: %w", err)
	}

	httpResp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	resp, err := drainResponse(httpResp)
	if err != nil {
		return nil, "", err
	}
	return a.inspect(resp, wsfunction)
}

// inspect decodes Moodle's in-band error reporting. Moodle returns an HTML
// page for malformed URLs, a bare int for grade updates, a list on course
// creation and an object with errorcode/warnings otherwise.
func (a *MoodleAdapter) inspect(resp *channel.Response, wsfunction string) (*channel.Response, string, error) {
	trimmed := strings.TrimSpace(resp.Body)
	if trimmed == "" || trimmed == "null" {
		return resp, "", nil
	}

	var body any
	if err := json.Unmarshal([]byte(trimmed), &body); err != nil {
		return nil, "", channel.NewClientError(resp.StatusCode,
			fmt.Sprintf("moodle task %q failed due to unparseable response", wsfunction))
	}

	switch value := body.(type) {
	case []any:
		// Course creation success returns a list
		return resp, "", nil
	case float64:
		// Grade updates return a bare int, zero meaning success
		if value == 0 {
			return resp, "", nil
		}
		return nil, "", channel.NewClientError(http.StatusInternalServerError,
			fmt.Sprintf("moodle grade update failed with code %d", int(value)))
	case string:
		return nil, "", channel.NewClientError(http.StatusInternalServerError,
			fmt.Sprintf("moodle grade update failed with possible error: %s", truncateBody(value)))
	case map[string]any:
		if errorCode, _ := value["errorcode"].(string); errorCode != "" {
			if errorCode == "invalidtoken" {
				return nil, errorCode, channel.NewClientError(resp.StatusCode, "moodle token rejected")
			}
			message, _ := value["message"].(string)
			return nil, errorCode, channel.NewClientError(resp.StatusCode,
				fmt.Sprintf("moodle task %q failed with error code %q and message %q", wsfunction, errorCode, message))
		}
		if warnings, ok := value["warnings"].([]any); ok && len(warnings) > 0 {
			var messages []string
			for _, warning := range warnings {
				if fields, ok := warning.(map[string]any); ok {
					if message, _ := fields["message"].(string); message != "" {
						messages = append(messages, message)
					}
				}
			}
			return nil, "", channel.NewClientError(resp.StatusCode,
				fmt.Sprintf("moodle task %q failed with warnings: %s", wsfunction, strings.Join(messages, "; ")))
		}
		return resp, "", nil
	default:
		return resp, "", nil
	}
}

func truncateBody(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}

// ---------------------------------------------------------------------------
// Course and User Lookup
// ---------------------------------------------------------------------------

// getCourseID resolves a platform course key to the Moodle course id.
// Courses are looked up by the idnumber field, which holds the course key.
func (a *MoodleAdapter) getCourseID(ctx context.Context, customerID uuid.UUID, courseKey string) (int, error) {
	resp, err := a.call(ctx, customerID, moodleFuncCoursesByField, map[string]string{
		"field": "idnumber",
		"value": courseKey,
	})
	if err != nil {
		return 0, err
	}

	var parsed struct {
		Courses []struct {
			ID int `json:"id"`
		} `json:"courses"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err != nil {
		return 0, fmt.Errorf("%w: %v", channel.ErrChannelInvalidResponse, err)
	}
	if len(parsed.Courses) == 0 {
		return 0, channel.NewClientError(http.StatusNotFound,
			fmt.Sprintf("course key %q not found in moodle", courseKey))
	}
	return parsed.Courses[0].ID, nil
}

// getFinalGradeModule finds the shell assignment designated to carry the
// final grade. Returns its module id and module name.
func (a *MoodleAdapter) getFinalGradeModule(ctx context.Context, customerID uuid.UUID, courseID int) (int, string, error) {
	resp, err := a.call(ctx, customerID, moodleFuncCourseContents, map[string]string{
		"courseid": strconv.Itoa(courseID),
	})
	if err != nil {
		return 0, "", err
	}

	var sections []struct {
		Name    string `json:"name"`
		Modules []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			ModName string `json:"modname"`
		} `json:"modules"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &sections); err != nil {
		return 0, "", fmt.Errorf("%w: %v", channel.ErrChannelInvalidResponse, err)
	}
	for _, section := range sections {
		if section.Name != "General" {
			continue
		}
		for _, module := range section.Modules {
			if module.Name == moodleFinalGradeModuleName {
				return module.ID, module.ModName, nil
			}
		}
	}
	return 0, "", channel.NewClientError(http.StatusNotFound,
		fmt.Sprintf("completion course module not found in moodle; the customer needs an activity named %q",
			moodleFinalGradeModuleName))
}

// getUserIDInCourse finds the Moodle user id of the learner enrolled in the
// course, matched by email.
func (a *MoodleAdapter) getUserIDInCourse(ctx context.Context, customerID uuid.UUID, courseID int, userEmail string) (int, error) {
	resp, err := a.call(ctx, customerID, moodleFuncEnrolledUsers, map[string]string{
		"courseid": strconv.Itoa(courseID),
	})
	if err != nil {
		return 0, err
	}

	var enrollments []struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &enrollments); err != nil {
		return 0, fmt.Errorf("%w: %v", channel.ErrChannelInvalidResponse, err)
	}
	for _, enrollment := range enrollments {
		if enrollment.Email == userEmail {
			return enrollment.ID, nil
		}
	}
	return 0, channel.NewClientError(http.StatusNotFound,
		fmt.Sprintf("user enrollment not found under user=%s in course=%d", userEmail, courseID))
}

// ---------------------------------------------------------------------------
// Channel Operations
// ---------------------------------------------------------------------------

// moodleCompletionPayload is the completion document the learner exporter
// serializes for Moodle.
type moodleCompletionPayload struct {
	CourseID string          `json:"courseID"`
	Grade    decimal.Decimal `json:"grade"`
}

// CreateCourseCompletion posts the learner's final grade into the designated
// shell assignment. RemoteUserID is the learner's email; grades arrive as a
// decimal in [0,1] and Moodle takes them on a 0-100 scale.
func (a *MoodleAdapter) CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, remoteUserID string, payload []byte) (*channel.Response, error) {
	var completion moodleCompletionPayload
	if err := json.Unmarshal(payload, &completion); err != nil {
		return nil, fmt.Errorf("channels: invalid moodle completion payload: %w", err)
	}

	courseID, err := a.getCourseID(ctx, customerID, completion.CourseID)
	if err != nil {
		return nil, err
	}
	moduleID, moduleName, err := a.getFinalGradeModule(ctx, customerID, courseID)
	if err != nil {
		return nil, err
	}
	userID, err := a.getUserIDInCourse(ctx, customerID, courseID, remoteUserID)
	if err != nil {
		return nil, err
	}

	return a.call(ctx, customerID, moodleFuncUpdateGrades, map[string]string{
		"source":               "mod_" + moduleName,
		"courseid":             strconv.Itoa(courseID),
		"component":            "mod_assign",
		"activityid":           strconv.Itoa(moduleID),
		"itemnumber":           "0",
		"grades[0][studentid]": strconv.Itoa(userID),
		"grades[0][grade]":     completion.Grade.Mul(decimal.NewFromInt(100)).String(),
	})
}

// CreateAssessmentReporting is not supported by the Moodle integration
func (a *MoodleAdapter) CreateAssessmentReporting(_ context.Context, _ uuid.UUID, _ string, _ []byte) (*channel.Response, error) {
	return nil, fmt.Errorf("%w: moodle does not accept assessment-level reporting", channel.ErrChannelRequestFailed)
}

// CreateContentMetadata creates the serialized courses in Moodle. The payload
// is a flattened parameter document (courses[0][shortname], ...) produced by
// the Moodle content exporter.
func (a *MoodleAdapter) CreateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	params, err := decodeMoodleParams(serialized)
	if err != nil {
		return nil, err
	}
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}
	// new course shells land in the configured category unless the exporter
	// already placed them
	for i := 0; ; i++ {
		if _, ok := params[fmt.Sprintf("courses[%d][shortname]", i)]; !ok {
			break
		}
		key := fmt.Sprintf("courses[%d][categoryid]", i)
		if _, ok := params[key]; !ok {
			params[key] = strconv.Itoa(config.CategoryID)
		}
	}
	return a.call(ctx, customerID, moodleFuncCreateCourses, params)
}

// UpdateContentMetadata updates the first serialized course, resolving its
// Moodle id by shortname first.
func (a *MoodleAdapter) UpdateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	params, err := decodeMoodleParams(serialized)
	if err != nil {
		return nil, err
	}
	courseID, err := a.getCourseID(ctx, customerID, params["courses[0][shortname]"])
	if err != nil {
		return nil, err
	}
	params["courses[0][id]"] = strconv.Itoa(courseID)
	return a.call(ctx, customerID, moodleFuncUpdateCourses, params)
}

// DeleteContentMetadata deletes the first serialized course from Moodle.
// A course Moodle no longer knows about is treated as already deleted.
func (a *MoodleAdapter) DeleteContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	params, err := decodeMoodleParams(serialized)
	if err != nil {
		return nil, err
	}
	courseID, err := a.getCourseID(ctx, customerID, params["courses[0][shortname]"])
	if err != nil {
		var clientErr *channel.ClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
			return &channel.Response{StatusCode: http.StatusOK, Body: `{"result": "Course not found."}`}, nil
		}
		return nil, err
	}
	return a.call(ctx, customerID, moodleFuncDeleteCourses, map[string]string{
		"courseids[0]": strconv.Itoa(courseID),
	})
}

func decodeMoodleParams(serialized []byte) (map[string]string, error) {
	var params map[string]string
	if err := json.Unmarshal(serialized, &params); err != nil {
		return nil, fmt.Errorf("channels: invalid moodle content payload: %w", err)
	}
	return params, nil
}

var _ channel.Client = (*MoodleAdapter)(nil)
