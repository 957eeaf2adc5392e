package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/channel"
)

// CornerstoneAdapter implements channel.Client for Cornerstone OnDemand.
// Cornerstone works callback-style: the portal launches a learner with a
// session token, and completions are posted back against that token. Course
// catalog data is pulled by Cornerstone itself, so the content metadata
// operations are no-ops.
type CornerstoneAdapter struct {
	config     *CornerstoneConfig
	httpClient *http.Client

	customerConfigs map[uuid.UUID]*CornerstoneConfig
	mu              sync.RWMutex
}

// NewCornerstoneAdapter creates a Cornerstone adapter with the given default
// configuration. A nil default is allowed when every customer carries its own.
func NewCornerstoneAdapter(config *CornerstoneConfig) (*CornerstoneAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &CornerstoneAdapter{
		config:          config,
		httpClient:      &http.Client{Timeout: timeout},
		customerConfigs: make(map[uuid.UUID]*CornerstoneConfig),
	}, nil
}

// SetCustomerConfig sets the configuration for a specific enterprise customer
func (a *CornerstoneAdapter) SetCustomerConfig(customerID uuid.UUID, config *CornerstoneConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customerConfigs[customerID] = config
	return nil
}

// Configure parses raw configuration settings and installs them for the customer
func (a *CornerstoneAdapter) Configure(customerID uuid.UUID, settings json.RawMessage) error {
	config, err := ParseCornerstoneConfig(settings)
	if err != nil {
		return err
	}
	return a.SetCustomerConfig(customerID, config)
}

func (a *CornerstoneAdapter) getCustomerConfig(customerID uuid.UUID) (*CornerstoneConfig, error) {
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
func (a *CornerstoneAdapter) ChannelCode() channel.Code {
	return channel.CodeCornerstone
}

// IsActive returns true if Cornerstone is configured for the customer
func (a *CornerstoneAdapter) IsActive(_ context.Context, customerID uuid.UUID) (bool, error) {
	_, err := a.getCustomerConfig(customerID)
	return err == nil, nil
}

// cornerstoneCompletionPayload is the completion document the learner
// exporter serializes for Cornerstone. The session token was captured when
// the portal launched the learner.
type cornerstoneCompletionPayload struct {
	UserGUID     string          `json:"userGuid"`
	SessionToken string          `json:"sessionToken"`
	CourseID     string          `json:"courseId"`
	Status       string          `json:"status"`
	CompletedAt  string          `json:"completedTimestamp"`
	Successful   bool            `json:"successStatus"`
	Grade        json.RawMessage `json:"grade,omitempty"`
}

// CreateCourseCompletion posts a completion status back to the customer's
// portal, authenticated by the session token inside the payload.
func (a *CornerstoneAdapter) CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, _ string, payload []byte) (*channel.Response, error) {
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}

	var completion cornerstoneCompletionPayload
	if err := json.Unmarshal(payload, &completion); err != nil {
		return nil, fmt.Errorf("channels: invalid cornerstone completion payload: %w", err)
	}
	if completion.SessionToken == "" {
		completion.SessionToken = config.SessionToken
	}
	if completion.SessionToken == "" {
		return nil, fmt.Errorf("%w: cornerstone completion payload missing session token", channel.ErrChannelRequestFailed)
	}

	body, err := json.Marshal(completion)
	if err != nil {
		return nil, fmt.Errorf("channels: failed to encode cornerstone completion payload: %w", err)
	}

	callbackURL := config.BaseURL + cornerstoneCompletionPath +
		"?sessionToken=" + url.QueryEscape(completion.SessionToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("channels: failed to create cornerstone request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	return drainResponse(resp)
}

// CreateAssessmentReporting is not supported by the Cornerstone integration
func (a *CornerstoneAdapter) CreateAssessmentReporting(_ context.Context, _ uuid.UUID, _ string, _ []byte) (*channel.Response, error) {
	return nil, fmt.Errorf("%w: cornerstone does not accept assessment-level reporting", channel.ErrChannelRequestFailed)
}

// CreateContentMetadata is a no-op; Cornerstone pulls the course catalog
func (a *CornerstoneAdapter) CreateContentMetadata(_ context.Context, customerID uuid.UUID, _ []byte) (*channel.Response, error) {
	return a.contentNoop(customerID)
}

// UpdateContentMetadata is a no-op; Cornerstone pulls the course catalog
func (a *CornerstoneAdapter) UpdateContentMetadata(_ context.Context, customerID uuid.UUID, _ []byte) (*channel.Response, error) {
	return a.contentNoop(customerID)
}

// DeleteContentMetadata is a no-op; Cornerstone pulls the course catalog
func (a *CornerstoneAdapter) DeleteContentMetadata(_ context.Context, customerID uuid.UUID, _ []byte) (*channel.Response, error) {
	return a.contentNoop(customerID)
}

func (a *CornerstoneAdapter) contentNoop(customerID uuid.UUID) (*channel.Response, error) {
	if _, err := a.getCustomerConfig(customerID); err != nil {
		return nil, err
	}
	return &channel.Response{StatusCode: http.StatusOK, Body: ""}, nil
}

var _ channel.Client = (*CornerstoneAdapter)(nil)
