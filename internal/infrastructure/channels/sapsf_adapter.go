package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/channel"
)

// sapsfToken is a cached OAuth access token with its expiry horizon
type sapsfToken struct {
	accessToken string
	expiresAt   time.Time
}

func (t *sapsfToken) valid(now time.Time) bool {
	return t != nil && t.accessToken != "" && now.Before(t.expiresAt)
}

// SAPSFAdapter implements channel.Client for SAP SuccessFactors.
// Completion and content metadata land in the customer's Learning instance
// through the OCN (Open Content Network) APIs.
type SAPSFAdapter struct {
	config     *SAPSFConfig
	httpClient *http.Client
	now        func() time.Time

	// customerConfigs stores per-customer configurations loaded from the
	// channel configuration store
	customerConfigs map[uuid.UUID]*SAPSFConfig
	tokens          map[uuid.UUID]*sapsfToken
	mu              sync.RWMutex
}

// NewSAPSFAdapter creates a SuccessFactors adapter with the given default
// configuration. A nil default is allowed when every customer carries its own.
func NewSAPSFAdapter(config *SAPSFConfig) (*SAPSFAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &SAPSFAdapter{
		config:          config,
		httpClient:      &http.Client{Timeout: timeout},
		now:             time.Now,
		customerConfigs: make(map[uuid.UUID]*SAPSFConfig),
		tokens:          make(map[uuid.UUID]*sapsfToken),
	}, nil
}

// SetCustomerConfig sets the configuration for a specific enterprise customer
func (a *SAPSFAdapter) SetCustomerConfig(customerID uuid.UUID, config *SAPSFConfig) error {
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
func (a *SAPSFAdapter) Configure(customerID uuid.UUID, settings json.RawMessage) error {
	config, err := ParseSAPSFConfig(settings)
	if err != nil {
		return err
	}
	return a.SetCustomerConfig(customerID, config)
}

func (a *SAPSFAdapter) getCustomerConfig(customerID uuid.UUID) (*SAPSFConfig, error) {
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
func (a *SAPSFAdapter) ChannelCode() channel.Code {
	return channel.CodeSAPSuccessFactors
}

// IsActive returns true if SuccessFactors is configured for the customer
func (a *SAPSFAdapter) IsActive(_ context.Context, customerID uuid.UUID) (bool, error) {
	_, err := a.getCustomerConfig(customerID)
	return err == nil, nil
}

// ---------------------------------------------------------------------------
// OAuth Token Handling
// ---------------------------------------------------------------------------

type sapsfTokenRequest struct {
	GrantType string          `json:"grant_type"`
	Scope     sapsfTokenScope `json:"scope"`
}

type sapsfTokenScope struct {
	UserID       string `json:"userId"`
	CompanyID    string `json:"companyId"`
	UserType     string `json:"userType"`
	ResourceType string `json:"resourceType"`
}

type sapsfTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// getAccessToken returns a valid OAuth token for the customer, requesting a
// fresh one when the cached token expired.
func (a *SAPSFAdapter) getAccessToken(ctx context.Context, customerID uuid.UUID, config *SAPSFConfig) (string, error) {
	a.mu.RLock()
	token := a.tokens[customerID]
	a.mu.RUnlock()
	if token.valid(a.now()) {
		return token.accessToken, nil
	}

	reqBody, err := json.Marshal(sapsfTokenRequest{
		GrantType: "client_credentials",
		Scope: sapsfTokenScope{
			UserID:       config.UserID,
			CompanyID:    config.CompanyID,
			UserType:     config.UserType,
			ResourceType: "learning_public_api",
		},
	})
	if err != nil {
		return "", fmt.Errorf("channels: failed to marshal sapsf token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.BaseURL+sapsfTokenPath, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("channels: failed to create sapsf token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(config.ClientID, config.ClientSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	body, err := drainResponse(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelAuthFailed, err)
	}

	var tokenResp sapsfTokenResponse
	if err := json.Unmarshal([]byte(body.Body), &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: sapsf token response missing access_token", channel.ErrChannelAuthFailed)
	}

	a.mu.Lock()
	a.tokens[customerID] = &sapsfToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   a.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}
	a.mu.Unlock()
	return tokenResp.AccessToken, nil
}

// ---------------------------------------------------------------------------
// Channel Operations
// ---------------------------------------------------------------------------

// CreateCourseCompletion posts a learner completion status to SuccessFactors.
// RemoteUserID is the learner's SuccessFactors student ID; the payload is a
// serialized OCN learning-event document.
func (a *SAPSFAdapter) CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, _ string, payload []byte) (*channel.Response, error) {
	return a.post(ctx, customerID, sapsfCompletionPath, payload)
}

// CreateAssessmentReporting is not offered by the SuccessFactors OCN API,
// so assessment-level grades ride the same learning-event endpoint.
func (a *SAPSFAdapter) CreateAssessmentReporting(ctx context.Context, customerID uuid.UUID, _ string, payload []byte) (*channel.Response, error) {
	return a.post(ctx, customerID, sapsfCompletionPath, payload)
}

// CreateContentMetadata imports new OCN course documents
func (a *SAPSFAdapter) CreateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.post(ctx, customerID, sapsfContentPath, serialized)
}

// UpdateContentMetadata re-imports changed OCN course documents
func (a *SAPSFAdapter) UpdateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.post(ctx, customerID, sapsfContentPath, serialized)
}

// DeleteContentMetadata imports OCN course documents flagged inactive.
// SuccessFactors has no true delete; the serialized payload carries
// status INACTIVE per course.
func (a *SAPSFAdapter) DeleteContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.post(ctx, customerID, sapsfContentPath, serialized)
}

func (a *SAPSFAdapter) post(ctx context.Context, customerID uuid.UUID, path string, payload []byte) (*channel.Response, error) {
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}
	token, err := a.getAccessToken(ctx, customerID, config)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("channels: failed to create sapsf request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	return drainResponse(resp)
}

// ---------------------------------------------------------------------------
// Inactive Learners
// ---------------------------------------------------------------------------

// SAPSFLearner is one user row from the SuccessFactors user service
type SAPSFLearner struct {
	StudentID string `json:"studentID"`
}

type sapsfUsersResponse struct {
	Value []SAPSFLearner `json:"value"`
}

// sapsfUsersPageSize is the page size used when listing inactive users
const sapsfUsersPageSize = 500

// GetInactiveLearners lists SuccessFactors users flagged inactive, paging
// through the user service. Used to unlink learners who left the company.
func (a *SAPSFAdapter) GetInactiveLearners(ctx context.Context, customerID uuid.UUID) ([]SAPSFLearner, error) {
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}
	token, err := a.getAccessToken(ctx, customerID, config)
	if err != nil {
		return nil, err
	}

	var learners []SAPSFLearner
	for skip := 0; ; skip += sapsfUsersPageSize {
		query := url.Values{
			"$filter": []string{"criteria/isActive eq False"},
			"$select": []string{"studentID"},
			"$top":    []string{strconv.Itoa(sapsfUsersPageSize)},
			"$skip":   []string{strconv.Itoa(skip)},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			config.BaseURL+sapsfUsersPath+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("channels: failed to create sapsf users request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
		}
		body, err := drainResponse(resp)
		if err != nil {
			return nil, err
		}

		var page sapsfUsersResponse
		if err := json.Unmarshal([]byte(body.Body), &page); err != nil {
			return nil, fmt.Errorf("%w: %v", channel.ErrChannelInvalidResponse, err)
		}
		learners = append(learners, page.Value...)
		if len(page.Value) < sapsfUsersPageSize {
			break
		}
	}
	return learners, nil
}

var _ channel.Client = (*SAPSFAdapter)(nil)
