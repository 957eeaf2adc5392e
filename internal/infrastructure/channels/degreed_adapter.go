package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/channel"
)

// degreedToken is a cached OAuth token scoped to either completion or content
type degreedToken struct {
	accessToken string
	expiresAt   time.Time
}

func (t *degreedToken) valid(now time.Time) bool {
	return t != nil && t.accessToken != "" && now.Before(t.expiresAt)
}

type degreedTokenKey struct {
	customerID uuid.UUID
	scope      string
}

// DegreedAdapter implements channel.Client for Degreed
type DegreedAdapter struct {
	config     *DegreedConfig
	httpClient *http.Client
	now        func() time.Time

	customerConfigs map[uuid.UUID]*DegreedConfig
	tokens          map[degreedTokenKey]*degreedToken
	mu              sync.RWMutex
}

// NewDegreedAdapter creates a Degreed adapter with the given default
// configuration. A nil default is allowed when every customer carries its own.
func NewDegreedAdapter(config *DegreedConfig) (*DegreedAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &DegreedAdapter{
		config:          config,
		httpClient:      &http.Client{Timeout: timeout},
		now:             time.Now,
		customerConfigs: make(map[uuid.UUID]*DegreedConfig),
		tokens:          make(map[degreedTokenKey]*degreedToken),
	}, nil
}

// SetCustomerConfig sets the configuration for a specific enterprise customer
func (a *DegreedAdapter) SetCustomerConfig(customerID uuid.UUID, config *DegreedConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customerConfigs[customerID] = config
	delete(a.tokens, degreedTokenKey{customerID, degreedScopeCompletion})
	delete(a.tokens, degreedTokenKey{customerID, degreedScopeContent})
	return nil
}

// Configure parses raw configuration settings and installs them for the customer
func (a *DegreedAdapter) Configure(customerID uuid.UUID, settings json.RawMessage) error {
	config, err := ParseDegreedConfig(settings)
	if err != nil {
		return err
	}
	return a.SetCustomerConfig(customerID, config)
}

func (a *DegreedAdapter) getCustomerConfig(customerID uuid.UUID) (*DegreedConfig, error) {
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
func (a *DegreedAdapter) ChannelCode() channel.Code {
	return channel.CodeDegreed
}

// IsActive returns true if Degreed is configured for the customer
func (a *DegreedAdapter) IsActive(_ context.Context, customerID uuid.UUID) (bool, error) {
	_, err := a.getCustomerConfig(customerID)
	return err == nil, nil
}

// ---------------------------------------------------------------------------
// OAuth Token Handling
// ---------------------------------------------------------------------------

type degreedTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// getAccessToken returns a valid token for the scope, requesting a fresh one
// when the cached token expired. Degreed issues tokens per scope.
func (a *DegreedAdapter) getAccessToken(ctx context.Context, customerID uuid.UUID, config *DegreedConfig, scope string) (string, error) {
	key := degreedTokenKey{customerID, scope}
	a.mu.RLock()
	token := a.tokens[key]
	a.mu.RUnlock()
	if token.valid(a.now()) {
		return token.accessToken, nil
	}

	form := url.Values{
		"grant_type": []string{"password"},
		"username":   []string{config.UserID},
		"password":   []string{config.UserPassword},
		"scope":      []string{scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.BaseURL+degreedTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("channels: failed to create degreed token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(config.ClientID, config.ClientSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	body, err := drainResponse(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrChannelAuthFailed, err)
	}

	var tokenResp degreedTokenResponse
	if err := json.Unmarshal([]byte(body.Body), &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: degreed token response missing access_token", channel.ErrChannelAuthFailed)
	}

	a.mu.Lock()
	a.tokens[key] = &degreedToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   a.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}
	a.mu.Unlock()
	return tokenResp.AccessToken, nil
}

// ---------------------------------------------------------------------------
// Channel Operations
// ---------------------------------------------------------------------------

// CreateCourseCompletion posts a course completion to Degreed
func (a *DegreedAdapter) CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, _ string, payload []byte) (*channel.Response, error) {
	return a.send(ctx, customerID, http.MethodPost, degreedCompletionPath, degreedScopeCompletion, payload)
}

// CreateAssessmentReporting is not offered by Degreed's provider API
func (a *DegreedAdapter) CreateAssessmentReporting(_ context.Context, _ uuid.UUID, _ string, _ []byte) (*channel.Response, error) {
	return nil, fmt.Errorf("%w: degreed does not accept assessment-level reporting", channel.ErrChannelRequestFailed)
}

// DeleteCourseCompletion removes a previously reported completion
func (a *DegreedAdapter) DeleteCourseCompletion(ctx context.Context, customerID uuid.UUID, payload []byte) (*channel.Response, error) {
	return a.send(ctx, customerID, http.MethodDelete, degreedCompletionPath, degreedScopeCompletion, payload)
}

// CreateContentMetadata adds course content to the Degreed catalog
func (a *DegreedAdapter) CreateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.send(ctx, customerID, http.MethodPost, degreedContentPath, degreedScopeContent, serialized)
}

// UpdateContentMetadata updates course content in the Degreed catalog
func (a *DegreedAdapter) UpdateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.send(ctx, customerID, http.MethodPost, degreedContentPath, degreedScopeContent, serialized)
}

// DeleteContentMetadata removes course content from the Degreed catalog
func (a *DegreedAdapter) DeleteContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	return a.send(ctx, customerID, http.MethodDelete, degreedContentPath, degreedScopeContent, serialized)
}

func (a *DegreedAdapter) send(ctx context.Context, customerID uuid.UUID, method, path, scope string, payload []byte) (*channel.Response, error) {
	config, err := a.getCustomerConfig(customerID)
	if err != nil {
		return nil, err
	}
	token, err := a.getAccessToken(ctx, customerID, config, scope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("channels: failed to create degreed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Degreed-Company-Id", config.CompanyID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	return drainResponse(resp)
}

var _ channel.Client = (*DegreedAdapter)(nil)
