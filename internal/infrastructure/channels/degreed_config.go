package channels

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Degreed API paths
const (
	degreedTokenPath      = "/oauth/token"
	degreedCompletionPath = "/api/v1/provider/completion/course"
	degreedContentPath    = "/api/v1/provider/content/course"
)

// Degreed OAuth scopes
const (
	degreedScopeCompletion = "provider_completion"
	degreedScopeContent    = "provider_content"
)

var (
	ErrDegreedConfigMissingBaseURL   = errors.New("channels: degreed config missing base URL")
	ErrDegreedConfigMissingClientID  = errors.New("channels: degreed config missing client ID")
	ErrDegreedConfigMissingSecret    = errors.New("channels: degreed config missing client secret")
	ErrDegreedConfigMissingCompanyID = errors.New("channels: degreed config missing company ID")
	ErrDegreedConfigMissingUserID    = errors.New("channels: degreed config missing user ID")
)

// DegreedConfig holds the credentials for one customer's Degreed organization
type DegreedConfig struct {
	// BaseURL is the customer's Degreed API root URL
	BaseURL string `json:"degreed_base_url"`
	// ClientID authenticates the OAuth password grant
	ClientID string `json:"key"`
	// ClientSecret authenticates the OAuth password grant
	ClientSecret string `json:"secret"`
	// CompanyID is sent as the X-Degreed-Company-Id header
	CompanyID string `json:"degreed_company_id"`
	// UserID is the Degreed integration user the token is issued for
	UserID string `json:"degreed_user_id"`
	// UserPassword is the integration user's password
	UserPassword string `json:"degreed_user_password"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks required fields and applies defaults
func (c *DegreedConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrDegreedConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrDegreedConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrDegreedConfigMissingSecret
	}
	if c.CompanyID == "" {
		return ErrDegreedConfigMissingCompanyID
	}
	if c.UserID == "" {
		return ErrDegreedConfigMissingUserID
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// ParseDegreedConfig decodes a channel configuration settings document
func ParseDegreedConfig(settings json.RawMessage) (*DegreedConfig, error) {
	var config DegreedConfig
	if err := json.Unmarshal(settings, &config); err != nil {
		return nil, fmt.Errorf("channels: invalid degreed settings: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
