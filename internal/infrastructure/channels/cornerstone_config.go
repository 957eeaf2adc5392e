package channels

import (
	"encoding/json"
	"errors"
	"fmt"
)

// cornerstoneCompletionPath is the callback endpoint completion statuses are
// posted back to on the customer's Cornerstone instance.
const cornerstoneCompletionPath = "/services/api/OCAPI/CompletionStatus"

var ErrCornerstoneConfigMissingBaseURL = errors.New("channels: cornerstone config missing base URL")

// CornerstoneConfig holds the settings for one customer's Cornerstone portal.
// Cornerstone pulls course catalog data itself, so only the completion
// callback needs configuration.
type CornerstoneConfig struct {
	// BaseURL is the customer's Cornerstone portal root URL
	BaseURL string `json:"cornerstone_base_url"`
	// SessionToken is a portal-issued API token used when a completion
	// payload does not carry its own launch session token
	SessionToken string `json:"session_token"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks required fields and applies defaults
func (c *CornerstoneConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrCornerstoneConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// ParseCornerstoneConfig decodes a channel configuration settings document
func ParseCornerstoneConfig(settings json.RawMessage) (*CornerstoneConfig, error) {
	var config CornerstoneConfig
	if err := json.Unmarshal(settings, &config); err != nil {
		return nil, fmt.Errorf("channels: invalid cornerstone settings: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
