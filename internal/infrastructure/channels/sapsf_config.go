package channels

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SAP SuccessFactors API paths
const (
	sapsfTokenPath      = "/learning/oauth-api/rest/v1.0/token"
	sapsfCompletionPath = "/learning/odatav4/public/admin/ocn/v1/current-user/item/learning-event"
	sapsfContentPath    = "/learning/odatav4/public/admin/ocn/v1/OcnCourses"
	sapsfUsersPath      = "/learning/public-api/rest/v1/admin/user-service/v2/users"
)

// Default user type used when requesting OAuth scopes
const sapsfDefaultUserType = "admin"

var (
	ErrSAPSFConfigMissingBaseURL   = errors.New("channels: sapsf config missing base URL")
	ErrSAPSFConfigMissingClientID  = errors.New("channels: sapsf config missing client ID")
	ErrSAPSFConfigMissingSecret    = errors.New("channels: sapsf config missing client secret")
	ErrSAPSFConfigMissingCompanyID = errors.New("channels: sapsf config missing company ID")
	ErrSAPSFConfigMissingUserID    = errors.New("channels: sapsf config missing user ID")
)

// SAPSFConfig holds the credentials for one customer's SuccessFactors instance
type SAPSFConfig struct {
	// BaseURL is the customer's SuccessFactors instance root URL
	BaseURL string `json:"sapsf_base_url"`
	// ClientID authenticates the OAuth client-credentials grant
	ClientID string `json:"key"`
	// ClientSecret authenticates the OAuth client-credentials grant
	ClientSecret string `json:"secret"`
	// CompanyID is the SuccessFactors company identifier
	CompanyID string `json:"sapsf_company_id"`
	// UserID is the SuccessFactors API user the token is scoped to
	UserID string `json:"sapsf_user_id"`
	// UserType is "admin" or "user"; selects the OAuth scope
	UserType string `json:"user_type"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks required fields and applies defaults
func (c *SAPSFConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrSAPSFConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrSAPSFConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrSAPSFConfigMissingSecret
	}
	if c.CompanyID == "" {
		return ErrSAPSFConfigMissingCompanyID
	}
	if c.UserID == "" {
		return ErrSAPSFConfigMissingUserID
	}
	if c.UserType == "" {
		c.UserType = sapsfDefaultUserType
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// ParseSAPSFConfig decodes a channel configuration settings document
func ParseSAPSFConfig(settings json.RawMessage) (*SAPSFConfig, error) {
	var config SAPSFConfig
	if err := json.Unmarshal(settings, &config); err != nil {
		return nil, fmt.Errorf("channels: invalid sapsf settings: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
