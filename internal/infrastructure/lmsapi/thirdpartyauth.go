package lmsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// providerUser is one row of the third-party auth user mapping endpoint
type providerUser struct {
	Username string `json:"username"`
	RemoteID string `json:"remote_id"`
}

// ThirdPartyAuthClient calls the platform Third Party Auth API to map
// platform usernames to SSO remote identifiers and back.
type ThirdPartyAuthClient struct {
	api *httpAPI
}

// NewThirdPartyAuthClient creates a third-party auth API client
func NewThirdPartyAuthClient(cfg *Config, tokens *TokenSource) *ThirdPartyAuthClient {
	return &ThirdPartyAuthClient{api: newHTTPAPI(cfg.LMSBaseURL, cfg, tokens)}
}

// GetRemoteID returns the SSO remote identifier for the username under the
// identity provider, or "" if no mapping exists.
func (c *ThirdPartyAuthClient) GetRemoteID(ctx context.Context, identityProvider, username string) (string, error) {
	return c.lookup(ctx, identityProvider, "username", username)
}

// GetUsernameFromRemoteID returns the platform username for the SSO remote
// identifier under the identity provider, or "" if no mapping exists.
func (c *ThirdPartyAuthClient) GetUsernameFromRemoteID(ctx context.Context, identityProvider, remoteID string) (string, error) {
	return c.lookup(ctx, identityProvider, "remote_id", remoteID)
}

func (c *ThirdPartyAuthClient) lookup(ctx context.Context, identityProvider, paramName, paramValue string) (string, error) {
	path := fmt.Sprintf("/api/third_party_auth/v0/providers/%s/users", url.PathEscape(identityProvider))
	query := url.Values{paramName: []string{paramValue}}

	var page struct {
		Results []providerUser `json:"results"`
	}
	err := c.api.get(ctx, path, query, &page)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	for _, row := range page.Results {
		switch paramName {
		case "username":
			if row.Username == paramValue {
				return row.RemoteID, nil
			}
		case "remote_id":
			if row.RemoteID == paramValue {
				return row.Username, nil
			}
		}
	}
	return "", nil
}
