// Package lmsapi contains thin clients for the host learning platform's
// internal REST APIs: enrollment, grades, certificates, courses, third-party
// auth and the enterprise catalog service. Authenticated clients sign requests
// with a JWT for the enterprise worker user, rebuilt when it expires.
package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// maxResponseSize limits response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	defaultTimeout = 30 * time.Second
)

var (
	// ErrNotFound indicates the LMS returned a 404 for the resource
	ErrNotFound = errors.New("lmsapi: resource not found")
	// ErrUnavailable indicates the LMS could not be reached
	ErrUnavailable = errors.New("lmsapi: service unavailable")
	// ErrRequestFailed indicates the LMS rejected the request
	ErrRequestFailed = errors.New("lmsapi: request failed")
	// ErrInvalidResponse indicates the LMS returned an unparseable body
	ErrInvalidResponse = errors.New("lmsapi: invalid response")
)

// Config holds settings shared by all LMS API clients
type Config struct {
	// LMSBaseURL is the internal root URL of the host platform
	LMSBaseURL string
	// CatalogBaseURL is the internal root URL of the enterprise catalog service
	CatalogBaseURL string
	// WorkerUsername is the service user transmissions run as
	WorkerUsername string
	// JWTSecret signs tokens the platform's internal APIs accept
	JWTSecret string
	// JWTIssuer is the token issuer the platform expects
	JWTIssuer string
	// TokenLifetime is how long issued tokens stay valid
	TokenLifetime time.Duration
	// Timeout bounds each HTTP request
	Timeout time.Duration
}

// Validate checks required configuration
func (c *Config) Validate() error {
	if c.LMSBaseURL == "" {
		return errors.New("lmsapi: LMS base URL is required")
	}
	if c.WorkerUsername == "" {
		return errors.New("lmsapi: worker username is required")
	}
	if c.JWTSecret == "" {
		return errors.New("lmsapi: JWT secret is required")
	}
	return nil
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// httpAPI wraps an HTTP endpoint with optional JWT authentication
type httpAPI struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	tokens     *TokenSource // nil for unauthenticated clients
}

func newHTTPAPI(baseURL string, cfg *Config, tokens *TokenSource) *httpAPI {
	trimmed := strings.TrimRight(baseURL, "/")
	basePath := ""
	if parsed, err := url.Parse(trimmed); err == nil {
		basePath = strings.TrimRight(parsed.Path, "/")
	}
	return &httpAPI{
		baseURL:    trimmed,
		basePath:   basePath,
		httpClient: &http.Client{Timeout: cfg.timeout()},
		tokens:     tokens,
	}
}

// get performs a GET request and decodes the JSON response into out.
// A 404 maps to ErrNotFound so callers can branch without parsing messages.
func (a *httpAPI) get(ctx context.Context, path string, query url.Values, out any) error {
	return a.do(ctx, http.MethodGet, path, query, nil, out)
}

// post performs a POST request with a JSON body and decodes the response into out
func (a *httpAPI) post(ctx context.Context, path string, body any, out any) error {
	return a.do(ctx, http.MethodPost, path, nil, body, out)
}

// put performs a PUT request with a JSON body and decodes the response into out
func (a *httpAPI) put(ctx context.Context, path string, body any, out any) error {
	return a.do(ctx, http.MethodPut, path, nil, body, out)
}

// delete performs a DELETE request
func (a *httpAPI) delete(ctx context.Context, path string) error {
	return a.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (a *httpAPI) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := a.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("lmsapi: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("lmsapi: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.tokens != nil {
		token, err := a.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("lmsapi: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, truncate(string(raw), 200))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// paginatedResponse is the standard DRF-style page envelope the platform APIs return
type paginatedResponse struct {
	Next    string            `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// getAllPages follows the "next" links of a paginated endpoint and collects
// every result item.
func (a *httpAPI) getAllPages(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage
	nextPath := path
	nextQuery := query
	for nextPath != "" {
		var page paginatedResponse
		if err := a.get(ctx, nextPath, nextQuery, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Results...)

		if page.Next == "" {
			break
		}
		parsed, err := url.Parse(page.Next)
		if err != nil {
			return nil, fmt.Errorf("%w: bad next link: %v", ErrInvalidResponse, err)
		}
		// Next links are absolute URLs on the same service
		nextPath = strings.TrimPrefix(parsed.Path, a.basePath)
		nextQuery = parsed.Query()
	}
	return items, nil
}
