package lmsapi

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Certificate is the certificates API's record for one learner in one course
type Certificate struct {
	Username        string     `json:"username"`
	CourseID        string     `json:"course_id"`
	CertificateType string     `json:"certificate_type"`
	CreatedDate     *time.Time `json:"created_date"`
	Status          string     `json:"status"`
	IsPassing       bool       `json:"is_passing"`
	DownloadURL     string     `json:"download_url"`
	Grade           string     `json:"grade"`
}

// CertificatesClient calls the LMS Certificates API
type CertificatesClient struct {
	api *httpAPI
}

// NewCertificatesClient creates a certificates API client
func NewCertificatesClient(cfg *Config, tokens *TokenSource) *CertificatesClient {
	return &CertificatesClient{api: newHTTPAPI(cfg.LMSBaseURL, cfg, tokens)}
}

// GetCourseCertificate returns the learner's certificate for the course run.
// Returns ErrNotFound when no certificate was issued.
func (c *CertificatesClient) GetCourseCertificate(ctx context.Context, courseID, username string) (*Certificate, error) {
	path := fmt.Sprintf("/api/certificates/v0/certificates/%s/courses/%s/",
		url.PathEscape(username), url.PathEscape(courseID))

	var cert Certificate
	if err := c.api.get(ctx, path, nil, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}
