package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Channel Errors
// ---------------------------------------------------------------------------

var (
	// Channel errors
	ErrChannelNotConfigured   = errors.New("channel: channel not configured")
	ErrChannelNotActive       = errors.New("channel: channel not active")
	ErrChannelUnavailable     = errors.New("channel: channel temporarily unavailable")
	ErrChannelRequestFailed   = errors.New("channel: channel request failed")
	ErrChannelInvalidResponse = errors.New("channel: invalid channel response")
	ErrChannelAuthFailed      = errors.New("channel: channel authentication failed")
	ErrChannelTokenExpired    = errors.New("channel: channel token expired")
	ErrChannelUnknownCode     = errors.New("channel: unknown channel code")

	// Transmission errors
	ErrTransmissionNoRemoteID = errors.New("channel: no remote user ID for learner")
	ErrAuditNotFound          = errors.New("channel: transmission audit not found")

	// Configuration errors
	ErrConfigInvalidCustomerID = errors.New("channel: invalid enterprise customer ID")
	ErrConfigInvalidCode       = errors.New("channel: invalid channel code")
	ErrConfigNotFound          = errors.New("channel: configuration not found")
	ErrConfigAlreadyExists     = errors.New("channel: configuration already exists")
)

// ClientError represents a failed call to an integrated channel API.
// It carries the HTTP status code and response body returned by the channel
// so transmitters can record them on the audit row.
type ClientError struct {
	// StatusCode is the HTTP status returned by the channel API
	StatusCode int
	// Message is the response body or error description
	Message string
}

// Error implements the error interface
func (e *ClientError) Error() string {
	return fmt.Sprintf("channel: client error %d: %s", e.StatusCode, e.Message)
}

// NewClientError creates a ClientError with the given status and message
func NewClientError(statusCode int, message string) *ClientError {
	return &ClientError{StatusCode: statusCode, Message: message}
}

// ---------------------------------------------------------------------------
// Code represents the type of integrated channel
// ---------------------------------------------------------------------------

// Code identifies an integrated channel, unique among implementations
type Code string

const (
	// CodeSAPSuccessFactors represents SAP SuccessFactors
	CodeSAPSuccessFactors Code = "SAP"
	// CodeDegreed represents Degreed
	CodeDegreed Code = "DEGREED"
	// CodeMoodle represents Moodle
	CodeMoodle Code = "MOODLE"
	// CodeCornerstone represents Cornerstone OnDemand
	CodeCornerstone Code = "CSOD"
)

// IsValid returns true if the channel code is valid
func (c Code) IsValid() bool {
	switch c {
	case CodeSAPSuccessFactors, CodeDegreed, CodeMoodle, CodeCornerstone:
		return true
	default:
		return false
	}
}

// String returns the string representation of Code
func (c Code) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the channel
func (c Code) DisplayName() string {
	switch c {
	case CodeSAPSuccessFactors:
		return "SAP SuccessFactors"
	case CodeDegreed:
		return "Degreed"
	case CodeMoodle:
		return "Moodle"
	case CodeCornerstone:
		return "Cornerstone OnDemand"
	default:
		return string(c)
	}
}

// AllCodes returns every known channel code
func AllCodes() []Code {
	return []Code{CodeSAPSuccessFactors, CodeDegreed, CodeMoodle, CodeCornerstone}
}

// ---------------------------------------------------------------------------
// TransmissionStatus represents the synchronization status
// ---------------------------------------------------------------------------

// TransmissionStatus represents the outcome of a transmission run
type TransmissionStatus string

const (
	// TransmissionStatusPending indicates the run has not started
	TransmissionStatusPending TransmissionStatus = "PENDING"
	// TransmissionStatusInProgress indicates the run is in progress
	TransmissionStatusInProgress TransmissionStatus = "IN_PROGRESS"
	// TransmissionStatusSuccess indicates every record was sent
	TransmissionStatusSuccess TransmissionStatus = "SUCCESS"
	// TransmissionStatusPartial indicates some records failed
	TransmissionStatusPartial TransmissionStatus = "PARTIAL"
	// TransmissionStatusFailed indicates no record was sent
	TransmissionStatusFailed TransmissionStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s TransmissionStatus) IsValid() bool {
	switch s {
	case TransmissionStatusPending, TransmissionStatusInProgress,
		TransmissionStatusSuccess, TransmissionStatusPartial, TransmissionStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of TransmissionStatus
func (s TransmissionStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// TransmissionSummary
// ---------------------------------------------------------------------------

// TransmissionSummary aggregates the outcome of a transmission run
type TransmissionSummary struct {
	// Status is the overall run status
	Status TransmissionStatus
	// TotalCount is the number of records considered
	TotalCount int
	// SentCount is the number of records transmitted
	SentCount int
	// SkippedCount is the number of records skipped (unchanged or incomplete)
	SkippedCount int
	// FailedCount is the number of records that errored
	FailedCount int
	// Failures holds per-record failure details
	Failures []TransmissionFailure
}

// TransmissionFailure describes a single failed record
type TransmissionFailure struct {
	// RecordID identifies the failed record (enrollment ID or content ID)
	RecordID string
	// StatusCode is the channel API status code, if any
	StatusCode int
	// ErrorMessage is the error description
	ErrorMessage string
}

// Finalize derives the overall status from the counters
func (s *TransmissionSummary) Finalize() {
	switch {
	case s.FailedCount == 0:
		s.Status = TransmissionStatusSuccess
	case s.SentCount > 0:
		s.Status = TransmissionStatusPartial
	default:
		s.Status = TransmissionStatusFailed
	}
}

// ---------------------------------------------------------------------------
// Client Port Interface
// ---------------------------------------------------------------------------

// Response holds the status and body returned by a channel API call
type Response struct {
	// StatusCode is the HTTP status code of the channel response
	StatusCode int
	// Body is the raw response body
	Body string
}

// Client defines the port interface for integrated channel APIs.
// Concrete implementations (SAP SuccessFactors, Degreed, Moodle, Cornerstone)
// live in the infrastructure layer.
type Client interface {
	// ChannelCode returns the channel code this client handles
	ChannelCode() Code

	// IsActive returns true if the channel is configured and active for the customer
	IsActive(ctx context.Context, customerID uuid.UUID) (bool, error)

	// CreateCourseCompletion sends a learner completion record to the channel
	CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, remoteUserID string, payload []byte) (*Response, error)

	// CreateAssessmentReporting sends an assessment-level grade record to the channel
	CreateAssessmentReporting(ctx context.Context, customerID uuid.UUID, remoteUserID string, payload []byte) (*Response, error)

	// CreateContentMetadata transmits new content metadata items
	CreateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*Response, error)

	// UpdateContentMetadata transmits changed content metadata items
	UpdateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*Response, error)

	// DeleteContentMetadata removes previously transmitted content metadata items
	DeleteContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*Response, error)
}

// Registry provides access to configured channel clients, keyed by channel code
type Registry interface {
	// GetClient returns the client for the specified channel code
	GetClient(code Code) (Client, error)

	// ListClients returns all registered channel clients
	ListClients() []Client

	// ListActiveClients returns all channels active for a customer
	ListActiveClients(ctx context.Context, customerID uuid.UUID) ([]Client, error)
}
