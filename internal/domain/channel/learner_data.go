package channel

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Learner Data Types
// ---------------------------------------------------------------------------

// LearnerCompletionRecord is a normalized per-enrollment completion record
// assembled from certificate, grades and course pacing data. It is the unit
// the learner-data transmitters serialize and send to a channel.
type LearnerCompletionRecord struct {
	// EnterpriseEnrollmentID identifies the enterprise course enrollment
	EnterpriseEnrollmentID uuid.UUID
	// EnterpriseCustomerID is the customer the enrollment belongs to
	EnterpriseCustomerID uuid.UUID
	// LMSUserID is the learner's user ID on the host platform
	LMSUserID int64
	// RemoteUserID is the learner's identifier on the channel side,
	// resolved through the customer's SSO identity provider
	RemoteUserID string
	// CourseID is the course run identifier
	CourseID string
	// CourseCompleted indicates whether the learner completed the course
	CourseCompleted bool
	// CompletedAt is when the course was completed (nil if in progress)
	CompletedAt *time.Time
	// Grade is the overall course grade as a fraction in [0, 1]
	Grade decimal.Decimal
	// Passed indicates whether the grade meets the course's passing policy
	Passed bool
	// TotalHours is the estimated effort spent, derived from course metadata
	TotalHours decimal.Decimal
}

// AssessmentGradeRecord is a per-subsection grade record for channels that
// support assessment-level reporting.
type AssessmentGradeRecord struct {
	// EnterpriseEnrollmentID identifies the enterprise course enrollment
	EnterpriseEnrollmentID uuid.UUID
	// RemoteUserID is the learner's identifier on the channel side
	RemoteUserID string
	// CourseID is the course run identifier
	CourseID string
	// SubsectionID identifies the graded subsection
	SubsectionID string
	// SubsectionName is the display name of the subsection
	SubsectionName string
	// Grade is the subsection grade as a fraction in [0, 1]
	Grade decimal.Decimal
	// PointsEarned is the score the learner earned
	PointsEarned decimal.Decimal
	// PointsPossible is the maximum score for the subsection
	PointsPossible decimal.Decimal
}

// ---------------------------------------------------------------------------
// LearnerTransmissionAudit
// ---------------------------------------------------------------------------

// LearnerTransmissionAudit records the last learner-data payload sent for an
// enrollment on a channel. A successful audit with an unchanged grade means
// the record does not need to be re-sent.
type LearnerTransmissionAudit struct {
	ID uuid.UUID
	// EnterpriseEnrollmentID identifies the enterprise course enrollment
	EnterpriseEnrollmentID uuid.UUID
	// ChannelCode is the channel the record was sent to
	ChannelCode Code
	// CourseID is the course run identifier used in the payload
	CourseID string
	// SubsectionID is set for assessment-level audits, empty otherwise
	SubsectionID string
	// Grade is the grade that was transmitted
	Grade decimal.Decimal
	// CourseCompleted indicates whether a completion was reported
	CourseCompleted bool
	// CompletedAt is the completion timestamp that was transmitted
	CompletedAt *time.Time
	// Status is the HTTP status code string returned by the channel
	Status string
	// ErrorMessage holds the channel response body for failed transmissions
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Succeeded returns true if the audited transmission was accepted by the channel
func (a *LearnerTransmissionAudit) Succeeded() bool {
	// Status stores the numeric HTTP code as a string
	code, err := strconv.Atoi(a.Status)
	if err != nil {
		return false
	}
	return code < 400
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// LearnerAuditRepository provides access to learner transmission audits
type LearnerAuditRepository interface {
	// FindLatest returns the most recent audit for the enrollment on the
	// channel, scoped to a subsection for assessment-level audits
	// (subsectionID empty for course-level audits). Returns ErrAuditNotFound
	// when nothing was transmitted yet.
	FindLatest(ctx context.Context, enrollmentID uuid.UUID, code Code, subsectionID string) (*LearnerTransmissionAudit, error)

	// FindByEnrollment returns every audit for the enrollment on the channel
	FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID, code Code) ([]LearnerTransmissionAudit, error)

	// Save persists an audit row, inserting or updating as needed
	Save(ctx context.Context, audit *LearnerTransmissionAudit) error
}
