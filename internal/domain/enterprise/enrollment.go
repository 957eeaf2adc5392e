package enterprise

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnrollmentSource records how an enterprise enrollment was created
type EnrollmentSource string

const (
	// EnrollmentSourceEnrollmentURL means the learner used a catalog enrollment link
	EnrollmentSourceEnrollmentURL EnrollmentSource = "enrollment_url"
	// EnrollmentSourceAPI means the enrollment was created through the API
	EnrollmentSourceAPI EnrollmentSource = "api"
	// EnrollmentSourceAdmin means an admin enrolled the learner
	EnrollmentSourceAdmin EnrollmentSource = "admin"
)

// CourseEnrollment ties a customer user to a course run. It mirrors (and is
// keyed consistently with) the platform enrollment, adding enterprise
// bookkeeping on top.
type CourseEnrollment struct {
	ID uuid.UUID
	// EnterpriseCustomerUserID is the linked learner
	EnterpriseCustomerUserID uuid.UUID
	// CourseRunID is the platform course run identifier
	CourseRunID string
	// SavedForLater marks enrollments the learner archived on their dashboard
	SavedForLater bool
	// Source records how the enrollment came to exist
	Source    EnrollmentSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCourseEnrollment creates an enrollment row for a linked learner
func NewCourseEnrollment(customerUserID uuid.UUID, courseRunID string, source EnrollmentSource) (*CourseEnrollment, error) {
	if courseRunID == "" {
		return nil, ErrEnrollmentInvalidCourse
	}
	if source == "" {
		source = EnrollmentSourceAPI
	}
	return &CourseEnrollment{
		ID:                       uuid.New(),
		EnterpriseCustomerUserID: customerUserID,
		CourseRunID:              courseRunID,
		Source:                   source,
	}, nil
}

// EnrollmentFilter provides filters for listing enrollments
type EnrollmentFilter struct {
	// CustomerUserID restricts to one learner when non-nil
	CustomerUserID *uuid.UUID
	// CourseRunID restricts to one course run when non-empty
	CourseRunID string
	Page        int
	PageSize    int
}

// EnrollmentRepository provides access to enterprise course enrollments
type EnrollmentRepository interface {
	// FindByID finds an enrollment by uuid
	FindByID(ctx context.Context, id uuid.UUID) (*CourseEnrollment, error)

	// FindByUserAndCourse finds the enrollment for a learner in a course run
	FindByUserAndCourse(ctx context.Context, customerUserID uuid.UUID, courseRunID string) (*CourseEnrollment, error)

	// FindByCustomer returns every enrollment under a customer, joining
	// through the customer user link
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]CourseEnrollment, error)

	// FindAll lists enrollments matching the filter
	FindAll(ctx context.Context, filter EnrollmentFilter) ([]CourseEnrollment, error)

	// Save persists an enrollment, inserting or updating as needed
	Save(ctx context.Context, enrollment *CourseEnrollment) error

	// Delete removes an enrollment
	Delete(ctx context.Context, id uuid.UUID) error
}
