package enterprise

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

const auditCourseMode = "audit"

// EnrollmentAPI is the slice of the platform enrollment client the
// enrollment service consumes.
type EnrollmentAPI interface {
	HasCourseMode(ctx context.Context, courseRunID, mode string) (bool, error)
	EnrollUserInCourse(ctx context.Context, username, courseID, mode, cohort, enterpriseUUID string) (*lmsapi.Enrollment, error)
	UnenrollUserFromCourse(ctx context.Context, username, courseID string) (bool, error)
	UpdateCourseEnrollmentMode(ctx context.Context, username, courseID, mode string) (*lmsapi.Enrollment, error)
}

// EnrollmentService enrolls linked learners into course runs, keeping the
// platform enrollment and the local enterprise row in step.
type EnrollmentService struct {
	enrollmentRepo enterprise.EnrollmentRepository
	userRepo       enterprise.CustomerUserRepository
	customerRepo   enterprise.CustomerRepository
	enrollmentAPI  EnrollmentAPI
	catalogAPI     CatalogAPI
	logger         *zap.Logger
}

// NewEnrollmentService creates an enrollment service
func NewEnrollmentService(
	enrollmentRepo enterprise.EnrollmentRepository,
	userRepo enterprise.CustomerUserRepository,
	customerRepo enterprise.CustomerRepository,
	enrollmentAPI EnrollmentAPI,
	catalogAPI CatalogAPI,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		customerRepo:   customerRepo,
		enrollmentAPI:  enrollmentAPI,
		catalogAPI:     catalogAPI,
		logger:         logger,
	}
}

// Enroll puts a linked learner into a course run. The course must be in one
// of the customer's catalogs and offer the requested mode; audit-mode
// enrollments additionally require the customer to allow them. The platform
// enrollment happens first, then the enterprise row is recorded.
func (s *EnrollmentService) Enroll(ctx context.Context, customerUserID uuid.UUID, req EnrollRequest) (*EnrollmentResponse, error) {
	user, err := s.userRepo.FindByID(ctx, customerUserID)
	if err != nil {
		return nil, err
	}
	if !user.Linked {
		return nil, enterprise.ErrCustomerUserNotLinked
	}
	customer, err := s.customerRepo.FindByID(ctx, user.EnterpriseCustomerID)
	if err != nil {
		return nil, err
	}

	if req.CourseMode == auditCourseMode && !customer.EnableAuditEnrollment {
		return nil, enterprise.ErrEnrollmentAuditDisabled
	}

	inCatalog, err := s.catalogAPI.CustomerContainsContentItems(ctx, customer.ID, []string{req.CourseRunID})
	if err != nil {
		return nil, err
	}
	if !inCatalog {
		return nil, enterprise.ErrEnrollmentNotInCatalog
	}

	offered, err := s.enrollmentAPI.HasCourseMode(ctx, req.CourseRunID, req.CourseMode)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, enterprise.ErrEnrollmentModeNotOffered
	}

	existing, err := s.enrollmentRepo.FindByUserAndCourse(ctx, customerUserID, req.CourseRunID)
	if err != nil && !errors.Is(err, enterprise.ErrEnrollmentNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, enterprise.ErrEnrollmentAlreadyExists
	}

	if _, err := s.enrollmentAPI.EnrollUserInCourse(ctx, user.Username, req.CourseRunID, req.CourseMode, req.Cohort, customer.ID.String()); err != nil {
		return nil, err
	}

	enrollment, err := enterprise.NewCourseEnrollment(customerUserID, req.CourseRunID, enterprise.EnrollmentSource(req.Source))
	if err != nil {
		return nil, err
	}
	if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
		// the platform enrollment exists; surface the row loss loudly
		s.logger.Error("Platform enrollment succeeded but enterprise row was not saved",
			zap.String("enterprise_customer_user_id", customerUserID.String()),
			zap.String("course_run_id", req.CourseRunID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Enrolled learner in course",
		zap.String("enterprise_customer_id", customer.ID.String()),
		zap.String("course_run_id", req.CourseRunID),
		zap.String("mode", req.CourseMode),
	)
	return ToEnrollmentResponse(enrollment), nil
}

// Unenroll removes the learner from the course run on the platform and drops
// the enterprise row.
func (s *EnrollmentService) Unenroll(ctx context.Context, customerUserID uuid.UUID, courseRunID string) error {
	user, err := s.userRepo.FindByID(ctx, customerUserID)
	if err != nil {
		return err
	}
	enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, customerUserID, courseRunID)
	if err != nil {
		return err
	}

	if _, err := s.enrollmentAPI.UnenrollUserFromCourse(ctx, user.Username, courseRunID); err != nil {
		return err
	}
	return s.enrollmentRepo.Delete(ctx, enrollment.ID)
}

// UpdateMode switches the platform enrollment to a different course mode
func (s *EnrollmentService) UpdateMode(ctx context.Context, customerUserID uuid.UUID, courseRunID, mode string) error {
	user, err := s.userRepo.FindByID(ctx, customerUserID)
	if err != nil {
		return err
	}
	if _, err := s.enrollmentRepo.FindByUserAndCourse(ctx, customerUserID, courseRunID); err != nil {
		return err
	}

	offered, err := s.enrollmentAPI.HasCourseMode(ctx, courseRunID, mode)
	if err != nil {
		return err
	}
	if !offered {
		return enterprise.ErrEnrollmentModeNotOffered
	}

	_, err = s.enrollmentAPI.UpdateCourseEnrollmentMode(ctx, user.Username, courseRunID, mode)
	return err
}

// SetSavedForLater toggles the learner's saved-for-later flag
func (s *EnrollmentService) SetSavedForLater(ctx context.Context, customerUserID uuid.UUID, courseRunID string, saved bool) (*EnrollmentResponse, error) {
	enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, customerUserID, courseRunID)
	if err != nil {
		return nil, err
	}
	enrollment.SavedForLater = saved
	if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	return ToEnrollmentResponse(enrollment), nil
}

// ListByUser returns a learner's enterprise enrollments
func (s *EnrollmentService) ListByUser(ctx context.Context, customerUserID uuid.UUID) ([]EnrollmentResponse, error) {
	enrollments, err := s.enrollmentRepo.FindAll(ctx, enterprise.EnrollmentFilter{CustomerUserID: &customerUserID})
	if err != nil {
		return nil, err
	}
	responses := make([]EnrollmentResponse, len(enrollments))
	for i := range enrollments {
		responses[i] = *ToEnrollmentResponse(&enrollments[i])
	}
	return responses, nil
}
