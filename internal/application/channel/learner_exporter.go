package channel

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// certificate statuses that count as a completion
const certificateStatusDownloadable = "downloadable"

// effortPattern extracts the weekly hour count from course effort strings
// like "4-6 hours per week" or "5:30".
var effortPattern = regexp.MustCompile(`\d+`)

// LearnerExporter assembles normalized completion and assessment records for
// every enterprise enrollment under a customer. Instructor-paced courses are
// judged by their certificate; self-paced courses by the grades API.
type LearnerExporter struct {
	enrollmentRepo enterprise.EnrollmentRepository
	userRepo       enterprise.CustomerUserRepository
	certificates   CertificateFetcher
	grades         GradeFetcher
	courses        CourseFetcher
	remoteIDs      RemoteIDResolver
	logger         *zap.Logger
}

// NewLearnerExporter creates a learner data exporter
func NewLearnerExporter(
	enrollmentRepo enterprise.EnrollmentRepository,
	userRepo enterprise.CustomerUserRepository,
	certificates CertificateFetcher,
	grades GradeFetcher,
	courses CourseFetcher,
	remoteIDs RemoteIDResolver,
	logger *zap.Logger,
) *LearnerExporter {
	return &LearnerExporter{
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		certificates:   certificates,
		grades:         grades,
		courses:        courses,
		remoteIDs:      remoteIDs,
		logger:         logger,
	}
}

// ExportCompletions builds one completion record per enterprise enrollment
// under the customer. Enrollments whose data cannot be assembled are logged
// and skipped so one broken record does not block the run.
func (e *LearnerExporter) ExportCompletions(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) ([]channel.LearnerCompletionRecord, error) {
	enrollments, err := e.enrollmentRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	records := make([]channel.LearnerCompletionRecord, 0, len(enrollments))
	for i := range enrollments {
		record, err := e.exportEnrollment(ctx, customer, config, &enrollments[i])
		if err != nil {
			e.logger.Error("Failed to export learner data for enrollment",
				zap.String("enterprise_customer_id", customer.ID.String()),
				zap.String("enrollment_id", enrollments[i].ID.String()),
				zap.String("course_run_id", enrollments[i].CourseRunID),
				zap.Error(err),
			)
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

func (e *LearnerExporter) exportEnrollment(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration, enrollment *enterprise.CourseEnrollment) (*channel.LearnerCompletionRecord, error) {
	user, err := e.userRepo.FindByID(ctx, enrollment.EnterpriseCustomerUserID)
	if err != nil {
		return nil, err
	}

	remoteID, err := e.resolveRemoteID(ctx, config, user)
	if err != nil {
		return nil, err
	}

	record := &channel.LearnerCompletionRecord{
		EnterpriseEnrollmentID: enrollment.ID,
		EnterpriseCustomerID:   customer.ID,
		LMSUserID:              user.UserID,
		RemoteUserID:           remoteID,
		CourseID:               enrollment.CourseRunID,
	}

	details, err := e.courses.GetCourseDetails(ctx, enrollment.CourseRunID)
	if err != nil {
		return nil, err
	}
	record.TotalHours = estimateTotalHours(details)

	if details.SelfPaced() {
		err = e.collectGradesData(ctx, record, user.Username)
	} else {
		err = e.collectCertificateData(ctx, record, user.Username)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// collectCertificateData fills completion fields from the course certificate.
// No certificate means the learner has not completed the course.
func (e *LearnerExporter) collectCertificateData(ctx context.Context, record *channel.LearnerCompletionRecord, username string) error {
	cert, err := e.certificates.GetCourseCertificate(ctx, record.CourseID, username)
	if errors.Is(err, lmsapi.ErrNotFound) {
		record.CourseCompleted = false
		return nil
	}
	if err != nil {
		return err
	}

	record.CourseCompleted = cert.Status == certificateStatusDownloadable
	record.Passed = cert.IsPassing
	record.CompletedAt = cert.CreatedDate
	if cert.Grade != "" {
		if grade, err := decimal.NewFromString(cert.Grade); err == nil {
			record.Grade = grade
		}
	}
	return nil
}

// collectGradesData fills completion fields from the grades API. Self-paced
// courses have no certificate event, so passing the course counts as
// completing it, stamped with the export time.
func (e *LearnerExporter) collectGradesData(ctx context.Context, record *channel.LearnerCompletionRecord, username string) error {
	grade, err := e.grades.GetCourseGrade(ctx, record.CourseID, username)
	if errors.Is(err, lmsapi.ErrNotFound) {
		record.CourseCompleted = false
		return nil
	}
	if err != nil {
		return err
	}

	record.Grade = grade.Percent
	record.Passed = grade.Passed
	record.CourseCompleted = grade.Passed
	if grade.Passed {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	return nil
}

// ExportAssessments builds one record per graded subsection per enrollment
// for channels that accept assessment-level reporting.
func (e *LearnerExporter) ExportAssessments(ctx context.Context, customer *enterprise.Customer, config *channel.Configuration) ([]channel.AssessmentGradeRecord, error) {
	enrollments, err := e.enrollmentRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	var records []channel.AssessmentGradeRecord
	for i := range enrollments {
		enrollment := &enrollments[i]
		user, err := e.userRepo.FindByID(ctx, enrollment.EnterpriseCustomerUserID)
		if err != nil {
			e.logger.Error("Failed to load customer user for enrollment",
				zap.String("enrollment_id", enrollment.ID.String()),
				zap.Error(err),
			)
			continue
		}
		remoteID, err := e.resolveRemoteID(ctx, config, user)
		if err != nil {
			e.logger.Error("Failed to resolve remote ID for learner",
				zap.String("enrollment_id", enrollment.ID.String()),
				zap.String("username", user.Username),
				zap.Error(err),
			)
			continue
		}

		grades, err := e.grades.GetCourseAssessmentGrades(ctx, enrollment.CourseRunID, user.Username)
		if errors.Is(err, lmsapi.ErrNotFound) {
			continue
		}
		if err != nil {
			e.logger.Error("Failed to fetch assessment grades for enrollment",
				zap.String("enrollment_id", enrollment.ID.String()),
				zap.String("course_run_id", enrollment.CourseRunID),
				zap.Error(err),
			)
			continue
		}

		for _, grade := range grades {
			if !grade.Attempted {
				continue
			}
			records = append(records, channel.AssessmentGradeRecord{
				EnterpriseEnrollmentID: enrollment.ID,
				RemoteUserID:           remoteID,
				CourseID:               enrollment.CourseRunID,
				SubsectionID:           grade.ModuleID,
				SubsectionName:         grade.SubsectionName,
				Grade:                  grade.Percent,
				PointsEarned:           grade.ScoreEarned,
				PointsPossible:         grade.ScorePossible,
			})
		}
	}
	return records, nil
}

// resolveRemoteID maps the learner to their channel-side identifier. With no
// identity provider configured the platform email is used, which is what
// channels without SSO provisioning key their users by.
func (e *LearnerExporter) resolveRemoteID(ctx context.Context, config *channel.Configuration, user *enterprise.CustomerUser) (string, error) {
	if config.IdentityProvider == "" {
		return user.UserEmail, nil
	}
	remoteID, err := e.remoteIDs.GetRemoteID(ctx, config.IdentityProvider, user.Username)
	if err != nil {
		return "", err
	}
	if remoteID == "" {
		return "", channel.ErrTransmissionNoRemoteID
	}
	return remoteID, nil
}

// estimateTotalHours derives a total effort estimate from the course's weekly
// effort string and duration. Courses without usable metadata report zero.
func estimateTotalHours(details *lmsapi.CourseDetails) decimal.Decimal {
	if details.Effort == "" || details.Start == nil || details.End == nil {
		return decimal.Zero
	}
	match := effortPattern.FindString(details.Effort)
	if match == "" {
		return decimal.Zero
	}
	hoursPerWeek, err := strconv.Atoi(match)
	if err != nil {
		return decimal.Zero
	}
	weeks := int(details.End.Sub(*details.Start).Hours() / (24 * 7))
	if weeks <= 0 {
		weeks = 1
	}
	return decimal.NewFromInt(int64(hoursPerWeek * weeks))
}
