package channel

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/channels"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// Mock implementations

type mockChannelClient struct {
	mock.Mock
	code channel.Code
}

func (m *mockChannelClient) ChannelCode() channel.Code {
	return m.code
}

func (m *mockChannelClient) IsActive(ctx context.Context, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockChannelClient) CreateCourseCompletion(ctx context.Context, customerID uuid.UUID, remoteUserID string, payload []byte) (*channel.Response, error) {
	args := m.Called(ctx, customerID, remoteUserID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Response), args.Error(1)
}

func (m *mockChannelClient) CreateAssessmentReporting(ctx context.Context, customerID uuid.UUID, remoteUserID string, payload []byte) (*channel.Response, error) {
	args := m.Called(ctx, customerID, remoteUserID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Response), args.Error(1)
}

func (m *mockChannelClient) CreateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	args := m.Called(ctx, customerID, serialized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Response), args.Error(1)
}

func (m *mockChannelClient) UpdateContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	args := m.Called(ctx, customerID, serialized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Response), args.Error(1)
}

func (m *mockChannelClient) DeleteContentMetadata(ctx context.Context, customerID uuid.UUID, serialized []byte) (*channel.Response, error) {
	args := m.Called(ctx, customerID, serialized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Response), args.Error(1)
}

type mockLearnerAuditRepository struct {
	mock.Mock
}

func (m *mockLearnerAuditRepository) FindLatest(ctx context.Context, enrollmentID uuid.UUID, code channel.Code, subsectionID string) (*channel.LearnerTransmissionAudit, error) {
	args := m.Called(ctx, enrollmentID, code, subsectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.LearnerTransmissionAudit), args.Error(1)
}

func (m *mockLearnerAuditRepository) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID, code channel.Code) ([]channel.LearnerTransmissionAudit, error) {
	args := m.Called(ctx, enrollmentID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.LearnerTransmissionAudit), args.Error(1)
}

func (m *mockLearnerAuditRepository) Save(ctx context.Context, audit *channel.LearnerTransmissionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

type mockContentAuditRepository struct {
	mock.Mock
}

func (m *mockContentAuditRepository) FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code channel.Code) ([]channel.ContentTransmissionAudit, error) {
	args := m.Called(ctx, customerID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.ContentTransmissionAudit), args.Error(1)
}

func (m *mockContentAuditRepository) CreateBatch(ctx context.Context, audits []channel.ContentTransmissionAudit) error {
	args := m.Called(ctx, audits)
	return args.Error(0)
}

func (m *mockContentAuditRepository) Update(ctx context.Context, audit *channel.ContentTransmissionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *mockContentAuditRepository) DeleteByContentIDs(ctx context.Context, customerID uuid.UUID, code channel.Code, contentIDs []string) error {
	args := m.Called(ctx, customerID, code, contentIDs)
	return args.Error(0)
}

type mockConfigurationRepository struct {
	mock.Mock
}

func (m *mockConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Configuration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Configuration), args.Error(1)
}

func (m *mockConfigurationRepository) FindByCustomerAndChannel(ctx context.Context, customerID uuid.UUID, code channel.Code) (*channel.Configuration, error) {
	args := m.Called(ctx, customerID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Configuration), args.Error(1)
}

func (m *mockConfigurationRepository) FindActiveByChannel(ctx context.Context, code channel.Code) ([]channel.Configuration, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.Configuration), args.Error(1)
}

func (m *mockConfigurationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]channel.Configuration, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.Configuration), args.Error(1)
}

func (m *mockConfigurationRepository) Save(ctx context.Context, config *channel.Configuration) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *mockConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindBySlug(ctx context.Context, slug string) (*enterprise.Customer, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindAll(ctx context.Context, filter enterprise.CustomerFilter) ([]enterprise.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enterprise.Customer), args.Error(1)
}

func (m *mockCustomerRepository) Count(ctx context.Context, filter enterprise.CustomerFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCustomerRepository) Save(ctx context.Context, customer *enterprise.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCustomerUserRepository struct {
	mock.Mock
}

func (m *mockCustomerUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.CustomerUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CustomerUser), args.Error(1)
}

func (m *mockCustomerUserRepository) FindByCustomerAndUserID(ctx context.Context, customerID uuid.UUID, userID int64) (*enterprise.CustomerUser, error) {
	args := m.Called(ctx, customerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CustomerUser), args.Error(1)
}

func (m *mockCustomerUserRepository) FindByCustomerAndUsername(ctx context.Context, customerID uuid.UUID, username string) (*enterprise.CustomerUser, error) {
	args := m.Called(ctx, customerID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CustomerUser), args.Error(1)
}

func (m *mockCustomerUserRepository) FindByCustomerAndEmail(ctx context.Context, customerID uuid.UUID, email string) (*enterprise.CustomerUser, error) {
	args := m.Called(ctx, customerID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CustomerUser), args.Error(1)
}

func (m *mockCustomerUserRepository) FindLinkedByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.CustomerUser, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enterprise.CustomerUser), args.Error(1)
}

func (m *mockCustomerUserRepository) Save(ctx context.Context, user *enterprise.CustomerUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockEnrollmentRepository struct {
	mock.Mock
}

func (m *mockEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.CourseEnrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CourseEnrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) FindByUserAndCourse(ctx context.Context, customerUserID uuid.UUID, courseRunID string) (*enterprise.CourseEnrollment, error) {
	args := m.Called(ctx, customerUserID, courseRunID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.CourseEnrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.CourseEnrollment, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enterprise.CourseEnrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) FindAll(ctx context.Context, filter enterprise.EnrollmentFilter) ([]enterprise.CourseEnrollment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enterprise.CourseEnrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) Save(ctx context.Context, enrollment *enterprise.CourseEnrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *mockEnrollmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*enterprise.Catalog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enterprise.Catalog), args.Error(1)
}

func (m *mockCatalogRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]enterprise.Catalog, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enterprise.Catalog), args.Error(1)
}

func (m *mockCatalogRepository) Save(ctx context.Context, catalog *enterprise.Catalog) error {
	args := m.Called(ctx, catalog)
	return args.Error(0)
}

func (m *mockCatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCertificateFetcher struct {
	mock.Mock
}

func (m *mockCertificateFetcher) GetCourseCertificate(ctx context.Context, courseID, username string) (*lmsapi.Certificate, error) {
	args := m.Called(ctx, courseID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.Certificate), args.Error(1)
}

type mockGradeFetcher struct {
	mock.Mock
}

func (m *mockGradeFetcher) GetCourseGrade(ctx context.Context, courseID, username string) (*lmsapi.CourseGrade, error) {
	args := m.Called(ctx, courseID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.CourseGrade), args.Error(1)
}

func (m *mockGradeFetcher) GetCourseAssessmentGrades(ctx context.Context, courseID, username string) ([]lmsapi.AssessmentGrade, error) {
	args := m.Called(ctx, courseID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lmsapi.AssessmentGrade), args.Error(1)
}

type mockCourseFetcher struct {
	mock.Mock
}

func (m *mockCourseFetcher) GetCourseDetails(ctx context.Context, courseID string) (*lmsapi.CourseDetails, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.CourseDetails), args.Error(1)
}

type mockRemoteIDResolver struct {
	mock.Mock
}

func (m *mockRemoteIDResolver) GetRemoteID(ctx context.Context, identityProvider, username string) (string, error) {
	args := m.Called(ctx, identityProvider, username)
	return args.String(0), args.Error(1)
}

func (m *mockRemoteIDResolver) GetUsernameFromRemoteID(ctx context.Context, identityProvider, remoteID string) (string, error) {
	args := m.Called(ctx, identityProvider, remoteID)
	return args.String(0), args.Error(1)
}

type mockCatalogContentFetcher struct {
	mock.Mock
}

func (m *mockCatalogContentFetcher) GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]lmsapi.CatalogContentItem, error) {
	args := m.Called(ctx, catalogUUIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lmsapi.CatalogContentItem), args.Error(1)
}

type mockInactiveLearnerFetcher struct {
	mock.Mock
}

func (m *mockInactiveLearnerFetcher) GetInactiveLearners(ctx context.Context, customerID uuid.UUID) ([]channels.SAPSFLearner, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channels.SAPSFLearner), args.Error(1)
}

type mockConfigurationApplier struct {
	mock.Mock
}

func (m *mockConfigurationApplier) ApplyConfiguration(config *channel.Configuration) error {
	args := m.Called(config)
	return args.Error(0)
}
