package enterprise

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// Mock implementations

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

type mockCatalogAPI struct {
	mock.Mock
}

func (m *mockCatalogAPI) CreateCatalog(ctx context.Context, details *lmsapi.CatalogDetails) (*lmsapi.CatalogDetails, error) {
	args := m.Called(ctx, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.CatalogDetails), args.Error(1)
}

func (m *mockCatalogAPI) UpdateCatalog(ctx context.Context, catalogUUID uuid.UUID, details *lmsapi.CatalogDetails) (*lmsapi.CatalogDetails, error) {
	args := m.Called(ctx, catalogUUID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.CatalogDetails), args.Error(1)
}

func (m *mockCatalogAPI) DeleteCatalog(ctx context.Context, catalogUUID uuid.UUID) error {
	args := m.Called(ctx, catalogUUID)
	return args.Error(0)
}

func (m *mockCatalogAPI) RefreshCatalogs(ctx context.Context, catalogUUIDs []uuid.UUID) (map[uuid.UUID]string, []uuid.UUID, error) {
	args := m.Called(ctx, catalogUUIDs)
	var refreshed map[uuid.UUID]string
	if args.Get(0) != nil {
		refreshed = args.Get(0).(map[uuid.UUID]string)
	}
	var failed []uuid.UUID
	if args.Get(1) != nil {
		failed = args.Get(1).([]uuid.UUID)
	}
	return refreshed, failed, args.Error(2)
}

func (m *mockCatalogAPI) ContainsContentItems(ctx context.Context, catalogUUID uuid.UUID, contentIDs []string) (bool, error) {
	args := m.Called(ctx, catalogUUID, contentIDs)
	return args.Bool(0), args.Error(1)
}

func (m *mockCatalogAPI) CustomerContainsContentItems(ctx context.Context, customerUUID uuid.UUID, contentIDs []string) (bool, error) {
	args := m.Called(ctx, customerUUID, contentIDs)
	return args.Bool(0), args.Error(1)
}

type mockEnrollmentAPI struct {
	mock.Mock
}

func (m *mockEnrollmentAPI) HasCourseMode(ctx context.Context, courseRunID, mode string) (bool, error) {
	args := m.Called(ctx, courseRunID, mode)
	return args.Bool(0), args.Error(1)
}

func (m *mockEnrollmentAPI) EnrollUserInCourse(ctx context.Context, username, courseID, mode, cohort, enterpriseUUID string) (*lmsapi.Enrollment, error) {
	args := m.Called(ctx, username, courseID, mode, cohort, enterpriseUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.Enrollment), args.Error(1)
}

func (m *mockEnrollmentAPI) UnenrollUserFromCourse(ctx context.Context, username, courseID string) (bool, error) {
	args := m.Called(ctx, username, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEnrollmentAPI) UpdateCourseEnrollmentMode(ctx context.Context, username, courseID, mode string) (*lmsapi.Enrollment, error) {
	args := m.Called(ctx, username, courseID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lmsapi.Enrollment), args.Error(1)
}
