package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/persistence/models"
)

func setupEnrollmentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.EnterpriseCustomerUserModel{},
		&models.CourseEnrollmentModel{},
	)
	require.NoError(t, err)

	return db
}

func newTestEnrollment(t *testing.T, customerUserID uuid.UUID, courseRunID string) *enterprise.CourseEnrollment {
	t.Helper()
	enrollment, err := enterprise.NewCourseEnrollment(customerUserID, courseRunID, enterprise.EnrollmentSourceAPI)
	require.NoError(t, err)
	return enrollment
}

func TestGormEnrollmentRepository_SaveAndFind(t *testing.T) {
	db := setupEnrollmentTestDB(t)
	repo := NewGormEnrollmentRepository(db)
	ctx := context.Background()

	customerUserID := uuid.New()
	enrollment := newTestEnrollment(t, customerUserID, "course-v1:acme+GO101+2024")
	require.NoError(t, repo.Save(ctx, enrollment))

	t.Run("finds by user and course", func(t *testing.T) {
		found, err := repo.FindByUserAndCourse(ctx, customerUserID, "course-v1:acme+GO101+2024")
		require.NoError(t, err)
		assert.Equal(t, enrollment.ID, found.ID)
		assert.Equal(t, enterprise.EnrollmentSourceAPI, found.Source)
	})

	t.Run("returns not found for another course run", func(t *testing.T) {
		_, err := repo.FindByUserAndCourse(ctx, customerUserID, "course-v1:acme+GO102+2024")
		assert.ErrorIs(t, err, enterprise.ErrEnrollmentNotFound)
	})
}

func TestGormEnrollmentRepository_FindByCustomer(t *testing.T) {
	db := setupEnrollmentTestDB(t)
	userRepo := NewGormCustomerUserRepository(db)
	repo := NewGormEnrollmentRepository(db)
	ctx := context.Background()

	customerID := uuid.New()

	linked := newTestCustomerUser(t, customerID, 1, "linked_learner", "linked@acme.example.com")
	require.NoError(t, userRepo.Save(ctx, linked))
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, linked.ID, "course-v1:acme+GO101+2024")))

	unlinked := newTestCustomerUser(t, customerID, 2, "former_learner", "former@acme.example.com")
	unlinked.Unlink()
	require.NoError(t, userRepo.Save(ctx, unlinked))
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, unlinked.ID, "course-v1:acme+GO102+2024")))

	otherCustomerUser := newTestCustomerUser(t, uuid.New(), 3, "other_learner", "other@example.com")
	require.NoError(t, userRepo.Save(ctx, otherCustomerUser))
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, otherCustomerUser.ID, "course-v1:acme+GO103+2024")))

	enrollments, err := repo.FindByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "course-v1:acme+GO101+2024", enrollments[0].CourseRunID)
	assert.Equal(t, linked.ID, enrollments[0].EnterpriseCustomerUserID)
}

func TestGormEnrollmentRepository_FindAll(t *testing.T) {
	db := setupEnrollmentTestDB(t)
	repo := NewGormEnrollmentRepository(db)
	ctx := context.Background()

	customerUserID := uuid.New()
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, customerUserID, "course-v1:acme+GO101+2024")))
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, customerUserID, "course-v1:acme+GO102+2024")))
	require.NoError(t, repo.Save(ctx, newTestEnrollment(t, uuid.New(), "course-v1:acme+GO101+2024")))

	t.Run("filters by customer user", func(t *testing.T) {
		enrollments, err := repo.FindAll(ctx, enterprise.EnrollmentFilter{CustomerUserID: &customerUserID})
		require.NoError(t, err)
		assert.Len(t, enrollments, 2)
	})

	t.Run("filters by course run", func(t *testing.T) {
		enrollments, err := repo.FindAll(ctx, enterprise.EnrollmentFilter{CourseRunID: "course-v1:acme+GO101+2024"})
		require.NoError(t, err)
		assert.Len(t, enrollments, 2)
	})
}

func TestGormEnrollmentRepository_Delete(t *testing.T) {
	db := setupEnrollmentTestDB(t)
	repo := NewGormEnrollmentRepository(db)
	ctx := context.Background()

	enrollment := newTestEnrollment(t, uuid.New(), "course-v1:acme+GO101+2024")
	require.NoError(t, repo.Save(ctx, enrollment))

	require.NoError(t, repo.Delete(ctx, enrollment.ID))
	assert.ErrorIs(t, repo.Delete(ctx, enrollment.ID), enterprise.ErrEnrollmentNotFound)
}
