package enterprise

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("Valid customer creation", func(t *testing.T) {
		customer, err := NewCustomer("Pied Piper", "pied-piper")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, customer.ID)
		assert.Equal(t, "Pied Piper", customer.Name)
		assert.Equal(t, "pied-piper", customer.Slug)
		assert.True(t, customer.Active)
	})

	t.Run("Missing name", func(t *testing.T) {
		_, err := NewCustomer("", "pied-piper")
		assert.ErrorIs(t, err, ErrCustomerInvalidName)
	})

	t.Run("Invalid slug", func(t *testing.T) {
		for _, slug := range []string{"", "Pied Piper", "pied_piper", "-leading", "trailing-"} {
			_, err := NewCustomer("Pied Piper", slug)
			assert.ErrorIs(t, err, ErrCustomerInvalidSlug, "slug %q", slug)
		}
	})
}

func TestNewCustomerUser(t *testing.T) {
	customerID := uuid.New()

	t.Run("Valid link", func(t *testing.T) {
		user, err := NewCustomerUser(customerID, 42, "jane", "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, customerID, user.EnterpriseCustomerID)
		assert.Equal(t, int64(42), user.UserID)
		assert.True(t, user.Active)
		assert.True(t, user.Linked)
	})

	t.Run("Invalid LMS user ID", func(t *testing.T) {
		_, err := NewCustomerUser(customerID, 0, "jane", "jane@example.com")
		assert.ErrorIs(t, err, ErrCustomerUserInvalidUserID)
	})
}

func TestCustomerUserUnlink(t *testing.T) {
	user, err := NewCustomerUser(uuid.New(), 42, "jane", "jane@example.com")
	require.NoError(t, err)

	user.Unlink()

	assert.False(t, user.Linked)
	assert.False(t, user.Active)
}

func TestNewCatalog(t *testing.T) {
	t.Run("Valid catalog", func(t *testing.T) {
		catalog, err := NewCatalog(uuid.New(), "All courses", nil)
		require.NoError(t, err)
		assert.JSONEq(t, "{}", string(catalog.ContentFilter))
		assert.Contains(t, catalog.EnabledCourseModes, "verified")
	})

	t.Run("Missing title", func(t *testing.T) {
		_, err := NewCatalog(uuid.New(), "", nil)
		assert.ErrorIs(t, err, ErrCatalogInvalidTitle)
	})
}

func TestNewCourseEnrollment(t *testing.T) {
	t.Run("Valid enrollment", func(t *testing.T) {
		enrollment, err := NewCourseEnrollment(uuid.New(), "course-v1:edX+DemoX+Demo_Course", EnrollmentSourceEnrollmentURL)
		require.NoError(t, err)
		assert.Equal(t, "course-v1:edX+DemoX+Demo_Course", enrollment.CourseRunID)
		assert.Equal(t, EnrollmentSourceEnrollmentURL, enrollment.Source)
	})

	t.Run("Defaults source to API", func(t *testing.T) {
		enrollment, err := NewCourseEnrollment(uuid.New(), "course-v1:edX+DemoX+Demo_Course", "")
		require.NoError(t, err)
		assert.Equal(t, EnrollmentSourceAPI, enrollment.Source)
	})

	t.Run("Missing course run", func(t *testing.T) {
		_, err := NewCourseEnrollment(uuid.New(), "", EnrollmentSourceAPI)
		assert.ErrorIs(t, err, ErrEnrollmentInvalidCourse)
	})
}
