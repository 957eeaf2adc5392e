package enterprise

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/enterprise"
)

func newCustomerServiceFixture() (*CustomerService, *mockCustomerRepository, *mockCustomerUserRepository) {
	customerRepo := &mockCustomerRepository{}
	userRepo := &mockCustomerUserRepository{}
	svc := NewCustomerService(customerRepo, userRepo, zap.NewNop())
	return svc, customerRepo, userRepo
}

func TestCustomerService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active customer", func(t *testing.T) {
		svc, customerRepo, _ := newCustomerServiceFixture()
		customerRepo.On("FindBySlug", ctx, "acme-corp").Return(nil, enterprise.ErrCustomerNotFound)
		customerRepo.On("Save", ctx, mock.MatchedBy(func(c *enterprise.Customer) bool {
			return c.Name == "Acme Corp" && c.Slug == "acme-corp" && c.Active
		})).Return(nil)

		resp, err := svc.Create(ctx, CreateCustomerRequest{
			Name:             "Acme Corp",
			Slug:             "acme-corp",
			IdentityProvider: "saml-acme",
		})

		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", resp.Name)
		assert.Equal(t, "saml-acme", resp.IdentityProvider)
		assert.True(t, resp.Active)
		customerRepo.AssertExpectations(t)
	})

	t.Run("rejects a taken slug", func(t *testing.T) {
		svc, customerRepo, _ := newCustomerServiceFixture()
		existing, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
		customerRepo.On("FindBySlug", ctx, "acme-corp").Return(existing, nil)

		_, err := svc.Create(ctx, CreateCustomerRequest{Name: "Other", Slug: "acme-corp"})

		assert.ErrorIs(t, err, enterprise.ErrCustomerSlugTaken)
		customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid slug", func(t *testing.T) {
		svc, customerRepo, _ := newCustomerServiceFixture()
		customerRepo.On("FindBySlug", ctx, "Acme Corp").Return(nil, enterprise.ErrCustomerNotFound)

		_, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme Corp", Slug: "Acme Corp"})

		assert.ErrorIs(t, err, enterprise.ErrCustomerInvalidSlug)
	})
}

func TestCustomerService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only the provided fields", func(t *testing.T) {
		svc, customerRepo, _ := newCustomerServiceFixture()
		customer, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
		customer.SiteDomain = "acme.example.com"

		newName := "Acme Corporation"
		inactive := false
		customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		customerRepo.On("Save", ctx, mock.MatchedBy(func(c *enterprise.Customer) bool {
			return c.Name == newName && !c.Active && c.SiteDomain == "acme.example.com"
		})).Return(nil)

		resp, err := svc.Update(ctx, customer.ID, UpdateCustomerRequest{Name: &newName, Active: &inactive})

		require.NoError(t, err)
		assert.Equal(t, newName, resp.Name)
		assert.False(t, resp.Active)
		assert.Equal(t, "acme-corp", resp.Slug)
		customerRepo.AssertExpectations(t)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc, customerRepo, _ := newCustomerServiceFixture()
		id := uuid.New()
		customerRepo.On("FindByID", ctx, id).Return(nil, enterprise.ErrCustomerNotFound)

		_, err := svc.Update(ctx, id, UpdateCustomerRequest{})

		assert.ErrorIs(t, err, enterprise.ErrCustomerNotFound)
	})
}

func TestCustomerService_List(t *testing.T) {
	ctx := context.Background()
	svc, customerRepo, _ := newCustomerServiceFixture()

	a, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
	b, _ := enterprise.NewCustomer("Globex", "globex")
	active := true
	filter := enterprise.CustomerFilter{Active: &active, Page: 1, PageSize: 10}
	customerRepo.On("FindAll", ctx, filter).Return([]enterprise.Customer{*a, *b}, nil)
	customerRepo.On("Count", ctx, filter).Return(int64(2), nil)

	customers, total, err := svc.List(ctx, CustomerListFilter{Active: &active, Page: 1, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, customers, 2)
	assert.Equal(t, "acme-corp", customers[0].Slug)
	assert.Equal(t, "globex", customers[1].Slug)
}

func TestCustomerService_LinkUser(t *testing.T) {
	ctx := context.Background()

	t.Run("links a new learner", func(t *testing.T) {
		svc, customerRepo, userRepo := newCustomerServiceFixture()
		customer, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")

		customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		userRepo.On("FindByCustomerAndUserID", ctx, customer.ID, int64(42)).
			Return(nil, enterprise.ErrCustomerUserNotFound)
		userRepo.On("Save", ctx, mock.MatchedBy(func(u *enterprise.CustomerUser) bool {
			return u.UserID == 42 && u.Linked && u.Active
		})).Return(nil)

		resp, err := svc.LinkUser(ctx, customer.ID, LinkUserRequest{
			UserID:    42,
			Username:  "acme_learner",
			UserEmail: "learner@acme.example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.UserID)
		assert.True(t, resp.Linked)
		userRepo.AssertExpectations(t)
	})

	t.Run("relinking reactivates the existing row", func(t *testing.T) {
		svc, customerRepo, userRepo := newCustomerServiceFixture()
		customer, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
		link, _ := enterprise.NewCustomerUser(customer.ID, 42, "acme_learner", "learner@acme.example.com")
		link.Unlink()

		customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		userRepo.On("FindByCustomerAndUserID", ctx, customer.ID, int64(42)).Return(link, nil)
		userRepo.On("Save", ctx, mock.MatchedBy(func(u *enterprise.CustomerUser) bool {
			return u.ID == link.ID && u.Linked && u.Active
		})).Return(nil)

		resp, err := svc.LinkUser(ctx, customer.ID, LinkUserRequest{UserID: 42})

		require.NoError(t, err)
		assert.Equal(t, link.ID, resp.ID)
		assert.True(t, resp.Linked)
	})

	t.Run("already linked", func(t *testing.T) {
		svc, customerRepo, userRepo := newCustomerServiceFixture()
		customer, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
		link, _ := enterprise.NewCustomerUser(customer.ID, 42, "acme_learner", "")

		customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		userRepo.On("FindByCustomerAndUserID", ctx, customer.ID, int64(42)).Return(link, nil)

		_, err := svc.LinkUser(ctx, customer.ID, LinkUserRequest{UserID: 42})

		assert.ErrorIs(t, err, enterprise.ErrCustomerUserAlreadyLinked)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive customer cannot link", func(t *testing.T) {
		svc, customerRepo, userRepo := newCustomerServiceFixture()
		customer, _ := enterprise.NewCustomer("Acme Corp", "acme-corp")
		customer.Active = false

		customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err := svc.LinkUser(ctx, customer.ID, LinkUserRequest{UserID: 42})

		assert.ErrorIs(t, err, enterprise.ErrCustomerInactive)
		userRepo.AssertNotCalled(t, "FindByCustomerAndUserID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCustomerService_UnlinkUser(t *testing.T) {
	ctx := context.Background()

	t.Run("unlinks and keeps the row", func(t *testing.T) {
		svc, _, userRepo := newCustomerServiceFixture()
		customerID := uuid.New()
		link, _ := enterprise.NewCustomerUser(customerID, 42, "acme_learner", "")

		userRepo.On("FindByCustomerAndUserID", ctx, customerID, int64(42)).Return(link, nil)
		userRepo.On("Save", ctx, mock.MatchedBy(func(u *enterprise.CustomerUser) bool {
			return u.ID == link.ID && !u.Linked && !u.Active
		})).Return(nil)

		err := svc.UnlinkUser(ctx, customerID, 42)

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("already unlinked", func(t *testing.T) {
		svc, _, userRepo := newCustomerServiceFixture()
		customerID := uuid.New()
		link, _ := enterprise.NewCustomerUser(customerID, 42, "acme_learner", "")
		link.Unlink()

		userRepo.On("FindByCustomerAndUserID", ctx, customerID, int64(42)).Return(link, nil)

		err := svc.UnlinkUser(ctx, customerID, 42)

		assert.ErrorIs(t, err, enterprise.ErrCustomerUserNotLinked)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
