package enterprise

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/enterprise"
)

// CustomerService handles enterprise customer and learner-link operations
type CustomerService struct {
	customerRepo enterprise.CustomerRepository
	userRepo     enterprise.CustomerUserRepository
	logger       *zap.Logger
}

// NewCustomerService creates a customer service
func NewCustomerService(
	customerRepo enterprise.CustomerRepository,
	userRepo enterprise.CustomerUserRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Create registers a new enterprise customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	existing, err := s.customerRepo.FindBySlug(ctx, req.Slug)
	if err != nil && !errors.Is(err, enterprise.ErrCustomerNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, enterprise.ErrCustomerSlugTaken
	}

	customer, err := enterprise.NewCustomer(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	customer.IdentityProvider = req.IdentityProvider
	customer.SiteDomain = req.SiteDomain
	customer.EnableAuditEnrollment = req.EnableAuditEnrollment

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Created enterprise customer",
		zap.String("enterprise_customer_id", customer.ID.String()),
		zap.String("slug", customer.Slug),
	)
	return ToCustomerResponse(customer), nil
}

// GetByID retrieves a customer by uuid
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// GetBySlug retrieves a customer by slug
func (s *CustomerService) GetBySlug(ctx context.Context, slug string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// List retrieves customers matching the filter, with the total count
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := enterprise.CustomerFilter{
		Active:       filter.Active,
		NameContains: filter.NameContains,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	}

	customers, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = *ToCustomerResponse(&customers[i])
	}
	return responses, total, nil
}

// Update applies the non-nil fields of the request to the customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Active != nil {
		customer.Active = *req.Active
	}
	if req.IdentityProvider != nil {
		customer.IdentityProvider = *req.IdentityProvider
	}
	if req.SiteDomain != nil {
		customer.SiteDomain = *req.SiteDomain
	}
	if req.EnableAuditEnrollment != nil {
		customer.EnableAuditEnrollment = *req.EnableAuditEnrollment
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.customerRepo.Delete(ctx, id)
}

// LinkUser attaches a platform learner to the customer. Relinking a
// previously unlinked learner reactivates the existing row.
func (s *CustomerService) LinkUser(ctx context.Context, customerID uuid.UUID, req LinkUserRequest) (*CustomerUserResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.Active {
		return nil, enterprise.ErrCustomerInactive
	}

	existing, err := s.userRepo.FindByCustomerAndUserID(ctx, customerID, req.UserID)
	if err != nil && !errors.Is(err, enterprise.ErrCustomerUserNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Linked {
			return nil, enterprise.ErrCustomerUserAlreadyLinked
		}
		existing.Linked = true
		existing.Active = true
		if err := s.userRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return ToCustomerUserResponse(existing), nil
	}

	user, err := enterprise.NewCustomerUser(customerID, req.UserID, req.Username, req.UserEmail)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Linked learner to enterprise customer",
		zap.String("enterprise_customer_id", customerID.String()),
		zap.Int64("user_id", req.UserID),
	)
	return ToCustomerUserResponse(user), nil
}

// UnlinkUser detaches a learner from the customer, keeping the row for history
func (s *CustomerService) UnlinkUser(ctx context.Context, customerID uuid.UUID, userID int64) error {
	user, err := s.userRepo.FindByCustomerAndUserID(ctx, customerID, userID)
	if err != nil {
		return err
	}
	if !user.Linked {
		return enterprise.ErrCustomerUserNotLinked
	}

	user.Unlink()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Unlinked learner from enterprise customer",
		zap.String("enterprise_customer_id", customerID.String()),
		zap.Int64("user_id", userID),
	)
	return nil
}

// ListLinkedUsers returns the customer's linked learners
func (s *CustomerService) ListLinkedUsers(ctx context.Context, customerID uuid.UUID) ([]CustomerUserResponse, error) {
	users, err := s.userRepo.FindLinkedByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]CustomerUserResponse, len(users))
	for i := range users {
		responses[i] = *ToCustomerUserResponse(&users[i])
	}
	return responses, nil
}
