package enterprise

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustomerUser links a platform learner to an enterprise customer. A learner
// can be linked to several customers; transmissions only consider linked,
// active rows.
type CustomerUser struct {
	ID uuid.UUID
	// EnterpriseCustomerID is the customer the learner is linked to
	EnterpriseCustomerID uuid.UUID
	// UserID is the learner's LMS user ID
	UserID int64
	// UserEmail is the learner's email at link time
	UserEmail string
	// Username is the learner's platform username
	Username string
	// Active marks the learner's currently selected enterprise
	Active bool
	// Linked is false once the learner has been unlinked from the customer
	Linked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomerUser links a learner to a customer
func NewCustomerUser(customerID uuid.UUID, userID int64, username, email string) (*CustomerUser, error) {
	if userID <= 0 {
		return nil, ErrCustomerUserInvalidUserID
	}
	return &CustomerUser{
		ID:                   uuid.New(),
		EnterpriseCustomerID: customerID,
		UserID:               userID,
		Username:             username,
		UserEmail:            email,
		Active:               true,
		Linked:               true,
	}, nil
}

// Unlink detaches the learner from the customer without deleting history
func (u *CustomerUser) Unlink() {
	u.Linked = false
	u.Active = false
}

// CustomerUserRepository provides access to enterprise customer users
type CustomerUserRepository interface {
	// FindByID finds a customer user by uuid
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerUser, error)

	// FindByCustomerAndUserID finds the link row for a learner under a customer
	FindByCustomerAndUserID(ctx context.Context, customerID uuid.UUID, userID int64) (*CustomerUser, error)

	// FindByCustomerAndUsername finds the link row by platform username
	FindByCustomerAndUsername(ctx context.Context, customerID uuid.UUID, username string) (*CustomerUser, error)

	// FindByCustomerAndEmail finds the link row by learner email
	FindByCustomerAndEmail(ctx context.Context, customerID uuid.UUID, email string) (*CustomerUser, error)

	// FindLinkedByCustomer returns every linked learner under a customer
	FindLinkedByCustomer(ctx context.Context, customerID uuid.UUID) ([]CustomerUser, error)

	// Save persists a customer user, inserting or updating as needed
	Save(ctx context.Context, user *CustomerUser) error
}
