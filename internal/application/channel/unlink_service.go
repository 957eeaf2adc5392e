package channel

import (
	"context"

	"go.uber.org/zap"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
)

// InactiveLearnerUnlinker unlinks learners that SAP SuccessFactors marks
// inactive. SAP is the only channel whose user directory exposes that state;
// without this sweep departed employees would keep receiving transmissions.
type InactiveLearnerUnlinker struct {
	configRepo channel.ConfigurationRepository
	userRepo   enterprise.CustomerUserRepository
	learners   InactiveLearnerFetcher
	remoteIDs  RemoteIDResolver
	logger     *zap.Logger
}

// NewInactiveLearnerUnlinker creates the unlink sweep
func NewInactiveLearnerUnlinker(
	configRepo channel.ConfigurationRepository,
	userRepo enterprise.CustomerUserRepository,
	learners InactiveLearnerFetcher,
	remoteIDs RemoteIDResolver,
	logger *zap.Logger,
) *InactiveLearnerUnlinker {
	return &InactiveLearnerUnlinker{
		configRepo: configRepo,
		userRepo:   userRepo,
		learners:   learners,
		remoteIDs:  remoteIDs,
		logger:     logger,
	}
}

// UnlinkInactiveLearners sweeps every active SAP configuration, resolves the
// channel-side inactive users back to platform usernames and unlinks them
// from the customer. Resolution failures are logged and skipped so one stale
// identity never blocks the sweep.
func (s *InactiveLearnerUnlinker) UnlinkInactiveLearners(ctx context.Context) (int, error) {
	configs, err := s.configRepo.FindActiveByChannel(ctx, channel.CodeSAPSuccessFactors)
	if err != nil {
		return 0, err
	}

	unlinked := 0
	for i := range configs {
		config := &configs[i]
		count, err := s.unlinkForCustomer(ctx, config)
		if err != nil {
			s.logger.Error("Failed to sweep inactive learners for customer",
				zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
				zap.Error(err),
			)
			continue
		}
		unlinked += count
	}
	return unlinked, nil
}

func (s *InactiveLearnerUnlinker) unlinkForCustomer(ctx context.Context, config *channel.Configuration) (int, error) {
	inactive, err := s.learners.GetInactiveLearners(ctx, config.EnterpriseCustomerID)
	if err != nil {
		return 0, err
	}

	unlinked := 0
	for _, learner := range inactive {
		user, err := s.findLinkedUser(ctx, config, learner.StudentID)
		if err != nil {
			s.logger.Warn("Could not resolve inactive channel user",
				zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
				zap.String("remote_id", learner.StudentID),
				zap.Error(err),
			)
			continue
		}
		if user == nil || !user.Linked {
			continue
		}

		user.Unlink()
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("Failed to unlink inactive learner",
				zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
				zap.String("username", user.Username),
				zap.Error(err),
			)
			continue
		}
		unlinked++
		s.logger.Info("Unlinked inactive learner",
			zap.String("enterprise_customer_id", config.EnterpriseCustomerID.String()),
			zap.String("username", user.Username),
		)
	}
	return unlinked, nil
}

// findLinkedUser maps the channel-side student ID back to the link row. With
// an identity provider the ID resolves through SSO to a platform username;
// without one the channel keys users by email.
func (s *InactiveLearnerUnlinker) findLinkedUser(ctx context.Context, config *channel.Configuration, remoteID string) (*enterprise.CustomerUser, error) {
	if config.IdentityProvider == "" {
		return s.userRepo.FindByCustomerAndEmail(ctx, config.EnterpriseCustomerID, remoteID)
	}
	username, err := s.remoteIDs.GetUsernameFromRemoteID(ctx, config.IdentityProvider, remoteID)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, nil
	}
	return s.userRepo.FindByCustomerAndUsername(ctx, config.EnterpriseCustomerID, username)
}
