// Package application distributor account use cases
package application

import (
	"context"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
	"github.com/wyfcoding/distributorhub/pkg/security"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

// Notifier schedules a notification without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg notificationdomain.Message)
}

// PasswordGenerator returns a fresh random password.
type PasswordGenerator func() (string, error)

func randomPassword() (string, error) {
	return utils.RandString(domain.GeneratedPasswordLength)
}

const usernameSuffixAttempts = 3

func randomSuffix() (string, error) {
	return utils.RandHex(2)
}

// ProvisioningService creates the distributor account of an approved application.
type ProvisioningService struct {
	repo      domain.AccountRepository
	hasher    security.PasswordHasher
	metrics   *metrics.Metrics
	passwords PasswordGenerator
	suffixes  func() (string, error)
}

func NewProvisioningService(repo domain.AccountRepository, hasher security.PasswordHasher, m *metrics.Metrics) *ProvisioningService {
	return &ProvisioningService{
		repo:      repo,
		hasher:    hasher,
		metrics:   m,
		passwords: randomPassword,
		suffixes:  randomSuffix,
	}
}

// Provision returns the account linked to the application, creating it on first call.
// It joins the transaction carried by ctx. A second call, or one that loses a concurrent
// race on the application_id unique index, returns the existing account with Created=false.
func (s *ProvisioningService) Provision(ctx context.Context, req domain.ProvisionRequest) (*domain.ProvisionResult, error) {
	if req.ApplicationID == "" {
		return nil, apperr.Validation("application id is required")
	}

	existing, err := s.repo.GetByApplicationID(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info(ctx, "account already provisioned", "application_id", req.ApplicationID, "account_id", existing.ID)
		return &domain.ProvisionResult{Account: existing}, nil
	}

	password, err := s.passwords()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	account := domain.NewDistributorAccount(req, hash)

	taken, err := s.repo.UsernameTaken(ctx, account.Username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		existing, err := s.repo.GetByApplicationID(ctx, req.ApplicationID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &domain.ProvisionResult{Account: existing}, nil
		}
		if err := s.claimSuffixedUsername(ctx, account); err != nil {
			return nil, err
		}
	}
	taken, err = s.repo.EmailTaken(ctx, account.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return s.resolveConflict(ctx, req.ApplicationID, apperr.Conflict("email "+account.Email+" is already in use").WithField("email", "already registered"))
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if !db.IsDuplicate(err) {
			return nil, err
		}
		return s.resolveConflict(ctx, req.ApplicationID, apperr.Wrap(apperr.CodeConflict, "username or email is already in use", err))
	}

	s.metrics.RecordProvisioned()
	logger.Info(ctx, "distributor account provisioned",
		"application_id", req.ApplicationID,
		"account_id", account.ID,
		"username", account.Username,
	)
	return &domain.ProvisionResult{Account: account, Created: true, Password: password}, nil
}

// claimSuffixedUsername moves account to the derived username plus a random suffix
// when an unrelated account already holds the derived one. A placeholder email
// follows the username.
func (s *ProvisioningService) claimSuffixedUsername(ctx context.Context, account *domain.Account) error {
	base := account.Username
	placeholder := account.Email == domain.DefaultEmail(base)
	for i := 0; i < usernameSuffixAttempts; i++ {
		suffix, err := s.suffixes()
		if err != nil {
			return err
		}
		candidate := base + "_" + suffix
		taken, err := s.repo.UsernameTaken(ctx, candidate, "")
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		account.Username = candidate
		if placeholder {
			account.Email = domain.DefaultEmail(candidate)
		}
		logger.Warn(ctx, "derived username in use, provisioning with suffix",
			"application_id", *account.ApplicationID,
			"username", candidate,
		)
		return nil
	}
	return apperr.Conflict("username " + base + " is already in use")
}

// resolveConflict returns the account a concurrent call created for the same application,
// or conflict when the clash is with an unrelated account.
func (s *ProvisioningService) resolveConflict(ctx context.Context, applicationID string, conflict *apperr.Error) (*domain.ProvisionResult, error) {
	existing, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, conflict
	}
	logger.Info(ctx, "concurrent provisioning resolved to existing account", "application_id", applicationID, "account_id", existing.ID)
	return &domain.ProvisionResult{Account: existing}, nil
}
