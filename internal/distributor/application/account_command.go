package application

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
	"github.com/wyfcoding/distributorhub/pkg/security"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

const minPasswordLength = 8

// SaveCredentialsCommand replaces login fields and the category set of an account.
type SaveCredentialsCommand struct {
	AccountID string
	Username  string
	Email     string
	// Password is optional; empty keeps the current password.
	Password    string
	CategoryIDs []string
	Actor       string
}

// ResetResult plaintext credentials, returned exactly once
type ResetResult struct {
	Account  *domain.Account
	Username string
	Password string
}

// AccountCommandService credential and activation changes
type AccountCommandService struct {
	repo       domain.AccountRepository
	categories domain.CategoryDirectory
	hasher     security.PasswordHasher
	tx         db.Transactor
	notifier   Notifier
	metrics    *metrics.Metrics
	portalURL  string
	passwords  PasswordGenerator
	now        func() time.Time
}

func NewAccountCommandService(
	repo domain.AccountRepository,
	categories domain.CategoryDirectory,
	hasher security.PasswordHasher,
	tx db.Transactor,
	notifier Notifier,
	m *metrics.Metrics,
	portalURL string,
) *AccountCommandService {
	return &AccountCommandService{
		repo:       repo,
		categories: categories,
		hasher:     hasher,
		tx:         tx,
		notifier:   notifier,
		metrics:    m,
		portalURL:  portalURL,
		passwords:  randomPassword,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func validateCredentials(cmd *SaveCredentialsCommand) error {
	cmd.Username = strings.TrimSpace(cmd.Username)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))

	verr := apperr.Validation("invalid credentials payload")
	if !usernamePattern.MatchString(cmd.Username) {
		verr.WithField("username", "must be 3-64 characters of letters, digits, '_', '.' or '-'")
	}
	if cmd.Email == "" || !strings.Contains(cmd.Email, "@") {
		verr.WithField("email", "must be a valid email address")
	}
	if cmd.Password != "" && len(cmd.Password) < minPasswordLength {
		verr.WithField("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SaveCredentials updates login fields and replaces the full category set in one
// transaction. An empty CategoryIDs clears every assignment.
func (s *AccountCommandService) SaveCredentials(ctx context.Context, cmd SaveCredentialsCommand) (*domain.Account, error) {
	if err := validateCredentials(&cmd); err != nil {
		return nil, err
	}
	categoryIDs := dedupe(cmd.CategoryIDs)

	var passwordHash *string
	if cmd.Password != "" {
		h, err := s.hasher.Hash(cmd.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &h
	}

	var saved *domain.Account
	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		account, err := s.repo.Get(txCtx, cmd.AccountID)
		if err != nil {
			return err
		}
		if account == nil || !account.IsDistributor() {
			return apperr.NotFound("distributor account not found")
		}

		if taken, err := s.repo.UsernameTaken(txCtx, cmd.Username, account.ID); err != nil {
			return err
		} else if taken {
			return apperr.Conflict("username is already in use").WithField("username", "already in use")
		}
		if taken, err := s.repo.EmailTaken(txCtx, cmd.Email, account.ID); err != nil {
			return err
		} else if taken {
			return apperr.Conflict("email is already in use").WithField("email", "already in use")
		}

		if err := s.checkCategories(txCtx, categoryIDs); err != nil {
			return err
		}

		if err := s.repo.UpdateLogin(txCtx, account.ID, domain.LoginUpdate{
			Username:     cmd.Username,
			Email:        cmd.Email,
			PasswordHash: passwordHash,
		}); err != nil {
			return err
		}

		now := s.now()
		assignments := make([]domain.CategoryAssignment, 0, len(categoryIDs))
		for _, id := range categoryIDs {
			assignments = append(assignments, domain.CategoryAssignment{
				AccountID:  account.ID,
				CategoryID: id,
				AssignedBy: cmd.Actor,
				AssignedAt: now,
			})
		}
		if err := s.repo.ReplaceCategories(txCtx, account.ID, assignments); err != nil {
			return err
		}

		saved, err = s.repo.Get(txCtx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCredentialChange("save")
	logger.Info(ctx, "distributor credentials saved",
		"account_id", saved.ID,
		"actor", cmd.Actor,
		"categories", len(categoryIDs),
		"password_changed", passwordHash != nil,
	)
	return saved, nil
}

func (s *AccountCommandService) checkCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.categories.Lookup(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(found))
	for _, c := range found {
		known[c.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	verr := apperr.Validation("unknown category ids")
	for _, id := range missing {
		verr.WithField("categoryIds", "unknown category "+id)
	}
	return verr
}

const resetUsernameAttempts = 5

// ResetCredentials assigns a random username and password. Category assignments are kept.
func (s *AccountCommandService) ResetCredentials(ctx context.Context, accountID, actor string) (*ResetResult, error) {
	password, err := s.passwords()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	var result *ResetResult
	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		account, err := s.repo.Get(txCtx, accountID)
		if err != nil {
			return err
		}
		if account == nil || !account.IsDistributor() {
			return apperr.NotFound("distributor account not found")
		}

		username, err := s.freeUsername(txCtx, account.ID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateLogin(txCtx, account.ID, domain.LoginUpdate{
			Username:     username,
			Email:        account.Email,
			PasswordHash: &hash,
		}); err != nil {
			return err
		}
		account.Username = username
		account.PasswordHash = hash
		result = &ResetResult{Account: account, Username: username, Password: password}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCredentialChange("reset")
	logger.Info(ctx, "distributor credentials reset", "account_id", accountID, "actor", actor)

	if msg, ok := credentialsResetMessage(result.Account, result.Password, s.portalURL); ok {
		s.notifier.Notify(ctx, msg)
	}
	return result, nil
}

func (s *AccountCommandService) freeUsername(ctx context.Context, excludeID string) (string, error) {
	for i := 0; i < resetUsernameAttempts; i++ {
		suffix, err := utils.RandHex(4)
		if err != nil {
			return "", err
		}
		candidate := domain.UsernamePrefix + suffix
		taken, err := s.repo.UsernameTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("could not allocate a unique username")
}

// Activate enables login; an already active account is an InvalidState error.
func (s *AccountCommandService) Activate(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.toggle(ctx, accountID, (*domain.Account).Activate)
}

// Deactivate disables login; an already inactive account is an InvalidState error.
func (s *AccountCommandService) Deactivate(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.toggle(ctx, accountID, (*domain.Account).Deactivate)
}

func (s *AccountCommandService) toggle(ctx context.Context, accountID string, change func(*domain.Account) error) (*domain.Account, error) {
	var account *domain.Account
	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.repo.Get(txCtx, accountID)
		if err != nil {
			return err
		}
		if account == nil || !account.IsDistributor() {
			return apperr.NotFound("distributor account not found")
		}
		if err := change(account); err != nil {
			return err
		}
		return s.repo.SetActive(txCtx, account.ID, account.IsActive)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "distributor account toggled", "account_id", account.ID, "active", account.IsActive)
	return account, nil
}
