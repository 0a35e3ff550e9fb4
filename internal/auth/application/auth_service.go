// Package application login, token verification and admin seeding
package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/distributorhub/internal/auth/domain"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/security"
)

// LoginCommand identifier is a username or an email.
type LoginCommand struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResult issued token and the signed-in account
type LoginResult struct {
	Token     string                     `json:"token"`
	Type      string                     `json:"type"`
	ExpiresAt time.Time                  `json:"expiresAt"`
	Account   *distributordomain.Account `json:"account"`
}

// AdminSeed bootstrap administrator
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// AuthService authentication over the shared accounts table
type AuthService struct {
	accounts distributordomain.AccountRepository
	hasher   security.PasswordHasher
	tokens   *security.TokenManager
	now      func() time.Time
}

// NewAuthService creates the authentication service.
func NewAuthService(accounts distributordomain.AccountRepository, hasher security.PasswordHasher, tokens *security.TokenManager) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var errInvalidCredentials = apperr.Unauthenticated("invalid credentials")

// Login verifies the password and issues a token. Inactive accounts are refused.
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	account, err := s.accounts.GetByLogin(ctx, cmd.Identifier)
	if err != nil {
		return nil, err
	}
	if account == nil || !s.hasher.Compare(account.PasswordHash, cmd.Password) {
		logger.Warn(ctx, "login rejected", "identifier", strings.TrimSpace(cmd.Identifier))
		return nil, errInvalidCredentials
	}
	if !account.IsActive {
		return nil, apperr.Unauthenticated("account is inactive")
	}

	token, exp, err := s.tokens.Issue(account.ID, account.Username, string(account.Role))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		logger.Warn(ctx, "failed to record last login", "account_id", account.ID, "error", err)
	} else {
		account.LastLoginAt = &now
	}

	logger.Info(ctx, "user logged in", "account_id", account.ID, "role", account.Role)
	return &LoginResult{Token: token, Type: "Bearer", ExpiresAt: exp, Account: account}, nil
}

// Authenticate resolves a bearer token to its principal. The account must still exist
// and be active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "invalid or expired token", err)
	}
	account, err := s.accounts.Get(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsActive {
		return nil, apperr.Unauthenticated("account is no longer active")
	}
	return &domain.Principal{UserID: account.ID, Username: account.Username, Role: account.Role}, nil
}

// Me returns the account of the principal.
func (s *AuthService) Me(ctx context.Context, p *domain.Principal) (*distributordomain.Account, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	account, err := s.accounts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("account not found")
	}
	return account, nil
}

// EnsureAdmin creates the administrator account unless the username or email exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	if seed.Username == "" || seed.Password == "" {
		return false, nil
	}
	email := seed.Email
	if email == "" {
		email = seed.Username + "@" + distributordomain.DefaultEmailDomain
	}

	if taken, err := s.accounts.UsernameTaken(ctx, seed.Username, ""); err != nil || taken {
		return false, err
	}
	if taken, err := s.accounts.EmailTaken(ctx, email, ""); err != nil || taken {
		return false, err
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return false, err
	}
	admin := &distributordomain.Account{
		ID:           uuid.NewString(),
		Username:     seed.Username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return false, err
	}
	logger.Info(ctx, "admin account seeded", "account_id", admin.ID, "username", admin.Username)
	return true, nil
}
