package domain

import (
	"context"
	"time"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
)

// AccountFilter list criteria
type AccountFilter struct {
	Role     authdomain.Role
	IsActive *bool
	// Search matches username, email, company name or first/last name.
	Search string
	Page   int
	Limit  int
}

// LoginUpdate new login fields; a nil PasswordHash keeps the current password.
type LoginUpdate struct {
	Username     string
	Email        string
	PasswordHash *string
}

// AccountRepository persistence of accounts. Methods join the transaction carried by ctx.
// Getters return (nil, nil) when nothing matches.
type AccountRepository interface {
	// Create inserts the account with its profile and documents.
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*Account, error)
	// GetByLogin looks an account up by username or email.
	GetByLogin(ctx context.Context, identifier string) (*Account, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UpdateLogin(ctx context.Context, id string, update LoginUpdate) error
	SetActive(ctx context.Context, id string, active bool) error
	// ReplaceCategories deletes every assignment of the account and inserts the given set.
	ReplaceCategories(ctx context.Context, accountID string, assignments []CategoryAssignment) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter AccountFilter) ([]*Account, int64, error)
}

// CategoryRef summary of a catalog category
type CategoryRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
}

// CategoryDirectory resolves category ids owned by the catalog.
type CategoryDirectory interface {
	// Lookup returns the categories among ids that exist; unknown ids are left out.
	Lookup(ctx context.Context, ids []string) ([]CategoryRef, error)
}
