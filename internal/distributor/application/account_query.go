package application

import (
	"context"
	"time"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

// AssignedCategory category assignment joined with its catalog entry
type AssignedCategory struct {
	domain.CategoryRef
	AssignedBy string    `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

// CredentialsView login fields with the password always masked
type CredentialsView struct {
	AccountID  string             `json:"accountId"`
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	Password   string             `json:"password"`
	IsActive   bool               `json:"isActive"`
	Categories []AssignedCategory `json:"categories"`
}

// AccountQueryService read side of distributor accounts
type AccountQueryService struct {
	repo       domain.AccountRepository
	categories domain.CategoryDirectory
}

func NewAccountQueryService(repo domain.AccountRepository, categories domain.CategoryDirectory) *AccountQueryService {
	return &AccountQueryService{repo: repo, categories: categories}
}

func (s *AccountQueryService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsDistributor() {
		return nil, apperr.NotFound("distributor account not found")
	}
	return account, nil
}

func (s *AccountQueryService) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, int64, error) {
	return s.repo.List(ctx, filter)
}

// GetCredentials returns the login fields and assigned categories of the account.
func (s *AccountQueryService) GetCredentials(ctx context.Context, id string) (*CredentialsView, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	refs, err := s.categories.Lookup(ctx, account.CategoryIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.CategoryRef, len(refs))
	for _, r := range refs {
		byID[r.ID] = r
	}

	assigned := make([]AssignedCategory, 0, len(account.Categories))
	for _, a := range account.Categories {
		ref, ok := byID[a.CategoryID]
		if !ok {
			ref = domain.CategoryRef{ID: a.CategoryID}
		}
		assigned = append(assigned, AssignedCategory{CategoryRef: ref, AssignedBy: a.AssignedBy, AssignedAt: a.AssignedAt})
	}

	return &CredentialsView{
		AccountID:  account.ID,
		Username:   account.Username,
		Email:      account.Email,
		Password:   domain.MaskedPassword,
		IsActive:   account.IsActive,
		Categories: assigned,
	}, nil
}

// AssignedCategoryIDs ids of the categories visible to the account.
func (s *AccountQueryService) AssignedCategoryIDs(ctx context.Context, accountID string) ([]string, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.CategoryIDs(), nil
}
